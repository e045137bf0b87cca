package trainerdto

// DomainError is what the presenter shows for a failed request. Code selects
// the message template.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "training service error"
}

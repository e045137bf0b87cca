package util

import (
	"strings"
	"unicode/utf8"
)

const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
	// KakaoMessageLimit is the longest reply, in runes, sent as one message.
	KakaoMessageLimit = 4000
)

// ApplyKakaoSeeMorePadding 는 instruction 뒤에 제로폭 문자를 채워 본문을 '전체보기' 아래로 접는다.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sep := "\n"
	if strings.HasPrefix(text, "\n") {
		sep = ""
	}
	return strings.TrimSpace(instruction) + strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding) + sep + text
}

// StripLeadingHeader 는 본문 첫 줄이 header 와 같으면 그 줄과 뒤따르는 빈 줄을 지운다.
func StripLeadingHeader(text, header string) string {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(text, header) {
		return text
	}
	rest := text[len(header):]
	for i := 0; i < 2; i++ {
		switch {
		case strings.HasPrefix(rest, "\r\n"):
			rest = rest[2:]
		case strings.HasPrefix(rest, "\n"):
			rest = rest[1:]
		}
	}
	return rest
}

// ApplySeeMoreWithHeader 는 header(없으면 fallback)+suffix 를 접힘 안내로 쓰고 본문에서 중복 헤더를 뺀다.
func ApplySeeMoreWithHeader(text, header, fallback, suffix string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	instruction := strings.TrimSpace(header)
	if instruction != "" {
		instruction += suffix
	} else {
		instruction = strings.TrimSpace(fallback)
	}
	return ApplyKakaoSeeMorePadding(StripLeadingHeader(text, header), instruction)
}

// SplitMessage cuts text into parts of at most limit runes, breaking after a
// newline when one falls inside the window. Zero or negative limit disables it.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var parts []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}
		parts = append(parts, strings.TrimRight(text[:cut], "\n"))
		text = text[cut:]
	}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, text)
	}
	return parts
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

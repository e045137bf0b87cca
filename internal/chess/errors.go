package chess

import "errors"

var (
	ErrInvalidSquare     = errors.New("chess: invalid square")
	ErrInvalidFEN        = errors.New("chess: invalid fen")
	ErrInvalidPosition   = errors.New("chess: invalid position")
	ErrNoPiece           = errors.New("chess: no piece on square")
	ErrWrongSide         = errors.New("chess: piece belongs to the side not on move")
	ErrIllegalMove       = errors.New("chess: illegal move")
	ErrPromotionRequired = errors.New("chess: promotion piece required")
	ErrInvalidPromotion  = errors.New("chess: invalid promotion")
	ErrInvalidNotation   = errors.New("chess: invalid notation")
	ErrAmbiguousNotation = errors.New("chess: ambiguous notation")
	ErrNoHistory         = errors.New("chess: no history entry")
)

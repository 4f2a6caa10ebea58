package ledger

import "errors"

// Domain errors. The HTTP layer maps these to status codes; everything
// here is request-scoped and recoverable.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidSymbol      = errors.New("empty symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientAssets = errors.New("not enough assets to sell")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

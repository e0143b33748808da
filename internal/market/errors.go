package market

import "errors"

// Operation errors surfaced to the session/HTTP boundary. All of them are
// recoverable: the failing operation leaves shared state untouched, with the
// single documented exception of a persistence failure after an in-memory
// mutation (see Ledger.persist).
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrAccountNotFound     = errors.New("account not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrAlreadyProcessed    = errors.New("purchase already processed")
	ErrPersistence         = errors.New("could not persist record")
)

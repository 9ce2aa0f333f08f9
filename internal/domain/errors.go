package domain

import "errors"

// Business errors. Everything else returned by a store or service is an
// infrastructure failure and is never partially applied.
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrAlreadyReturned    = errors.New("loan already returned")
	ErrSessionAlreadyOpen = errors.New("inventory session already open for antenna")
	ErrSessionNotOpen     = errors.New("inventory session not open")
	ErrStockItemInUse     = errors.New("stock item referenced by open loans")
)

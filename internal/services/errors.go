package services

import "errors"

// Error taxonomy for the order/wallet subsystem. Handlers branch on these
// with errors.Is to pick a response status; services wrap them with
// request context via fmt.Errorf.
var (
	// ErrValidation marks a request rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing order, wallet, user or product.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an authorization failure, e.g. a buyer cancelling
	// another buyer's order.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition marks a status change the state machine rejects.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrLedgerBooking marks a partial failure: the order write succeeded
	// but a subsequent ledger write (revenue, wallet or transaction) did
	// not. The order is NOT retracted; the reconciliation job repairs the
	// missing bookkeeping out of band.
	ErrLedgerBooking = errors.New("ledger booking incomplete")
)

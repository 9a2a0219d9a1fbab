package repositories

import "errors"

// Sentinel errors returned (wrapped) by repository implementations so that
// callers can branch with errors.Is instead of matching message strings.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique-key conflict (tracking number,
	// username, wallet seller_id).
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientPending indicates a pending-to-balance release was
	// refused because it would drive the pending amount negative.
	ErrInsufficientPending = errors.New("insufficient pending funds")
	// ErrStaleStatus indicates a guarded status update matched no row:
	// the order was not in the expected current status.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

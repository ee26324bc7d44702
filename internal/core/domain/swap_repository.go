package domain

import "context"

// SwapRepository is the abstraction for any kind of database intended to
// persist swap sessions, keyed by swap id.
type SwapRepository interface {
	// AddSwap stores a new session.
	AddSwap(ctx context.Context, swap *SwapSession) error
	// GetSwap returns the session with the given id or ErrSwapNotFound.
	GetSwap(ctx context.Context, id string) (*SwapSession, error)
	// GetAllSwaps returns all stored sessions, archived ones included.
	GetAllSwaps(ctx context.Context) ([]*SwapSession, error)
	// GetActiveSwaps returns the sessions neither finished nor refunded.
	GetActiveSwaps(ctx context.Context) ([]*SwapSession, error)
	// UpdateSwap allows to commit multiple changes to the same session in a
	// transactional way. Nothing is written if updateFn fails.
	UpdateSwap(
		ctx context.Context,
		id string,
		updateFn func(s *SwapSession) (*SwapSession, error),
	) error
}

package ports

import "context"

// FlowState is the view a swap flow has of its own swap.
type FlowState struct {
	IsFinished bool
	IsRefunded bool
}

// RefundFlow is the swap flow exclusively owned by a swap session, able to
// broadcast the on-chain refund path. Retrying a failed refund is up to the
// flow itself.
type RefundFlow interface {
	State() FlowState
	TryRefund(ctx context.Context) error
}

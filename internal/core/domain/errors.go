package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAsset is returned when an asset ticker is not in the supported set.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrNetwork is the sentinel matched by every NetworkError.
	ErrNetwork = errors.New("network error")
	// ErrInsufficientFunds is the sentinel matched by every InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBroadcastRejected is the sentinel matched by every BroadcastRejectedError.
	ErrBroadcastRejected = errors.New("broadcast rejected")
	// ErrInvalidTransition is the sentinel matched by every InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSessionFrozen is returned when an event is applied to a session that
	// was frozen after a protocol desync.
	ErrSessionFrozen = errors.New("swap session is frozen pending reconciliation")
	// ErrSwapNotFound is returned by repositories when no session matches an id.
	ErrSwapNotFound = errors.New("swap session not found")
	// ErrInvalidUnspent ...
	ErrInvalidUnspent = errors.New("unspent output value must be positive")
	// ErrInvalidFeeSchedule ...
	ErrInvalidFeeSchedule = errors.New("fee schedule tiers must be non decreasing")
	// ErrFeeRateBelowFloor ...
	ErrFeeRateBelowFloor = errors.New("fee rate is below the default floor of the asset")
	// ErrInvalidOrderAmount ...
	ErrInvalidOrderAmount = errors.New("order amounts must be positive")
)

// NetworkError is a transient failure talking to a remote collaborator. It is
// always safe to retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// NewNetworkError wraps err as a retryable network failure of operation op.
func NewNetworkError(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// InsufficientFundsError reports that the visible unspent set of an address
// cannot cover amount plus fee.
type InsufficientFundsError struct {
	Available uint64
	Required  uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: available %d sats, required %d sats",
		e.Available, e.Required,
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// BroadcastRejectedError carries the reason given by the upstream node or
// explorer when refusing a transaction.
type BroadcastRejectedError struct {
	Reason string
}

func (e *BroadcastRejectedError) Error() string {
	return fmt.Sprintf("broadcast rejected: %s", e.Reason)
}

func (e *BroadcastRejectedError) Is(target error) bool {
	return target == ErrBroadcastRejected
}

// InvalidTransitionError is returned when an event is not valid for the
// current step of a swap session.
type InvalidTransitionError struct {
	SwapID string
	Step   Step
	Event  EventType
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf(
		"swap %s: event %s not allowed at step %d", e.SwapID, e.Event, e.Step,
	)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

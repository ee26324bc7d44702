package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role is the part played by the local party in a swap.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// Step is the progress of a swap session.
type Step int

const (
	StepNegotiating Step = iota
	StepConfirmationPending
	StepPrimaryDeposited
	StepDepositConfirming
	StepDepositConfirmed
	StepCounterDeposited
	StepWithdrawBroadcast
	StepFinished
)

// EventType identifies what happened on chain or on the peer channel.
type EventType string

const (
	EventConfirm           EventType = "confirm"
	EventPrimaryDeposited  EventType = "primary_deposited"
	EventDepositConfirmed  EventType = "deposit_confirmed"
	EventCounterDeposited  EventType = "counter_deposited"
	EventWithdrawBroadcast EventType = "withdraw_broadcast"
	EventWithdrawConfirmed EventType = "withdraw_confirmed"
	EventRefunded          EventType = "refunded"
)

// Event drives a swap session from one step to the next. LockTime and
// RefundTxHex are only meaningful for EventPrimaryDeposited: the former is the
// unix time after which the primary deposit becomes refundable, the latter
// the pre-signed transaction spending it back.
type Event struct {
	Type        EventType
	LockTime    int64
	RefundTxHex string
}

// SwapSession is the state of a single swap. It must be mutated only through
// Advance, Freeze and Reconcile.
type SwapSession struct {
	ID                 string
	Role               Role
	CounterpartyPeerID string
	SellCurrency       Asset
	SellAmount         decimal.Decimal
	BuyCurrency        Asset
	BuyAmount          decimal.Decimal
	Step               Step
	LockTimeUnix       *int64
	IsFinished         bool
	IsRefunded         bool
	Frozen             bool
	RefundTxHex        string
	CreatedAt          int64
	UpdatedAt          int64
}

// NewSwapSession returns a session at the negotiating step for an accepted
// order.
func NewSwapSession(
	role Role, peerID string,
	sellCurrency Asset, sellAmount decimal.Decimal,
	buyCurrency Asset, buyAmount decimal.Decimal,
) *SwapSession {
	now := time.Now().Unix()
	return &SwapSession{
		ID:                 uuid.New().String(),
		Role:               role,
		CounterpartyPeerID: peerID,
		SellCurrency:       sellCurrency,
		SellAmount:         sellAmount,
		BuyCurrency:        buyCurrency,
		BuyAmount:          buyAmount,
		Step:               StepNegotiating,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// IsTerminal returns whether the session is either finished or refunded.
func (s *SwapSession) IsTerminal() bool {
	return s.IsFinished || s.IsRefunded
}

// IsRefundable returns whether the lock time of the session is set and has
// passed at the given time.
func (s *SwapSession) IsRefundable(now time.Time) bool {
	if s.LockTimeUnix == nil || s.IsTerminal() {
		return false
	}
	return now.Unix() > *s.LockTimeUnix
}

// Advance applies the event to the session. It fails with an
// InvalidTransitionError if the event is not valid for the current step,
// leaving the session untouched.
func (s *SwapSession) Advance(ev Event) error {
	if s.IsTerminal() {
		reason := "session is finished"
		if s.IsRefunded {
			reason = "session is refunded"
		}
		return s.invalid(ev, reason)
	}

	switch ev.Type {
	case EventConfirm:
		if s.Step != StepNegotiating {
			return s.invalid(ev, "")
		}
		s.Step = StepConfirmationPending

	case EventPrimaryDeposited:
		if s.Step != StepConfirmationPending {
			return s.invalid(ev, "")
		}
		if ev.LockTime <= 0 {
			return s.invalid(ev, "missing lock time")
		}
		lockTime := ev.LockTime
		s.LockTimeUnix = &lockTime
		if ev.RefundTxHex != "" {
			s.RefundTxHex = ev.RefundTxHex
		}
		s.Step = StepPrimaryDeposited

	case EventDepositConfirmed:
		if s.Step != StepPrimaryDeposited && s.Step != StepDepositConfirming {
			return s.invalid(ev, "")
		}
		s.Step++

	case EventCounterDeposited:
		if s.Step != StepDepositConfirmed {
			return s.invalid(ev, "")
		}
		s.Step = StepCounterDeposited

	case EventWithdrawBroadcast:
		if s.Step != StepCounterDeposited {
			return s.invalid(ev, "")
		}
		s.Step = StepWithdrawBroadcast

	case EventWithdrawConfirmed:
		if s.Step != StepWithdrawBroadcast {
			return s.invalid(ev, "")
		}
		s.Step = StepFinished
		s.IsFinished = true

	case EventRefunded:
		if s.Step < StepPrimaryDeposited {
			return s.invalid(ev, "nothing deposited yet")
		}
		s.IsRefunded = true

	default:
		return s.invalid(ev, "unknown event")
	}

	s.UpdatedAt = time.Now().Unix()
	return nil
}

// Freeze stops any further transition until Reconcile is called.
func (s *SwapSession) Freeze() {
	s.Frozen = true
	s.UpdatedAt = time.Now().Unix()
}

// Reconcile unfreezes the session after an external reconciliation moved it
// to the given step. Moving back before the primary deposit drops the lock
// time, since nothing is left to refund.
func (s *SwapSession) Reconcile(step Step) error {
	if step < StepNegotiating || step > StepFinished {
		return &InvalidTransitionError{
			SwapID: s.ID, Step: s.Step, Reason: "step out of range",
		}
	}
	if s.IsTerminal() {
		return s.invalid(Event{}, "session is closed")
	}
	s.Step = step
	s.IsFinished = step == StepFinished
	if step < StepPrimaryDeposited {
		s.LockTimeUnix = nil
	}
	s.Frozen = false
	s.UpdatedAt = time.Now().Unix()
	return nil
}

// Serialize encodes the session in JSON format.
func (s *SwapSession) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// DeserializeSwapSession is the inverse of Serialize.
func DeserializeSwapSession(buf []byte) (*SwapSession, error) {
	s := &SwapSession{}
	if err := json.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SwapSession) invalid(ev Event, reason string) error {
	return &InvalidTransitionError{
		SwapID: s.ID,
		Step:   s.Step,
		Event:  ev.Type,
		Reason: reason,
	}
}

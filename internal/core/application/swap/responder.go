package swap

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/application/matcher"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

// ProposalTTL is how long an accepted partial closure waits for the order
// request of the proposer.
const ProposalTTL = 2 * time.Minute

var (
	// ErrMissingSupervisor ...
	ErrMissingSupervisor = errors.New("missing swap supervisor")
	// ErrNotCounterparty ...
	ErrNotCounterparty = errors.New("sender is not the counterparty of the swap")
)

// EventMessage is the payload of a swap event notified by the counterparty.
type EventMessage struct {
	SwapID      string           `json:"swapId"`
	Type        domain.EventType `json:"type"`
	LockTime    int64            `json:"lockTime,omitempty"`
	RefundTxHex string           `json:"refundTxHex,omitempty"`
}

// EventResult is the answer to a swap event.
type EventResult struct {
	Step       domain.Step `json:"step"`
	IsFinished bool        `json:"isFinished"`
	IsRefunded bool        `json:"isRefunded"`
}

// NewAcceptedSession returns the session of the swap agreed on the derived
// order with the given id. Both parties identify the swap by that id.
func NewAcceptedSession(
	orderID string, role domain.Role, peerID string,
	sellCurrency domain.Asset, sellAmount decimal.Decimal,
	buyCurrency domain.Asset, buyAmount decimal.Decimal,
) *domain.SwapSession {
	session := domain.NewSwapSession(
		role, peerID, sellCurrency, sellAmount, buyCurrency, buyAmount,
	)
	session.ID = orderID
	return session
}

type proposal struct {
	peerID    string
	order     matcher.PartialOrder
	expiresAt time.Time
}

// Responder serves the peers proposing to partially fill the local orders.
// An accepted proposal becomes a swap session, supervised from the order
// request of the proposer on and driven by the events it notifies.
type Responder struct {
	supervisor *Supervisor
	book       ports.OrderBook

	lock      *sync.Mutex
	proposals map[string]proposal
	now       func() time.Time
}

func NewResponder(
	supervisor *Supervisor, book ports.OrderBook,
) (*Responder, error) {
	if supervisor == nil {
		return nil, ErrMissingSupervisor
	}
	if book == nil {
		return nil, matcher.ErrMissingOrderBook
	}
	return &Responder{
		supervisor: supervisor,
		book:       book,
		lock:       &sync.Mutex{},
		proposals:  make(map[string]proposal),
		now:        time.Now,
	}, nil
}

// HandlePartialClosure answers with the id of the derived order if the
// proposal fills a local order at no worse rate, false otherwise.
func (r *Responder) HandlePartialClosure() ports.PeerHandler {
	return func(
		ctx context.Context, fromPeerID string, payload json.RawMessage,
	) (interface{}, error) {
		req := matcher.PartialClosureRequest{}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}

		logger := log.WithFields(log.Fields{
			"peer_id": fromPeerID, "order": req.OrderID,
		})

		order, err := r.localOrder(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil || !canFill(*order, req.Order) {
			logger.Debug("declined partial closure request")
			return false, nil
		}

		id := uuid.New().String()
		r.lock.Lock()
		r.prune()
		r.proposals[id] = proposal{
			peerID:    fromPeerID,
			order:     req.Order,
			expiresAt: r.now().Add(ProposalTTL),
		}
		r.lock.Unlock()

		logger.WithField("new_order", id).Info("partial closure proposed")
		return id, nil
	}
}

// HandleOrderRequest accepts a derived order proposed to the sender and
// starts supervising its swap.
func (r *Responder) HandleOrderRequest() ports.PeerHandler {
	return func(
		ctx context.Context, fromPeerID string, payload json.RawMessage,
	) (interface{}, error) {
		req := matcher.OrderRequest{}
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}

		r.lock.Lock()
		r.prune()
		p, ok := r.proposals[req.OrderID]
		if ok && p.peerID == fromPeerID {
			delete(r.proposals, req.OrderID)
		}
		r.lock.Unlock()

		if !ok || p.peerID != fromPeerID {
			log.WithFields(log.Fields{
				"peer_id": fromPeerID, "order": req.OrderID,
			}).Debug("declined order request")
			return false, nil
		}

		session := NewAcceptedSession(
			req.OrderID, domain.RoleResponder, fromPeerID,
			p.order.SellCurrency, p.order.SellAmount,
			p.order.BuyCurrency, p.order.BuyAmount,
		)
		if _, err := r.supervisor.Add(ctx, session); err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{
			"peer_id": fromPeerID, "swap_id": session.ID,
		}).Info("order accepted, swap started")
		return true, nil
	}
}

// HandleSwapEvent applies the event notified by the counterparty of a
// supervised swap.
func (r *Responder) HandleSwapEvent() ports.PeerHandler {
	return func(
		ctx context.Context, fromPeerID string, payload json.RawMessage,
	) (interface{}, error) {
		msg := EventMessage{}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}

		machine, ok := r.supervisor.Get(msg.SwapID)
		if !ok {
			return nil, ErrSwapNotSupervised
		}
		if machine.Session().CounterpartyPeerID != fromPeerID {
			return nil, ErrNotCounterparty
		}

		session, err := r.supervisor.Advance(ctx, msg.SwapID, domain.Event{
			Type:        msg.Type,
			LockTime:    msg.LockTime,
			RefundTxHex: msg.RefundTxHex,
		})
		if err != nil {
			return nil, err
		}
		return EventResult{
			Step:       session.Step,
			IsFinished: session.IsFinished,
			IsRefunded: session.IsRefunded,
		}, nil
	}
}

func (r *Responder) localOrder(
	ctx context.Context, id string,
) (*domain.Order, error) {
	orders, err := r.book.Orders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if o := orders[i]; o.ID == id && o.IsMine {
			return &o, nil
		}
	}
	return nil, nil
}

// prune drops the expired proposals, the lock must be held.
func (r *Responder) prune() {
	now := r.now()
	for id, p := range r.proposals {
		if now.After(p.expiresAt) {
			delete(r.proposals, id)
		}
	}
}

// canFill returns whether the proposal, expressed from the owner's point of
// view, takes part of the order at its rate or better for the owner. Amounts
// are compared at satoshi precision.
func canFill(order domain.Order, p matcher.PartialOrder) bool {
	if !order.IsPartialClosureAllowed || order.Validate() != nil {
		return false
	}
	if p.SellCurrency != order.SellCurrency || p.BuyCurrency != order.BuyCurrency {
		return false
	}
	if !p.SellAmount.IsPositive() || !p.BuyAmount.IsPositive() {
		return false
	}
	if p.SellAmount.GreaterThan(order.SellAmount) ||
		p.BuyAmount.GreaterThan(order.BuyAmount) {
		return false
	}
	maxSellAmount := p.BuyAmount.Mul(order.SellAmount).Div(order.BuyAmount)
	return p.SellAmount.Round(8).LessThanOrEqual(maxSellAmount.Round(8))
}

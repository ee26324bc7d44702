package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
)

const (
	// DefaultMatchingInterval ...
	DefaultMatchingInterval = 2 * time.Second
	// DefaultDeclineResetDelay ...
	DefaultDeclineResetDelay = 5 * time.Second
)

var (
	// ErrUnknownSelectionPolicy ...
	ErrUnknownSelectionPolicy = errors.New("unknown match selection policy")
	// ErrMissingOrderBook ...
	ErrMissingOrderBook = errors.New("missing order book")
	// ErrMissingPeerChannel ...
	ErrMissingPeerChannel = errors.New("missing peer channel")
	// ErrSameCurrency ...
	ErrSameCurrency = errors.New("get and have currencies must differ")
	// ErrInvalidHaveAmount ...
	ErrInvalidHaveAmount = errors.New("have amount must be a positive number")
	// ErrNoMatch ...
	ErrNoMatch = errors.New("no counterparty selected yet")
	// ErrSessionClosed ...
	ErrSessionClosed = errors.New("matching session is closed")
	// ErrRequestPending ...
	ErrRequestPending = errors.New("a request is already pending")
)

// SessionState is the state of a matching session from the requester's
// point of view.
type SessionState int

const (
	StateSearching SessionState = iota
	StateRequesting
	StateDeclined
	StateAccepted
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateDeclined:
		return "declined"
	case StateAccepted:
		return "accepted"
	case StateClosed:
		return "closed"
	default:
		return "searching"
	}
}

// PartialOrder is the order proposed to the owner of a partially closable
// order, expressed from the owner's point of view.
type PartialOrder struct {
	SellCurrency           domain.Asset    `json:"sellCurrency"`
	BuyCurrency            domain.Asset    `json:"buyCurrency"`
	SellAmount             decimal.Decimal `json:"sellAmount"`
	BuyAmount              decimal.Decimal `json:"buyAmount"`
	DestinationSellAddress *string         `json:"destinationSellAddress"`
}

// PartialClosureRequest is the payload of a partial closure request.
type PartialClosureRequest struct {
	Order   PartialOrder `json:"order"`
	OrderID string       `json:"orderId"`
}

// OrderRequest is the payload of the second phase of a proposal, asking the
// counterparty to accept the order derived from the partial closure.
type OrderRequest struct {
	OrderID string `json:"orderId"`
}

// RequestResult ...
type RequestResult struct {
	Accepted bool
	OrderID  string
	PeerID   string
	// GetAmount is the amount of the get currency proposed to the peer.
	GetAmount decimal.Decimal
}

// SessionConfig ...
type SessionConfig struct {
	GetCurrency  domain.Asset
	HaveCurrency domain.Asset
	HaveAmount   decimal.Decimal
	Policy       SelectionPolicy
	// DestinationAddress is an optional address of the requester's where to
	// receive GetCurrency.
	DestinationAddress string

	Interval          time.Duration
	DeclineResetDelay time.Duration
}

func (c SessionConfig) validate() error {
	if !c.GetCurrency.IsValid() || !c.HaveCurrency.IsValid() {
		return domain.ErrUnknownAsset
	}
	if c.GetCurrency == c.HaveCurrency {
		return ErrSameCurrency
	}
	if !c.HaveAmount.IsPositive() {
		return ErrInvalidHaveAmount
	}
	switch c.Policy {
	case SelectBestRate, SelectLastQualifying:
	default:
		return ErrUnknownSelectionPolicy
	}
	return nil
}

// Session is a single open matching request. It periodically evaluates the
// partially closable orders of the book and publishes every outcome. A cycle
// still in flight when the next one is due makes the latter be skipped.
type Session struct {
	cfg     SessionConfig
	book    ports.OrderBook
	peers   ports.PeerChannel
	metrics ports.Metrics

	inFlight   atomic.Bool
	results    chan MatchOutcome
	ctx        context.Context
	cancel     context.CancelFunc
	wg         *sync.WaitGroup
	declineTmr *time.Timer

	lock    *sync.RWMutex
	state   SessionState
	last    *MatchOutcome
	started bool
}

func NewSession(
	book ports.OrderBook, peers ports.PeerChannel, cfg SessionConfig,
	metrics ports.Metrics,
) (*Session, error) {
	if book == nil {
		return nil, ErrMissingOrderBook
	}
	if peers == nil {
		return nil, ErrMissingPeerChannel
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultMatchingInterval
	}
	if cfg.DeclineResetDelay <= 0 {
		cfg.DeclineResetDelay = DefaultDeclineResetDelay
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:     cfg,
		book:    book,
		peers:   peers,
		metrics: metrics,
		results: make(chan MatchOutcome, 1),
		ctx:     ctx,
		cancel:  cancel,
		wg:      &sync.WaitGroup{},
		lock:    &sync.RWMutex{},
		state:   StateSearching,
	}, nil
}

// Start runs a first matching cycle right away and then one every interval
// until Close is called.
func (s *Session) Start() {
	s.lock.Lock()
	if s.started || s.state == StateClosed {
		s.lock.Unlock()
		return
	}
	s.started = true
	s.lock.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Results returns the channel where outcomes are published. Only the most
// recent outcome is kept if nobody reads from it. The channel is never
// closed.
func (s *Session) Results() <-chan MatchOutcome {
	return s.results
}

// Outcome returns the most recent outcome, if any.
func (s *Session) Outcome() (MatchOutcome, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.last == nil {
		return MatchOutcome{}, false
	}
	return *s.last, true
}

// State ...
func (s *Session) State() SessionState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Close stops the periodic matching. A cycle still in flight is not aborted
// but its result is discarded.
func (s *Session) Close() {
	s.lock.Lock()
	if s.state == StateClosed {
		s.lock.Unlock()
		return
	}
	s.state = StateClosed
	if s.declineTmr != nil {
		s.declineTmr.Stop()
	}
	s.lock.Unlock()

	s.cancel()
	s.wg.Wait()
}

// SendRequest proposes the partial closure of the selected order to its
// owner. A falsy answer, or a refusal in the following accept phase, puts
// the session in the declined state for a while.
func (s *Session) SendRequest(ctx context.Context) (*RequestResult, error) {
	s.lock.Lock()
	if s.state == StateClosed {
		s.lock.Unlock()
		return nil, ErrSessionClosed
	}
	if s.state == StateRequesting {
		s.lock.Unlock()
		return nil, ErrRequestPending
	}
	if s.last == nil || !s.last.IsMatched() {
		s.lock.Unlock()
		return nil, ErrNoMatch
	}
	outcome := *s.last
	s.state = StateRequesting
	s.lock.Unlock()

	var destination *string
	if s.cfg.DestinationAddress != "" {
		addr := s.cfg.DestinationAddress
		destination = &addr
	}
	req := PartialClosureRequest{
		Order: PartialOrder{
			SellCurrency:           s.cfg.GetCurrency,
			BuyCurrency:            s.cfg.HaveCurrency,
			SellAmount:             outcome.GetAmount,
			BuyAmount:              s.cfg.HaveAmount,
			DestinationSellAddress: destination,
		},
		OrderID: outcome.OrderID,
	}

	logger := log.WithFields(log.Fields{
		"peer":  outcome.PeerID,
		"order": outcome.OrderID,
	})

	resp, err := s.peers.Request(ctx, ports.PeerRequestPartialClosure, outcome.PeerID, req)
	if err != nil {
		s.setState(StateSearching)
		return nil, err
	}

	newOrderID := parseOrderID(resp)
	if newOrderID == "" {
		logger.Debug("partial closure declined")
		s.decline()
		return &RequestResult{PeerID: outcome.PeerID}, nil
	}

	resp, err = s.peers.Request(
		ctx, ports.PeerRequestOrder, outcome.PeerID, OrderRequest{newOrderID},
	)
	if err != nil {
		s.setState(StateSearching)
		return nil, err
	}

	if !parseBool(resp) {
		logger.WithField("new_order", newOrderID).Debug("order declined")
		s.decline()
		return &RequestResult{PeerID: outcome.PeerID, OrderID: newOrderID}, nil
	}

	logger.WithField("new_order", newOrderID).Info("order accepted")
	s.setState(StateAccepted)
	return &RequestResult{
		Accepted:  true,
		PeerID:    outcome.PeerID,
		OrderID:   newOrderID,
		GetAmount: outcome.GetAmount,
	}, nil
}

func (s *Session) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Debug("matching cycle still in flight, skipping tick")
		return
	}

	go func() {
		defer s.inFlight.Store(false)

		orders, err := s.book.Orders(context.Background())
		if err != nil {
			log.WithError(err).Warn("failed to read order book")
			return
		}

		partialOrders := make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			if o.IsPartialClosureAllowed {
				partialOrders = append(partialOrders, o)
			}
		}

		outcome := FindMatch(
			s.cfg.GetCurrency, s.cfg.HaveCurrency, s.cfg.HaveAmount,
			partialOrders, s.cfg.Policy,
		)
		s.publish(outcome)
	}()
}

func (s *Session) publish(outcome MatchOutcome) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == StateClosed {
		return
	}
	s.last = &outcome
	s.metrics.MatchOutcome(outcome.Kind.String())

	select {
	case s.results <- outcome:
	default:
		select {
		case <-s.results:
		default:
		}
		s.results <- outcome
	}
}

func (s *Session) setState(state SessionState) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != StateClosed {
		s.state = state
	}
}

func (s *Session) decline() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == StateClosed {
		return
	}
	s.state = StateDeclined
	if s.declineTmr != nil {
		s.declineTmr.Stop()
	}
	s.declineTmr = time.AfterFunc(s.cfg.DeclineResetDelay, func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		if s.state == StateDeclined {
			s.state = StateSearching
		}
	})
}

// parseOrderID returns the order id in the response, or an empty string for
// any falsy response.
func parseOrderID(resp json.RawMessage) string {
	var orderID string
	if err := json.Unmarshal(resp, &orderID); err != nil {
		return ""
	}
	return orderID
}

func parseBool(resp json.RawMessage) bool {
	var ok bool
	if err := json.Unmarshal(bytes.TrimSpace(resp), &ok); err != nil {
		return false
	}
	return ok
}

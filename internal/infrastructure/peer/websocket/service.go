package websocketpeer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/swaponline/swapd/internal/core/domain"
	"github.com/swaponline/swapd/internal/core/ports"
	"github.com/thanhpk/randstr"
)

const (
	writeWait = 10 * time.Second
	idLength  = 16
)

var (
	// ErrMissingPeerID ...
	ErrMissingPeerID = errors.New("missing local peer id")
	// ErrChannelClosed ...
	ErrChannelClosed = errors.New("peer channel is closed")
)

// RemoteError is the error returned by a peer while serving a request.
type RemoteError struct {
	PeerID string
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("peer %s: %s", e.PeerID, e.Reason)
}

// Service is a peer channel over a websocket connection to a relay. Every
// request is matched to its response by a random id.
type Service struct {
	selfID string
	conn   *websocket.Conn

	writeLock *sync.Mutex
	lock      *sync.RWMutex
	pending   map[string]chan envelope
	handlers  map[string]ports.PeerHandler
	closed    bool

	quitChan chan struct{}
	wg       *sync.WaitGroup
}

// NewService connects to the relay at the given url and announces selfID.
func NewService(url, selfID string) (*Service, error) {
	if selfID == "" {
		return nil, ErrMissingPeerID
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, domain.NewNetworkError("peer connect", err)
	}

	s := &Service{
		selfID:    selfID,
		conn:      conn,
		writeLock: &sync.Mutex{},
		lock:      &sync.RWMutex{},
		pending:   make(map[string]chan envelope),
		handlers:  make(map[string]ports.PeerHandler),
		quitChan:  make(chan struct{}),
		wg:        &sync.WaitGroup{},
	}

	if err := s.write(envelope{
		ID: randstr.Hex(idLength), Type: msgTypeHello, From: selfID,
	}); err != nil {
		conn.Close()
		return nil, domain.NewNetworkError("peer connect", err)
	}

	s.wg.Add(1)
	go s.listen()

	return s, nil
}

// PeerID returns the id this peer is known with by the relay.
func (s *Service) PeerID() string {
	return s.selfID
}

// Handle registers the handler for requests of the given kind.
func (s *Service) Handle(kind string, handler ports.PeerHandler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handlers[kind] = handler
}

// Request sends a request to the given peer and waits for its response
// until ctx is done.
func (s *Service) Request(
	ctx context.Context, kind, peerID string, payload interface{},
) (json.RawMessage, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	id := randstr.Hex(idLength)
	respChan := make(chan envelope, 1)

	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil, ErrChannelClosed
	}
	s.pending[id] = respChan
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		delete(s.pending, id)
		s.lock.Unlock()
	}()

	if err := s.write(envelope{
		ID:      id,
		Type:    msgTypeRequest,
		Kind:    kind,
		From:    s.selfID,
		To:      peerID,
		Payload: buf,
	}); err != nil {
		return nil, domain.NewNetworkError("peer request", err)
	}

	select {
	case <-ctx.Done():
		return nil, domain.NewNetworkError("peer request", ctx.Err())
	case <-s.quitChan:
		return nil, ErrChannelClosed
	case resp := <-respChan:
		if resp.Error != "" {
			return nil, &RemoteError{PeerID: peerID, Reason: resp.Error}
		}
		return resp.Payload, nil
	}
}

// Close closes the connection with the relay. Pending requests fail.
func (s *Service) Close() error {
	if s.shutdown() {
		s.writeLock.Lock()
		// nolint
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		s.writeLock.Unlock()
	}

	err := s.conn.Close()
	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Done returns a channel closed once the service stops, either because of
// Close or because the connection with the relay dropped.
func (s *Service) Done() <-chan struct{} {
	return s.quitChan
}

// shutdown marks the service as closed and makes pending requests fail with
// ErrChannelClosed. It returns false if the service was already closed.
func (s *Service) shutdown() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.quitChan)
	return true
}

func (s *Service) listen() {
	defer s.wg.Done()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if s.shutdown() {
				log.WithError(err).Warn("peer channel connection dropped")
			}
			return
		}

		msg := envelope{}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithError(err).Debug("skipping malformed peer message")
			continue
		}

		switch msg.Type {
		case msgTypeResponse:
			s.lock.RLock()
			respChan, ok := s.pending[msg.ID]
			s.lock.RUnlock()
			if ok {
				select {
				case respChan <- msg:
				default:
				}
			}
		case msgTypeRequest:
			if msg.From == s.selfID {
				log.Debug("skipping peer request sent with the local peer id")
				continue
			}
			s.wg.Add(1)
			go s.serve(msg)
		}
	}
}

func (s *Service) serve(req envelope) {
	defer s.wg.Done()

	resp := envelope{
		ID:   req.ID,
		Type: msgTypeResponse,
		Kind: req.Kind,
		From: s.selfID,
		To:   req.From,
	}

	s.lock.RLock()
	handler, ok := s.handlers[req.Kind]
	s.lock.RUnlock()

	if !ok {
		resp.Error = fmt.Sprintf("unsupported request %q", req.Kind)
	} else {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-s.quitChan:
				cancel()
			case <-ctx.Done():
			}
		}()
		res, err := handler(ctx, req.From, req.Payload)
		cancel()
		if err != nil {
			resp.Error = err.Error()
		} else if resp.Payload, err = json.Marshal(res); err != nil {
			resp.Error = err.Error()
		}
	}

	if err := s.write(resp); err != nil {
		log.WithError(err).WithField("peer", req.From).Debug(
			"failed to respond to peer request",
		)
	}
}

func (s *Service) write(msg envelope) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, buf)
}

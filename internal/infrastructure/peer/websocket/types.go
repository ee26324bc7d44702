package websocketpeer

import "encoding/json"

const (
	msgTypeHello    = "hello"
	msgTypeRequest  = "request"
	msgTypeResponse = "response"
)

// envelope is the message exchanged with the relay, which routes it to the
// peer identified by To.
type envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Kind    string          `json:"kind,omitempty"`
	From    string          `json:"from"`
	To      string          `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

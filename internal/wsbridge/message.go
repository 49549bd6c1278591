package wsbridge

import "time"

// Client message types.
const (
	TypeKey      = "key"
	TypeStop     = "stop"
	TypeSelect   = "select"
	TypeValue    = "value"
	TypeCategory = "category"
	TypeState    = "state"
)

// Server-only message types.
const (
	TypeReady = "ready"
	TypeError = "error"
)

// Request is a message from an embedder.
//
//	{"type":"key","code":"KeyG","mask":1}
//	{"type":"select","start":0,"end":2}
//	{"type":"value","value":"abc"}
//	{"type":"category","category":"hangul"}
//	{"type":"stop"} / {"type":"state"}
type Request struct {
	Type     string `json:"type"`
	Code     string `json:"code,omitempty"`
	Mask     uint8  `json:"mask,omitempty"`
	Start    int    `json:"start,omitempty"`
	End      int    `json:"end,omitempty"`
	Value    string `json:"value,omitempty"`
	Category string `json:"category,omitempty"`
}

// Reply is a message to an embedder. State replies carry the whole input so
// the embedder can mirror it; Consumed tells it whether to apply the key's
// default action itself.
type Reply struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Value     string    `json:"value"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Preedit   string    `json:"preedit,omitempty"`
	Consumed  bool      `json:"consumed,omitempty"`
	Category  string    `json:"category,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

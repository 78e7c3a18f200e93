package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
	ActionSync Action = "sync"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventTick    Event = "tick"
	EventExpired Event = "expired"
	EventPong    Event = "pong"
)

// TickResponse carries the authoritative remaining time for an attempt.
type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
	ServerUnix       int64 `json:"server_unix"`
}

// ExpiredResponse tells the client the deadline has passed and it should
// auto-submit immediately.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

package entity

import "time"

// SessionState describes where a wallet session currently is in the
// connect -> load -> render sequence.
type SessionState string

const (
	SessionDisconnected SessionState = "disconnected"
	SessionLoading      SessionState = "connected-loading"
	SessionRendering    SessionState = "connected-rendering"
)

// Session is the explicit wallet-connection context. Its lifecycle is
// tied to connect/disconnect events; every reconnect (including an
// address change) produces a new generation so that in-flight results
// tagged with an older generation can be discarded.
type Session struct {
	Address     string       `json:"address"`
	Generation  uint64       `json:"generation"`
	State       SessionState `json:"state"`
	ConnectedAt time.Time    `json:"connectedAt"`
}

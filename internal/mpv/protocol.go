// Package mpv implements the command/query channel to one player instance
// over its JSON IPC socket.
package mpv

import "encoding/json"

// request is one outbound IPC message. mpv echoes RequestID back in the
// matching response, which is what lets the client discard interleaved
// traffic instead of matching positionally.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// response is one inbound IPC message. Messages carrying Event are
// asynchronous notifications, not replies.
type response struct {
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int64           `json:"request_id,omitempty"`
	Event     string          `json:"event,omitempty"`
}

// statusSuccess is mpv's error field value for a successful command.
const statusSuccess = "success"

package server

import (
	"github.com/muurk/rev4switch/internal/protocol"
)

// Request actions
const (
	ActionSend    = "send"
	ActionReceive = "receive"
	ActionHelp    = "help"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Broadcast origins
const (
	OriginSender   = "sender"   // a client asked for a code to be sent
	OriginReceiver = "receiver" // a client reported a code it captured
)

// Request is what a client sends over the WebSocket.
//
//	{"action":"send","code":{"id":5,"unit":2,"on":1}}
//	{"action":"receive","pulses":[264,792,...],"pulse_length":264}
//	{"action":"help","seq":3}
//
// Seq is optional and echoed on the reply so a client can match replies to
// requests.
type Request struct {
	Seq         uint64         `json:"seq,omitempty"`
	Action      string         `json:"action"`
	Code        map[string]any `json:"code,omitempty"`
	Pulses      []int          `json:"pulses,omitempty"`
	PulseLength int            `json:"pulse_length,omitempty"`
}

// Response is both the direct reply to a Request and the broadcast fanned
// out to every client. Broadcasts carry Origin; replies carry Status.
type Response struct {
	Seq         uint64            `json:"seq,omitempty"`
	Status      string            `json:"status,omitempty"`
	Action      string            `json:"action,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	Protocol    string            `json:"protocol,omitempty"`
	Message     *protocol.Command `json:"message,omitempty"`
	Pulses      []int             `json:"pulses,omitempty"`
	PulseLength int               `json:"pulse_length,omitempty"`
	Help        string            `json:"help,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// IsBroadcast reports whether r was fanned out rather than sent as a reply.
func (r *Response) IsBroadcast() bool {
	return r.Origin != ""
}

func failure(action string, err error) Response {
	return Response{Status: StatusFailure, Action: action, Error: err.Error()}
}

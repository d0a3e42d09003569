// Package server implements the rev4_switch bridge: a WebSocket hub that
// encodes switch commands and decodes radio captures for its clients.
//
// A bridge sits between controllers (the CLI, the terminal remote, home
// automation) and whatever drives the 433 MHz radio. Controllers send
// "send" requests; the bridge validates and encodes them, replies with the
// pulse train, and broadcasts it to every client with origin "sender" so a
// connected radio daemon can transmit it. A radio daemon reports captures
// with "receive"; the bridge decodes them and broadcasts the command with
// origin "receiver".
//
// # Routes
//
//	GET /ws        WebSocket (JSON text frames)
//	GET /healthz   {"status":"ok","clients":N}
//	GET /protocol  codec descriptor and build info
//	GET /metrics   Prometheus metrics
//
// # Wire Format
//
// Requests:
//
//	{"action":"send","code":{"id":5,"unit":2,"on":1}}
//	{"action":"receive","pulses":[264,792,...],"pulse_length":264}
//	{"action":"help"}
//
// Replies carry "status" ("success" or "failure"). Broadcasts carry
// "origin" instead:
//
//	{"status":"success","action":"send","protocol":"rev4_switch",
//	 "message":{"id":5,"unit":2,"state":"on"},"pulses":[...],"pulse_length":264}
//	{"origin":"sender","protocol":"rev4_switch","message":{...},"pulses":[...]}
//
// # Analysis Mode
//
// When Config.AnalysisDir is set every code is appended to
// capture-YYYYMMDD.jsonl in that directory, including the classified
// shape of the train, for offline comparison with real remotes.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{Port: 5001, Advertise: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

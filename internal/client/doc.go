// Package client connects to a rev4_switch bridge over WebSocket.
//
//	c, err := client.Dial(ctx, "ws://192.168.1.20:5001/ws")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	resp, err := c.Send(ctx, protocol.Command{ID: 5, Unit: 2, State: protocol.StateOn}, 0)
//
// One request is in flight at a time. Requests are numbered and a reply is
// only handed to the request it answers. Broadcasts from the bridge,
// including the echo of the client's own sends, are queued and handed out
// by Listen; when nobody listens the queue fills and further broadcasts are
// dropped.
package client

// Package discovery finds and announces rev4ctl bridges over mDNS.
//
// A bridge started with `rev4ctl serve` registers itself as a
// "_rev4switch._tcp" service. TXT records carry the codec it speaks
// (protocol=rev4_switch, version=0.9), the WebSocket path and whether TLS
// is on. Clients browse for that service type and connect to the first
// (or a named) bridge.
//
// # Usage Example
//
//	adv, err := discovery.Advertise("rev4-lounge", 5001, discovery.BridgeTXT(false, nil))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	bridges, err := discovery.ScanForBridges(ctx, 5*time.Second)
//	for _, b := range bridges {
//	    fmt.Println(b, b.WebSocketURL())
//	}
//
// Entries advertising another protocol in their TXT records are ignored.
// Entries without a protocol key are accepted.
package discovery

package discovery

import (
	"fmt"
	"os"
	"strings"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
)

// Advertisement is a running mDNS registration. Shutdown withdraws it.
type Advertisement struct {
	Instance string
	Port     int
	server   *zeroconf.Server
}

// Shutdown stops answering mDNS queries for the bridge.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("mDNS advertisement withdrawn", zap.String("instance", a.Instance))
}

// BridgeTXT returns the TXT records a bridge publishes. extra entries are
// appended as key=value.
func BridgeTXT(tls bool, extra map[string]string) []string {
	tlsFlag := "0"
	if tls {
		tlsFlag = "1"
	}
	txt := []string{
		TXTKeyProtocol + "=" + protocol.ProtocolID,
		TXTKeyVersion + "=" + protocol.ModuleVersion,
		TXTKeyPath + "=" + DefaultPath,
		TXTKeyTLS + "=" + tlsFlag,
	}
	for k, v := range extra {
		txt = append(txt, k+"="+v)
	}
	return txt
}

// DefaultInstanceName derives an instance name from the hostname.
func DefaultInstanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "rev4-bridge"
	}
	host, _, _ = strings.Cut(host, ".")
	return "rev4-" + host
}

// Advertise registers the bridge under ServiceType on all interfaces.
func Advertise(instance string, port int, txt []string) (*Advertisement, error) {
	if instance == "" {
		instance = DefaultInstanceName()
	}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising bridge over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt),
	)

	return &Advertisement{Instance: instance, Port: port, server: server}, nil
}

package hal

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/w1mrk/cwkeyer/keyer"
)

// DNSSDForwarder announces this keyer on the local network over mDNS and
// republishes fault state into the service's TXT record, so a monitoring
// tool can see a fault without opening a separate connection. Grounded on
// the teacher's src/dns_sd.go, which announces its KISS TCP service with
// the same library.
type DNSSDForwarder struct {
	responder dnssd.Responder
	service   dnssd.Service
	cancel    context.CancelFunc
}

// NewDNSSDForwarder creates a forwarder backed by a new mDNS responder. The
// port argument is not used: Announce publishes the service record without
// a port.
func NewDNSSDForwarder(port int) (*DNSSDForwarder, error) {
	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("hal: dnssd responder: %w", err)
	}
	return &DNSSDForwarder{responder: responder}, nil
}

// Announce publishes an mDNS service record under serviceName.
func (f *DNSSDForwarder) Announce(serviceName string) error {
	cfg := dnssd.Config{
		Name: serviceName,
		Type: "_cwkeyer._tcp",
		Text: map[string]string{"fault": "none"},
	}
	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("hal: dnssd new service: %w", err)
	}
	if _, err := f.responder.Add(svc); err != nil {
		return fmt.Errorf("hal: dnssd add service: %w", err)
	}
	f.service = svc

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.responder.Respond(ctx) //nolint:errcheck
	return nil
}

// ForwardFault republishes the fault code/data into the announced
// service's TXT record.
func (f *DNSSDForwarder) ForwardFault(code keyer.FaultCode, data uint32) error {
	if f.service == nil {
		return nil
	}
	f.service.Text = map[string]string{
		"fault": code.String(),
		"data":  fmt.Sprintf("%d", data),
	}
	return f.responder.Update(f.service)
}

// Shutdown stops the mDNS responder.
func (f *DNSSDForwarder) Shutdown() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// MDNS browses a DNS-SD service type for an instance named like the device family.
type MDNS struct {
	Service string
	Domain  string
	Timeout time.Duration
	Markers Markers
}

// Lookup returns the first IPv4 address of a matching instance, or "".
func (m *MDNS) Lookup(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("init mdns resolver: %w", err)
	}

	domain := m.Domain
	if domain == "" {
		domain = "local."
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, m.Service, domain, entries); err != nil {
		return "", fmt.Errorf("browse %s: %w", m.Service, err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", nil
		case entry, ok := <-entries:
			if !ok {
				return "", nil
			}
			if address := m.match(entry); address != "" {
				return address, nil
			}
		}
	}
}

func (m *MDNS) match(entry *zeroconf.ServiceEntry) string {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return ""
	}
	names := append([]string{m.Markers.Family}, m.Markers.Alternates...)
	if !containsAny(entry.Instance, names) && !containsAny(strings.Join(entry.Text, " "), names) {
		return ""
	}
	return entry.AddrIPv4[0].String()
}

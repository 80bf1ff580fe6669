// Package discovery locates a controllable device on the local network.
//
// An SSDP M-SEARCH is multicast once and replies are collected for a fixed
// window, then ranked by family and model markers. An optional mDNS browse
// runs when no reply matches.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	// DefaultMulticastAddr is the SSDP group and port the search is sent to.
	DefaultMulticastAddr = "239.255.255.250:1900"
	// DefaultSearchTarget is the ST header value devices of the family answer.
	DefaultSearchTarget = "urn:schemas-denon-com:device:ACT-Denon:1"

	maxDatagram = 2048
)

// Fallback is consulted when the multicast search yields no address.
type Fallback interface {
	Lookup(ctx context.Context) (string, error)
}

// Service sends one search and collects replies for a fixed window.
type Service struct {
	MulticastAddr string
	SearchTarget  string
	Window        time.Duration
	Poll          time.Duration
	Sleep         time.Duration
	Markers       Markers
	Fallback      Fallback
	Logger        *slog.Logger
}

// NewService returns a service with the stock search cadence.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		MulticastAddr: DefaultMulticastAddr,
		SearchTarget:  DefaultSearchTarget,
		Window:        5 * time.Second,
		Poll:          100 * time.Millisecond,
		Sleep:         10 * time.Millisecond,
		Markers:       DefaultMarkers(),
		Logger:        logger,
	}
}

// Discover returns the selected device address or "" when nothing matched.
func (s *Service) Discover(ctx context.Context) string {
	log := s.logger()

	replies, err := s.Collect(ctx)
	if err != nil {
		log.Warn("discovery search failed", "error", err.Error())
	}

	address := Select(replies, s.Markers)
	log.Info("discovery finished", "replies", len(replies), "address", address)
	if address != "" || s.Fallback == nil {
		return address
	}

	address, err = s.Fallback.Lookup(ctx)
	if err != nil {
		log.Warn("discovery fallback failed", "error", err.Error())
		return ""
	}
	if address != "" {
		log.Info("discovery fallback matched", "address", address)
	}
	return address
}

// Collect sends the search and gathers every reply received within the window.
func (s *Service) Collect(ctx context.Context) ([]Reply, error) {
	group, err := net.ResolveUDPAddr("udp4", s.MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", s.MulticastAddr, err)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}
	defer conn.Close()

	if group.IP.IsMulticast() {
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastTTL(2); err != nil {
			s.logger().Debug("set multicast ttl", "error", err.Error())
		}
		if err := pc.SetMulticastLoopback(true); err != nil {
			s.logger().Debug("set multicast loopback", "error", err.Error())
		}
	}

	if _, err := conn.WriteToUDP([]byte(SearchRequest(s.MulticastAddr, s.SearchTarget)), group); err != nil {
		return nil, fmt.Errorf("send search: %w", err)
	}

	replies := make([]Reply, 0)
	buf := make([]byte, maxDatagram)
	deadline := time.Now().Add(s.Window)

	for time.Now().Before(deadline) {
		wait := min(s.Poll, time.Until(deadline))
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return replies, fmt.Errorf("set read deadline: %w", err)
		}

		n, from, err := conn.ReadFromUDP(buf)
		switch {
		case err == nil:
			replies = append(replies, Reply{Address: from.IP.String(), Body: string(buf[:n])})
		case errors.Is(err, os.ErrDeadlineExceeded):
		default:
			return replies, fmt.Errorf("read reply: %w", err)
		}

		select {
		case <-ctx.Done():
			return replies, ctx.Err()
		case <-time.After(s.Sleep):
		}
	}
	return replies, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

package network

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codecat/go-enet"

	"github.com/siohaza/rockthevote/internal/protocol"
)

// MaxPacketSize bounds what the shim may send in one packet. Every event
// carries at most one string.
const MaxPacketSize = 2 + protocol.MaxStringLen + 64

// Bridge is the ENet endpoint the game server shim connects to. Everything
// travels on channel 0 and is sent reliably.
type Bridge struct {
	host     enet.Host
	port     uint16
	maxPeers int
	logger   *slog.Logger
	stats    Stats
}

// Stats counts the traffic exchanged with the shim since Start.
type Stats struct {
	PacketsIn  int
	PacketsOut int
	BytesIn    int
	BytesOut   int
	Dropped    int
}

type Event struct {
	Type    EventType
	Peer    enet.Peer
	Address string
	Data    []byte
}

type EventType int

const (
	EventTypeNone EventType = iota
	EventTypeConnect
	EventTypeDisconnect
	EventTypeReceive
)

func NewBridge(port int, maxPeers int, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", port)
	}

	return &Bridge{
		port:     uint16(port),
		maxPeers: maxPeers,
		logger:   logger,
	}, nil
}

func (b *Bridge) Start() error {
	address := enet.NewListenAddress(b.port)

	var err error
	b.host, err = enet.NewHost(address, uint64(b.maxPeers), 1, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to create ENet host: %w", err)
	}

	if err := b.host.CompressWithRangeCoder(); err != nil {
		b.host.Destroy()
		b.host = nil
		return fmt.Errorf("failed to setup range coder compression: %w", err)
	}

	b.stats = Stats{}
	b.logger.Info("bridge listening", "port", b.port, "max_peers", b.maxPeers)
	return nil
}

func (b *Bridge) Stop() {
	if b.host == nil {
		return
	}

	b.host.Destroy()
	b.host = nil
	b.logger.Info("bridge stopped",
		"packets_in", b.stats.PacketsIn,
		"packets_out", b.stats.PacketsOut,
		"dropped", b.stats.Dropped,
	)
}

func (b *Bridge) Stats() Stats {
	return b.stats
}

// Service polls the host once. Oversized packets from the shim are dropped
// and reported as EventTypeNone.
func (b *Bridge) Service(timeout time.Duration) (*Event, error) {
	if b.host == nil {
		return nil, fmt.Errorf("bridge not started")
	}

	enetEvent := b.host.Service(uint32(timeout.Milliseconds()))
	if enetEvent == nil {
		return &Event{Type: EventTypeNone}, nil
	}

	eventType := enetEvent.GetType()
	if eventType != enet.EventConnect && eventType != enet.EventDisconnect && eventType != enet.EventReceive {
		return &Event{Type: EventTypeNone}, nil
	}

	peer := enetEvent.GetPeer()
	event := &Event{
		Peer:    peer,
		Address: peer.GetAddress().String(),
	}

	switch eventType {
	case enet.EventConnect:
		event.Type = EventTypeConnect
		b.logger.Debug("shim connected", "address", event.Address)

	case enet.EventDisconnect:
		event.Type = EventTypeDisconnect
		b.logger.Debug("shim disconnected", "address", event.Address)

	case enet.EventReceive:
		packet := enetEvent.GetPacket()
		if packet == nil {
			return &Event{Type: EventTypeNone}, nil
		}
		defer packet.Destroy()

		data := packet.GetData()
		if len(data) > MaxPacketSize {
			b.stats.Dropped++
			b.logger.Warn("dropping oversized packet", "address", event.Address, "len", len(data))
			return &Event{Type: EventTypeNone}, nil
		}

		// the payload belongs to the packet, which is released on return
		event.Type = EventTypeReceive
		event.Data = make([]byte, len(data))
		copy(event.Data, data)

		b.stats.PacketsIn++
		b.stats.BytesIn += len(data)
	}

	return event, nil
}

// Send queues a reliable packet for the shim.
func (b *Bridge) Send(peer enet.Peer, data []byte) error {
	if peer == nil {
		return fmt.Errorf("peer is nil")
	}

	packet, err := enet.NewPacket(data, enet.PacketFlagReliable)
	if err != nil {
		return fmt.Errorf("failed to create packet: %w", err)
	}

	if err := peer.SendPacket(packet, 0); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	b.stats.PacketsOut++
	b.stats.BytesOut += len(data)
	return nil
}

// Kick disconnects the peer, telling it why. A graceful disconnect lets
// queued packets go out first.
func (b *Bridge) Kick(peer enet.Peer, reason protocol.DisconnectReason, graceful bool) {
	if peer == nil {
		return
	}

	b.logger.Info("disconnecting shim", "address", peer.GetAddress().String(), "reason", reason)

	if graceful {
		peer.Disconnect(uint32(reason))
		return
	}
	peer.DisconnectNow(uint32(reason))
}

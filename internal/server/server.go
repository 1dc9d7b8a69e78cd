package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codecat/go-enet"
	"github.com/jonboulle/clockwork"

	"github.com/siohaza/rockthevote/internal/host"
	"github.com/siohaza/rockthevote/internal/network"
	"github.com/siohaza/rockthevote/internal/player"
	"github.com/siohaza/rockthevote/internal/protocol"
	"github.com/siohaza/rockthevote/pkg/config"
)

var errNotConnected = errors.New("game server not connected")

// Handler receives the decoded host events. All calls happen on the server
// goroutine.
type Handler interface {
	OnMapStart(mapName string, timeLimit int)
	OnSecond()
	OnTimeSync(timeLimit, timePlayed, roundTime, roundsPlayed int, warmup bool)
	OnPlayerConnect(p *player.Player)
	OnPlayerDisconnect(userID int)
	OnPlayerTeam(userID int, team player.Team)
	OnChatMessage(userID int, message string)
	OnMenuSelect(userID, option int)
	OnConsoleCommand(line string) string
	Reset()
}

// Server bridges one game server shim to the plugin. It implements host.Host.
type Server struct {
	config    *config.Config
	network   *network.Bridge
	handler   Handler
	clock     clockwork.Clock
	logger    *slog.Logger
	version   string
	startTime time.Time
	started   bool

	peer  enet.Peer
	ready bool
	send  func([]byte) error

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg *config.Config, version string, clock clockwork.Clock, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	net, err := network.NewBridge(cfg.Bridge.Port, cfg.Bridge.MaxPeers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:  cfg,
		network: net,
		clock:   clock,
		logger:  logger,
		version: version,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	srv.send = srv.sendToPeer

	return srv, nil
}

// SetHandler must be called before Start.
func (s *Server) SetHandler(h Handler) {
	s.handler = h
}

func (s *Server) Start() error {
	if s.handler == nil {
		return fmt.Errorf("no event handler set")
	}

	if err := s.network.Start(); err != nil {
		return fmt.Errorf("failed to start network: %w", err)
	}

	s.startTime = s.clock.Now()
	s.started = true

	go s.run()

	return nil
}

func (s *Server) Stop() {
	s.logger.Info("stopping server")

	if !s.started {
		return
	}

	s.cancel()
	<-s.done
	s.started = false

	s.handler.Reset()

	if s.peer != nil {
		s.network.Kick(s.peer, protocol.DisconnectReasonShutdown, false)
		s.peer = nil
	}
	s.ready = false

	s.network.Stop()

	s.logger.Info("server stopped", "uptime", s.GetUptime().Round(time.Second))
}

func (s *Server) GetUptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return s.clock.Since(s.startTime)
}

// Connected reports whether a game server completed the handshake.
func (s *Server) Connected() bool {
	return s.ready
}

func (s *Server) run() {
	defer close(s.done)

	secondTicker := s.clock.NewTicker(time.Second)
	defer secondTicker.Stop()

	pollTicker := s.clock.NewTicker(time.Duration(s.config.Bridge.ServiceTimeout) * time.Millisecond)
	defer pollTicker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("server context cancelled, exiting run loop")
			return

		case <-secondTicker.Chan():
			// countdowns only run while a game server is attached
			if s.ready {
				s.handler.OnSecond()
			}

		case <-pollTicker.Chan():
		}

		s.handleNetworkEvents()
	}
}

func (s *Server) handleNetworkEvents() {
	for i := 0; i < 100; i++ {
		event, err := s.network.Service(0)
		if err != nil {
			s.logger.Error("network service error", "error", err)
			return
		}

		if event.Type == network.EventTypeNone {
			break
		}

		switch event.Type {
		case network.EventTypeConnect:
			s.handleConnect(event.Peer, event.Address)

		case network.EventTypeDisconnect:
			s.handleDisconnect(event.Peer)

		case network.EventTypeReceive:
			if event.Peer != s.peer {
				continue
			}
			s.handlePacket(event.Data)
		}
	}
}

func (s *Server) handleConnect(peer enet.Peer, address string) {
	if s.peer != nil {
		s.logger.Warn("rejecting second game server", "address", address)
		s.network.Kick(peer, protocol.DisconnectReasonBusy, false)
		return
	}

	s.peer = peer
	s.ready = false

	s.logger.Info("game server connected, waiting for hello", "address", address)
}

func (s *Server) handleDisconnect(peer enet.Peer) {
	if peer != s.peer {
		return
	}

	s.peer = nil
	s.ready = false
	s.handler.Reset()

	s.logger.Warn("game server disconnected")
}

func (s *Server) handlePacket(data []byte) {
	packetType, err := protocol.ReadPacketType(data)
	if err != nil {
		s.logger.Warn("received invalid packet", "error", err)
		return
	}

	if packetType == protocol.PacketTypeHello {
		s.handleHello(data)
		return
	}

	if !s.ready {
		s.logger.Warn("packet before hello", "type", packetType)
		return
	}

	if err := s.dispatch(packetType, data); err != nil {
		s.logger.Warn("failed to decode packet", "type", packetType, "len", len(data), "error", err)
	}
}

func (s *Server) handleHello(data []byte) {
	var hello protocol.PacketHello
	if err := hello.Read(data); err != nil {
		s.logger.Warn("failed to decode hello", "error", err)
		return
	}

	if hello.ProtocolVersion != protocol.ProtocolVersion {
		s.logger.Error("game server protocol mismatch",
			"expected", protocol.ProtocolVersion,
			"got", hello.ProtocolVersion)
		if s.peer != nil {
			s.network.Kick(s.peer, protocol.DisconnectReasonProtocolMismatch, true)
		}
		return
	}

	if s.ready {
		// a second hello means the plugin was reloaded on the game server
		s.handler.Reset()
	}
	s.ready = true

	s.sendPacket(&protocol.PacketWelcome{
		PacketID:        uint8(protocol.PacketTypeWelcome),
		ProtocolVersion: protocol.ProtocolVersion,
		Version:         s.version,
	})

	s.logger.Info("game server ready", "name", hello.ServerName)
}

func (s *Server) dispatch(packetType protocol.PacketType, data []byte) error {
	switch packetType {
	case protocol.PacketTypeMapStart:
		var pkt protocol.PacketMapStart
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnMapStart(pkt.MapName, int(pkt.TimeLimit))

	case protocol.PacketTypePlayerConnect:
		var pkt protocol.PacketPlayerConnect
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnPlayerConnect(s.newPlayer(&pkt))

	case protocol.PacketTypePlayerDisconnect:
		var pkt protocol.PacketPlayerDisconnect
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnPlayerDisconnect(int(pkt.UserID))

	case protocol.PacketTypePlayerTeam:
		var pkt protocol.PacketPlayerTeam
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnPlayerTeam(int(pkt.UserID), toTeam(pkt.Team))

	case protocol.PacketTypePlayerChat:
		var pkt protocol.PacketPlayerChat
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnChatMessage(int(pkt.UserID), pkt.Message)

	case protocol.PacketTypeMenuSelect:
		var pkt protocol.PacketMenuSelect
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnMenuSelect(int(pkt.UserID), int(pkt.Option))

	case protocol.PacketTypeTimeSync:
		var pkt protocol.PacketTimeSync
		if err := pkt.Read(data); err != nil {
			return err
		}
		s.handler.OnTimeSync(int(pkt.TimeLimit), int(pkt.TimePlayed), int(pkt.RoundTime), int(pkt.RoundsPlayed), pkt.Warmup)

	case protocol.PacketTypeConsoleCommand:
		var pkt protocol.PacketConsoleCommand
		if err := pkt.Read(data); err != nil {
			return err
		}
		if out := s.handler.OnConsoleCommand(pkt.Command); out != "" {
			s.ChatPlayer(host.Console, out)
		}

	default:
		s.logger.Warn("received unhandled packet", "type", packetType, "len", len(data))
	}

	return nil
}

func (s *Server) newPlayer(pkt *protocol.PacketPlayerConnect) *player.Player {
	p := player.New(int(pkt.UserID), pkt.Name)
	p.Slot = pkt.Slot
	p.SteamID = pkt.SteamID
	p.Team = toTeam(pkt.Team)
	p.IsBot = pkt.Flags&protocol.PlayerFlagBot != 0
	p.IsHLTV = pkt.Flags&protocol.PlayerFlagHLTV != 0
	p.Permissions = pkt.Permissions
	p.ConnectedAt = s.clock.Now()
	return p
}

func toTeam(team uint8) player.Team {
	if t := player.Team(team); t <= player.TeamCounterTerrorist {
		return t
	}
	return player.TeamNone
}

func marshalPacket(packet interface{ Write(io.Writer) error }) ([]byte, error) {
	var buf bytes.Buffer
	if err := packet.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) sendToPeer(data []byte) error {
	if s.peer == nil || !s.ready {
		return errNotConnected
	}
	return s.network.Send(s.peer, data)
}

// sendAction encodes and sends an action the caller needs to know failed.
func (s *Server) sendAction(packet interface{ Write(io.Writer) error }) error {
	data, err := marshalPacket(packet)
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "sending packet",
		slog.String("type", protocol.PacketType(data[0]).String()),
		slog.Int("len", len(data)))

	return s.send(data)
}

func (s *Server) sendPacket(packet interface{ Write(io.Writer) error }) {
	if err := s.sendAction(packet); err != nil {
		s.logger.Error("failed to send packet", "error", err)
	}
}

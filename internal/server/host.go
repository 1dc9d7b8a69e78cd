package server

import (
	"github.com/siohaza/rockthevote/internal/host"
	"github.com/siohaza/rockthevote/internal/protocol"
)

var _ host.Host = (*Server)(nil)

func (s *Server) ChatAll(message string) {
	s.sendPacket(&protocol.PacketChatAll{
		PacketID: uint8(protocol.PacketTypeChatAll),
		Message:  message,
	})
}

// ChatPlayer with host.Console prints to the game server console.
func (s *Server) ChatPlayer(userID int, message string) {
	s.sendPacket(&protocol.PacketChatPlayer{
		PacketID: uint8(protocol.PacketTypeChatPlayer),
		UserID:   uint16(userID),
		Message:  message,
	})
}

func (s *Server) CenterAll(html string) {
	s.sendPacket(&protocol.PacketCenterAll{
		PacketID: uint8(protocol.PacketTypeCenterAll),
		HTML:     html,
	})
}

func (s *Server) CenterPlayer(userID int, html string) {
	s.sendPacket(&protocol.PacketCenterPlayer{
		PacketID: uint8(protocol.PacketTypeCenterPlayer),
		UserID:   uint16(userID),
		HTML:     html,
	})
}

func (s *Server) OpenMenu(userID int, title string, options []string) {
	s.sendPacket(&protocol.PacketOpenMenu{
		PacketID: uint8(protocol.PacketTypeOpenMenu),
		UserID:   uint16(userID),
		Title:    title,
		Options:  options,
	})
}

func (s *Server) CloseMenu(userID int) {
	s.sendPacket(&protocol.PacketCloseMenu{
		PacketID: uint8(protocol.PacketTypeCloseMenu),
		UserID:   uint16(userID),
	})
}

func (s *Server) ChangeMap(name, workshopID string) error {
	s.logger.Info("changing map", "map", name, "workshop_id", workshopID)
	return s.sendAction(&protocol.PacketChangeMap{
		PacketID:   uint8(protocol.PacketTypeChangeMap),
		MapName:    name,
		WorkshopID: workshopID,
	})
}

func (s *Server) SetNextMap(name string) error {
	return s.sendAction(&protocol.PacketSetNextMap{
		PacketID: uint8(protocol.PacketTypeSetNextMap),
		MapName:  name,
	})
}

func (s *Server) SetTimeLimit(seconds int) error {
	return s.sendAction(&protocol.PacketSetTimeLimit{
		PacketID: uint8(protocol.PacketTypeSetTimeLimit),
		Seconds:  int32(seconds),
	})
}

func (s *Server) SetRoundTime(seconds int) error {
	return s.sendAction(&protocol.PacketSetRoundTime{
		PacketID: uint8(protocol.PacketTypeSetRoundTime),
		Seconds:  int32(seconds),
	})
}

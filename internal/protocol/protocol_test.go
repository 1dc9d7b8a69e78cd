package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlayerConnectLayout(t *testing.T) {
	p := PacketPlayerConnect{
		PacketID:    uint8(PacketTypePlayerConnect),
		UserID:      0x0102,
		Slot:        7,
		Team:        3,
		Flags:       PlayerFlagBot,
		SteamID:     76561198000000001,
		Permissions: 1 << 5,
		Name:        "José",
	}

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	data := buf.Bytes()
	if data[0] != uint8(PacketTypePlayerConnect) || data[1] != 0x02 || data[2] != 0x01 {
		t.Fatalf("unexpected header % x", data[:3])
	}
	// id, userid, slot, team, flags, steamid, permissions, name length, name
	if want := 1 + 2 + 1 + 1 + 1 + 8 + 8 + 2 + len("José"); len(data) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(data))
	}

	var got PacketPlayerConnect
	if err := got.Read(data); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	chat := PacketPlayerChat{PacketID: uint8(PacketTypePlayerChat), UserID: 4, Message: "!rtv"}
	if err := chat.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	data := buf.Bytes()

	for n := 0; n < len(data); n++ {
		var p PacketPlayerChat
		err := p.Read(data[:n])
		if err == nil {
			t.Fatalf("expected error reading %d of %d bytes", n, len(data))
		}
		if !strings.Contains(err.Error(), "too small") {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	var short PacketSetTimeLimit
	if err := short.Read([]byte{uint8(PacketTypeSetTimeLimit), 1, 2}); err == nil {
		t.Fatalf("expected error for short time limit packet")
	}
}

func TestReadInvalidUTF8(t *testing.T) {
	data := []byte{uint8(PacketTypeChatAll), 2, 0, 0xff, 0xfe}

	var p PacketChatAll
	if err := p.Read(data); err == nil {
		t.Fatalf("expected invalid UTF-8 to be rejected")
	}
}

func TestWriteRejectsInvalidUTF8(t *testing.T) {
	p := PacketChatAll{PacketID: uint8(PacketTypeChatAll), Message: string([]byte{0xff})}

	var buf bytes.Buffer
	if err := p.Write(&buf); err == nil {
		t.Fatalf("expected error")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on error, got %d bytes", buf.Len())
	}
}

func TestOpenMenu(t *testing.T) {
	p := PacketOpenMenu{
		PacketID: uint8(PacketTypeOpenMenu),
		UserID:   9,
		Title:    "Vote for the next map",
		Options:  []string{"de_nuke", "de_mirage", "Extend current map"},
	}

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got PacketOpenMenu
	if err := got.Read(buf.Bytes()); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != p.Title || len(got.Options) != 3 || got.Options[2] != "Extend current map" {
		t.Fatalf("unexpected menu %+v", got)
	}

	p.Options = make([]string, MaxMenuOptions+1)
	if err := p.Write(&buf); err == nil {
		t.Fatalf("expected error for too many options")
	}
}

func TestTimeSyncNegativeLimit(t *testing.T) {
	p := PacketTimeSync{PacketID: uint8(PacketTypeTimeSync), TimeLimit: -1, TimePlayed: 90, RoundsPlayed: 4, Warmup: true}

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got PacketTimeSync
	if err := got.Read(buf.Bytes()); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != p {
		t.Fatalf("expected %+v, got %+v", p, got)
	}
}

func TestReadPacketType(t *testing.T) {
	if _, err := ReadPacketType(nil); err == nil {
		t.Fatalf("expected error for empty packet")
	}

	pt, err := ReadPacketType([]byte{uint8(PacketTypeMenuSelect), 1})
	if err != nil || pt != PacketTypeMenuSelect {
		t.Fatalf("unexpected type %v, %v", pt, err)
	}
	if pt.String() != "menu_select" {
		t.Fatalf("unexpected name %q", pt.String())
	}
	if PacketType(200).String() != "unknown(200)" {
		t.Fatalf("unexpected name for unknown type")
	}
}

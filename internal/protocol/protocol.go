package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

const (
	ProtocolVersion = 1
	MaxStringLen    = math.MaxUint16
	MaxMenuOptions  = math.MaxUint8
)

type PacketType uint8

// Events sent by the host shim.
const (
	PacketTypeHello            PacketType = 1
	PacketTypeMapStart         PacketType = 2
	PacketTypePlayerConnect    PacketType = 3
	PacketTypePlayerDisconnect PacketType = 4
	PacketTypePlayerTeam       PacketType = 5
	PacketTypePlayerChat       PacketType = 6
	PacketTypeMenuSelect       PacketType = 7
	PacketTypeTimeSync         PacketType = 8
	PacketTypeConsoleCommand   PacketType = 9
)

// Actions sent to the host shim.
const (
	PacketTypeWelcome      PacketType = 64
	PacketTypeChatAll      PacketType = 65
	PacketTypeChatPlayer   PacketType = 66
	PacketTypeCenterAll    PacketType = 67
	PacketTypeCenterPlayer PacketType = 68
	PacketTypeOpenMenu     PacketType = 69
	PacketTypeCloseMenu    PacketType = 70
	PacketTypeChangeMap    PacketType = 71
	PacketTypeSetNextMap   PacketType = 72
	PacketTypeSetTimeLimit PacketType = 73
	PacketTypeSetRoundTime PacketType = 74
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeHello:
		return "hello"
	case PacketTypeMapStart:
		return "map_start"
	case PacketTypePlayerConnect:
		return "player_connect"
	case PacketTypePlayerDisconnect:
		return "player_disconnect"
	case PacketTypePlayerTeam:
		return "player_team"
	case PacketTypePlayerChat:
		return "player_chat"
	case PacketTypeMenuSelect:
		return "menu_select"
	case PacketTypeTimeSync:
		return "time_sync"
	case PacketTypeConsoleCommand:
		return "console_command"
	case PacketTypeWelcome:
		return "welcome"
	case PacketTypeChatAll:
		return "chat_all"
	case PacketTypeChatPlayer:
		return "chat_player"
	case PacketTypeCenterAll:
		return "center_all"
	case PacketTypeCenterPlayer:
		return "center_player"
	case PacketTypeOpenMenu:
		return "open_menu"
	case PacketTypeCloseMenu:
		return "close_menu"
	case PacketTypeChangeMap:
		return "change_map"
	case PacketTypeSetNextMap:
		return "set_next_map"
	case PacketTypeSetTimeLimit:
		return "set_time_limit"
	case PacketTypeSetRoundTime:
		return "set_round_time"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

type PlayerFlags uint8

const (
	PlayerFlagBot  PlayerFlags = 1 << 0
	PlayerFlagHLTV PlayerFlags = 1 << 1
)

// DisconnectReason is passed as the ENet disconnect data.
type DisconnectReason uint32

const (
	DisconnectReasonUndefined        DisconnectReason = 0
	DisconnectReasonBusy             DisconnectReason = 1
	DisconnectReasonProtocolMismatch DisconnectReason = 2
	DisconnectReasonShutdown         DisconnectReason = 3
)

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectReasonBusy:
		return "busy"
	case DisconnectReasonProtocolMismatch:
		return "protocol mismatch"
	case DisconnectReasonShutdown:
		return "shutdown"
	default:
		return "undefined"
	}
}

// Packets are laid out as a one byte packet id followed by little endian
// fields. Strings are UTF-8 with a uint16 length prefix.

type PacketHello struct {
	PacketID        uint8
	ProtocolVersion uint8
	ServerName      string
}

type PacketWelcome struct {
	PacketID        uint8
	ProtocolVersion uint8
	Version         string
}

type PacketMapStart struct {
	PacketID uint8
	// TimeLimit is mp_timelimit in seconds, zero for none
	TimeLimit int32
	MapName   string
}

type PacketPlayerConnect struct {
	PacketID    uint8
	UserID      uint16
	Slot        uint8
	Team        uint8
	Flags       PlayerFlags
	SteamID     uint64
	Permissions uint64
	Name        string
}

type PacketPlayerDisconnect struct {
	PacketID uint8
	UserID   uint16
}

type PacketPlayerTeam struct {
	PacketID uint8
	UserID   uint16
	Team     uint8
}

type PacketPlayerChat struct {
	PacketID uint8
	UserID   uint16
	TeamOnly bool
	Message  string
}

type PacketMenuSelect struct {
	PacketID uint8
	UserID   uint16
	Option   uint8
}

type PacketTimeSync struct {
	PacketID     uint8
	TimeLimit    int32
	TimePlayed   int32
	RoundTime    int32
	RoundsPlayed uint16
	Warmup       bool
}

type PacketConsoleCommand struct {
	PacketID uint8
	Command  string
}

type PacketChatAll struct {
	PacketID uint8
	Message  string
}

type PacketChatPlayer struct {
	PacketID uint8
	UserID   uint16
	Message  string
}

type PacketCenterAll struct {
	PacketID uint8
	HTML     string
}

type PacketCenterPlayer struct {
	PacketID uint8
	UserID   uint16
	HTML     string
}

type PacketOpenMenu struct {
	PacketID uint8
	UserID   uint16
	Title    string
	Options  []string
}

type PacketCloseMenu struct {
	PacketID uint8
	UserID   uint16
}

type PacketChangeMap struct {
	PacketID   uint8
	MapName    string
	WorkshopID string
}

type PacketSetNextMap struct {
	PacketID uint8
	MapName  string
}

type PacketSetTimeLimit struct {
	PacketID uint8
	Seconds  int32
}

type PacketSetRoundTime struct {
	PacketID uint8
	Seconds  int32
}

func ReadPacketType(data []byte) (PacketType, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("empty packet")
	}
	return PacketType(data[0]), nil
}

// encoder appends fields to a buffer and keeps the first error.
type encoder struct {
	buf bytes.Buffer
	err error
}

func newEncoder(id uint8) *encoder {
	e := &encoder{}
	e.buf.WriteByte(id)
	return e
}

func (e *encoder) u8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) i32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.buf.Write(b[:])
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) str(s string) {
	if e.err != nil {
		return
	}
	if len(s) > MaxStringLen {
		e.err = fmt.Errorf("string of %d bytes exceeds %d", len(s), MaxStringLen)
		return
	}
	if !utf8.ValidString(s) {
		e.err = fmt.Errorf("string is not valid UTF-8")
		return
	}
	e.u16(uint16(len(s)))
	e.buf.WriteString(s)
}

func (e *encoder) flush(w io.Writer) error {
	if e.err != nil {
		return e.err
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

// decoder reads fields in order. The first short read sticks and every
// later read returns zero values.
type decoder struct {
	data []byte
	off  int
	name string
	err  error
}

func newDecoder(data []byte, name string) *decoder {
	d := &decoder{data: data, name: name}
	if len(data) < 1 {
		d.err = fmt.Errorf("%s packet too small", name)
		return d
	}
	d.off = 1
	return d
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if len(d.data)-d.off < n {
		d.err = fmt.Errorf("%s packet too small", d.name)
		return false
	}
	return true
}

func (d *decoder) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.data[d.off]
	d.off++
	return v
}

func (d *decoder) bool() bool {
	return d.u8() != 0
}

func (d *decoder) u16() uint16 {
	if !d.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v
}

func (d *decoder) i32() int32 {
	if !d.need(4) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(d.data[d.off:]))
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v
}

func (d *decoder) str() string {
	n := int(d.u16())
	if !d.need(n) {
		return ""
	}
	raw := d.data[d.off : d.off+n]
	d.off += n
	if !utf8.Valid(raw) {
		d.err = fmt.Errorf("%s packet has invalid UTF-8", d.name)
		return ""
	}
	return string(raw)
}

func (p *PacketHello) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u8(p.ProtocolVersion)
	e.str(p.ServerName)
	return e.flush(w)
}

func (p *PacketHello) Read(data []byte) error {
	d := newDecoder(data, "hello")
	p.PacketID = uint8(PacketTypeHello)
	p.ProtocolVersion = d.u8()
	p.ServerName = d.str()
	return d.err
}

func (p *PacketWelcome) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u8(p.ProtocolVersion)
	e.str(p.Version)
	return e.flush(w)
}

func (p *PacketWelcome) Read(data []byte) error {
	d := newDecoder(data, "welcome")
	p.PacketID = uint8(PacketTypeWelcome)
	p.ProtocolVersion = d.u8()
	p.Version = d.str()
	return d.err
}

func (p *PacketMapStart) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.i32(p.TimeLimit)
	e.str(p.MapName)
	return e.flush(w)
}

func (p *PacketMapStart) Read(data []byte) error {
	d := newDecoder(data, "map start")
	p.PacketID = uint8(PacketTypeMapStart)
	p.TimeLimit = d.i32()
	p.MapName = d.str()
	return d.err
}

func (p *PacketPlayerConnect) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.u8(p.Slot)
	e.u8(p.Team)
	e.u8(uint8(p.Flags))
	e.u64(p.SteamID)
	e.u64(p.Permissions)
	e.str(p.Name)
	return e.flush(w)
}

func (p *PacketPlayerConnect) Read(data []byte) error {
	d := newDecoder(data, "player connect")
	p.PacketID = uint8(PacketTypePlayerConnect)
	p.UserID = d.u16()
	p.Slot = d.u8()
	p.Team = d.u8()
	p.Flags = PlayerFlags(d.u8())
	p.SteamID = d.u64()
	p.Permissions = d.u64()
	p.Name = d.str()
	return d.err
}

func (p *PacketPlayerDisconnect) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	return e.flush(w)
}

func (p *PacketPlayerDisconnect) Read(data []byte) error {
	d := newDecoder(data, "player disconnect")
	p.PacketID = uint8(PacketTypePlayerDisconnect)
	p.UserID = d.u16()
	return d.err
}

func (p *PacketPlayerTeam) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.u8(p.Team)
	return e.flush(w)
}

func (p *PacketPlayerTeam) Read(data []byte) error {
	d := newDecoder(data, "player team")
	p.PacketID = uint8(PacketTypePlayerTeam)
	p.UserID = d.u16()
	p.Team = d.u8()
	return d.err
}

func (p *PacketPlayerChat) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.bool(p.TeamOnly)
	e.str(p.Message)
	return e.flush(w)
}

func (p *PacketPlayerChat) Read(data []byte) error {
	d := newDecoder(data, "player chat")
	p.PacketID = uint8(PacketTypePlayerChat)
	p.UserID = d.u16()
	p.TeamOnly = d.bool()
	p.Message = d.str()
	return d.err
}

func (p *PacketMenuSelect) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.u8(p.Option)
	return e.flush(w)
}

func (p *PacketMenuSelect) Read(data []byte) error {
	d := newDecoder(data, "menu select")
	p.PacketID = uint8(PacketTypeMenuSelect)
	p.UserID = d.u16()
	p.Option = d.u8()
	return d.err
}

func (p *PacketTimeSync) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.i32(p.TimeLimit)
	e.i32(p.TimePlayed)
	e.i32(p.RoundTime)
	e.u16(p.RoundsPlayed)
	e.bool(p.Warmup)
	return e.flush(w)
}

func (p *PacketTimeSync) Read(data []byte) error {
	d := newDecoder(data, "time sync")
	p.PacketID = uint8(PacketTypeTimeSync)
	p.TimeLimit = d.i32()
	p.TimePlayed = d.i32()
	p.RoundTime = d.i32()
	p.RoundsPlayed = d.u16()
	p.Warmup = d.bool()
	return d.err
}

func (p *PacketConsoleCommand) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.str(p.Command)
	return e.flush(w)
}

func (p *PacketConsoleCommand) Read(data []byte) error {
	d := newDecoder(data, "console command")
	p.PacketID = uint8(PacketTypeConsoleCommand)
	p.Command = d.str()
	return d.err
}

func (p *PacketChatAll) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.str(p.Message)
	return e.flush(w)
}

func (p *PacketChatAll) Read(data []byte) error {
	d := newDecoder(data, "chat all")
	p.PacketID = uint8(PacketTypeChatAll)
	p.Message = d.str()
	return d.err
}

func (p *PacketChatPlayer) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.str(p.Message)
	return e.flush(w)
}

func (p *PacketChatPlayer) Read(data []byte) error {
	d := newDecoder(data, "chat player")
	p.PacketID = uint8(PacketTypeChatPlayer)
	p.UserID = d.u16()
	p.Message = d.str()
	return d.err
}

func (p *PacketCenterAll) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.str(p.HTML)
	return e.flush(w)
}

func (p *PacketCenterAll) Read(data []byte) error {
	d := newDecoder(data, "center all")
	p.PacketID = uint8(PacketTypeCenterAll)
	p.HTML = d.str()
	return d.err
}

func (p *PacketCenterPlayer) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.str(p.HTML)
	return e.flush(w)
}

func (p *PacketCenterPlayer) Read(data []byte) error {
	d := newDecoder(data, "center player")
	p.PacketID = uint8(PacketTypeCenterPlayer)
	p.UserID = d.u16()
	p.HTML = d.str()
	return d.err
}

func (p *PacketOpenMenu) Write(w io.Writer) error {
	if len(p.Options) > MaxMenuOptions {
		return fmt.Errorf("menu has %d options, at most %d fit", len(p.Options), MaxMenuOptions)
	}

	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	e.str(p.Title)
	e.u8(uint8(len(p.Options)))
	for _, option := range p.Options {
		e.str(option)
	}
	return e.flush(w)
}

func (p *PacketOpenMenu) Read(data []byte) error {
	d := newDecoder(data, "open menu")
	p.PacketID = uint8(PacketTypeOpenMenu)
	p.UserID = d.u16()
	p.Title = d.str()

	count := int(d.u8())
	p.Options = make([]string, 0, count)
	for i := 0; i < count && d.err == nil; i++ {
		p.Options = append(p.Options, d.str())
	}
	return d.err
}

func (p *PacketCloseMenu) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.u16(p.UserID)
	return e.flush(w)
}

func (p *PacketCloseMenu) Read(data []byte) error {
	d := newDecoder(data, "close menu")
	p.PacketID = uint8(PacketTypeCloseMenu)
	p.UserID = d.u16()
	return d.err
}

func (p *PacketChangeMap) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.str(p.MapName)
	e.str(p.WorkshopID)
	return e.flush(w)
}

func (p *PacketChangeMap) Read(data []byte) error {
	d := newDecoder(data, "change map")
	p.PacketID = uint8(PacketTypeChangeMap)
	p.MapName = d.str()
	p.WorkshopID = d.str()
	return d.err
}

func (p *PacketSetNextMap) Write(w io.Writer) error {
	e := newEncoder(p.PacketID)
	e.str(p.MapName)
	return e.flush(w)
}

func (p *PacketSetNextMap) Read(data []byte) error {
	d := newDecoder(data, "set next map")
	p.PacketID = uint8(PacketTypeSetNextMap)
	p.MapName = d.str()
	return d.err
}

func (p *PacketSetTimeLimit) Write(w io.Writer) error {
	var buf [5]byte
	buf[0] = p.PacketID
	binary.LittleEndian.PutUint32(buf[1:], uint32(p.Seconds))
	_, err := w.Write(buf[:])
	return err
}

func (p *PacketSetTimeLimit) Read(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("set time limit packet too small")
	}
	p.PacketID = data[0]
	p.Seconds = int32(binary.LittleEndian.Uint32(data[1:5]))
	return nil
}

func (p *PacketSetRoundTime) Write(w io.Writer) error {
	var buf [5]byte
	buf[0] = p.PacketID
	binary.LittleEndian.PutUint32(buf[1:], uint32(p.Seconds))
	_, err := w.Write(buf[:])
	return err
}

func (p *PacketSetRoundTime) Read(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("set round time packet too small")
	}
	p.PacketID = data[0]
	p.Seconds = int32(binary.LittleEndian.Uint32(data[1:5]))
	return nil
}

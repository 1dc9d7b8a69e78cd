package callbacks

import (
	"github.com/siohaza/rockthevote/internal/player"
)

type Callbacks interface {
	OnMapStart(mapName string)
	OnSecond()
	OnPlayerConnect(p *player.Player)
	OnPlayerDisconnect(p *player.Player)
	OnChatMessage(p *player.Player, message string) bool
}

type DefaultCallbacks struct{}

func (d *DefaultCallbacks) OnMapStart(mapName string)                          {}
func (d *DefaultCallbacks) OnSecond()                                          {}
func (d *DefaultCallbacks) OnPlayerConnect(p *player.Player)                   {}
func (d *DefaultCallbacks) OnPlayerDisconnect(p *player.Player)                {}
func (d *DefaultCallbacks) OnChatMessage(p *player.Player, message string) bool { return true }

type CallbackChain struct {
	callbacks []Callbacks
}

func NewCallbackChain() *CallbackChain {
	return &CallbackChain{
		callbacks: make([]Callbacks, 0),
	}
}

func (c *CallbackChain) Register(cb Callbacks) {
	c.callbacks = append(c.callbacks, cb)
}

func (c *CallbackChain) OnMapStart(mapName string) {
	for _, cb := range c.callbacks {
		cb.OnMapStart(mapName)
	}
}

func (c *CallbackChain) OnSecond() {
	for _, cb := range c.callbacks {
		cb.OnSecond()
	}
}

func (c *CallbackChain) OnPlayerConnect(p *player.Player) {
	for _, cb := range c.callbacks {
		cb.OnPlayerConnect(p)
	}
}

func (c *CallbackChain) OnPlayerDisconnect(p *player.Player) {
	for _, cb := range c.callbacks {
		cb.OnPlayerDisconnect(p)
	}
}

// OnChatMessage stops at the first callback that consumes the message.
func (c *CallbackChain) OnChatMessage(p *player.Player, message string) bool {
	for _, cb := range c.callbacks {
		if !cb.OnChatMessage(p, message) {
			return false
		}
	}
	return true
}

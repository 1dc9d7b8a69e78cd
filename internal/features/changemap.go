package features

import (
	"fmt"

	"github.com/siohaza/rockthevote/internal/callbacks"
	"github.com/siohaza/rockthevote/internal/i18n"
	"github.com/siohaza/rockthevote/internal/vote"
)

// ChangeMap owns the pending map change. A change is either left to the
// server (next map at map end) or carried out after a short delay.
type ChangeMap struct {
	callbacks.DefaultCallbacks

	deps      *Deps
	lang      *i18n.Localizer
	countdown vote.Countdown
}

func NewChangeMap(d *Deps) *ChangeMap {
	return &ChangeMap{
		deps: d,
		lang: d.Lang.WithPrefix("rtv.prefix"),
	}
}

// ScheduleMapChange makes name the next map. With immediate set the server
// switches to it after delay seconds instead of waiting for the map to end.
func (c *ChangeMap) ScheduleMapChange(name string, immediate bool, delay int) error {
	if err := c.deps.Host.SetNextMap(name); err != nil {
		return fmt.Errorf("failed to set next map: %w", err)
	}

	c.deps.Game.NextMap = name
	c.deps.Game.Plugin.MapChangeScheduled = true
	c.deps.Logger.Info("map change scheduled", "map", name, "immediate", immediate, "delay", delay)

	if !immediate {
		c.deps.Host.ChatAll(c.lang.LocalizeWithPrefix("general.next-map-set", name))
		return nil
	}

	if delay <= 0 {
		return c.changeNow()
	}

	c.countdown.Start(delay, nil, func() {
		if err := c.changeNow(); err != nil {
			c.deps.Logger.Error("map change failed", "map", name, "error", err)
			c.deps.Host.ChatAll(c.lang.LocalizeWithPrefix("general.apply-failed"))
		}
	})
	return nil
}

func (c *ChangeMap) changeNow() error {
	name := c.deps.Game.NextMap
	workshopID := ""
	if m, ok := c.deps.Maps.Get(name); ok {
		workshopID = m.WorkshopID
	}

	c.deps.Host.ChatAll(c.lang.LocalizeWithPrefix("general.changing-map", name))
	if err := c.deps.Host.ChangeMap(name, workshopID); err != nil {
		c.deps.Game.Plugin.MapChangeScheduled = false
		return fmt.Errorf("failed to change map to %s: %w", name, err)
	}
	return nil
}

// Cancel drops a delayed change, e.g. because the map got extended.
func (c *ChangeMap) Cancel() {
	c.countdown.Cancel()
}

func (c *ChangeMap) Pending() bool {
	return c.countdown.Running()
}

func (c *ChangeMap) OnSecond() {
	c.countdown.Tick()
}

func (c *ChangeMap) OnMapStart(string) {
	c.countdown.Cancel()
}

package maplist

import "golang.org/x/text/cases"

// Cooldown remembers the last few maps played so they are not offered again
// right away. It lives in memory only and starts empty on every launch.
type Cooldown struct {
	size int
	maps []string
	fold cases.Caser
}

func NewCooldown(size int) *Cooldown {
	return &Cooldown{
		size: size,
		fold: cases.Fold(),
	}
}

// MapPlayed records the map that just started, evicting the oldest entry.
func (c *Cooldown) MapPlayed(name string) {
	if c.size <= 0 || name == "" {
		return
	}

	c.remove(name)
	c.maps = append([]string{name}, c.maps...)
	if len(c.maps) > c.size {
		c.maps = c.maps[:c.size]
	}
}

// Add puts a map into cooldown on request. It returns false if it already was.
func (c *Cooldown) Add(name string) bool {
	if c.IsInCooldown(name) {
		return false
	}
	c.maps = append(c.maps, name)
	return true
}

func (c *Cooldown) IsInCooldown(name string) bool {
	key := c.fold.String(name)
	for _, m := range c.maps {
		if c.fold.String(m) == key {
			return true
		}
	}
	return false
}

func (c *Cooldown) Maps() []string {
	out := make([]string, len(c.maps))
	copy(out, c.maps)
	return out
}

func (c *Cooldown) remove(name string) {
	key := c.fold.String(name)
	kept := c.maps[:0]
	for _, m := range c.maps {
		if c.fold.String(m) != key {
			kept = append(kept, m)
		}
	}
	c.maps = kept
}

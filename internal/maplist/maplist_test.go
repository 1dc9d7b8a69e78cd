package maplist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
// competitive pool
de_dust2
de_inferno
de_mirage
de_nuke
de_NUKE
cs_office
surf_kitsune:3070321829
`

func TestParse(t *testing.T) {
	list, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if list.Len() != 6 {
		t.Fatalf("expected 6 maps after dropping duplicate, got %d: %v", list.Len(), list.Names())
	}

	m, ok := list.Get("SURF_KITSUNE")
	if !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	if !m.Workshop() || m.WorkshopID != "3070321829" {
		t.Fatalf("expected workshop id, got %+v", m)
	}
}

func TestParseEmpty(t *testing.T) {
	if _, err := Parse(strings.NewReader("// nothing\n\n")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSingleMatch(t *testing.T) {
	list, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tests := []struct {
		input     string
		want      string
		ambiguous bool
		none      bool
	}{
		{input: "dust", want: "de_dust2"},
		{input: "Mirage", want: "de_mirage"},
		{input: "de_nuke", want: "de_nuke"},
		{input: "de_", ambiguous: true},
		{input: "vertigo", none: true},
		{input: "   ", none: true},
	}

	for _, tt := range tests {
		got, err := list.SingleMatch(tt.input)
		switch {
		case tt.ambiguous:
			var amb *AmbiguousError
			if !errors.As(err, &amb) || len(amb.Candidates) != 4 {
				t.Errorf("%q: expected ambiguous error with 4 candidates, got %v", tt.input, err)
			}
		case tt.none:
			if !errors.Is(err, ErrNoMatch) {
				t.Errorf("%q: expected ErrNoMatch, got %v", tt.input, err)
			}
		default:
			if err != nil || got != tt.want {
				t.Errorf("%q: got %q, %v; want %q", tt.input, got, err, tt.want)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maplist.txt")
	if err := os.WriteFile(path, []byte("de_ancient\nde_anubis\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	list, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if names := list.Names(); len(names) != 2 || names[0] != "de_ancient" {
		t.Fatalf("unexpected names %v", names)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCooldown(t *testing.T) {
	c := NewCooldown(2)

	c.MapPlayed("de_dust2")
	c.MapPlayed("de_inferno")
	c.MapPlayed("de_mirage")

	if c.IsInCooldown("de_dust2") {
		t.Fatalf("oldest map should have left cooldown")
	}
	if !c.IsInCooldown("DE_INFERNO") || !c.IsInCooldown("de_mirage") {
		t.Fatalf("recent maps should be in cooldown: %v", c.Maps())
	}

	c.MapPlayed("de_inferno")
	if got := c.Maps(); len(got) != 2 || got[0] != "de_inferno" || got[1] != "de_mirage" {
		t.Fatalf("replaying a map should move it to the front: %v", got)
	}

	if !c.Add("de_nuke") {
		t.Fatalf("expected add to succeed")
	}
	if c.Add("de_nuke") {
		t.Fatalf("expected second add to report existing entry")
	}
}

func TestCooldownDisabled(t *testing.T) {
	c := NewCooldown(0)
	c.MapPlayed("de_dust2")
	if c.IsInCooldown("de_dust2") {
		t.Fatalf("cooldown of size 0 should not remember maps")
	}
}

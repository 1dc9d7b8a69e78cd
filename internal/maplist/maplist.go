package maplist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

var (
	ErrNoMatch = errors.New("no map matches")
	ErrEmpty   = errors.New("map list is empty")
)

// AmbiguousError lists the maps a partial name could refer to.
type AmbiguousError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %d maps: %s", e.Input, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

type Map struct {
	Name       string
	WorkshopID string
}

// Workshop reports whether the map has to be loaded through host_workshop_map.
func (m Map) Workshop() bool {
	return m.WorkshopID != ""
}

type List struct {
	maps []Map
	fold cases.Caser
}

func Load(path string) (*List, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map list: %w", err)
	}
	defer file.Close()

	list, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read map list %s: %w", path, err)
	}
	return list, nil
}

// Parse reads one map per line, optionally as "name:workshop_id". Blank lines
// and lines starting with // are skipped.
func Parse(r io.Reader) (*List, error) {
	list := New(nil)
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		m := Map{Name: line}
		if name, id, ok := strings.Cut(line, ":"); ok {
			m = Map{Name: strings.TrimSpace(name), WorkshopID: strings.TrimSpace(id)}
		}
		if m.Name == "" {
			continue
		}

		key := list.key(m.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		list.maps = append(list.maps, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(list.maps) == 0 {
		return nil, ErrEmpty
	}
	return list, nil
}

func New(maps []Map) *List {
	return &List{
		maps: maps,
		fold: cases.Fold(),
	}
}

func (l *List) key(name string) string {
	return l.fold.String(name)
}

func (l *List) Maps() []Map {
	out := make([]Map, len(l.maps))
	copy(out, l.maps)
	return out
}

func (l *List) Names() []string {
	names := make([]string, len(l.maps))
	for i, m := range l.maps {
		names[i] = m.Name
	}
	return names
}

func (l *List) Len() int {
	return len(l.maps)
}

func (l *List) Get(name string) (Map, bool) {
	key := l.key(name)
	for _, m := range l.maps {
		if l.key(m.Name) == key {
			return m, true
		}
	}
	return Map{}, false
}

// Equal compares map names the same way lookups do.
func (l *List) Equal(a, b string) bool {
	return l.key(a) == l.key(b)
}

// Matching returns every map whose name contains input.
func (l *List) Matching(input string) []string {
	key := l.key(strings.TrimSpace(input))
	var matches []string
	for _, m := range l.maps {
		if strings.Contains(l.key(m.Name), key) {
			matches = append(matches, m.Name)
		}
	}
	return matches
}

// SingleMatch resolves a partial map name. An exact name always wins over
// partial matches.
func (l *List) SingleMatch(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrNoMatch
	}

	if m, ok := l.Get(input); ok {
		return m.Name, nil
	}

	matches := l.Matching(input)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrNoMatch, input)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Input: input, Candidates: matches}
	}
}

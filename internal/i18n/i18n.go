package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Catalog holds the translations of every language file found in the lang
// directory and formats messages for the configured locale.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
	keys    map[string]struct{}
}

// Load reads every <locale>.yaml file in dir and picks the best match for
// locale. English is used when nothing matches.
func Load(dir, locale string) (*Catalog, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list language files: %w", err)
	}
	sort.Strings(files)

	tables := make(map[language.Tag]map[string]string)
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid language file name %s: %w", file, err)
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read language file: %w", err)
		}

		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		tables[tag] = table
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("no language files in %s", dir)
	}

	return New(tables, locale)
}

// New builds a catalog from in-memory tables.
func New(tables map[language.Tag]map[string]string, locale string) (*Catalog, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make(map[string]struct{})

	// English goes first so the matcher falls back to it
	var others []language.Tag
	for tag := range tables {
		if tag != language.English {
			others = append(others, tag)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		return others[i].String() < others[j].String()
	})

	var tags []language.Tag
	if _, ok := tables[language.English]; ok {
		tags = append(tags, language.English)
	}
	tags = append(tags, others...)

	english := tables[language.English]
	for _, tag := range tags {
		// untranslated keys fall back to english
		merged := make(map[string]string, len(english))
		for key, format := range english {
			merged[key] = format
		}
		for key, format := range tables[tag] {
			merged[key] = format
		}

		for key, format := range merged {
			if err := builder.SetString(tag, key, format); err != nil {
				return nil, fmt.Errorf("invalid message %s for %s: %w", key, tag, err)
			}
			keys[key] = struct{}{}
		}
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("no translations loaded")
	}

	requested, err := language.Parse(locale)
	if err != nil {
		requested = language.English
	}
	matcher := language.NewMatcher(tags)
	_, index, _ := matcher.Match(requested)
	tag := tags[index]

	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
		keys:    keys,
	}, nil
}

func (c *Catalog) Language() language.Tag {
	return c.tag
}

func (c *Catalog) Has(key string) bool {
	_, ok := c.keys[key]
	return ok
}

// Localize formats the message stored under key. Unknown keys are returned
// unchanged so a missing translation is visible in game.
func (c *Catalog) Localize(key string, args ...any) string {
	if !c.Has(key) {
		return key
	}
	return c.printer.Sprintf(key, args...)
}

// WithPrefix returns a Localizer that puts the message under prefixKey in
// front of every message.
func (c *Catalog) WithPrefix(prefixKey string) *Localizer {
	return &Localizer{catalog: c, prefixKey: prefixKey}
}

type Localizer struct {
	catalog   *Catalog
	prefixKey string
}

func (l *Localizer) Localize(key string, args ...any) string {
	return l.catalog.Localize(key, args...)
}

func (l *Localizer) LocalizeWithPrefix(key string, args ...any) string {
	prefix := l.catalog.Localize(l.prefixKey)
	return prefix + " " + l.catalog.Localize(key, args...)
}

// parseTable flattens nested YAML mappings into dotted keys, so
//
//	general:
//	  validation:
//	    warmup: ...
//
// becomes "general.validation.warmup".
func parseTable(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	table := make(map[string]string)
	flatten("", root, table)
	return table, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		case nil:
			out[full] = ""
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

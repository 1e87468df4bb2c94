package localize

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/spendsync/internal/errors"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves translation keys.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(key string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(key string) string {
	return f(key)
}

// Catalog holds translation tables for several languages.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	fallback language.Tag
	tables   map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// NewCatalog creates an empty catalog that falls back to the given language.
func NewCatalog(fallback language.Tag) *Catalog {
	return &Catalog{
		fallback: fallback,
		tables:   make(map[language.Tag]map[string]string),
	}
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the catalog built from the embedded English and Spanish
// tables. It panics if the embedded tables are malformed.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c := NewCatalog(language.English)
		if err := c.LoadFS(builtin, "locales"); err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Add merges entries into the table for tag.
func (c *Catalog) Add(tag language.Tag, entries map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[tag]
	if !ok {
		table = make(map[string]string, len(entries))
		c.tables[tag] = table
		c.rebuildMatcherLocked()
	}
	for k, v := range entries {
		table[k] = v
	}
}

// Languages returns the languages present in the catalog.
func (c *Catalog) Languages() []language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]language.Tag, len(c.tags))
	copy(out, c.tags)
	return out
}

func (c *Catalog) rebuildMatcherLocked() {
	tags := make([]language.Tag, 0, len(c.tables))
	if _, ok := c.tables[c.fallback]; ok {
		tags = append(tags, c.fallback)
	}
	var rest []language.Tag
	for tag := range c.tables {
		if tag != c.fallback {
			rest = append(rest, tag)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	c.tags = append(tags, rest...)
	c.matcher = language.NewMatcher(c.tags)
}

// LoadFile loads one table. The language is taken from the file name
// ("es.yaml", "pt-BR.json").
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New("S500").WithDetail(path).Wrap(err)
	}
	return c.load(filepath.Base(path), data)
}

// LoadDir loads every .yaml, .yml and .json table in dir.
func (c *Catalog) LoadDir(dir string) error {
	return c.LoadFS(os.DirFS(dir), ".")
}

// LoadFS loads every table under dir in fsys.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return errors.New("S500").WithDetail(dir).Wrap(err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isTableFile(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return errors.New("S500").WithDetail(entry.Name()).Wrap(err)
		}
		if err := c.load(entry.Name(), data); err != nil {
			return err
		}
	}
	return nil
}

func isTableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (c *Catalog) load(name string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	tag, err := language.Parse(strings.TrimSuffix(name, filepath.Ext(name)))
	if err != nil {
		return errors.New("S500").WithDetailf("%s: file name is not a language tag", name).Wrap(err)
	}

	var raw map[string]any
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return errors.New("S500").WithDetail(name).Wrap(err)
	}

	entries := make(map[string]string)
	flatten("", raw, entries)
	c.Add(tag, entries)
	return nil
}

func flatten(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case string:
			out[key] = t
		case nil:
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

// Translator returns a translator for the best match of locale.
// Unparseable locales use the fallback language.
func (c *Catalog) Translator(locale string) *Localizer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tag := c.fallback
	if c.matcher != nil && locale != "" {
		if requested, err := language.Parse(locale); err == nil {
			_, index, conf := c.matcher.Match(requested)
			if conf != language.No {
				tag = c.tags[index]
			}
		}
	}
	return &Localizer{catalog: c, tag: tag}
}

func (c *Catalog) lookup(tag language.Tag, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.tables[tag][key]; ok {
		return s, true
	}
	if s, ok := c.tables[c.fallback][key]; ok {
		return s, true
	}
	return "", false
}

// Localizer translates keys for one language.
type Localizer struct {
	catalog *Catalog
	tag     language.Tag
}

// Language returns the negotiated language.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

// Translate returns the translation for key, or key itself when no table
// has it.
func (l *Localizer) Translate(key string) string {
	if s, ok := l.catalog.lookup(l.tag, key); ok {
		return s
	}
	return key
}

package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

const defaultFile = "messages.en.yaml"

// Catalog loads string templates from embedded defaults and an optional override directory.
// Values are rendered with text/template (missing keys cause errors).
type Catalog struct {
	mu        sync.RWMutex
	data      map[string]string // flattened dot-keys → template text
	templates map[string]*template.Template
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog without overrides.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New("")
		if err != nil {
			panic(fmt.Sprintf("msgcat: embedded messages invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// New loads the embedded default messages and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
	base := &Catalog{data: make(map[string]string), templates: make(map[string]*template.Template)}

	if err := base.loadEmbedded(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(overrideDir) != "" {
		if err := base.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return base, nil
}

func (c *Catalog) loadEmbedded() error {
	raw, err := fs.ReadFile(defaultFiles, defaultFile)
	if err != nil {
		return fmt.Errorf("read embedded messages: %w", err)
	}
	return c.applyYAML(raw)
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read template dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		ext := strings.ToLower(filepath.Ext(n))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, n)
		}
	}
	sort.Strings(files)
	// Guard against duplicate keys across override files
	seen := make(map[string]string) // key -> filename
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.merge(flat)
	}
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func (c *Catalog) applyYAML(b []byte) error {
	flat, err := parseYAMLToFlat(b)
	if err != nil {
		return err
	}
	c.merge(flat)
	return nil
}

func (c *Catalog) merge(flat map[string]string) {
	c.mu.Lock()
	for k, v := range flat {
		c.data[k] = v
		delete(c.templates, k)
	}
	c.mu.Unlock()
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case map[any]any: // tolerate legacy YAML decoders
		tmp := make(map[string]any)
		for kk, vv := range v {
			tmp[fmt.Sprint(kk)] = vv
		}
		return flattenStrings(tmp, prefix, out)
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		// Only string leaves are allowed to avoid type confusion
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Render executes a template by key with the provided data.
// Missing keys cause errors; caller should provide safe fallback.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	t, err := c.template(key)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderOr is Render with a fallback for missing keys or bad data.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	if c == nil {
		return fallback
	}
	s, err := c.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}

func (c *Catalog) template(key string) (*template.Template, error) {
	c.mu.RLock()
	t, cached := c.templates[key]
	tpl, ok := c.data[key]
	c.mu.RUnlock()
	if cached {
		return t, nil
	}
	if !ok || strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("template not found: %s", key)
	}
	t, err := template.New(key).Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.templates[key] = t
	c.mu.Unlock()
	return t, nil
}

// Keys lists the loaded keys in sorted order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

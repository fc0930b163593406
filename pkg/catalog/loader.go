package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osvaldoandrade/scanq/pkg/domain"

	"gopkg.in/yaml.v3"
)

// Entry is one worker definition as loaded from the catalog directory:
// the public descriptor plus the settings the analysis workers consume.
// Settings never cross the page-context endpoint.
type Entry struct {
	Worker   domain.Worker
	Settings map[string]any
}

// Catalog holds the loaded worker definitions, sorted by name. That order is
// the catalog order every downstream component preserves.
type Catalog struct {
	Entries []Entry
}

// Workers returns the ordered descriptors for every entry.
func (c *Catalog) Workers() []domain.Worker {
	out := make([]domain.Worker, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e.Worker)
	}
	return out
}

// SelectableWorkers returns the ordered descriptors submitters may toggle.
func (c *Catalog) SelectableWorkers() []domain.Worker {
	return Selectable(c.Workers())
}

type fileConfig struct {
	Meta     map[string]any `yaml:"meta"`
	Settings map[string]any `yaml:"settings"`
}

// LoadDir reads a worker catalog directory. base.yml (base.yml.sample as a
// fallback) supplies defaults; every other *.yml file defines one worker,
// merging its own meta and settings over its .sample companion and the
// defaults. The entry name is the file stem.
func LoadDir(dir string) (*Catalog, error) {
	base, err := readFileConfig(filepath.Join(dir, "base.yml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load catalog defaults: %w", err)
		}
		base, err = readFileConfig(filepath.Join(dir, "base.yml.sample"))
		if err != nil {
			return nil, fmt.Errorf("load catalog defaults: %w", err)
		}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("scan catalog dir: %w", err)
	}

	byName := make(map[string]Entry)
	names := make([]string, 0, len(files))
	for _, path := range files {
		fn := filepath.Base(path)
		if fn == "base.yml" {
			continue
		}
		stem := strings.TrimSuffix(fn, ".yml")

		own, err := readFileConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load worker %s: %w", stem, err)
		}
		// The .sample companion supplies defaults the deployment did not set.
		sample, err := readFileConfig(path + ".sample")
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load worker sample %s: %w", stem, err)
		}

		meta := overlay(base.Meta, sample.Meta, own.Meta)
		settings := overlay(base.Settings, sample.Settings, own.Settings)

		byName[stem] = Entry{
			Worker: domain.Worker{
				Name:        stem,
				DisplayName: strAt(meta, "name", stem),
				Description: strAt(meta, "description", ""),
				Replicas:    intAt(meta, "replicas", 1),
			},
			Settings: settings,
		}
		names = append(names, stem)
	}

	sort.Strings(names)
	cat := &Catalog{Entries: make([]Entry, 0, len(names))}
	for _, n := range names {
		cat.Entries = append(cat.Entries, byName[n])
	}
	return cat, nil
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return fc, nil
}

func overlay(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func strAt(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intAt(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

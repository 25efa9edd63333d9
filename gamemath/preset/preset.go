// Package preset ships curated prize models embedded in the binary. The
// catalog is the starting point for studio users: every preset passes the
// commercial validator (Pool mode) at load time, so a broken preset fails
// fast at startup instead of surfacing as a bad game later.
package preset

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Ashenafi-pixel/gamecrafter-math-engine/gamemath"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Summary is the list entry for a preset: identity plus computed metrics.
type Summary struct {
	ModelID string           `json:"model_id"`
	Name    string           `json:"name"`
	Mode    gamemath.Mode    `json:"mode"`
	Metrics gamemath.Metrics `json:"metrics"`
}

// Catalog holds the embedded presets. Read-only after New.
type Catalog struct {
	models map[string]*gamemath.PrizeModel
}

// New parses and verifies every embedded preset.
func New() (*Catalog, error) {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil, fmt.Errorf("read embedded presets: %w", err)
	}
	c := &Catalog{models: make(map[string]*gamemath.PrizeModel, len(entries))}
	for _, e := range entries {
		data, err := presetFS.ReadFile("presets/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.Name(), err)
		}
		var m gamemath.PrizeModel
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.Name(), err)
		}
		if err := m.Check(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.Name(), err)
		}
		if res := gamemath.Validate(&m, gamemath.DefaultRules()); !res.IsValid {
			return nil, fmt.Errorf("preset %s fails commercial validation: %v", e.Name(), res.Errors)
		}
		if _, dup := c.models[m.ModelID]; dup {
			return nil, fmt.Errorf("preset %s: duplicate model_id %q", e.Name(), m.ModelID)
		}
		c.models[m.ModelID] = &m
	}
	return c, nil
}

// Get returns a copy of the preset, or nil. Callers own the copy and may
// edit it freely; the embedded original never changes.
func (c *Catalog) Get(modelID string) *gamemath.PrizeModel {
	m, ok := c.models[modelID]
	if !ok {
		return nil
	}
	return m.Clone()
}

// List returns summaries of all presets sorted by model_id.
func (c *Catalog) List() []Summary {
	list := make([]Summary, 0, len(c.models))
	for _, m := range c.models {
		list = append(list, Summary{
			ModelID: m.ModelID,
			Name:    m.Name,
			Mode:    m.Mode,
			Metrics: gamemath.Compute(m),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ModelID < list[j].ModelID })
	return list
}

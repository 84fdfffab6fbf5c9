package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// PageCount is the number of printed pages on the check sheet.
const PageCount = 7

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Checkpoint is the static description of one row of the check sheet.
type Checkpoint struct {
	SrNo         int      `yaml:"sr" json:"sr_no"`
	Page         int      `yaml:"page" json:"page"`
	Stage        string   `yaml:"stage" json:"stage"`
	Description  string   `yaml:"description" json:"description"`
	Criteria     string   `yaml:"criteria" json:"criteria"`
	Quantum      string   `yaml:"quantum" json:"quantum,omitempty"`
	Frequency    string   `yaml:"frequency" json:"frequency,omitempty"`
	SubFieldKeys []string `yaml:"subFieldKeys" json:"sub_field_keys,omitempty"`
}

// HasSubFields reports whether the checkpoint is recorded as named sub-fields
// instead of a single result.
func (c Checkpoint) HasSubFields() bool { return len(c.SubFieldKeys) > 0 }

// HasSubKey reports whether key is one of the checkpoint's sub-field keys.
func (c Checkpoint) HasSubKey(key string) bool {
	for _, k := range c.SubFieldKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Catalog is the read-only, srNo-ordered list of checkpoints.
type Catalog struct {
	items  []Checkpoint
	bySrNo map[int]int
	byPage map[int][]int
}

type catalogFile struct {
	Checkpoints []Checkpoint `yaml:"checkpoints"`
}

// Parse decodes a YAML catalog and checks its invariants: srNo runs 1..N
// without gaps or duplicates and every checkpoint sits on a page in 1..PageCount.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Checkpoints) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	items := append([]Checkpoint(nil), f.Checkpoints...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SrNo < items[j].SrNo })

	c := &Catalog{
		items:  items,
		bySrNo: make(map[int]int, len(items)),
		byPage: make(map[int][]int, PageCount),
	}
	for i, cp := range items {
		if cp.SrNo != i+1 {
			return nil, fmt.Errorf("catalog srNo %d out of sequence at position %d", cp.SrNo, i+1)
		}
		if cp.Page < 1 || cp.Page > PageCount {
			return nil, fmt.Errorf("catalog srNo %d: page %d out of range", cp.SrNo, cp.Page)
		}
		if strings.TrimSpace(cp.Description) == "" {
			return nil, fmt.Errorf("catalog srNo %d: empty description", cp.SrNo)
		}
		seen := make(map[string]struct{}, len(cp.SubFieldKeys))
		for _, k := range cp.SubFieldKeys {
			if _, dup := seen[k]; dup {
				return nil, fmt.Errorf("catalog srNo %d: duplicate sub-field key %q", cp.SrNo, k)
			}
			seen[k] = struct{}{}
		}
		c.bySrNo[cp.SrNo] = i
		c.byPage[cp.Page] = append(c.byPage[cp.Page], i)
	}
	return c, nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
})

// Default returns the embedded 88-checkpoint catalog.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Len is the number of checkpoints.
func (c *Catalog) Len() int { return len(c.items) }

// All returns a copy of every checkpoint in srNo order.
func (c *Catalog) All() []Checkpoint {
	out := make([]Checkpoint, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup returns the checkpoint with the given serial number.
func (c *Catalog) Lookup(srNo int) (Checkpoint, bool) {
	i, ok := c.bySrNo[srNo]
	if !ok {
		return Checkpoint{}, false
	}
	return c.items[i], true
}

// ByPage returns the checkpoints printed on page, in srNo order.
func (c *Catalog) ByPage(page int) []Checkpoint {
	idx := c.byPage[page]
	out := make([]Checkpoint, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.items[i])
	}
	return out
}

// FindByNameAndStage returns the first checkpoint whose description contains
// description and whose stage contains stage, both compared case-insensitively.
// An empty stage matches any stage.
func (c *Catalog) FindByNameAndStage(description, stage string) (Checkpoint, bool) {
	d := strings.ToLower(strings.TrimSpace(description))
	s := strings.ToLower(strings.TrimSpace(stage))
	if d == "" {
		return Checkpoint{}, false
	}
	for _, cp := range c.items {
		if !strings.Contains(strings.ToLower(cp.Description), d) {
			continue
		}
		if s != "" && !strings.Contains(strings.ToLower(cp.Stage), s) {
			continue
		}
		return cp, true
	}
	return Checkpoint{}, false
}

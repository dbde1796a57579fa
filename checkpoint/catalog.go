package checkpoint

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// ClauseInfo describes one Matterhorn failure condition.
type ClauseInfo struct {
	Title   string `yaml:"title"`
	Section string `yaml:"section"`
	Machine bool   `yaml:"machine"`
}

// GroupInfo describes one of the 31 checkpoint groups.
type GroupInfo struct {
	Title   string                `yaml:"title"`
	Machine bool                  `yaml:"machine"`
	Clauses map[string]ClauseInfo `yaml:"clauses"`
}

type catalogFile struct {
	Groups map[string]GroupInfo `yaml:"groups"`
}

var (
	catalogOnce sync.Once
	catalogData map[string]GroupInfo
	catalogErr  error
)

func loadCatalog() {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		catalogErr = fmt.Errorf("checkpoint: parse catalog: %w", err)
		return
	}
	if len(f.Groups) != 31 {
		catalogErr = fmt.Errorf("checkpoint: catalog has %d groups, want 31", len(f.Groups))
		return
	}
	catalogData = f.Groups
}

// Catalog returns the embedded checkpoint catalog, keyed by group id.
func Catalog() (map[string]GroupInfo, error) {
	catalogOnce.Do(loadCatalog)
	return catalogData, catalogErr
}

// LookupGroup returns metadata for a checkpoint group.
func LookupGroup(group string) (GroupInfo, bool) {
	cat, err := Catalog()
	if err != nil {
		return GroupInfo{}, false
	}
	g, ok := cat[group]
	return g, ok
}

// LookupClause returns metadata for a clause id like "15-003".
func LookupClause(clause string) (ClauseInfo, bool) {
	if len(clause) < 2 {
		return ClauseInfo{}, false
	}
	g, ok := LookupGroup(clause[:2])
	if !ok {
		return ClauseInfo{}, false
	}
	c, ok := g.Clauses[clause]
	return c, ok
}

// GroupIDs returns all group ids ascending.
func GroupIDs() []string {
	cat, err := Catalog()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(cat))
	for id := range cat {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

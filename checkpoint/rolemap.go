package checkpoint

import (
	"errors"
	"sort"

	"github.com/wudi/tagkit/structure"
)

// roleMapEvaluator covers checkpoint 02: custom tag mappings terminate
// at standard types, contain no cycles, and leave standard types alone.
type roleMapEvaluator struct{}

func (roleMapEvaluator) Group() string { return "02" }

func (roleMapEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding

	// Every custom name reachable from the tree or the map itself.
	names := make(map[string][]structure.NodeID)
	for name := range in.Tree.RoleMap() {
		if !structure.IsStandardTag(name) {
			names[name] = nil
		}
	}
	in.Tree.Walk(func(n *structure.Node) bool {
		if n.Tag() == structure.TagCustom {
			names[n.CustomTag()] = append(names[n.CustomTag()], n.ID())
		}
		return true
	})

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		_, err := in.Tree.ResolveTag(name)
		if err == nil {
			continue
		}
		var unres *structure.UnresolvedRoleError
		if !errors.As(err, &unres) {
			continue
		}
		clause, reason := "02-001", ReasonRoleDangling
		if unres.Cycle {
			clause, reason = "02-003", ReasonRoleCycle
		}
		out = append(out, Finding{
			Checkpoint: clause,
			Severity:   SeverityFailure,
			Nodes:      names[name],
			Reason:     reason,
			Params:     map[string]string{"tag": name},
		})
	}

	for _, name := range in.Tree.RemappedStandardTypes() {
		out = append(out, Finding{
			Checkpoint: "02-004",
			Severity:   SeverityFailure,
			Reason:     ReasonRoleRemapsStandard,
			Params:     map[string]string{"tag": name},
		})
	}
	return out
}

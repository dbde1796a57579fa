package structure

import "sort"

// ResolveTag resolves a raw tag name to its standard type, following the
// role map transitively. Standard names resolve to themselves. Custom
// names must terminate at a standard type; dangling or circular chains
// fail with UnresolvedRoleError.
func (t *Tree) ResolveTag(name string) (TagType, error) {
	if tt, ok := ParseTag(name); ok {
		return tt, nil
	}
	if t.resolved != nil {
		if tt, ok := t.resolved[name]; ok {
			return tt, nil
		}
	}

	chain := []string{name}
	seen := map[string]bool{name: true}
	cur := name
	for {
		next, ok := t.roleMap[cur]
		if !ok {
			return TagCustom, &UnresolvedRoleError{Tag: name, Chain: chain}
		}
		chain = append(chain, next)
		if tt, ok := ParseTag(next); ok {
			if t.resolved == nil {
				t.resolved = make(map[string]TagType)
			}
			t.resolved[name] = tt
			return tt, nil
		}
		if seen[next] {
			return TagCustom, &UnresolvedRoleError{Tag: name, Chain: chain, Cycle: true}
		}
		seen[next] = true
		cur = next
	}
}

// ResolveNode resolves a node's tag through the role map.
func (t *Tree) ResolveNode(n *Node) (TagType, error) {
	if n.tag != TagCustom {
		return n.tag, nil
	}
	return t.ResolveTag(n.custom)
}

// CheckRoleMap verifies that every role-map entry terminates at a
// standard type. It returns the first failure encountered, with entries
// visited in deterministic order.
func (t *Tree) CheckRoleMap() error {
	for _, name := range sortedKeys(t.roleMap) {
		if _, err := t.ResolveTag(name); err != nil {
			return err
		}
	}
	return nil
}

// RemappedStandardTypes returns the standard tag names that the role map
// redefines, sorted. Remapping standard types is a conformance failure
// but not a structural error.
func (t *Tree) RemappedStandardTypes() []string {
	var out []string
	for _, name := range sortedKeys(t.roleMap) {
		if IsStandardTag(name) {
			out = append(out, name)
		}
	}
	return out
}

func (t *Tree) invalidateRoleCache() { t.resolved = nil }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

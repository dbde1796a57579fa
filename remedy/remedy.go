// Package remedy turns conformance findings into tree transactions.
// Every fix previews as a structural diff before anything commits, and
// all mutation flows through the edit history so remediation stays
// undoable like any manual edit.
package remedy

import (
	"fmt"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/structure"
)

// Fix is one automatic remediation. AppliesTo must be false on the
// fix's own output so running a batch twice is a no-op.
type Fix interface {
	// Name is a stable kebab-case identifier.
	Name() string
	// Checkpoints lists the clause ids this fix can remedy.
	Checkpoints() []string
	// AppliesTo reports whether the fix can act on the finding.
	AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool
	// Preview computes the structural diff without touching the tree.
	Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error)
	// Apply commits the fix through the history and returns the diff.
	Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error)
}

// planner is the shared shape of the concrete fixes: one plan method
// yields both the transaction and its diff, so Preview and Apply can
// never drift apart.
type planner interface {
	plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error)
}

// Catalog holds the registered fixes in application order.
type Catalog struct {
	fixes  []Fix
	byName map[string]Fix
	log    observability.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger routes batch progress to the given logger.
func WithLogger(log observability.Logger) CatalogOption {
	return func(c *Catalog) { c.log = log }
}

// NewCatalog registers fixes in the given order. The order is the batch
// application order; registering two fixes under the same name is a
// programming error.
func NewCatalog(fixes []Fix, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{
		fixes:  fixes,
		byName: make(map[string]Fix, len(fixes)),
		log:    observability.NopLogger{},
	}
	for _, f := range fixes {
		if _, dup := c.byName[f.Name()]; dup {
			return nil, fmt.Errorf("remedy: duplicate fix %q", f.Name())
		}
		c.byName[f.Name()] = f
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DefaultCatalog returns all built-in fixes, ordered by the checkpoint
// they remedy and, within a checkpoint, from the most conservative to
// the most structural change.
func DefaultCatalog(opts ...CatalogOption) *Catalog {
	c, err := NewCatalog([]Fix{
		&setDocumentLanguage{},
		&setDocumentTitle{},
		&setDisplayDocTitle{},
		&altFromActualText{},
		&artifactDecorativeFigure{},
		&normalizeHeadingLevels{},
		&inferTableHeaderScope{},
		&pruneDanglingHeaders{},
		&wrapOrphanListItems{},
		&wrapListItemBody{},
		&artifactPageDecoration{},
		&retagIllegalNesting{},
		&removeEmptyElements{},
	}, opts...)
	if err != nil {
		panic(err) // only duplicate registration can fail here
	}
	return c
}

// Fixes returns the fixes in application order.
func (c *Catalog) Fixes() []Fix {
	out := make([]Fix, len(c.fixes))
	copy(out, c.fixes)
	return out
}

// Lookup returns a fix by name.
func (c *Catalog) Lookup(name string) (Fix, bool) {
	f, ok := c.byName[name]
	return f, ok
}

// For returns the registered fixes applicable to a finding, in
// application order.
func (c *Catalog) For(f checkpoint.Finding, in *checkpoint.Input) []Fix {
	var out []Fix
	for _, fix := range c.fixes {
		if remedies(fix, f.Checkpoint) && fix.AppliesTo(f, in) {
			out = append(out, fix)
		}
	}
	return out
}

func remedies(fix Fix, clause string) bool {
	for _, c := range fix.Checkpoints() {
		if c == clause {
			return true
		}
	}
	return false
}

// Outcome classifies one batch item.
type Outcome int

const (
	// Applied means the fix committed a transaction.
	Applied Outcome = iota
	// NotApplicable means the fix declined the finding, usually because
	// an earlier item already repaired it.
	NotApplicable
	// Rejected means the transaction violated a structural invariant
	// and was rolled back.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NotApplicable:
		return "not-applicable"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// BatchItem reports what happened to one (fix, finding) pair.
type BatchItem struct {
	Fix     string
	Finding checkpoint.Finding
	Outcome Outcome
	Diff    Diff
	Err     error
}

// Batch applies every applicable fix to the given findings, in catalog
// order. Each application commits its own transaction and re-snapshots
// the evaluation input, so later fixes see the repaired tree. Duplicate
// (fix, target) pairs collapse to one application: fixes that rewrite a
// wider unit than the finding site, like a whole table, name that unit
// as the target so several findings into it enter the loop once.
func (c *Catalog) Batch(h *edit.History, idx *content.Index, findings []checkpoint.Finding) []BatchItem {
	var out []BatchItem
	in := checkpoint.NewInput(h.Tree(), idx)
	done := make(map[string]bool)

	for _, fix := range c.fixes {
		for _, f := range findings {
			if !remedies(fix, f.Checkpoint) {
				continue
			}
			key := batchKey(fix, f, in)
			if done[key] {
				continue
			}
			done[key] = true

			if !fix.AppliesTo(f, in) {
				out = append(out, BatchItem{Fix: fix.Name(), Finding: f, Outcome: NotApplicable})
				continue
			}
			diff, err := fix.Apply(f, h, in)
			if err != nil {
				c.log.Warn("fix rejected",
					observability.String("fix", fix.Name()),
					observability.String("checkpoint", f.Checkpoint),
					observability.Error("error", err))
				out = append(out, BatchItem{Fix: fix.Name(), Finding: f, Outcome: Rejected, Err: err})
				continue
			}
			c.log.Debug("fix applied",
				observability.String("fix", fix.Name()),
				observability.String("checkpoint", f.Checkpoint))
			out = append(out, BatchItem{Fix: fix.Name(), Finding: f, Outcome: Applied, Diff: diff})
			in = checkpoint.NewInput(h.Tree(), idx)
		}
	}
	return out
}

// targeter is implemented by fixes whose repair rewrites a wider unit
// than the finding site.
type targeter interface {
	target(f checkpoint.Finding, in *checkpoint.Input) (structure.NodeID, bool)
}

func batchKey(fix Fix, f checkpoint.Finding, in *checkpoint.Input) string {
	if tg, ok := fix.(targeter); ok {
		if id, found := tg.target(f, in); found {
			return fmt.Sprintf("%s|%d", fix.Name(), id)
		}
	}
	target := structure.NodeID(0)
	if len(f.Nodes) > 0 {
		target = f.Nodes[0]
	}
	return fmt.Sprintf("%s|%d", fix.Name(), target)
}

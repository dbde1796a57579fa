// Package session drives one document through the conformance
// workflow: load, analyze, edit or remediate, re-analyze, report.
// Session methods serialize access to the tree and may be called from
// multiple goroutines; the live tree handed out by Tree bypasses that
// lock and is for single-goroutine use.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/remedy"
	"github.com/wudi/tagkit/scripting"
	"github.com/wudi/tagkit/structure"
)

// State is the session lifecycle position.
type State int

const (
	// StateLoaded means the document is loaded and unanalyzed.
	StateLoaded State = iota
	// StateAnalyzed means findings are current for the tree revision.
	StateAnalyzed
	// StateEditing means the tree moved past the last analysis.
	StateEditing
	// StateClosed means the session is finished.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateAnalyzed:
		return "analyzed"
	case StateEditing:
		return "editing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Revision is a tree revision number delivered to subscribers.
type Revision uint64

// Session owns one document's tree, history, checkpoint engine and
// remediation catalog.
type Session struct {
	mu sync.Mutex

	id      string
	state   State
	tree    *structure.Tree
	history *edit.History
	content *content.Index
	engine  *checkpoint.Engine
	catalog *remedy.Catalog
	rules   []CustomRule

	findings    []checkpoint.Finding
	findingsRev uint64

	subs []chan Revision

	log    observability.Logger
	tracer observability.Tracer
}

// CustomRule is one script-defined conformance rule.
type CustomRule struct {
	Name   string
	Source string
}

// Option configures a session.
type Option func(*config)

type config struct {
	content *content.Index
	engine  *checkpoint.Engine
	catalog *remedy.Catalog
	rules   []CustomRule
	log     observability.Logger
	tracer  observability.Tracer
}

// WithContent attaches the extracted page content for geometry-aware
// checkpoints and fixes.
func WithContent(idx *content.Index) Option {
	return func(c *config) { c.content = idx }
}

// WithEngine overrides the default checkpoint engine.
func WithEngine(e *checkpoint.Engine) Option {
	return func(c *config) { c.engine = e }
}

// WithCatalog overrides the default fix catalog.
func WithCatalog(cat *remedy.Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// WithCustomRule adds a script rule evaluated on every analysis.
func WithCustomRule(name, source string) Option {
	return func(c *config) { c.rules = append(c.rules, CustomRule{Name: name, Source: source}) }
}

// WithLogger routes session logging.
func WithLogger(log observability.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithTracer routes session tracing.
func WithTracer(tr observability.Tracer) Option {
	return func(c *config) { c.tracer = tr }
}

// New loads the raw document into a session.
func New(doc rawtree.Document, opts ...Option) (*Session, error) {
	cfg := config{
		log:    observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		cfg.engine = checkpoint.NewEngine()
	}
	if cfg.catalog == nil {
		cfg.catalog = remedy.DefaultCatalog()
	}

	start := time.Now()
	tree, err := structure.Load(doc, structure.WithLogger(cfg.log))
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:      uuid.NewString(),
		state:   StateLoaded,
		tree:    tree,
		history: edit.NewHistory(tree, cfg.log),
		content: cfg.content,
		engine:  cfg.engine,
		catalog: cfg.catalog,
		rules:   cfg.rules,
		tracer:  cfg.tracer,
	}
	s.log = cfg.log.With(observability.String("session", s.id))
	s.log.Info("session opened",
		observability.Int("nodes", tree.Len()),
		observability.Int64(observability.MetricLoadTime, time.Since(start).Milliseconds()))
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Revision returns the tree revision.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Revision()
}

// Tree returns the underlying tree for read access. Mutation goes
// through Commit. The returned tree is not synchronized with the
// session lock: do not walk it while another goroutine commits,
// undoes or remediates. Export returns a detached snapshot instead.
func (s *Session) Tree() *structure.Tree { return s.tree }

// Analyze runs the checkpoint engine and any custom rules, replacing
// the session's findings.
func (s *Session) Analyze(ctx context.Context) ([]checkpoint.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	ctx, span := s.tracer.StartSpan(ctx, "session.analyze")
	defer span.Finish()

	in := checkpoint.NewInput(s.tree, s.content)
	findings, err := s.engine.Run(ctx, in)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	for _, rule := range s.rules {
		extra, rerr := s.runRule(ctx, rule, in)
		if rerr != nil {
			span.SetError(rerr)
			return nil, fmt.Errorf("custom rule %q: %w", rule.Name, rerr)
		}
		findings = append(findings, extra...)
	}
	if len(s.rules) > 0 {
		checkpoint.Sort(findings, in.Pos)
	}

	s.findings = findings
	s.findingsRev = s.tree.Revision()
	s.state = StateAnalyzed
	s.log.Info("analysis complete",
		observability.Int(observability.MetricFindingCount, len(findings)),
		observability.Int64("revision", int64(s.findingsRev)))
	return append([]checkpoint.Finding(nil), findings...), nil
}

func (s *Session) runRule(ctx context.Context, rule CustomRule, in *checkpoint.Input) ([]checkpoint.Finding, error) {
	start := time.Now()
	eng := scripting.NewEngine()
	if err := eng.RegisterDOM(&treeDOM{tree: s.tree}); err != nil {
		return nil, err
	}
	findings, err := eng.Execute(ctx, rule.Source)
	if err != nil {
		return nil, err
	}
	s.log.Debug("custom rule evaluated",
		observability.String("rule", rule.Name),
		observability.Int(observability.MetricFindingCount, len(findings)),
		observability.Int64(observability.MetricScriptTime, time.Since(start).Milliseconds()))
	return findings, nil
}

// Findings returns the last analysis result and the revision it
// describes.
func (s *Session) Findings() ([]checkpoint.Finding, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]checkpoint.Finding(nil), s.findings...), s.findingsRev
}

// Commit applies a manual edit transaction.
func (s *Session) Commit(tx structure.Transaction) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, ErrClosed
	}
	rev, err := s.history.Commit(tx)
	if err != nil {
		return 0, err
	}
	s.afterMutation(rev)
	return rev, nil
}

// Undo reverts the most recent committed transaction.
func (s *Session) Undo() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, ErrClosed
	}
	rev, err := s.history.Undo()
	if err != nil {
		return 0, err
	}
	s.afterMutation(rev)
	return rev, nil
}

// Redo reapplies the most recently undone transaction.
func (s *Session) Redo() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, ErrClosed
	}
	rev, err := s.history.Redo()
	if err != nil {
		return 0, err
	}
	s.afterMutation(rev)
	return rev, nil
}

// CanUndo reports whether an undo is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// afterMutation moves the session to Editing and fans the new revision
// out to subscribers. Callers hold s.mu.
func (s *Session) afterMutation(rev uint64) {
	s.state = StateEditing
	for _, ch := range s.subs {
		select {
		case ch <- Revision(rev):
		default: // slow subscriber, drop rather than block edits
		}
	}
}

// Subscribe returns a channel delivering tree revisions after every
// mutation. Slow consumers miss intermediate revisions but always see
// a later one. The channel closes when the session closes.
func (s *Session) Subscribe() <-chan Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Revision, 1)
	s.subs = append(s.subs, ch)
	return ch
}

// freshFindings rejects fix operations against findings the tree has
// moved past. Callers hold s.mu.
func (s *Session) freshFindings(op string) error {
	if s.state != StateAnalyzed {
		return &StateError{Op: op, State: s.state}
	}
	if s.findingsRev != s.tree.Revision() {
		return &StaleFindings{FindingsRevision: s.findingsRev, TreeRevision: s.tree.Revision()}
	}
	return nil
}

// PreviewFix computes the diff a named fix would produce for a finding
// without touching the tree. The finding must come from an analysis of
// the current revision.
func (s *Session) PreviewFix(name string, f checkpoint.Finding) (remedy.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return remedy.Diff{}, ErrClosed
	}
	fix, ok := s.catalog.Lookup(name)
	if !ok {
		return remedy.Diff{}, &UnknownFixError{Name: name}
	}
	if err := s.freshFindings("preview fix"); err != nil {
		return remedy.Diff{}, err
	}
	in := checkpoint.NewInput(s.tree, s.content)
	if !fix.AppliesTo(f, in) {
		return remedy.Diff{}, nil
	}
	return fix.Preview(f, in)
}

// ApplyFix applies a named fix to a finding, committing through the
// history so it is undoable. Like Remediate it refuses findings from a
// stale analysis.
func (s *Session) ApplyFix(name string, f checkpoint.Finding) (remedy.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return remedy.Diff{}, ErrClosed
	}
	fix, ok := s.catalog.Lookup(name)
	if !ok {
		return remedy.Diff{}, &UnknownFixError{Name: name}
	}
	if err := s.freshFindings("apply fix"); err != nil {
		return remedy.Diff{}, err
	}
	in := checkpoint.NewInput(s.tree, s.content)
	if !fix.AppliesTo(f, in) {
		return remedy.Diff{}, nil
	}
	diff, err := fix.Apply(f, s.history, in)
	if err != nil {
		return remedy.Diff{}, err
	}
	if !diff.Empty() {
		s.afterMutation(s.tree.Revision())
	}
	return diff, nil
}

// Remediate runs the whole fix catalog over the session's current
// findings. Requires an up-to-date analysis; each applied fix is a
// separate undoable step.
func (s *Session) Remediate() ([]remedy.BatchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	if err := s.freshFindings("remediate"); err != nil {
		return nil, err
	}
	items := s.catalog.Batch(s.history, s.content, s.findings)
	applied := 0
	for _, item := range items {
		if item.Outcome == remedy.Applied {
			applied++
		}
	}
	if applied > 0 {
		s.afterMutation(s.tree.Revision())
	}
	s.log.Info("remediation batch complete",
		observability.Int(observability.MetricRemedyApplied, applied),
		observability.Int(observability.MetricRemedySkipped, len(items)-applied))
	return items, nil
}

// Export serializes the tree back to the raw document form.
func (s *Session) Export() (rawtree.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return rawtree.Document{}, ErrClosed
	}
	start := time.Now()
	doc := s.tree.Export()
	s.log.Debug("document exported",
		observability.Int64(observability.MetricExportTime, time.Since(start).Milliseconds()))
	return doc, nil
}

// NodeForRef returns the structure element owning a marked-content
// reference, for viewer highlighting.
func (s *Session) NodeForRef(ref rawtree.ContentRef) (structure.NodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, false
	}
	return s.tree.ContentOwner(ref)
}

// RefsForNode returns the marked content under a structure element.
func (s *Session) RefsForNode(id structure.NodeID) ([]rawtree.ContentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	return s.tree.ContentRefs(id)
}

// Close finishes the session. The tree rejects transactions afterwards
// and subscriber channels close.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrClosed
	}
	s.state = StateClosed
	s.tree.Close()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.log.Info("session closed",
		observability.Int(observability.MetricCommitCount, s.history.Depth()))
	return nil
}

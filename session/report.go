package session

import (
	"time"

	"github.com/wudi/tagkit/checkpoint"
)

// Report is the conformance summary for one analyzed revision.
type Report struct {
	SessionID   string
	Revision    uint64
	GeneratedAt time.Time

	// Conformant is true when no finding is a failure. Warnings and
	// needs-manual-review findings do not break conformance but are
	// listed for the reviewer.
	Conformant bool

	Groups   []GroupSummary
	Findings []checkpoint.Finding
}

// GroupSummary rolls one checkpoint group up by severity.
type GroupSummary struct {
	Group       string
	Title       string
	Failures    int
	Warnings    int
	NeedsReview int
}

// Report builds the conformance report. It refuses stale findings: the
// tree must be analyzed at its current revision.
func (s *Session) Report() (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, ErrClosed
	}
	if s.state != StateAnalyzed {
		return nil, &StateError{Op: "report", State: s.state}
	}
	if s.findingsRev != s.tree.Revision() {
		return nil, &StaleFindings{FindingsRevision: s.findingsRev, TreeRevision: s.tree.Revision()}
	}

	byGroup := make(map[string]*GroupSummary)
	conformant := true
	for _, f := range s.findings {
		g := f.Group()
		sum := byGroup[g]
		if sum == nil {
			sum = &GroupSummary{Group: g}
			if info, ok := checkpoint.LookupGroup(g); ok {
				sum.Title = info.Title
			}
			byGroup[g] = sum
		}
		switch f.Severity {
		case checkpoint.SeverityFailure:
			sum.Failures++
			conformant = false
		case checkpoint.SeverityWarning:
			sum.Warnings++
		case checkpoint.SeverityNeedsReview:
			sum.NeedsReview++
		}
	}

	var groups []GroupSummary
	for _, g := range checkpoint.GroupIDs() {
		if sum, ok := byGroup[g]; ok {
			groups = append(groups, *sum)
		}
	}

	return &Report{
		SessionID:   s.id,
		Revision:    s.findingsRev,
		GeneratedAt: time.Now().UTC(),
		Conformant:  conformant,
		Groups:      groups,
		Findings:    append([]checkpoint.Finding(nil), s.findings...),
	}, nil
}

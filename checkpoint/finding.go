// Package checkpoint implements the Matterhorn Protocol rule engine: 31
// independent, side-effect-free checkpoint evaluators over a structure
// tree, a role map and a page content index, producing a deterministic
// findings list.
package checkpoint

import (
	"sort"

	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// Severity ranks a finding.
type Severity int

const (
	SeverityFailure Severity = iota
	SeverityWarning
	SeverityNeedsReview
)

func (s Severity) String() string {
	switch s {
	case SeverityFailure:
		return "failure"
	case SeverityWarning:
		return "warning"
	case SeverityNeedsReview:
		return "needs-manual-review"
	default:
		return "unknown"
	}
}

// Machine reason codes. Findings carry no prose: the report layer
// renders reasons and params in whatever language it wants.
const (
	ReasonArtifactContentTagged = "artifact-content-in-structure"
	ReasonTaggedContentArtifact = "tagged-content-under-artifact"
	ReasonUntaggedContent       = "content-not-tagged"
	ReasonSuspects              = "suspects-flag-set"
	ReasonNotMarked             = "mark-info-missing"
	ReasonNoContentIndex        = "page-content-index-missing"
	ReasonRoleDangling          = "role-map-dangling"
	ReasonRoleCycle             = "role-map-cycle"
	ReasonRoleRemapsStandard    = "role-map-remaps-standard-type"
	ReasonNoXMP                 = "xmp-stream-missing"
	ReasonNoUAIdentifier        = "pdfua-identifier-missing"
	ReasonNoTitle               = "dc-title-missing"
	ReasonDisplayDocTitleOff    = "display-doc-title-false"
	ReasonNoTitleToDisplay      = "title-empty"
	ReasonReadingOrder          = "content-out-of-reading-order"
	ReasonIllegalContainment    = "illegal-containment"
	ReasonEmptyElement          = "empty-structure-element"
	ReasonDocLangMissing        = "document-language-missing"
	ReasonDocLangInvalid        = "document-language-invalid"
	ReasonNodeLangInvalid       = "element-language-invalid"
	ReasonFigureNoAlt           = "figure-alternative-missing"
	ReasonFormulaNoAlt          = "formula-alternative-missing"
	ReasonFirstHeadingNotH1     = "first-heading-not-h1"
	ReasonHeadingLevelSkipped   = "heading-level-skipped"
	ReasonTableIrregular        = "table-irregular-grid"
	ReasonTableNoHeaders        = "table-without-header-cells"
	ReasonHeaderScopeMissing    = "header-cell-scope-missing"
	ReasonHeaderScopeInvalid    = "header-cell-scope-invalid"
	ReasonCellUnassociated      = "data-cell-header-association-missing"
	ReasonHeadersDangling       = "headers-reference-dangling"
	ReasonListNonItemChild      = "list-child-not-list-item"
	ReasonListItemNoBody        = "list-item-without-body"
	ReasonListNumberingMissing  = "list-numbering-missing"
	ReasonRunningHeaderTagged   = "running-header-in-structure"
	ReasonPageNumberTagged      = "page-number-in-structure"
	ReasonNoteIDMissing         = "note-id-missing"
	ReasonNoteIDDuplicate       = "note-id-duplicate"
	ReasonLinkNoDescription     = "link-description-missing"
	ReasonLinkEmpty             = "link-without-content"
	ReasonHumanReview           = "human-review-required"
	ReasonOutsideModel          = "outside-structure-model"
)

// Finding is one reported conformance issue: a Matterhorn clause, the
// implicated tree locations and a machine-readable reason.
type Finding struct {
	Checkpoint string // clause id, e.g. "15-003"
	Severity   Severity
	Nodes      []structure.NodeID
	Refs       []rawtree.ContentRef
	Reason     string
	Params     map[string]string
}

// Group returns the two-digit checkpoint group of the clause id.
func (f Finding) Group() string {
	if len(f.Checkpoint) < 2 {
		return f.Checkpoint
	}
	return f.Checkpoint[:2]
}

// Sort orders findings deterministically: clause id ascending, then
// pre-order position of the first implicated node, then reason, then
// refs. The order is independent of evaluator completion order.
func Sort(findings []Finding, pos func(structure.NodeID) int) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Checkpoint != b.Checkpoint {
			return a.Checkpoint < b.Checkpoint
		}
		ap, bp := firstPos(a, pos), firstPos(b, pos)
		if ap != bp {
			return ap < bp
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return firstRef(a) < firstRef(b)
	})
}

func firstPos(f Finding, pos func(structure.NodeID) int) int {
	if len(f.Nodes) == 0 {
		return -1
	}
	best := -1
	for _, id := range f.Nodes {
		p := pos(id)
		if best == -1 || (p >= 0 && p < best) {
			best = p
		}
	}
	return best
}

func firstRef(f Finding) string {
	if len(f.Refs) == 0 {
		return ""
	}
	return f.Refs[0].String()
}

package structure

// TagType is the closed taxonomy of standard structure types, plus
// TagCustom for document-specific tags that resolve through the role map.
type TagType int

const (
	TagCustom TagType = iota

	// Grouping types.
	TagDocument
	TagPart
	TagArt
	TagSect
	TagDiv
	TagBlockQuote
	TagCaption
	TagTOC
	TagTOCI
	TagIndex
	TagNonStruct
	TagPrivate

	// Block-level types.
	TagP
	TagH1
	TagH2
	TagH3
	TagH4
	TagH5
	TagH6
	TagL
	TagLI
	TagLbl
	TagLBody
	TagTable
	TagTR
	TagTH
	TagTD
	TagTHead
	TagTBody
	TagTFoot

	// Inline and illustration types.
	TagSpan
	TagQuote
	TagNote
	TagReference
	TagBibEntry
	TagCode
	TagLink
	TagAnnot
	TagFigure
	TagFormula
	TagForm

	// Non-semantic content.
	TagArtifact
)

var tagNames = map[TagType]string{
	TagDocument:   "Document",
	TagPart:       "Part",
	TagArt:        "Art",
	TagSect:       "Sect",
	TagDiv:        "Div",
	TagBlockQuote: "BlockQuote",
	TagCaption:    "Caption",
	TagTOC:        "TOC",
	TagTOCI:       "TOCI",
	TagIndex:      "Index",
	TagNonStruct:  "NonStruct",
	TagPrivate:    "Private",
	TagP:          "P",
	TagH1:         "H1",
	TagH2:         "H2",
	TagH3:         "H3",
	TagH4:         "H4",
	TagH5:         "H5",
	TagH6:         "H6",
	TagL:          "L",
	TagLI:         "LI",
	TagLbl:        "Lbl",
	TagLBody:      "LBody",
	TagTable:      "Table",
	TagTR:         "TR",
	TagTH:         "TH",
	TagTD:         "TD",
	TagTHead:      "THead",
	TagTBody:      "TBody",
	TagTFoot:      "TFoot",
	TagSpan:       "Span",
	TagQuote:      "Quote",
	TagNote:       "Note",
	TagReference:  "Reference",
	TagBibEntry:   "BibEntry",
	TagCode:       "Code",
	TagLink:       "Link",
	TagAnnot:      "Annot",
	TagFigure:     "Figure",
	TagFormula:    "Formula",
	TagForm:       "Form",
	TagArtifact:   "Artifact",
}

var tagByName = func() map[string]TagType {
	m := make(map[string]TagType, len(tagNames))
	for t, n := range tagNames {
		m[n] = t
	}
	return m
}()

func (t TagType) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "Custom"
}

// ParseTag maps a tag name to its standard type. The second result is
// false for names outside the standard taxonomy.
func ParseTag(name string) (TagType, bool) {
	t, ok := tagByName[name]
	return t, ok
}

// IsStandardTag reports whether name belongs to the standard taxonomy.
func IsStandardTag(name string) bool {
	_, ok := tagByName[name]
	return ok
}

// IsHeading reports whether t is one of H1..H6.
func (t TagType) IsHeading() bool {
	return t >= TagH1 && t <= TagH6
}

// HeadingLevel returns 1..6 for heading types and 0 otherwise.
func (t TagType) HeadingLevel() int {
	if t.IsHeading() {
		return int(t-TagH1) + 1
	}
	return 0
}

// HeadingForLevel returns the heading type for level 1..6.
func HeadingForLevel(level int) (TagType, bool) {
	if level < 1 || level > 6 {
		return TagCustom, false
	}
	return TagH1 + TagType(level-1), true
}

// IsGrouping reports whether t is a grouping type that may carry most
// block-level content.
func (t TagType) IsGrouping() bool {
	switch t {
	case TagDocument, TagPart, TagArt, TagSect, TagDiv, TagNonStruct, TagPrivate:
		return true
	}
	return false
}

// IsInline reports whether t is an inline-level type.
func (t TagType) IsInline() bool {
	switch t {
	case TagSpan, TagQuote, TagNote, TagReference, TagBibEntry, TagCode, TagLink, TagAnnot:
		return true
	}
	return false
}

var blockSet = tagSet(
	TagP, TagH1, TagH2, TagH3, TagH4, TagH5, TagH6,
	TagL, TagTable, TagFigure, TagFormula, TagForm,
	TagBlockQuote, TagTOC, TagIndex, TagNonStruct, TagPrivate,
	TagArtifact, TagCaption,
)

var inlineSet = tagSet(
	TagSpan, TagQuote, TagNote, TagReference, TagBibEntry, TagCode,
	TagLink, TagAnnot, TagFigure, TagFormula, TagLbl, TagArtifact,
)

// allowedChildren is the containment rule table: the child types each
// resolved parent type admits. Types absent from the table admit inline
// content only.
var allowedChildren = map[TagType]map[TagType]bool{
	TagDocument:   union(blockSet, tagSet(TagPart, TagArt, TagSect, TagDiv)),
	TagPart:       union(blockSet, tagSet(TagArt, TagSect, TagDiv)),
	TagArt:        union(blockSet, tagSet(TagSect, TagDiv)),
	TagSect:       union(blockSet, tagSet(TagSect, TagDiv)),
	TagDiv:        union(blockSet, tagSet(TagDiv, TagSpan, TagLink, TagAnnot)),
	TagNonStruct:  union(blockSet, union(inlineSet, tagSet(TagDiv))),
	TagPrivate:    union(blockSet, union(inlineSet, tagSet(TagDiv))),
	TagBlockQuote: union(blockSet, tagSet(TagDiv)),
	TagCaption:    union(inlineSet, tagSet(TagP)),
	TagTOC:        tagSet(TagTOCI, TagCaption, TagTOC, TagArtifact),
	TagTOCI:       tagSet(TagP, TagSpan, TagLink, TagReference, TagTOC, TagLbl, TagArtifact),
	TagIndex:      union(blockSet, tagSet(TagDiv)),
	TagL:          tagSet(TagLI, TagCaption, TagL, TagArtifact),
	TagLI:         tagSet(TagLbl, TagLBody, TagArtifact),
	TagLBody:      union(blockSet, union(inlineSet, tagSet(TagDiv))),
	TagTable:      tagSet(TagTR, TagTHead, TagTBody, TagTFoot, TagCaption, TagArtifact),
	TagTHead:      tagSet(TagTR, TagArtifact),
	TagTBody:      tagSet(TagTR, TagArtifact),
	TagTFoot:      tagSet(TagTR, TagArtifact),
	TagTR:         tagSet(TagTH, TagTD, TagArtifact),
	TagTH:         union(inlineSet, tagSet(TagP, TagL, TagArtifact)),
	TagTD:         union(inlineSet, tagSet(TagP, TagL, TagTable, TagFigure, TagArtifact)),
	TagP:          inlineSet,
	TagH1:         inlineSet,
	TagH2:         inlineSet,
	TagH3:         inlineSet,
	TagH4:         inlineSet,
	TagH5:         inlineSet,
	TagH6:         inlineSet,
	TagSpan:       inlineSet,
	TagQuote:      inlineSet,
	TagNote:       union(inlineSet, tagSet(TagP, TagLbl)),
	TagReference:  union(inlineSet, tagSet(TagLbl)),
	TagBibEntry:   union(inlineSet, tagSet(TagP, TagLbl)),
	TagCode:       inlineSet,
	TagLink:       union(inlineSet, tagSet(TagP)),
	TagAnnot:      union(inlineSet, tagSet(TagP)),
	TagLbl:        inlineSet,
	TagFigure:     union(inlineSet, tagSet(TagP, TagCaption)),
	TagFormula:    union(inlineSet, tagSet(TagP, TagCaption)),
	TagForm:       union(inlineSet, tagSet(TagP, TagL, TagLbl)),
	TagArtifact:   nil, // artifacts admit any structure, checked separately
}

// LegalChild reports whether a node of resolved type child may appear
// directly under a node of resolved type parent.
func LegalChild(parent, child TagType) bool {
	if parent == TagArtifact {
		// Anything may be demoted under an artifact subtree.
		return true
	}
	set, ok := allowedChildren[parent]
	if !ok {
		return inlineSet[child]
	}
	return set[child]
}

// AdmitsContent reports whether a node of resolved type t may own
// marked-content references directly. Pure containers hold only
// structure.
func AdmitsContent(t TagType) bool {
	switch t {
	case TagDocument, TagPart, TagArt, TagSect, TagL, TagLI,
		TagTable, TagTR, TagTHead, TagTBody, TagTFoot, TagTOC:
		return false
	}
	return true
}

func tagSet(tags ...TagType) map[TagType]bool {
	m := make(map[TagType]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func union(a, b map[TagType]bool) map[TagType]bool {
	m := make(map[TagType]bool, len(a)+len(b))
	for t := range a {
		m[t] = true
	}
	for t := range b {
		m[t] = true
	}
	return m
}

package structure

// Attribute names understood by the model. Values are restricted to
// string, []string, int and bool.
const (
	AttrID            = "ID"
	AttrLang          = "Lang"
	AttrAlt           = "Alt"
	AttrActualText    = "ActualText"
	AttrExpanded      = "E"
	AttrTitle         = "T"
	AttrScope         = "Scope"
	AttrHeaders       = "Headers"
	AttrPlacement     = "Placement"
	AttrListNumbering = "ListNumbering"
	AttrColSpan       = "ColSpan"
	AttrRowSpan       = "RowSpan"
	AttrArtifactType  = "ArtifactType"
)

// Valid values for the Scope attribute on header cells.
var ValidScopes = map[string]bool{
	"Row":    true,
	"Column": true,
	"Both":   true,
}

// Attributes is a node's attribute set.
type Attributes map[string]interface{}

func (a Attributes) clone() Attributes {
	if a == nil {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		if ss, ok := v.([]string); ok {
			c[k] = append([]string(nil), ss...)
			continue
		}
		c[k] = v
	}
	return c
}

func (a Attributes) str(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Has reports whether the attribute is present, even with a zero value.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a Attributes) ID() string         { return a.str(AttrID) }
func (a Attributes) Lang() string       { return a.str(AttrLang) }
func (a Attributes) Alt() string        { return a.str(AttrAlt) }
func (a Attributes) ActualText() string { return a.str(AttrActualText) }
func (a Attributes) Scope() string      { return a.str(AttrScope) }
func (a Attributes) Placement() string  { return a.str(AttrPlacement) }

// Headers returns the list of header cell IDs this cell is associated
// with, or nil.
func (a Attributes) Headers() []string {
	switch v := a[AttrHeaders].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// ListNumbering returns the numbering style of a list, or "".
func (a Attributes) ListNumbering() string { return a.str(AttrListNumbering) }

// ColSpan returns the column span of a table cell, defaulting to 1.
func (a Attributes) ColSpan() int { return a.span(AttrColSpan) }

// RowSpan returns the row span of a table cell, defaulting to 1.
func (a Attributes) RowSpan() int { return a.span(AttrRowSpan) }

func (a Attributes) span(key string) int {
	if v, ok := a[key].(int); ok && v > 0 {
		return v
	}
	return 1
}

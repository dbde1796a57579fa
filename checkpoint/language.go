package checkpoint

import (
	"golang.org/x/text/language"

	"github.com/wudi/tagkit/structure"
)

// languageEvaluator covers checkpoint 11: the document declares its
// natural language, and every declared language is a valid BCP 47 tag.
type languageEvaluator struct{}

func (languageEvaluator) Group() string { return "11" }

func (languageEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding

	docLang := in.Meta().Lang
	if docLang == "" {
		// A Lang attribute on the root covers the document too.
		if root, err := in.Tree.Node(in.Tree.Root()); err == nil {
			docLang = root.Attrs().Lang()
		}
	}
	switch {
	case docLang == "":
		out = append(out, Finding{
			Checkpoint: "11-001",
			Severity:   SeverityFailure,
			Reason:     ReasonDocLangMissing,
		})
	case !validLangTag(docLang):
		out = append(out, Finding{
			Checkpoint: "11-002",
			Severity:   SeverityFailure,
			Reason:     ReasonDocLangInvalid,
			Params:     map[string]string{"lang": docLang},
		})
	}

	in.Tree.Walk(func(n *structure.Node) bool {
		if lang := n.Attrs().Lang(); lang != "" && !validLangTag(lang) {
			out = append(out, Finding{
				Checkpoint: "11-003",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{n.ID()},
				Reason:     ReasonNodeLangInvalid,
				Params:     map[string]string{"lang": lang},
			})
		}
		return true
	})
	return out
}

func validLangTag(tag string) bool {
	_, err := language.Parse(tag)
	return err == nil
}

package checkpoint

// metadataEvaluator covers checkpoint 06: the XMP metadata stream, the
// PDF/UA identifier and dc:title.
type metadataEvaluator struct{}

func (metadataEvaluator) Group() string { return "06" }

func (metadataEvaluator) Evaluate(in *Input) []Finding {
	meta := in.Meta()
	var out []Finding

	if !meta.HasXMP {
		out = append(out, Finding{
			Checkpoint: "06-001",
			Severity:   SeverityFailure,
			Reason:     ReasonNoXMP,
		})
		// Without a stream the remaining clauses cannot be judged
		// independently; report them anyway so remediation targets stay
		// visible.
	}
	if !meta.XMPHasUAIdentifier {
		out = append(out, Finding{
			Checkpoint: "06-002",
			Severity:   SeverityFailure,
			Reason:     ReasonNoUAIdentifier,
		})
	}
	if !meta.XMPHasTitle && meta.Title == "" {
		out = append(out, Finding{
			Checkpoint: "06-003",
			Severity:   SeverityFailure,
			Reason:     ReasonNoTitle,
		})
	}
	return out
}

// dictionaryEvaluator covers checkpoint 07: viewer preferences must
// display the document title, and a title must exist to display.
type dictionaryEvaluator struct{}

func (dictionaryEvaluator) Group() string { return "07" }

func (dictionaryEvaluator) Evaluate(in *Input) []Finding {
	meta := in.Meta()
	var out []Finding

	if !meta.DisplayDocTitle {
		out = append(out, Finding{
			Checkpoint: "07-001",
			Severity:   SeverityFailure,
			Reason:     ReasonDisplayDocTitleOff,
		})
	}
	if meta.DisplayDocTitle && meta.Title == "" {
		out = append(out, Finding{
			Checkpoint: "07-002",
			Severity:   SeverityFailure,
			Reason:     ReasonNoTitleToDisplay,
		})
	}
	return out
}

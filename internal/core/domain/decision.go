package domain

// DecisionKind is the diff engine's verdict.
type DecisionKind int

const (
	// DecisionSkip means the content is unchanged; nothing is embedded or written.
	DecisionSkip DecisionKind = iota

	// DecisionReindex means the document must be re-chunked, embedded and upserted.
	DecisionReindex
)

// String returns the decision name.
func (k DecisionKind) String() string {
	switch k {
	case DecisionSkip:
		return "SKIP"
	case DecisionReindex:
		return "REINDEX"
	default:
		return "UNKNOWN"
	}
}

// Decision is the result of comparing a fresh content hash against stored state.
type Decision struct {
	// Kind is SKIP or REINDEX.
	Kind DecisionKind

	// ObsoleteChunkIDs are the chunk IDs to retract before upserting.
	// Always empty for SKIP.
	ObsoleteChunkIDs []string

	// Prior is the stored record the decision was made against, nil when none.
	Prior *IndexStateRecord
}

// Skip returns a SKIP decision.
func Skip(prior *IndexStateRecord) Decision {
	return Decision{Kind: DecisionSkip, Prior: prior}
}

// Reindex returns a REINDEX decision retracting the given chunk IDs.
func Reindex(prior *IndexStateRecord, obsolete []string) Decision {
	if obsolete == nil {
		obsolete = []string{}
	}
	return Decision{Kind: DecisionReindex, ObsoleteChunkIDs: obsolete, Prior: prior}
}

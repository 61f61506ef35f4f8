package schema

// SessionStatus tracks the edit-session state machine.
type SessionStatus string

const (
	SessionCreated      SessionStatus = "created"
	SessionSuggesting   SessionStatus = "suggesting"
	SessionOptionsReady SessionStatus = "options_ready"
	SessionApplied      SessionStatus = "applied"
	SessionDiscarded    SessionStatus = "discarded"
)

// Terminal reports whether the session can no longer change state.
func (s SessionStatus) Terminal() bool {
	return s == SessionApplied || s == SessionDiscarded
}

// Severity grades how far an edit option departs from the original text.
type Severity string

const (
	SeverityLight  Severity = "light"
	SeverityMedium Severity = "medium"
	SeverityBold   Severity = "bold"
)

// DiffOp is the hunk operation kind.
type DiffOp string

const (
	DiffEqual  DiffOp = "equal"
	DiffInsert DiffOp = "insert"
	DiffDelete DiffOp = "delete"
)

// DiffHunk is one segment of a structural text difference. Concatenating the
// text of equal+insert hunks in order reconstructs the after text;
// equal+delete reconstructs the before text.
type DiffHunk struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// EditOption is one candidate replacement for the session's target range.
// Immutable once generated.
type EditOption struct {
	OptionID string     `json:"option_id"`
	Label    string     `json:"label"`
	Before   string     `json:"before"`
	After    string     `json:"after"`
	Diff     []DiffHunk `json:"diff"`
	Severity Severity   `json:"severity"`
}

// EditSession is the ephemeral orchestration state for one
// instruction -> candidate-options -> apply cycle. At most one live
// (non-terminal) session exists per manuscript.
type EditSession struct {
	ID            string        `json:"id"`
	ManuscriptID  string        `json:"manuscript_id"`
	BaseVersionID string        `json:"base_version_id"`
	TargetRange   Range         `json:"target_range"`
	SelectedText  string        `json:"selected_text"`
	Instruction   string        `json:"instruction"`
	Options       []EditOption  `json:"options,omitempty"`
	Status        SessionStatus `json:"status"`
}

// Option returns the option with the given id, or nil.
func (s *EditSession) Option(optionID string) *EditOption {
	for i := range s.Options {
		if s.Options[i].OptionID == optionID {
			return &s.Options[i]
		}
	}
	return nil
}

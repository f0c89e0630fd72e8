package telephone

import "horse.fit/telephone/internal/language"

// State is the lifecycle position of a run.
type State int32

const (
	StateCreated State = iota
	StateResolving
	StateChainPending
	StateChainReady
	StateHopping
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolving:
		return "resolving"
	case StateChainPending:
		return "chain_pending"
	case StateChainReady:
		return "chain_ready"
	case StateHopping:
		return "hopping"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is the outcome of one hop.
type Step struct {
	Text            string        `json:"text"`
	Language        language.Code `json:"language"`
	LanguageName    string        `json:"languageName"`
	Step            int           `json:"step"`
	BackTranslation string        `json:"backTranslation"`
	Divergence      int           `json:"divergence"`
}

// Result is the terminal outcome of a successful run.
// FinalText always equals the last step's BackTranslation.
type Result struct {
	Original             string        `json:"original"`
	OriginalLanguage     language.Code `json:"originalLanguage"`
	OriginalLanguageName string        `json:"originalLanguageName"`
	Steps                []Step        `json:"steps"`
	FinalText            string        `json:"finalText"`
	TotalSteps           int           `json:"totalSteps"`
	DivergencePolicy     int           `json:"divergencePolicy"`
}

// FinalDivergence returns the divergence of the last hop.
func (r *Result) FinalDivergence() int {
	if r == nil || len(r.Steps) == 0 {
		return 0
	}
	return r.Steps[len(r.Steps)-1].Divergence
}

type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one item of a run's sequence. Exactly one of Step, Result or Err is
// set, matching Type.
type Event struct {
	Type        EventType
	CurrentStep int
	TotalSteps  int
	Step        *Step
	Result      *Result
	Err         error
}

// Terminal reports whether no events can follow e.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

package types

// Step titles and bounds for the seven-step mentor flow.
const (
	// MinStep is the first pedagogical step (question reading).
	MinStep = 1
	// MaxStep is the last pedagogical step (real-life applications).
	MaxStep = 7
)

// StepDocument is the richly structured mentor response: a mapping of
// step1..step7 to step-shaped payloads. Every field is optional so that
// upstream shape drift degrades gracefully instead of failing decode;
// only the top-level shape is enforced (see mentor response validation).
// An upstream refusal arrives as a bare {"error": "..."} document.
type StepDocument struct {
	Step1 *StepOverview     `json:"step1,omitempty"`
	Step2 *StepExamples     `json:"step2,omitempty"`
	Step3 *StepApproach     `json:"step3,omitempty"`
	Step4 *StepSolutions    `json:"step4,omitempty"`
	Step5 *StepBehavioral   `json:"step5,omitempty"`
	Step6 *StepVariations   `json:"step6,omitempty"`
	Step7 *StepApplications `json:"step7,omitempty"`

	// Error is set when the upstream model declines to answer.
	Error string `json:"error,omitempty"`
	// Clarify carries a single follow-up question when the model found
	// the prompt underspecified.
	Clarify string `json:"clarify,omitempty"`
}

// StepOverview is step 1: plain-language restatement of the question.
type StepOverview struct {
	Title        string   `json:"title,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Constraints  []string `json:"constraints,omitempty"`
	EdgeCases    []string `json:"edge_cases,omitempty"`
	FocusDetail  string   `json:"focusDetail,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// StepExamples is step 2: worked input/output examples.
type StepExamples struct {
	Title       string    `json:"title,omitempty"`
	Examples    []Example `json:"examples,omitempty"`
	FocusDetail string    `json:"focusDetail,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Example is a single worked example within step 2.
type Example struct {
	Input       string `json:"input,omitempty"`
	Output      string `json:"output,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// StepApproach is step 3: brute-force vs optimal approach, plus guiding
// prompts for interactive scaffolding.
type StepApproach struct {
	Title              string   `json:"title,omitempty"`
	BruteForce         string   `json:"brute_force,omitempty"`
	Optimal            string   `json:"optimal,omitempty"`
	InteractivePrompts []string `json:"interactive_prompts,omitempty"`
	FocusDetail        string   `json:"focusDetail,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// StepSolutions is step 4: ready-to-copy solutions keyed by language
// (java, python, cpp).
type StepSolutions struct {
	Title       string              `json:"title,omitempty"`
	Solutions   map[string]Solution `json:"solutions,omitempty"`
	FocusDetail string              `json:"focusDetail,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Solution is a language-specific implementation with complexity notes.
type Solution struct {
	Code        string `json:"code,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Time        string `json:"time,omitempty"`
	Space       string `json:"space,omitempty"`
}

// StepBehavioral is step 5: interview-style behavioral questions.
type StepBehavioral struct {
	Title       string           `json:"title,omitempty"`
	Behavioral  []QuestionAnswer `json:"behavioral,omitempty"`
	FocusDetail string           `json:"focusDetail,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// QuestionAnswer is a question with a model answer.
type QuestionAnswer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// StepVariations is step 6: realistic variations of the problem.
type StepVariations struct {
	Title       string      `json:"title,omitempty"`
	Variations  []Variation `json:"variations,omitempty"`
	FocusDetail string      `json:"focusDetail,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Variation is a problem variant plus a hint on adapting the solution.
type Variation struct {
	Variant string `json:"variant,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// StepApplications is step 7: real systems where the pattern shows up.
type StepApplications struct {
	Title        string        `json:"title,omitempty"`
	Applications []Application `json:"applications,omitempty"`
	FocusDetail  string        `json:"focusDetail,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Application is a concrete system using the algorithm/pattern.
type Application struct {
	System      string `json:"system,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// HasSteps reports whether at least one step slot is populated.
func (d *StepDocument) HasSteps() bool {
	return d.Step1 != nil || d.Step2 != nil || d.Step3 != nil || d.Step4 != nil ||
		d.Step5 != nil || d.Step6 != nil || d.Step7 != nil
}

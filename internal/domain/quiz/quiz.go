// Package quiz implements the guided refinement flow as an explicit state
// value plus a pure transition function. The owning layer stores the state
// and dispatches actions; nothing here holds ambient mutable state.
package quiz

import (
	"strings"

	"github.com/propfind/searchcore/internal/domain/property"
	"github.com/propfind/searchcore/internal/domain/search/criteria"
)

// StepID identifies one quiz step.
type StepID string

// The fixed step sequence.
const (
	StepIntro    StepID = "intro"
	StepPurpose  StepID = "purpose"
	StepBudget   StepID = "budget"
	StepType     StepID = "type"
	StepLocation StepID = "location"
	StepFeatures StepID = "features"
	StepResult   StepID = "result"
)

type stepDef struct {
	id    StepID
	title string
}

var stepDefs = []stepDef{
	{StepIntro, "Welcome"},
	{StepPurpose, "Rent or buy"},
	{StepBudget, "Budget"},
	{StepType, "Property type"},
	{StepLocation, "Location"},
	{StepFeatures, "Must-have features"},
	{StepResult, "Your matches"},
}

// StepCount is the number of quiz steps.
const StepCount = 7

// Step is one stage of the flow with its progress flags.
type Step struct {
	ID        StepID
	Title     string
	Completed bool
	Current   bool
}

// Budget is the price band fragment.
type Budget struct {
	Min *float64
	Max *float64
}

// Preferences is the criteria fragment the quiz accumulates step by step.
type Preferences struct {
	Purpose       string // "rent" or "buy"
	Budget        Budget
	PropertyTypes []string
	Location      string
	Features      []string
}

// PartialPreferences is a partial update. Nil fields mean "leave unchanged";
// set-valued fields are replaced wholesale by the given value, not unioned.
type PartialPreferences struct {
	Purpose       *string
	Budget        *Budget
	PropertyTypes *[]string
	Location      *string
	Features      *[]string
}

// State is the quiz machine state. Treat it as a value: transitions return a
// new State and never mutate the receiver.
type State struct {
	completed          [StepCount]bool
	current            int
	prefs              Preferences
	selectedPropertyID string
}

// NewState returns the initial state: step 0 current, nothing completed,
// empty preferences.
func NewState() State {
	return State{}
}

func clampStep(i int) int {
	if i < 0 {
		return 0
	}
	if i > StepCount-1 {
		return StepCount - 1
	}
	return i
}

// Action is a quiz transition request.
type Action interface{ isAction() }

// Next advances to the following step, completing the one being left.
type Next struct{}

// Prev returns to the previous step without clearing its completed flag.
type Prev struct{}

// JumpTo moves directly to a step, implicitly completing everything up to it.
type JumpTo struct{ Index int }

// UpdatePrefs merges a partial preferences fragment.
type UpdatePrefs struct{ Partial PartialPreferences }

// SelectProperty highlights a candidate, independent of step position.
// An empty ID clears the selection.
type SelectProperty struct{ ID string }

// Reset restores the initial state.
type Reset struct{}

func (Next) isAction()           {}
func (Prev) isAction()           {}
func (JumpTo) isAction()         {}
func (UpdatePrefs) isAction()    {}
func (SelectProperty) isAction() {}
func (Reset) isAction()          {}

// Reduce applies one action and returns the resulting state. The index is
// always clamped to bounds; Next at the last step and Prev at the first are
// idempotent no-ops. Completed flags only ever grow, except under Reset.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case Next:
		if s.current < StepCount-1 {
			s.completed[s.current] = true
			s.current++
		}
	case Prev:
		if s.current > 0 {
			s.current--
		}
	case JumpTo:
		target := clampStep(act.Index)
		for i := 0; i <= target; i++ {
			s.completed[i] = true
		}
		s.current = target
	case UpdatePrefs:
		s.prefs = mergePrefs(s.prefs, act.Partial)
	case SelectProperty:
		s.selectedPropertyID = act.ID
	case Reset:
		s = NewState()
	}
	return s
}

// mergePrefs applies the shallow per-field merge: absent means unchanged,
// present replaces. Distinct from Reset, which clears everything.
func mergePrefs(p Preferences, partial PartialPreferences) Preferences {
	if partial.Purpose != nil {
		p.Purpose = *partial.Purpose
	}
	if partial.Budget != nil {
		p.Budget = *partial.Budget
	}
	if partial.PropertyTypes != nil {
		p.PropertyTypes = append([]string(nil), *partial.PropertyTypes...)
	}
	if partial.Location != nil {
		p.Location = *partial.Location
	}
	if partial.Features != nil {
		p.Features = append([]string(nil), *partial.Features...)
	}
	return p
}

// Steps returns the step sequence with progress flags. Exactly one step is
// current.
func (s State) Steps() []Step {
	steps := make([]Step, StepCount)
	for i, def := range stepDefs {
		steps[i] = Step{
			ID:        def.id,
			Title:     def.title,
			Completed: s.completed[i],
			Current:   i == s.current,
		}
	}
	return steps
}

// CurrentStepIndex returns the cursor position.
func (s State) CurrentStepIndex() int { return s.current }

// CurrentStep returns the current step's ID.
func (s State) CurrentStep() StepID { return stepDefs[s.current].id }

// Preferences returns the accumulated criteria fragment.
func (s State) Preferences() Preferences { return s.prefs }

// SelectedPropertyID returns the highlighted candidate, if any.
func (s State) SelectedPropertyID() string { return s.selectedPropertyID }

// NarrowingLimits caps the candidate count per quiz phase: result sets shrink
// by design as the quiz progresses.
type NarrowingLimits struct {
	Early int // steps 0-2
	Mid   int // steps 3-4
	Late  int // steps 5+
}

// DefaultNarrowing is the reference narrowing policy.
var DefaultNarrowing = NarrowingLimits{Early: 50, Mid: 30, Late: 10}

// CandidateLimit returns the candidate cap for the current step.
func (s State) CandidateLimit(limits NarrowingLimits) int {
	switch {
	case s.current <= 2:
		return limits.Early
	case s.current <= 4:
		return limits.Mid
	default:
		return limits.Late
	}
}

// Criteria compiles the accumulated fragment into a search criteria value,
// indistinguishable from one built directly from query parameters. Unknown
// property type strings are dropped leniently.
func (s State) Criteria(limits NarrowingLimits) (criteria.Criteria, error) {
	b := criteria.NewBuilder().Limit(s.CandidateLimit(limits))

	switch strings.ToLower(s.prefs.Purpose) {
	case "rent":
		b.Operation(property.OperationRent)
	case "buy", "sale":
		b.Operation(property.OperationSale)
	}

	if s.prefs.Budget.Min != nil || s.prefs.Budget.Max != nil {
		b.PriceRange(s.prefs.Budget.Min, s.prefs.Budget.Max)
	}

	var types []property.Type
	for _, raw := range s.prefs.PropertyTypes {
		if t, err := property.ParseType(raw); err == nil {
			types = append(types, t)
		}
	}
	if len(types) > 0 {
		b.PropertyTypes(types...)
	}

	if s.prefs.Location != "" {
		b.City(s.prefs.Location)
	}
	if len(s.prefs.Features) > 0 {
		b.Features(s.prefs.Features...)
	}

	return b.Build()
}

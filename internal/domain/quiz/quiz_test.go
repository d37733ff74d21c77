package quiz

import (
	"testing"

	"github.com/propfind/searchcore/internal/domain/property"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func assertOneCurrent(t *testing.T, s State) {
	t.Helper()
	count := 0
	for _, step := range s.Steps() {
		if step.Current {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("exactly one step must be current, got %d", count)
	}
}

func TestNewState(t *testing.T) {
	s := NewState()
	if s.CurrentStepIndex() != 0 || s.CurrentStep() != StepIntro {
		t.Errorf("initial step = %d (%s), want 0 (intro)", s.CurrentStepIndex(), s.CurrentStep())
	}
	for _, step := range s.Steps() {
		if step.Completed {
			t.Errorf("step %s completed in initial state", step.ID)
		}
	}
	assertOneCurrent(t, s)
}

func TestNext_FullTraversal(t *testing.T) {
	s := NewState()
	for i := 0; i < 6; i++ {
		s = Reduce(s, Next{})
		assertOneCurrent(t, s)
	}
	if s.CurrentStepIndex() != 6 || s.CurrentStep() != StepResult {
		t.Fatalf("after 6 next calls index = %d, want 6", s.CurrentStepIndex())
	}
	for i, step := range s.Steps() {
		if i < 6 && !step.Completed {
			t.Errorf("step %d (%s) not completed after traversal", i, step.ID)
		}
	}
}

func TestNext_ClampsAtLastStep(t *testing.T) {
	s := NewState()
	for i := 0; i < 10; i++ {
		s = Reduce(s, Next{})
	}
	if s.CurrentStepIndex() != StepCount-1 {
		t.Errorf("index = %d, want clamped at %d", s.CurrentStepIndex(), StepCount-1)
	}
	if s.Steps()[StepCount-1].Completed {
		t.Error("terminal step must not self-complete on overflowing next")
	}
}

func TestPrev_KeepsCompletedAndClamps(t *testing.T) {
	s := NewState()
	s = Reduce(s, Next{})
	s = Reduce(s, Next{})
	s = Reduce(s, Prev{})

	if s.CurrentStepIndex() != 1 {
		t.Fatalf("index = %d, want 1", s.CurrentStepIndex())
	}
	// Revisiting a completed step keeps its badge.
	if !s.Steps()[0].Completed || !s.Steps()[1].Completed {
		t.Error("prev must not clear completed flags")
	}
	assertOneCurrent(t, s)

	for i := 0; i < 5; i++ {
		s = Reduce(s, Prev{})
	}
	if s.CurrentStepIndex() != 0 {
		t.Errorf("index = %d, want clamped at 0", s.CurrentStepIndex())
	}
}

func TestReset_ThenPrevStaysAtZero(t *testing.T) {
	s := NewState()
	s = Reduce(s, Next{})
	s = Reduce(s, Next{})
	s = Reduce(s, Reset{})

	if s.CurrentStepIndex() != 0 {
		t.Fatalf("index after reset = %d, want 0", s.CurrentStepIndex())
	}
	for _, step := range s.Steps() {
		if step.Completed {
			t.Errorf("step %s still completed after reset", step.ID)
		}
	}

	for i := 0; i < 3; i++ {
		s = Reduce(s, Prev{})
	}
	if s.CurrentStepIndex() != 0 {
		t.Errorf("index = %d, want 0 after reset + prev calls", s.CurrentStepIndex())
	}
}

func TestJumpTo_CompletesSkippedSteps(t *testing.T) {
	s := NewState()
	s = Reduce(s, JumpTo{Index: 4})

	if s.CurrentStepIndex() != 4 {
		t.Fatalf("index = %d, want 4", s.CurrentStepIndex())
	}
	for i := 0; i <= 4; i++ {
		if !s.Steps()[i].Completed {
			t.Errorf("step %d not completed after forward jump", i)
		}
	}
	for i := 5; i < StepCount; i++ {
		if s.Steps()[i].Completed {
			t.Errorf("step %d beyond target must stay incomplete", i)
		}
	}
	assertOneCurrent(t, s)
}

func TestJumpTo_BackwardKeepsCompleted(t *testing.T) {
	s := NewState()
	s = Reduce(s, JumpTo{Index: 5})
	s = Reduce(s, JumpTo{Index: 1})

	if s.CurrentStepIndex() != 1 {
		t.Fatalf("index = %d, want 1", s.CurrentStepIndex())
	}
	// Monotonic: jumping back never un-completes steps beyond the target.
	for i := 0; i <= 5; i++ {
		if !s.Steps()[i].Completed {
			t.Errorf("step %d lost its completed flag on backward jump", i)
		}
	}
}

func TestJumpTo_ClampsOutOfBounds(t *testing.T) {
	s := Reduce(NewState(), JumpTo{Index: 99})
	if s.CurrentStepIndex() != StepCount-1 {
		t.Errorf("index = %d, want %d", s.CurrentStepIndex(), StepCount-1)
	}
	s = Reduce(s, JumpTo{Index: -3})
	if s.CurrentStepIndex() != 0 {
		t.Errorf("index = %d, want 0", s.CurrentStepIndex())
	}
}

func TestUpdatePrefs_ReplaceNotUnion(t *testing.T) {
	s := NewState()
	house := []string{"HOUSE"}
	villa := []string{"VILLA"}
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{PropertyTypes: &house}})
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{PropertyTypes: &villa}})

	got := s.Preferences().PropertyTypes
	if len(got) != 1 || got[0] != "VILLA" {
		t.Errorf("property types = %v, want [VILLA] (replace, not union)", got)
	}
}

func TestUpdatePrefs_AbsentFieldsUnchanged(t *testing.T) {
	s := NewState()
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{
		Purpose:  str("rent"),
		Location: str("Barcelona"),
	}})
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{
		Budget: &Budget{Min: f64(1000), Max: f64(2000)},
	}})

	p := s.Preferences()
	if p.Purpose != "rent" || p.Location != "Barcelona" {
		t.Errorf("absent fields changed: %+v", p)
	}
	if p.Budget.Min == nil || *p.Budget.Min != 1000 {
		t.Errorf("budget not merged: %+v", p.Budget)
	}
}

func TestSelectProperty(t *testing.T) {
	s := Reduce(NewState(), SelectProperty{ID: "p42"})
	if s.SelectedPropertyID() != "p42" {
		t.Errorf("selected = %q, want p42", s.SelectedPropertyID())
	}
	s = Reduce(s, SelectProperty{})
	if s.SelectedPropertyID() != "" {
		t.Error("empty selection must clear the highlight")
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := NewState()
	_ = Reduce(s, Next{})
	if s.CurrentStepIndex() != 0 {
		t.Error("Reduce must not mutate its input state")
	}
}

func TestCandidateLimit_ProgressiveNarrowing(t *testing.T) {
	s := NewState()
	limits := DefaultNarrowing

	if got := s.CandidateLimit(limits); got != 50 {
		t.Errorf("step 0 limit = %d, want 50", got)
	}
	s = Reduce(s, JumpTo{Index: 3})
	if got := s.CandidateLimit(limits); got != 30 {
		t.Errorf("step 3 limit = %d, want 30", got)
	}
	s = Reduce(s, JumpTo{Index: 6})
	if got := s.CandidateLimit(limits); got != 10 {
		t.Errorf("step 6 limit = %d, want 10", got)
	}
}

func TestCriteria_FromFragment(t *testing.T) {
	s := NewState()
	types := []string{"HOUSE", "VILLA"}
	features := []string{"pool"}
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{
		Purpose:       str("rent"),
		Budget:        &Budget{Min: f64(1000), Max: f64(2000)},
		PropertyTypes: &types,
		Location:      str("Barcelona"),
		Features:      &features,
	}})
	s = Reduce(s, JumpTo{Index: 6})

	c, err := s.Criteria(DefaultNarrowing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Operation() != property.OperationRent {
		t.Errorf("operation = %v, want RENT", c.Operation())
	}
	if c.City() != "Barcelona" {
		t.Errorf("city = %q, want Barcelona", c.City())
	}
	if len(c.PropertyTypes()) != 2 {
		t.Errorf("property types = %v, want 2 entries", c.PropertyTypes())
	}
	if c.Limit() != 10 {
		t.Errorf("limit = %d, want the late-step narrowing cap 10", c.Limit())
	}
	if *c.MinPrice() != 1000 || *c.MaxPrice() != 2000 {
		t.Errorf("price band = %v-%v, want 1000-2000", c.MinPrice(), c.MaxPrice())
	}
}

func TestCriteria_DropsUnknownTypesLeniently(t *testing.T) {
	s := NewState()
	types := []string{"HOUSE", "CASTLE"}
	s = Reduce(s, UpdatePrefs{Partial: PartialPreferences{PropertyTypes: &types}})

	c, err := s.Criteria(DefaultNarrowing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.PropertyTypes()) != 1 || c.PropertyTypes()[0] != property.TypeHouse {
		t.Errorf("property types = %v, want [HOUSE]", c.PropertyTypes())
	}
}

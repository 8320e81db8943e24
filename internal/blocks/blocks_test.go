package blocks

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signalsfoundry/tasking-planner/internal/htn"
)

// sussman builds the Sussman anomaly: c on a, a and b on the table.
func sussman() (*State, *Goal) {
	s := NewState("sussman")
	s.SetPos("c", "a")
	s.SetPos("a", Table)
	s.SetPos("b", Table)
	s.SetClear("c", true)
	s.SetClear("b", true)

	g := NewGoal("sussman-goal")
	g.SetPos("a", "b")
	g.SetPos("b", "c")
	return s, g
}

func TestPlan_SussmanAnomaly(t *testing.T) {
	s, g := sussman()
	res, err := NewPlanner(htn.Config{}, nil).Plan(context.Background(), s, Tasks(g), htn.NewRun("", nil))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Failed {
		t.Fatalf("plan failed: %v", res.Reason)
	}

	want := []string{
		"(unstack c a)",
		"(putdown c)",
		"(pickup b)",
		"(stack b c)",
		"(pickup a)",
		"(stack a b)",
	}
	if diff := cmp.Diff(want, htn.FormatPlan(res.Plan)); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if res.NodesExpanded != 15 {
		t.Fatalf("NodesExpanded = %d, want 15", res.NodesExpanded)
	}
	if !g.Satisfied(res.Final) {
		t.Fatalf("final state %s does not satisfy the goal", res.Final)
	}
	if p, _ := s.Pos("c"); p != "a" {
		t.Fatalf("planning mutated the caller's state")
	}
}

func TestPlan_AlreadySatisfied(t *testing.T) {
	s, _ := sussman()
	g := NewGoal("trivial")
	g.SetPos("c", "a")

	res, err := NewPlanner(htn.Config{}, nil).Plan(context.Background(), s, Tasks(g), nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Failed || len(res.Plan) != 0 || res.NodesExpanded != 0 {
		t.Fatalf("result = %+v, want empty plan with no expansions", res)
	}
}

func TestClassify(t *testing.T) {
	s, g := sussman()
	s.Normalize()

	cases := map[Block]Status{
		"c": StatusMoveToTable,
		"a": StatusInaccessible,
		"b": StatusWaiting,
	}
	for b, want := range cases {
		if got := Classify(b, s, g); got != want {
			t.Errorf("Classify(%s) = %v, want %v", b, got, want)
		}
	}
}

func TestActions_Preconditions(t *testing.T) {
	s, _ := sussman()
	s.Normalize()

	if err := (Pickup{Block: "a"}).Apply(s); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("pickup of covered block error = %v, want ErrPrecondition", err)
	}
	if err := (Unstack{Block: "c", From: "b"}).Apply(s); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("unstack from wrong block error = %v, want ErrPrecondition", err)
	}
	if err := (Pickup{Block: "b"}).Apply(s); err != nil {
		t.Fatalf("pickup b: %v", err)
	}
	if err := (Pickup{Block: "c"}).Apply(s); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("pickup with full hand error = %v, want ErrPrecondition", err)
	}
	if err := (Stack{Block: "b", On: "a"}).Apply(s); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("stack on covered block error = %v, want ErrPrecondition", err)
	}
	if err := (Stack{Block: "b", On: "c"}).Apply(s); err != nil {
		t.Fatalf("stack b c: %v", err)
	}
	if s.Clear("c") || !s.Clear("b") || s.Holding() != "" {
		t.Fatalf("unexpected state after stack: %s", s)
	}
}

func TestValidate(t *testing.T) {
	s := NewState("bad")
	s.SetClear("x", true)
	if err := s.Validate(); !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("Validate error = %v, want ErrUnknownBlock", err)
	}
}

func TestState_BlockMentionedAsSupportFirstIsListedOnce(t *testing.T) {
	s := NewState("support-first")
	s.SetPos("c", "a")
	s.SetPos("a", Table)
	s.SetClear("a", false)
	s.SetPos("b", Table)

	want := []Block{"c", "a", "b"}
	if diff := cmp.Diff(want, s.Blocks()); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}

	c := s.Clone()
	c.SetPos("d", "b")
	c.SetPos("b", Table)
	if diff := cmp.Diff([]Block{"c", "a", "b", "d"}, c.Blocks()); diff != "" {
		t.Fatalf("clone blocks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, s.Blocks()); diff != "" {
		t.Fatalf("clone changed original blocks (-want +got):\n%s", diff)
	}
}

package core

import (
	"errors"
	"reflect"
	"testing"
)

func agent(name string, c Condition) Agent {
	return Agent{Name: name, Category: c}
}

func TestImproveWorsen(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(Agent) (Agent, error)
		in      Condition
		want    Condition
		wantErr bool
	}{
		{"improve sick", Improve, ConditionSick, ConditionHealthy, false},
		{"improve dying", Improve, ConditionDying, ConditionSick, false},
		{"improve cure", Improve, ConditionCure, "", true},
		{"improve healthy", Improve, ConditionHealthy, "", true},
		{"improve dead", Improve, ConditionDead, "", true},
		{"worsen sick", Worsen, ConditionSick, ConditionDying, false},
		{"worsen dying", Worsen, ConditionDying, ConditionDead, false},
		{"worsen cure", Worsen, ConditionCure, "", true},
		{"worsen healthy", Worsen, ConditionHealthy, "", true},
		{"worsen dead", Worsen, ConditionDead, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(agent("X", tc.in))
			if tc.wantErr {
				if !errors.Is(err, ErrNoTransition) {
					t.Fatalf("expected ErrNoTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != agent("X", tc.want) {
				t.Fatalf("got %v, want (X,%s)", got, tc.want)
			}
		})
	}
}

func TestImprove_DoesNotMutateInput(t *testing.T) {
	in := agent("A", ConditionSick)
	if _, err := Improve(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Category != ConditionSick {
		t.Fatalf("input changed: %v", in)
	}
}

func TestInteract(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Agent
		wantA Agent
		wantB Agent
	}{
		{"cure first heals", agent("C", ConditionCure), agent("S", ConditionSick), agent("C", ConditionCure), agent("S", ConditionHealthy)},
		{"cure second heals", agent("D", ConditionDying), agent("C", ConditionCure), agent("D", ConditionSick), agent("C", ConditionCure)},
		{"sick meets dying", agent("S", ConditionSick), agent("D", ConditionDying), agent("S", ConditionDying), agent("D", ConditionDead)},
		{"sick meets sick", agent("A", ConditionSick), agent("B", ConditionSick), agent("A", ConditionDying), agent("B", ConditionDying)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotA, gotB, err := Interact(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotA != tc.wantA || gotB != tc.wantB {
				t.Fatalf("got (%v, %v), want (%v, %v)", gotA, gotB, tc.wantA, tc.wantB)
			}
		})
	}
}

func TestInteract_TwoCuresIsDomainError(t *testing.T) {
	_, _, err := Interact(agent("A", ConditionCure), agent("B", ConditionCure))
	if !errors.Is(err, ErrNoTransition) {
		t.Fatalf("expected ErrNoTransition, got %v", err)
	}
}

func TestInteract_CureNeverChanges(t *testing.T) {
	for _, other := range []Condition{ConditionSick, ConditionDying} {
		cure := agent("C", ConditionCure)
		a, b, err := Interact(cure, agent("O", other))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != cure {
			t.Fatalf("cure changed to %v", a)
		}
		b2, a2, err := Interact(agent("O", other), cure)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a2 != cure {
			t.Fatalf("cure changed to %v", a2)
		}
		if b != b2 {
			t.Fatalf("pair order changed outcome: %v vs %v", b, b2)
		}
	}
}

func TestMeetup_PairingExample(t *testing.T) {
	in := []Agent{
		agent("A", ConditionSick),
		agent("B", ConditionCure),
		agent("C", ConditionDying),
		agent("D", ConditionSick),
	}
	want := []Agent{
		agent("A", ConditionHealthy),
		agent("B", ConditionCure),
		agent("C", ConditionDead),
		agent("D", ConditionDying),
	}
	got, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMeetup_OddSingleAgentUnchanged(t *testing.T) {
	in := []Agent{agent("X", ConditionSick)}
	got, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %v, want %v", got, in)
	}
}

func TestMeetup_StableFirstOrdering(t *testing.T) {
	in := []Agent{
		agent("A", ConditionHealthy),
		agent("B", ConditionSick),
		agent("C", ConditionDying),
	}
	want := []Agent{
		agent("A", ConditionHealthy),
		agent("B", ConditionDying),
		agent("C", ConditionDead),
	}
	got, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMeetup_ReordersStableAheadOfActive(t *testing.T) {
	in := []Agent{
		agent("S1", ConditionSick),
		agent("H", ConditionHealthy),
		agent("S2", ConditionSick),
		agent("X", ConditionDead),
		agent("L", ConditionDying),
	}
	want := []Agent{
		agent("H", ConditionHealthy),
		agent("X", ConditionDead),
		agent("S1", ConditionDying),
		agent("S2", ConditionDying),
		agent("L", ConditionDying),
	}
	got, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMeetup_EmptyInput(t *testing.T) {
	got, err := Meetup(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestMeetup_DoesNotMutateInput(t *testing.T) {
	in := []Agent{agent("A", ConditionSick), agent("B", ConditionSick)}
	snapshot := append([]Agent(nil), in...)
	if _, err := Meetup(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(in, snapshot) {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestMeetup_TwoCuresFails(t *testing.T) {
	in := []Agent{agent("A", ConditionCure), agent("B", ConditionCure)}
	got, err := Meetup(in)
	if !errors.Is(err, ErrNoTransition) {
		t.Fatalf("expected ErrNoTransition, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no partial output, got %v", got)
	}
}

func TestMeetup_LengthPreservedAndTerminalStatesFixed(t *testing.T) {
	populations := [][]Agent{
		{},
		{agent("a", ConditionDead)},
		{agent("a", ConditionSick), agent("b", ConditionHealthy)},
		{agent("a", ConditionCure), agent("b", ConditionSick), agent("c", ConditionDying), agent("d", ConditionDead), agent("e", ConditionSick)},
		{agent("a", ConditionSick), agent("b", ConditionSick), agent("c", ConditionSick), agent("d", ConditionSick), agent("e", ConditionHealthy), agent("f", ConditionDying)},
	}
	for _, population := range populations {
		current := population
		for step := 0; step < 5; step++ {
			next, err := Meetup(current)
			if err != nil {
				t.Fatalf("step %d: unexpected error: %v", step, err)
			}
			if len(next) != len(current) {
				t.Fatalf("step %d: length %d, want %d", step, len(next), len(current))
			}
			terminal := map[string]Condition{}
			for _, a := range current {
				if a.Category.Terminal() {
					terminal[a.Name] = a.Category
				}
			}
			for _, a := range next {
				if c, ok := terminal[a.Name]; ok && a.Category != c {
					t.Fatalf("step %d: terminal agent %s moved from %s to %s", step, a.Name, c, a.Category)
				}
			}
			current = next
		}
	}
}

func TestMeetup_Deterministic(t *testing.T) {
	in := []Agent{agent("A", ConditionSick), agent("B", ConditionCure), agent("C", ConditionDying), agent("D", ConditionSick), agent("E", ConditionSick)}
	first, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Meetup(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("non-deterministic output: %v vs %v", first, second)
	}
}

func TestSimulate_StopsWhenSettled(t *testing.T) {
	in := []Agent{agent("A", ConditionSick), agent("B", ConditionSick)}
	history, err := Simulate(in, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// (S,S) -> (Dy,Dy) -> (D,D)
	if len(history) != 3 {
		t.Fatalf("expected 3 snapshots, got %d: %v", len(history), history)
	}
	want := []Agent{agent("A", ConditionDead), agent("B", ConditionDead)}
	if !reflect.DeepEqual(history[2], want) {
		t.Fatalf("final snapshot %v, want %v", history[2], want)
	}
}

func TestSimulate_RespectsMaxSteps(t *testing.T) {
	in := []Agent{agent("A", ConditionSick), agent("B", ConditionSick)}
	history, err := Simulate(in, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
}

func TestSimulate_ReturnsPartialHistoryOnError(t *testing.T) {
	// Step 1 heals S1 and improves D1; step 2 pairs C1 with C2.
	in := []Agent{agent("C1", ConditionCure), agent("S1", ConditionSick), agent("C2", ConditionCure), agent("D1", ConditionDying)}
	history, err := Simulate(in, 10)
	if !errors.Is(err, ErrNoTransition) {
		t.Fatalf("expected ErrNoTransition, got %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots before failure, got %d", len(history))
	}
	want := []Agent{agent("C1", ConditionCure), agent("S1", ConditionHealthy), agent("C2", ConditionCure), agent("D1", ConditionSick)}
	if !reflect.DeepEqual(history[1], want) {
		t.Fatalf("snapshot 1 = %v, want %v", history[1], want)
	}
}

func TestSimulate_SeveralCuresSettleWithoutError(t *testing.T) {
	in := []Agent{agent("C1", ConditionCure), agent("S1", ConditionSick), agent("C2", ConditionCure), agent("S2", ConditionSick)}
	history, err := Simulate(in, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d: %v", len(history), history)
	}
	if !Settled(history[1]) {
		t.Fatalf("final snapshot should be settled: %v", history[1])
	}
}

func TestSettled(t *testing.T) {
	if !Settled([]Agent{agent("A", ConditionHealthy), agent("B", ConditionSick)}) {
		t.Fatalf("one active agent should be settled")
	}
	if Settled([]Agent{agent("A", ConditionCure), agent("B", ConditionSick)}) {
		t.Fatalf("two active agents should not be settled")
	}
	if !Settled([]Agent{agent("A", ConditionCure), agent("B", ConditionHealthy), agent("C", ConditionCure)}) {
		t.Fatalf("only cures active should be settled")
	}
	if Settled([]Agent{agent("A", ConditionCure), agent("B", ConditionCure), agent("C", ConditionDying)}) {
		t.Fatalf("a dying agent among cures should not be settled")
	}
}

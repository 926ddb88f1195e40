package core

import (
	"fmt"
	"log/slog"
)

// DefaultMaxSteps bounds Simulate when the caller does not supply a limit.
const DefaultMaxSteps = 100

// Meetup runs one simulation step over agents.
//
// Agents in a terminal state are emitted first, in input order. The rest are
// paired positionally ((0,1), (2,3), ...) and each pair goes through Interact;
// a trailing unpaired agent is emitted unchanged. The output therefore has the
// same length as the input but not necessarily the same order.
func Meetup(agents []Agent) ([]Agent, error) {
	updated := make([]Agent, 0, len(agents))
	active := make([]Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.Category.Terminal() {
			updated = append(updated, agent)
		} else {
			active = append(active, agent)
		}
	}

	for i := 0; i < len(active); i += 2 {
		if i+1 == len(active) {
			updated = append(updated, active[i])
			break
		}
		first, second, err := Interact(active[i], active[i+1])
		if err != nil {
			return nil, fmt.Errorf("meetup: pair %d (%s, %s): %w", i/2, active[i].Name, active[i+1].Name, err)
		}
		updated = append(updated, first, second)
	}

	slog.Debug("meetup step", "agents", len(agents), "stable", len(agents)-len(active), "active", len(active))
	return updated, nil
}

// Settled reports whether another Meetup could change any agent's condition.
// That needs at least two active agents, one of them not CURE: a CURE never
// changes, so a population whose only active agents are cures is settled.
func Settled(agents []Agent) bool {
	active, patients := 0, 0
	for _, agent := range agents {
		if agent.Category.Terminal() {
			continue
		}
		active++
		if agent.Category != ConditionCure {
			patients++
		}
	}
	return active < 2 || patients == 0
}

// Simulate applies Meetup repeatedly and returns every snapshot, starting
// with the initial population. It stops after maxSteps steps or once the
// population is settled. A non-positive maxSteps means DefaultMaxSteps.
// On error the snapshots produced so far are returned with it.
func Simulate(agents []Agent, maxSteps int) ([][]Agent, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	current := append([]Agent(nil), agents...)
	history := [][]Agent{current}
	for step := 1; step <= maxSteps && !Settled(current); step++ {
		next, err := Meetup(current)
		if err != nil {
			return history, fmt.Errorf("simulate: step %d: %w", step, err)
		}
		history = append(history, next)
		current = next
	}
	slog.Info("simulation finished", "steps", len(history)-1, "agents", len(agents), "settled", Settled(current))
	return history, nil
}

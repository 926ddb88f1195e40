package core

import "fmt"

// Improve moves a SICK agent to HEALTHY and a DYING agent to SICK.
func Improve(agent Agent) (Agent, error) {
	switch agent.Category {
	case ConditionSick:
		return Agent{Name: agent.Name, Category: ConditionHealthy}, nil
	case ConditionDying:
		return Agent{Name: agent.Name, Category: ConditionSick}, nil
	default:
		return Agent{}, fmt.Errorf("improve %s: %w from %s", agent.Name, ErrNoTransition, agent.Category)
	}
}

// Worsen moves a SICK agent to DYING and a DYING agent to DEAD.
func Worsen(agent Agent) (Agent, error) {
	switch agent.Category {
	case ConditionSick:
		return Agent{Name: agent.Name, Category: ConditionDying}, nil
	case ConditionDying:
		return Agent{Name: agent.Name, Category: ConditionDead}, nil
	default:
		return Agent{}, fmt.Errorf("worsen %s: %w from %s", agent.Name, ErrNoTransition, agent.Category)
	}
}

// Interact applies the meeting rule to a pair of active agents.
// When exactly one side is a cure it stays as it is and heals the other;
// every other pairing worsens both, so two cures meeting is an error.
func Interact(a, b Agent) (Agent, Agent, error) {
	aCure := a.Category == ConditionCure
	bCure := b.Category == ConditionCure

	switch {
	case aCure && !bCure:
		improved, err := Improve(b)
		if err != nil {
			return Agent{}, Agent{}, fmt.Errorf("interact: %w", err)
		}
		return a, improved, nil
	case bCure && !aCure:
		improved, err := Improve(a)
		if err != nil {
			return Agent{}, Agent{}, fmt.Errorf("interact: %w", err)
		}
		return improved, b, nil
	}

	worseA, err := Worsen(a)
	if err != nil {
		return Agent{}, Agent{}, fmt.Errorf("interact: %w", err)
	}
	worseB, err := Worsen(b)
	if err != nil {
		return Agent{}, Agent{}, fmt.Errorf("interact: %w", err)
	}
	return worseA, worseB, nil
}

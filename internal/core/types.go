package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Condition represents the health or role state of an agent.
type Condition string

const (
	ConditionCure    Condition = "CURE"
	ConditionHealthy Condition = "HEALTHY"
	ConditionSick    Condition = "SICK"
	ConditionDying   Condition = "DYING"
	ConditionDead    Condition = "DEAD"
)

// Conditions lists every condition in enumeration order.
var Conditions = []Condition{ConditionCure, ConditionHealthy, ConditionSick, ConditionDying, ConditionDead}

var (
	// ErrUnknownCondition is returned when a value is not one of the five conditions.
	ErrUnknownCondition = errors.New("unknown condition")
	// ErrNoTransition is returned when a rule is applied outside its domain.
	ErrNoTransition = errors.New("no transition")
)

// Valid reports whether c is one of the enumerated conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionCure, ConditionHealthy, ConditionSick, ConditionDying, ConditionDead:
		return true
	}
	return false
}

// Terminal reports whether c is an absorbing state.
func (c Condition) Terminal() bool {
	return c == ConditionHealthy || c == ConditionDead
}

func (c Condition) String() string {
	return string(c)
}

// ParseCondition converts a case-insensitive name into a Condition.
func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCondition, s)
	}
	return c, nil
}

// Agent is a named entity carrying a condition. Agents are values:
// transitions build a new Agent instead of changing an existing one.
type Agent struct {
	Name     string    `db:"name"`
	Category Condition `db:"category"`
}

// NewAgent returns an Agent after checking that category is a known condition.
func NewAgent(name string, category Condition) (Agent, error) {
	if !category.Valid() {
		return Agent{}, fmt.Errorf("new agent %q: %w: %q", name, ErrUnknownCondition, string(category))
	}
	return Agent{Name: name, Category: category}, nil
}

func (a Agent) String() string {
	return fmt.Sprintf("(%s,%s)", a.Name, a.Category)
}

// Run is a stored simulation: an initial population followed by Steps meetups.
type Run struct {
	ID        uuid.UUID `db:"id"`
	Label     string    `db:"label"`
	CreatedAt time.Time `db:"created_at"`
	Steps     int       `db:"steps"`
}

package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseRoster reads agents from CSV records of the form name,condition.
// Blank lines, lines starting with '#' and a leading "name,condition" header
// are skipped.
func ParseRoster(r io.Reader) ([]Agent, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	agents := make([]Agent, 0)
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse roster: %w", err)
		}
		line, _ := reader.FieldPos(0)

		name := strings.TrimSpace(record[0])
		value := strings.TrimSpace(record[1])
		if first && strings.EqualFold(name, "name") && strings.EqualFold(value, "condition") {
			first = false
			continue
		}
		first = false

		if name == "" {
			return nil, fmt.Errorf("parse roster: line %d: empty name", line)
		}
		category, err := ParseCondition(value)
		if err != nil {
			return nil, fmt.Errorf("parse roster: line %d: %w", line, err)
		}
		agents = append(agents, Agent{Name: name, Category: category})
	}
	return agents, nil
}

// FormatAgents renders one "name<TAB>CONDITION" line per agent.
func FormatAgents(agents []Agent) string {
	var b strings.Builder
	for _, agent := range agents {
		b.WriteString(agent.Name)
		b.WriteByte('\t')
		b.WriteString(string(agent.Category))
		b.WriteByte('\n')
	}
	return b.String()
}

// Census counts agents per condition.
func Census(agents []Agent) map[Condition]int {
	counts := make(map[Condition]int, len(Conditions))
	for _, agent := range agents {
		counts[agent.Category]++
	}
	return counts
}

// FormatCensus renders counts in enumeration order, e.g. "CURE=1 HEALTHY=0 ...".
func FormatCensus(counts map[Condition]int) string {
	parts := make([]string, 0, len(Conditions))
	for _, c := range Conditions {
		parts = append(parts, fmt.Sprintf("%s=%d", c, counts[c]))
	}
	return strings.Join(parts, " ")
}

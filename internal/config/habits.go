// ABOUTME: Habit definition loading from YAML files.
// ABOUTME: Declarative habit targets validated at load time.
package config

import (
	"fmt"
	"os"

	"github.com/harperreed/pulse/internal/models"
	"gopkg.in/yaml.v3"
)

// habitsFile is the YAML document shape:
//
//	habits:
//	  - name: gym
//	    kind: workout
//	    qualifier: gym
//	    target: 3
//	    period: weekly
type habitsFile struct {
	Habits []models.HabitDefinition `yaml:"habits"`
}

// LoadHabits reads habit definitions from path. A missing file yields
// an empty set, not an error.
func LoadHabits(path string) ([]models.HabitDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read habits file: %w", err)
	}
	return ParseHabits(data)
}

// ParseHabits parses and validates YAML habit definitions.
func ParseHabits(data []byte) ([]models.HabitDefinition, error) {
	var f habitsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse habits file: %w", err)
	}

	seen := make(map[string]bool, len(f.Habits))
	for i := range f.Habits {
		if err := f.Habits[i].Validate(); err != nil {
			return nil, err
		}
		if seen[f.Habits[i].Name] {
			return nil, fmt.Errorf("duplicate habit name %q", f.Habits[i].Name)
		}
		seen[f.Habits[i].Name] = true
	}
	return f.Habits, nil
}

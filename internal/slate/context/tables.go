package context

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Tables bundles the static context inputs: altitude rules, referee
// tendencies, and the league-average foul anchor. Loaded once at startup and
// treated as read-only afterwards.
type Tables struct {
	Altitude       []AltitudeRule `yaml:"altitude"`
	Referees       []RefTendency  `yaml:"referees"`
	LeagueFoulsAvg float64        `yaml:"league_fouls_avg"`
}

// DefaultTables is the factory table set.
func DefaultTables() Tables {
	return Tables{
		Altitude:       defaultAltitudeRules(),
		Referees:       defaultReferees(),
		LeagueFoulsAvg: 40.0,
	}
}

// LoadTables reads context.yaml from dir, falling back to factory tables
// when the file is absent. A malformed file is an error rather than a
// silent fallback. Sections omitted from the file keep factory values.
func LoadTables(dir string) (Tables, error) {
	t := DefaultTables()
	path := filepath.Join(dir, "context.yaml")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("read %s: %w", path, err)
	}
	var override Tables
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return DefaultTables(), fmt.Errorf("parse %s: %w", path, err)
	}
	if len(override.Altitude) > 0 {
		t.Altitude = override.Altitude
	}
	if len(override.Referees) > 0 {
		t.Referees = override.Referees
	}
	if override.LeagueFoulsAvg > 0 {
		t.LeagueFoulsAvg = override.LeagueFoulsAvg
	}
	return t, nil
}

// Book builds the referee book over the loaded tables.
func (t Tables) Book() *RefereeBook {
	return NewRefereeBook(t.Referees, t.LeagueFoulsAvg)
}

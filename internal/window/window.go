package window

import (
	"fmt"
	"time"
)

// CurrentName names the recent-situation window. It is reserved and cannot
// be used by a historical window.
const CurrentName = "current"

// Default values applied when fields are absent from the config file.
const (
	DefaultCurrentMonths = 3
)

// Config describes the windows computed on every aggregation run.
type Config struct {
	// CurrentMonths is how many calendar months, counting the one containing
	// "now", feed the current situation. Older records score 0 there.
	CurrentMonths int `yaml:"current_months"`

	// Windows are the historical horizons. A record qualifies when its
	// information date is on or after the first day of the month that is
	// Months before the current month.
	Windows []Spec `yaml:"windows"`
}

type Spec struct {
	Name   string `yaml:"name"`
	Months int    `yaml:"months"`
}

// DefaultConfig returns the current/12/24-month layout.
func DefaultConfig() Config {
	return Config{
		CurrentMonths: DefaultCurrentMonths,
		Windows: []Spec{
			{Name: "last_12_months", Months: 12},
			{Name: "last_24_months", Months: 24},
		},
	}
}

// ConfigurationError marks a window configuration that cannot be used.
// It is fatal for the whole aggregation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("window config: %s: %s", e.Field, e.Reason)
}

// Validate checks offsets and names.
func (c Config) Validate() error {
	if c.CurrentMonths < 1 {
		return &ConfigurationError{Field: "current_months", Reason: fmt.Sprintf("must be positive, got %d", c.CurrentMonths)}
	}
	seen := map[string]bool{}
	for i, w := range c.Windows {
		field := fmt.Sprintf("windows[%d]", i)
		switch {
		case w.Name == "":
			return &ConfigurationError{Field: field + ".name", Reason: "empty"}
		case w.Name == CurrentName:
			return &ConfigurationError{Field: field + ".name", Reason: "\"current\" is reserved"}
		case seen[w.Name]:
			return &ConfigurationError{Field: field + ".name", Reason: fmt.Sprintf("duplicate %q", w.Name)}
		case w.Months < 1:
			return &ConfigurationError{Field: field + ".months", Reason: fmt.Sprintf("must be positive, got %d", w.Months)}
		}
		seen[w.Name] = true
	}
	return nil
}

// Window is a historical window resolved against a processing date.
type Window struct {
	Name   string
	Months int
	Cutoff time.Time
}

// Contains reports whether a record dated d falls in the window. The cutoff
// is inclusive and there is no upper bound.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Cutoff)
}

// Set is the outcome of one Compute call.
type Set struct {
	MonthStart  time.Time
	CurrentFrom time.Time
	Windows     []Window
}

// InCurrent reports whether a record dated d keeps its own severity in the
// current situation.
func (s Set) InCurrent(d time.Time) bool {
	return !d.Before(s.CurrentFrom)
}

// Compute resolves every window against now. Only the year and month of now
// are used; all boundaries are first-of-month dates at UTC.
func Compute(now time.Time, cfg Config) (Set, error) {
	if err := cfg.Validate(); err != nil {
		return Set{}, err
	}
	start := MonthStart(now)
	set := Set{
		MonthStart:  start,
		CurrentFrom: start.AddDate(0, -(cfg.CurrentMonths - 1), 0),
		Windows:     make([]Window, 0, len(cfg.Windows)),
	}
	for _, w := range cfg.Windows {
		set.Windows = append(set.Windows, Window{
			Name:   w.Name,
			Months: w.Months,
			Cutoff: start.AddDate(0, -w.Months, 0),
		})
	}
	return set, nil
}

// MonthStart returns the first day of the month containing t, at UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

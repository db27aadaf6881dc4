package model

import "time"

// LogLevel is the log verbosity carried by an Info.
type LogLevel string

const (
	LogLevelDebug    LogLevel = "DEBUG"
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

// LogLevels lists every accepted log level.
var LogLevels = []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical}

// Valid reports whether l is a member of the log level enum.
func (l LogLevel) Valid() bool {
	for _, level := range LogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Numeric bounds enforced on Info fields. Seconds-valued constraints are
// capped so a typo'd duration cannot stall a run for days.
const (
	MaxSeed            = 1_000_000_000
	MaxDurationSeconds = 10_000
)

// Info is the run/constraint context governing a schedule, step, or load.
// Every numeric constraint is checked by NewInfo; an Info that fails any
// check is never returned. Once a Schedule is built, its Infos are shared by
// reference between the loads of a step and are not mutated again.
//
// MaxCores, MaxThreads, and MaxMemory use 0 to mean "use the system maximum".
type Info struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Nodes        []string `json:"nodes"`
	Debug        bool     `json:"debug"`
	LogLevel     LogLevel `json:"log_level"`
	Seed         int64    `json:"seed"`
	Args         string   `json:"args,omitempty"`
	MaxDuration  int      `json:"max_duration"` // seconds
	Accelerators int      `json:"accelerators"`
	MaxCores     int      `json:"max_cores,omitempty"`
	MaxThreads   int      `json:"max_threads,omitempty"`
	MaxMemory    int      `json:"max_memory,omitempty"` // GB
	MinMemory    int      `json:"min_memory"`           // GB
	MinCores     int      `json:"min_cores"`
	MinThreads   int      `json:"min_threads"`
	MinWorkloads int      `json:"min_workloads"`
	MaxWorkloads int      `json:"max_workloads"`
	Delay        int      `json:"delay,omitempty"` // seconds between steps
	Timeout      int      `json:"timeout"`         // seconds
}

// NewInfo validates i and returns a pointer to a copy, or a constraint error.
// Construction is atomic: no partially-valid Info ever escapes.
func NewInfo(i Info) (*Info, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return &i, nil
}

// Validate checks every Info invariant. It is also the re-validation gate
// used by Schedule.Verify after deserialization.
func (i *Info) Validate() error {
	if i.Name == "" {
		return NewConstraintError("info: missing name")
	}
	if i.Description == "" {
		return NewConstraintError("info: missing description")
	}
	if !i.LogLevel.Valid() {
		return NewConstraintError("info %q: invalid log level %q", i.Name, i.LogLevel)
	}
	if i.Seed < 0 || i.Seed > MaxSeed {
		return NewConstraintError("info %q: seed %d out of range [0, %d]", i.Name, i.Seed, MaxSeed)
	}
	if i.MaxDuration <= 0 || i.MaxDuration > MaxDurationSeconds {
		return NewConstraintError("info %q: duration %ds out of range (0, %d]", i.Name, i.MaxDuration, MaxDurationSeconds)
	}
	if i.Timeout <= 0 || i.Timeout > MaxDurationSeconds {
		return NewConstraintError("info %q: timeout %ds out of range (0, %d]", i.Name, i.Timeout, MaxDurationSeconds)
	}
	if i.Delay < 0 || i.Delay > MaxDurationSeconds {
		return NewConstraintError("info %q: delay %ds out of range [0, %d]", i.Name, i.Delay, MaxDurationSeconds)
	}
	if i.Accelerators <= 0 {
		return NewConstraintError("info %q: invalid accelerator count %d", i.Name, i.Accelerators)
	}
	if i.MinMemory <= 0 {
		return NewConstraintError("info %q: invalid minimum memory %d", i.Name, i.MinMemory)
	}
	if i.MinCores <= 0 {
		return NewConstraintError("info %q: invalid minimum cores %d", i.Name, i.MinCores)
	}
	if i.MinThreads <= 0 {
		return NewConstraintError("info %q: invalid minimum threads %d", i.Name, i.MinThreads)
	}
	if i.MinWorkloads <= 0 {
		return NewConstraintError("info %q: invalid minimum workloads %d", i.Name, i.MinWorkloads)
	}
	if i.MaxWorkloads <= 0 {
		return NewConstraintError("info %q: invalid maximum workloads %d", i.Name, i.MaxWorkloads)
	}
	if i.MaxCores != 0 && i.MaxCores < i.MinCores {
		return NewConstraintError("info %q: max cores %d below min cores %d", i.Name, i.MaxCores, i.MinCores)
	}
	if i.MaxThreads != 0 && i.MaxThreads < i.MinThreads {
		return NewConstraintError("info %q: max threads %d below min threads %d", i.Name, i.MaxThreads, i.MinThreads)
	}
	if i.MaxMemory != 0 && i.MaxMemory < i.MinMemory {
		return NewConstraintError("info %q: max memory %dGB below min memory %dGB", i.Name, i.MaxMemory, i.MinMemory)
	}
	if i.MaxWorkloads < i.MinWorkloads {
		return NewConstraintError("info %q: max workloads %d below min workloads %d", i.Name, i.MaxWorkloads, i.MinWorkloads)
	}
	return nil
}

// TimeoutDuration returns the timeout as a time.Duration.
func (i *Info) TimeoutDuration() time.Duration {
	return time.Duration(i.Timeout) * time.Second
}

// MaxDurationDuration returns the maximum run duration as a time.Duration.
func (i *Info) MaxDurationDuration() time.Duration {
	return time.Duration(i.MaxDuration) * time.Second
}

// DelayDuration returns the between-steps delay as a time.Duration.
func (i *Info) DelayDuration() time.Duration {
	return time.Duration(i.Delay) * time.Second
}

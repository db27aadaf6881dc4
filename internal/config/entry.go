package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// EntryKind tags the three shapes a workloads list entry can take.
type EntryKind int

const (
	// EntrySingle is a bare workload name.
	EntrySingle EntryKind = iota
	// EntryWithOverrides is a mapping with a required "workload" key plus
	// per-load override metadata.
	EntryWithOverrides
	// EntryGroup is a list of single/override entries meant to run in
	// parallel as one step. Groups do not nest.
	EntryGroup
)

// Overrides are the per-load metadata fields an EntryWithOverrides may carry.
// Each present field replaces the corresponding Info field for that load
// only; the builder reconciles every override against the parent Info's
// constraints before accepting it.
type Overrides struct {
	Description  *string `yaml:"description,omitempty" json:"description,omitempty"`
	Args         *string `yaml:"args,omitempty" json:"args,omitempty"`
	Node         *string `yaml:"system,omitempty" json:"system,omitempty"`
	Debug        *bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	LogLevel     *string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	MaxDuration  *int    `yaml:"max_duration,omitempty" json:"max_duration,omitempty"`
	Timeout      *int    `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Accelerators *int    `yaml:"accelerators,omitempty" json:"accelerators,omitempty"`
	MaxCores     *int    `yaml:"max_cores,omitempty" json:"max_cores,omitempty"`
	MaxThreads   *int    `yaml:"max_threads,omitempty" json:"max_threads,omitempty"`
	MaxMemory    *int    `yaml:"max_memory,omitempty" json:"max_memory,omitempty"`
}

// Empty reports whether no override field is set.
func (o *Overrides) Empty() bool {
	return o == nil || *o == (Overrides{})
}

// WorkloadEntry is the closed tagged variant the workloads grammar parses
// into: Single(name) | WithOverrides(name, overrides) | Group([entries]).
type WorkloadEntry struct {
	Kind      EntryKind
	Workload  string
	Overrides *Overrides
	Group     []WorkloadEntry
}

// withOverridesDoc mirrors the mapping shape of an EntryWithOverrides.
type withOverridesDoc struct {
	Workload  string `yaml:"workload" json:"workload"`
	Overrides `yaml:",inline"`
}

// UnmarshalYAML decodes the three entry shapes. Sequence entries inside a
// group are rejected: the grammar nests exactly one level.
func (e *WorkloadEntry) UnmarshalYAML(node *yaml.Node) error {
	return e.decode(node, false)
}

func (e *WorkloadEntry) decode(node *yaml.Node, inGroup bool) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return fmt.Errorf("workload entry: %w", err)
		}
		if name == "" {
			return fmt.Errorf("workload entry: empty workload name")
		}
		*e = WorkloadEntry{Kind: EntrySingle, Workload: name}
		return nil

	case yaml.MappingNode:
		var doc withOverridesDoc
		if err := node.Decode(&doc); err != nil {
			return fmt.Errorf("workload entry: %w", err)
		}
		if doc.Workload == "" {
			return fmt.Errorf("workload entry: mapping is missing required 'workload' field")
		}
		entry := WorkloadEntry{Kind: EntryWithOverrides, Workload: doc.Workload}
		if !doc.Overrides.Empty() {
			ov := doc.Overrides
			entry.Overrides = &ov
		}
		*e = entry
		return nil

	case yaml.SequenceNode:
		if inGroup {
			return fmt.Errorf("workload entry: parallel groups do not nest")
		}
		group := make([]WorkloadEntry, 0, len(node.Content))
		for _, member := range node.Content {
			var me WorkloadEntry
			if err := me.decode(member, true); err != nil {
				return err
			}
			group = append(group, me)
		}
		if len(group) == 0 {
			return fmt.Errorf("workload entry: empty parallel group")
		}
		*e = WorkloadEntry{Kind: EntryGroup, Group: group}
		return nil

	default:
		return fmt.Errorf("workload entry: expected string, mapping, or list")
	}
}

// MarshalYAML renders the entry back into its source-grammar shape, keeping
// the config representation round-trippable.
func (e WorkloadEntry) MarshalYAML() (any, error) {
	switch e.Kind {
	case EntrySingle:
		return e.Workload, nil
	case EntryWithOverrides:
		doc := withOverridesDoc{Workload: e.Workload}
		if e.Overrides != nil {
			doc.Overrides = *e.Overrides
		}
		return doc, nil
	case EntryGroup:
		return e.Group, nil
	}
	return nil, fmt.Errorf("workload entry: unknown kind %d", e.Kind)
}

// UnmarshalJSON routes JSON input through the YAML decoder so both formats
// share one grammar implementation.
func (e *WorkloadEntry) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("workload entry: empty value")
	}
	return e.decode(node.Content[0], false)
}

// MarshalJSON mirrors MarshalYAML for JSON output.
func (e WorkloadEntry) MarshalJSON() ([]byte, error) {
	v, err := e.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Names returns the workload names referenced by this entry.
func (e WorkloadEntry) Names() []string {
	switch e.Kind {
	case EntryGroup:
		names := make([]string, 0, len(e.Group))
		for _, member := range e.Group {
			names = append(names, member.Workload)
		}
		return names
	default:
		return []string{e.Workload}
	}
}

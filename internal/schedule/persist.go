package schedule

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/me/xbench/pkg/model"
)

// DefaultFileName is where schedules are saved when no path is given.
const DefaultFileName = "schedule.json"

// Save serializes a schedule to path as JSON. The round-trip through Load
// is loss-less for every schedule field.
func Save(s *model.Schedule, path string) error {
	if path == "" {
		path = DefaultFileName
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save schedule %s: %w", path, err)
	}
	return nil
}

// Load deserializes a schedule file and immediately re-verifies it. A
// schedule that fails re-verification is never returned.
func Load(path string) (*model.Schedule, error) {
	if path == "" {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schedule %s: %w", path, err)
	}
	var s model.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	if err := s.Verify(); err != nil {
		return nil, fmt.Errorf("schedule %s: %w", path, err)
	}
	return &s, nil
}

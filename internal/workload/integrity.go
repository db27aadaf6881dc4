package workload

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/me/xbench/pkg/model"
)

// List enumerates the valid workload folders under root: directories
// containing a config file.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read workloads dir %s: %w", root, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), ConfigFileName)); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// CheckIntegrity verifies the workload folder contract for root/name: the
// folder exists, its config file decodes and exposes the identity
// attributes, and a workload instance can be constructed from it. Failures
// are integrity errors, raised here rather than at run time.
//
// example relaxes the binary requirement to "binary present or download URL
// configured", matching the shipped example folder.
func CheckIntegrity(root, name string, example bool) error {
	dir := filepath.Join(root, name)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return integrityError("workload %q should exist in %s", name, root)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		return integrityError("workload %q: %v", name, err)
	}
	if cfg.Name == "" {
		return integrityError("workload %q: config is missing a name", name)
	}
	if cfg.Description == "" {
		return integrityError("workload %q: config is missing a description", name)
	}
	if cfg.Binary == "" {
		return integrityError("workload %q: config is missing a binary", name)
	}
	if cfg.Run == "" {
		return integrityError("workload %q: config is missing a run command", name)
	}
	if example {
		if _, err := os.Stat(filepath.Join(dir, cfg.Binary)); err != nil && cfg.Download == "" {
			return integrityError("workload %q has neither a binary on disk nor a download link", name)
		}
	}

	// The lifecycle contract itself is enforced by the type system; what can
	// still fail at runtime is construction from the folder contents.
	if _, err := FromDir(dir); err != nil {
		return integrityError("workload %q: %v", name, err)
	}
	return nil
}

func integrityError(format string, args ...any) error {
	return &model.APIError{Code: model.ErrIntegrity, Message: fmt.Sprintf(format, args...)}
}

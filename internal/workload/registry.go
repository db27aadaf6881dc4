package workload

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Factory constructs a fresh Workload instance.
type Factory func() (Workload, error)

// Registry maps workload names to their constructors. It replaces dynamic
// file loading: registration happens at startup, resolution is an explicit
// lookup. Registration precedes concurrent access, so no mutex is needed.
type Registry struct {
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With("component", "workload-registry"),
	}
}

// Register adds a workload constructor under name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
	r.logger.Debug("workload registered", "name", name)
}

// LoadDir registers a Command workload for every valid workload folder under
// root. Folders without a config file are skipped with a warning rather than
// failing startup; integrity is enforced separately by CheckIntegrity.
func (r *Registry) LoadDir(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("read workloads dir %s: %w", root, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err != nil {
			r.logger.Warn("skipping workload folder without config", "folder", dir)
			continue
		}
		name := entry.Name()
		r.Register(name, func() (Workload, error) { return FromDir(dir) })
	}
	return nil
}

// Names returns the registered workload names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve constructs the named workload, instrumented with the unskippable
// phase bookkeeping. The runner caches the result per load per run.
func (r *Registry) Resolve(name string) (Workload, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("workload %q does not exist in %v", name, r.Names())
	}
	w, err := f()
	if err != nil {
		return nil, fmt.Errorf("construct workload %q: %w", name, err)
	}
	return Instrument(w, r.logger), nil
}

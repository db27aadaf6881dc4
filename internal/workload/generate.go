package workload

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ExampleName is the template workload folder new workloads are copied from.
const ExampleName = "example"

// Generate scaffolds a new workload folder under root by copying the named
// example folder and rewriting name references, then integrity-checks the
// result. The workload must not already exist.
func Generate(root, name, example string) error {
	if name == "" {
		return fmt.Errorf("generate workload: empty name")
	}
	name = strings.ToLower(name)

	existing, err := List(root)
	if err != nil {
		return err
	}
	for _, w := range existing {
		if w == name {
			return fmt.Errorf("workload %q already exists", name)
		}
	}

	if example == "" {
		example = ExampleName
	}
	if err := CheckIntegrity(root, example, true); err != nil {
		return fmt.Errorf("workload example to copy %q should be valid: %w", example, err)
	}

	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create workload folder: %w", err)
	}

	// Copy the example folder, rewriting every occurrence of the example
	// name (case-insensitively) to the new name, in file names and in the
	// config contents.
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(example))
	if err != nil {
		return fmt.Errorf("compile rename pattern: %w", err)
	}
	srcDir := filepath.Join(root, example)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("read example folder: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read example file %s: %w", entry.Name(), err)
		}
		if entry.Name() == ConfigFileName {
			data = re.ReplaceAll(data, []byte(name))
		}
		dst := string(re.ReplaceAll([]byte(entry.Name()), []byte(name)))
		if err := os.WriteFile(filepath.Join(dir, dst), data, 0o644); err != nil {
			return fmt.Errorf("write workload file %s: %w", dst, err)
		}
	}

	if err := CheckIntegrity(root, name, true); err != nil {
		return fmt.Errorf("workload %q is not valid after being generated: %w", name, err)
	}
	return nil
}

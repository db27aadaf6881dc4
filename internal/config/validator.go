package config

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/me/xbench/pkg/model"
)

// namePattern is the accepted shape for config names and descriptions.
var namePattern = regexp.MustCompile(`^[a-zA-Z\.0-9 ]+$`)

// fieldHints carries the human-readable expected-format hint attached to
// validation errors for each top-level field.
var fieldHints = map[string]string{
	KeyName:         "letters, digits, dots, and spaces",
	KeyDescription:  "letters, digits, dots, and spaces",
	KeyAccelerators: "a positive integer count of accelerators",
	KeyTimeout:      "an integer number of seconds",
	KeyDuration:     "an integer number of seconds",
	KeyDelay:        "an integer number of seconds",
	KeySeed:         "an integer between 0 and 1000000000",
	KeyNodes:        "a list of node identifiers, or null for the local system",
	KeyLogLevel:     "one of DEBUG, INFO, WARNING, ERROR, CRITICAL",
	KeyWorkloads:    "a list of workload names, parallel groups, or {workload: ...} mappings",
}

// Validator performs structural validation of a raw configuration mapping.
// It is a pure check: the mapping is returned to the caller unchanged, and
// no semantic (constraint) validation happens here.
type Validator struct {
	logger *slog.Logger
	known  map[string]bool
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With("component", "config-validator")}
}

// WithKnownWorkloads restricts workload names to the given set, mirroring
// the registry contents. With no set, name membership is deferred to
// resolution time.
func (v *Validator) WithKnownWorkloads(names []string) *Validator {
	v.known = make(map[string]bool, len(names))
	for _, n := range names {
		v.known[n] = true
	}
	return v
}

// Validate checks mandatory keys and value shapes. Returns nil if valid, or
// a *model.APIError whose FieldErrors carry the offending path and hint.
func (v *Validator) Validate(raw map[string]any) error {
	if len(raw) == 0 {
		return model.NewValidationError("configuration is empty")
	}

	var errs []model.FieldError
	errs = append(errs, v.checkMandatory(raw)...)
	errs = append(errs, v.checkScalars(raw)...)
	errs = append(errs, v.checkNodes(raw)...)
	for _, key := range []string{KeyWorkloads, KeyOptionalWorkloads} {
		errs = append(errs, v.checkWorkloads(raw, key)...)
	}

	if len(errs) == 0 {
		v.logger.Debug("configuration validated", "name", raw[KeyName])
		return nil
	}
	return model.NewValidationError("configuration validation failed", errs...)
}

func (v *Validator) checkMandatory(raw map[string]any) []model.FieldError {
	var errs []model.FieldError
	for _, key := range MandatoryKeys {
		if _, ok := raw[key]; !ok {
			errs = append(errs, model.FieldError{
				Path:    key,
				Message: fmt.Sprintf("mandatory key %q is missing", key),
				Hint:    fieldHints[key],
			})
		}
	}
	return errs
}

func (v *Validator) checkScalars(raw map[string]any) []model.FieldError {
	var errs []model.FieldError

	for _, key := range []string{KeyName, KeyDescription} {
		val, ok := raw[key]
		if !ok {
			continue
		}
		s, ok := val.(string)
		if !ok || !namePattern.MatchString(s) {
			errs = append(errs, fieldError(key, "must be a string matching the name format"))
		}
	}

	for _, key := range []string{
		KeyAccelerators, KeyTimeout, KeyDuration, KeyDelay, KeySeed,
		KeyMaximumCores, KeyMaximumMemory, KeyMaximumThreads, KeyMaximumWorkloads,
		KeyMinimumCores, KeyMinimumMemory, KeyMinimumThreads, KeyMinimumWorkloads,
	} {
		if val, ok := raw[key]; ok && !isInt(val) {
			errs = append(errs, fieldError(key, "must be an integer"))
		}
	}

	if val, ok := raw[KeyDebug]; ok {
		if _, isBool := val.(bool); !isBool {
			errs = append(errs, fieldError(KeyDebug, "must be a boolean"))
		}
	}
	if val, ok := raw[KeyLogLevel]; ok {
		s, isStr := val.(string)
		if !isStr || !model.LogLevel(s).Valid() {
			errs = append(errs, fieldError(KeyLogLevel, "must be a recognized log level"))
		}
	}
	if val, ok := raw[KeyArgs]; ok {
		if _, isStr := val.(string); !isStr {
			errs = append(errs, fieldError(KeyArgs, "must be a string"))
		}
	}

	return errs
}

func (v *Validator) checkNodes(raw map[string]any) []model.FieldError {
	val, ok := raw[KeyNodes]
	if !ok || val == nil {
		return nil // null means "the local system"
	}
	list, isList := val.([]any)
	if !isList {
		return []model.FieldError{fieldError(KeyNodes, "must be a list or null")}
	}
	var errs []model.FieldError
	for i, item := range list {
		if _, isStr := item.(string); !isStr {
			errs = append(errs, fieldError(fmt.Sprintf("%s[%d]", KeyNodes, i), "node identifier must be a string"))
		}
	}
	return errs
}

// checkWorkloads validates the nested workloads grammar: each entry is a
// bare name, a {workload: ...} mapping, or a one-level list of those.
func (v *Validator) checkWorkloads(raw map[string]any, key string) []model.FieldError {
	val, ok := raw[key]
	if !ok {
		return nil
	}
	list, isList := val.([]any)
	if !isList {
		return []model.FieldError{fieldError(key, "must be a list")}
	}
	var errs []model.FieldError
	for i, entry := range list {
		path := fmt.Sprintf("%s[%d]", key, i)
		switch e := entry.(type) {
		case string:
			errs = append(errs, v.checkName(path, e)...)
		case map[string]any:
			errs = append(errs, v.checkOverrideMapping(path, e)...)
		case []any:
			if len(e) == 0 {
				errs = append(errs, fieldError(path, "parallel group must not be empty"))
			}
			for j, member := range e {
				mpath := fmt.Sprintf("%s[%d]", path, j)
				switch m := member.(type) {
				case string:
					errs = append(errs, v.checkName(mpath, m)...)
				case map[string]any:
					errs = append(errs, v.checkOverrideMapping(mpath, m)...)
				default:
					errs = append(errs, fieldError(mpath, "group member must be a workload name or mapping"))
				}
			}
		default:
			errs = append(errs, model.FieldError{
				Path:    path,
				Message: "entry must be a workload name, a parallel group, or a mapping",
				Hint:    fieldHints[KeyWorkloads],
			})
		}
	}
	return errs
}

func (v *Validator) checkOverrideMapping(path string, m map[string]any) []model.FieldError {
	name, ok := m[KeyWorkload]
	if !ok {
		return []model.FieldError{fieldError(path, "mapping is missing required 'workload' field")}
	}
	s, isStr := name.(string)
	if !isStr {
		return []model.FieldError{fieldError(path+".workload", "workload name must be a string")}
	}
	return v.checkName(path+".workload", s)
}

func (v *Validator) checkName(path, name string) []model.FieldError {
	if name == "" {
		return []model.FieldError{fieldError(path, "workload name must not be empty")}
	}
	if v.known != nil && !v.known[name] {
		return []model.FieldError{fieldError(path, fmt.Sprintf("unknown workload %q", name))}
	}
	return nil
}

func fieldError(path, msg string) model.FieldError {
	return model.FieldError{Path: path, Message: msg, Hint: hintFor(path)}
}

// hintFor resolves the hint for a possibly-indexed path by its root key.
func hintFor(path string) string {
	for key, hint := range fieldHints {
		if path == key {
			return hint
		}
	}
	for key, hint := range fieldHints {
		if len(path) > len(key) && path[:len(key)] == key && (path[len(key)] == '[' || path[len(key)] == '.') {
			return hint
		}
	}
	return ""
}

// isInt accepts the integer representations the YAML decoder produces.
func isInt(v any) bool {
	switch v.(type) {
	case int, int64, uint64:
		return true
	}
	return false
}

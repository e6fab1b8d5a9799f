package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Validate checks every section of the configuration
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}
	c.validateFrontend(result)
	c.validateBatch(result)
	c.validateLog(result)
	return result
}

func (c *Config) validateFrontend(result *ValidationResult) {
	switch c.Frontend.Language {
	case "", "c", "c++", "c-header", "c++-header":
	default:
		result.AddError("frontend.language must be c or c++, got %q", c.Frontend.Language)
	}
	for _, def := range c.Frontend.Defines {
		if def == "" || strings.HasPrefix(def, "=") {
			result.AddError("frontend.defines entry %q has no macro name", def)
		}
	}
	for _, dir := range c.Frontend.IncludeDirs {
		if dir == "" {
			result.AddWarning("frontend.include_dirs contains an empty entry")
		}
	}
}

func (c *Config) validateBatch(result *ValidationResult) {
	if c.Batch.Workers < 1 {
		result.AddError("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if len(c.Batch.Extensions) == 0 {
		result.AddError("batch.extensions must list at least one extension")
	}
	for _, ext := range c.Batch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			result.AddError("batch.extensions entry %q must start with '.'", ext)
		}
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	if _, err := logrus.ParseLevel(strings.ToLower(c.Log.Level)); c.Log.Level != "" && err != nil {
		result.AddError("log.level %q is not a valid level", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		result.AddError("log.format must be text or json, got %q", c.Log.Format)
	}
}

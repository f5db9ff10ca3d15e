// Package cli provides terminal output helpers for the genderid CLI:
// styled metric tables, value formatting and structured output in YAML
// or JSON.
package cli

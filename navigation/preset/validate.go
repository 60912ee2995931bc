package preset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

// ValidationResult captures the outcome of validating a single file.
// Errors lists the problems found; Info carries a short description of a
// valid preset.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
	Info   []string `json:"info,omitempty"`
}

// ValidateFile parses a preset file and dry-runs it with defaults filling
// the settings the preset leaves unset
func ValidateFile(path string, defaults service.Defaults) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	format, ok := extensions[filepath.Ext(path)]
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Unsupported extension %q (want .txt or .json)", filepath.Ext(path)))
		return result
	}

	cmd, err := parseFile(path, format)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	settings := defaults.Resolve(cmd)
	res, err := service.Simulate(context.Background(), cmd, settings, false)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Format: %s", format),
		fmt.Sprintf("✓ Grid: %dx%d", cmd.Grid.MaxX, cmd.Grid.MaxY),
		fmt.Sprintf("✓ Robots: %d", cmd.RobotCount()),
		fmt.Sprintf("✓ Policy: %s", settings.Policy),
		fmt.Sprintf("✓ Finals: %s", strings.Join(finalStrings(res.Finals), " | ")),
	)
	return result
}

// ValidateDir validates every preset file in dir, sorted by file name
func ValidateDir(dir string, defaults service.Defaults) ([]ValidationResult, error) {
	names, err := presetFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(names))
	for _, name := range names {
		results = append(results, ValidateFile(filepath.Join(dir, name), defaults))
	}
	return results, nil
}

// presetFiles lists the preset file names in dir, sorted
func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var names []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		if _, ok := extensions[filepath.Ext(de.Name())]; ok {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func finalStrings(finals []service.FinalState) []string {
	out := make([]string, len(finals))
	for i, f := range finals {
		out[i] = f.String()
	}
	return out
}

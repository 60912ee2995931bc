package preset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

// defaults mirrors the shipped configuration
var defaults = service.Defaults{Policy: "ignore", OccupyFinal: true}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_sample.txt", rawPreset)
	writeFile(t, dir, "b_outside.txt", "2 2\n3 3 N\nM\n")
	writeFile(t, dir, "c_bad.json", `{"maxX": 1}`)
	writeFile(t, dir, "d_unknown_field.json", `{"maxX": 1, "maxY": 1, "robots": []}`)
	writeFile(t, dir, "e_policy.json", `{"maxX": 1, "maxY": 1, "programs": [{"startX":0,"startY":0,"orientation":"N","instructions":"M"}], "policy": "warp"}`)

	results, err := ValidateDir(dir, defaults)
	require.NoError(t, err)
	require.Len(t, results, 5)

	sample := results[0]
	assert.True(t, sample.Valid, "errors: %v", sample.Errors)
	assert.Contains(t, sample.Info, "✓ Finals: 1 3 N | 5 1 E")
	assert.Contains(t, sample.Info, "✓ Policy: ignore")

	outside := results[1]
	assert.False(t, outside.Valid)
	require.Len(t, outside.Errors, 1)
	assert.Contains(t, outside.Errors[0], "robot 1:")
	assert.Contains(t, outside.Errors[0], "outside the grid")

	assert.False(t, results[2].Valid)
	assert.Contains(t, results[2].Errors[0], "maxY")

	assert.False(t, results[3].Valid)
	assert.Contains(t, results[3].Errors[0], "unknown field")

	assert.False(t, results[4].Valid)
	assert.Contains(t, results[4].Errors[0], "unknown out-of-bounds policy")
}

func TestValidateFile_SharedOccupancy(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blocked.json", jsonPreset)

	// single robot; occupancy changes nothing
	res := ValidateFile(filepath.Join(dir, "blocked.json"), defaults)
	assert.True(t, res.Valid)
	assert.Contains(t, res.Info, "✓ Finals: 1 4 N")
}

func TestValidateFile_UnsupportedExtension(t *testing.T) {
	res := ValidateFile("scenario.yaml", defaults)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "Unsupported extension")
}

func TestValidateDir_RepositoryPresets(t *testing.T) {
	results, err := ValidateDir(filepath.Join("..", "..", "presets"), defaults)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.True(t, r.Valid, "%s: %v", r.File, r.Errors)
	}
}

func TestValidateFile_ConfiguredDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "edge.txt", "1 1\n1 1 N\nM\n")
	path := filepath.Join(dir, "edge.txt")

	res := ValidateFile(path, defaults)
	require.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Contains(t, res.Info, "✓ Finals: 1 1 N")

	res = ValidateFile(path, service.Defaults{Policy: "wrap", OccupyFinal: true})
	require.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Contains(t, res.Info, "✓ Policy: wrap")
	assert.Contains(t, res.Info, "✓ Finals: 1 0 N")

	// a preset's own policy wins over the default
	writeFile(t, dir, "own.json", `{"maxX": 1, "maxY": 1, "programs": [{"startX":1,"startY":1,"orientation":"N","instructions":"M"}], "policy": "bounce"}`)
	res = ValidateFile(filepath.Join(dir, "own.json"), service.Defaults{Policy: "wrap"})
	require.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Contains(t, res.Info, "✓ Finals: 1 1 S")
}

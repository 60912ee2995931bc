// Package preset manages named scenarios stored as files in a directory.
//
// A preset is either a raw scenario (*.txt) or a JSON request (*.json). The
// preset name is the file name without its extension. Loaded presets are
// cached; RefreshCache drops the cache after files change on disk.
//
// ValidateDir checks every preset file in a directory, including a dry run
// that confirms every robot starts inside the grid. AnalyzeDir replays each
// preset under every policy. Both fill unset settings from service.Defaults,
// the same way the scenario service does.
package preset

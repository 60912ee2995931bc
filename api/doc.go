// Package api provides the HTTP REST API for robotnav.
//
// The api package implements:
//   - Scenario execution from JSON or raw text bodies
//   - Run history browsing and deletion
//   - Preset listing, inspection and execution
//   - WebSocket upgrade for the live run feed
//   - Health and Prometheus metrics endpoints
//
// Endpoints:
//
// Scenarios:
//   - POST /api/v1/robots/execute - JSON scenario (?trace=true for step traces)
//   - POST /api/v1/robots/execute-raw - text/plain scenario
//
// Runs:
//   - GET /api/v1/runs - List runs, newest first (?limit=N&source=raw)
//   - GET /api/v1/runs/{id} - Get a run
//   - DELETE /api/v1/runs/{id} - Delete a run
//
// Presets:
//   - GET /api/v1/presets - List presets
//   - GET /api/v1/presets/{name} - Get a preset as JSON and raw text
//   - POST /api/v1/presets/{name}/run - Execute a preset (?trace=true)
//
// Other:
//   - GET /health
//   - GET /metrics
//   - GET /ws?topic=runs
//
// Request Format:
//
//	POST /api/v1/robots/execute
//	{
//	  "maxX": 5, "maxY": 5,
//	  "programs": [{"startX": 1, "startY": 2, "orientation": "N", "instructions": "LMLMLMLMM"}]
//	}
//
// Response:
//
//	{"runId": "…", "finals": [{"x": 1, "y": 3, "orientation": "N"}], "summary": {...}}
//
// Error Handling:
//
// Errors share one body shape:
//
//	{
//	  "error": "validation_error",
//	  "message": "Request validation failed.",
//	  "details": [{"field": "maxX", "message": "must be greater than or equal to 0"}],
//	  "path": "/api/v1/robots/execute",
//	  "timestamp": "2026-01-01T12:00:00Z"
//	}
//
// Status codes: 400 for unreadable bodies, invalid fields and malformed raw
// scenarios; 422 when valid input breaks a navigation rule, such as a robot
// starting outside the grid; 404 for unknown runs and presets; 500 otherwise.
package api

// Package mcp exposes robot navigation to AI agents over the Model Context
// Protocol.
//
// The server is a thin proxy: every tool calls the REST API and renders the
// answer as text.
//
// MCP Tools:
//   - execute_scenario: run a structured scenario (grid, programs, policy, occupancy)
//   - execute_raw: run a scenario in the line based text format
//   - list_runs: recent runs, newest first, optionally filtered by source
//   - get_run: one run with its scenario and final positions
//   - list_presets: stored scenarios
//   - run_preset: run a stored scenario by name
//   - navigation_rules: movement rules, policies and the raw format
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: client.HTTPHandler() mounted at /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

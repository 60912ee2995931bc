package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/robotnav/api"
	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Robot Navigation",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Robot Navigation - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Robots move on a rectangular grid from (0,0) to (maxX,maxY). Each robot has a
start position, a facing (N, E, S or W) and a program of L, R and M
instructions. Robots run one after another in input order.

AVAILABLE TOOLS:
- execute_scenario: Run a structured scenario (grid + robot programs)
- execute_raw: Run a scenario written in the line based text format
- list_runs: List recent runs, newest first
- get_run: Show one run with its final positions
- list_presets: List stored scenarios
- run_preset: Run a stored scenario by name
- navigation_rules: Explain movement rules, policies and occupancy`),
	)

	c.registerTools()
}

var programSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"startX": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Starting x coordinate",
		},
		"startY": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Starting y coordinate",
		},
		"orientation": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"N", "E", "S", "W"},
			"description": "Initial facing",
		},
		"instructions": map[string]interface{}{
			"type":        "string",
			"pattern":     "^[LRMlrm]*$",
			"description": "Program of L (turn left), R (turn right) and M (move forward)",
		},
	},
	"required": []string{"startX", "startY", "orientation", "instructions"},
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	traceProperty := map[string]interface{}{
		"type":        "boolean",
		"description": "Include a step by step trace for every robot",
	}

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_scenario",
		Description: "Run robots on a grid and return their final positions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"maxX": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Largest x coordinate of the grid",
				},
				"maxY": map[string]interface{}{
					"type":        "integer",
					"minimum":     0,
					"description": "Largest y coordinate of the grid",
				},
				"programs": map[string]interface{}{
					"type":        "array",
					"items":       programSchema,
					"minItems":    1,
					"description": "Robot programs, processed in order",
				},
				"policy": map[string]interface{}{
					"type":        "string",
					"enum":        engine.PolicyNames(),
					"description": "What happens when a move would leave the grid (default: server setting)",
				},
				"occupancy": map[string]interface{}{
					"type":        "boolean",
					"description": "Block moves into cells claimed by earlier robots",
				},
				"occupyFinal": map[string]interface{}{
					"type":        "boolean",
					"description": "Each robot claims its final cell when done",
				},
				"trace": traceProperty,
			},
			Required: []string{"maxX", "maxY", "programs"},
		},
	}, c.handleExecuteScenario)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_raw",
		Description: "Run a scenario in text form: first line 'maxX maxY', then for each robot a line 'x y O' followed by its instruction line",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "Scenario text, e.g. \"5 5\\n1 2 N\\nLMLMLMLMM\"",
				},
				"trace": traceProperty,
			},
			Required: []string{"scenario"},
		},
	}, c.handleExecuteRaw)

	// Run history
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List recent runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"description": "Maximum number of runs to return",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"enum":        []string{service.SourceJSON, service.SourceRaw, service.SourcePreset, service.SourceCLI},
					"description": "Only runs from this source",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get a stored run with its scenario and final positions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	// Presets
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List stored scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_preset",
		Description: "Run a stored scenario by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Preset name as shown by list_presets",
				},
				"trace": traceProperty,
			},
			Required: []string{"name"},
		},
	}, c.handleRunPreset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "navigation_rules",
		Description: "Explain how robots move, the out-of-bounds policies and occupancy",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleNavigationRules)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiError is returned when the REST API answers with an error body
type apiError struct {
	Status  int
	Code    string
	Message string
	Details []string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: %d", e.Status)
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

// apiCall sends body as JSON and decodes the JSON answer into result
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reqBody, contentType, result)
}

// apiCallText sends body as text/plain
func (c *Client) apiCallText(ctx context.Context, method, path, body string, result interface{}) error {
	return c.do(ctx, method, path, strings.NewReader(body), "text/plain; charset=utf-8", result)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp api.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&errResp)

		apiErr := &apiError{Status: resp.StatusCode, Code: errResp.Error, Message: errResp.Message}
		for _, d := range errResp.Details {
			apiErr.Details = append(apiErr.Details, d.Field+" "+d.Message)
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func traceQuery(args map[string]interface{}) string {
	if trace, _ := args["trace"].(bool); trace {
		return "?trace=true"
	}
	return ""
}

// Scenario Handlers

func (c *Client) handleExecuteScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := make(map[string]interface{}, len(args))
	for _, key := range []string{"maxX", "maxY", "programs", "policy", "occupancy", "occupyFinal"} {
		if v, ok := args[key]; ok {
			body[key] = v
		}
	}

	var resp api.ExecuteResponse
	if err := c.apiCall(ctx, "POST", "/api/v1/robots/execute"+traceQuery(args), body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatExecuteResponse(&resp)), nil
}

func (c *Client) handleExecuteRaw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raw, _ := args["scenario"].(string)
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("scenario is required"), nil
	}

	var resp api.ExecuteResponse
	if err := c.apiCallText(ctx, "POST", "/api/v1/robots/execute-raw"+traceQuery(args), raw, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatExecuteResponse(&resp)), nil
}

// Run Handlers

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if source, ok := args["source"].(string); ok && source != "" {
		params.Set("source", source)
	}
	path := "/api/v1/runs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Count int            `json:"count"`
		Total int            `json:"total"`
		Runs  []*service.Run `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunList(resp.Runs, resp.Total)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var run service.Run
	if err := c.apiCall(ctx, "GET", "/api/v1/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

// Preset Handlers

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []*service.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/v1/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(presets) == 0 {
		return mcp.NewToolResultText("No presets available"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available presets (%d):\n", len(presets))
	for _, p := range presets {
		fmt.Fprintf(&b, "- %s (%s): %dx%d grid, %d robots\n", p.ID, p.Format, p.MaxX, p.MaxY, p.Robots)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRunPreset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var resp api.ExecuteResponse
	path := "/api/v1/presets/" + url.PathEscape(name) + "/run" + traceQuery(args)
	if err := c.apiCall(ctx, "POST", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Preset: %s\n", name) + formatExecuteResponse(&resp)), nil
}

func (c *Client) handleNavigationRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(navigationRules), nil
}

const navigationRules = `Robot Navigation - Rules

GRID:
- Cells run from (0,0) in the south-west corner to (maxX,maxY), both inclusive.
- x grows to the east, y grows to the north.

ROBOTS:
- A robot has a position and a facing: N, E, S or W.
- A robot must start inside the grid, otherwise the whole scenario is rejected.

INSTRUCTIONS:
- L: turn 90 degrees left in place
- R: turn 90 degrees right in place
- M: move one cell forward in the current facing
- Instructions are case insensitive; any other letter is rejected.

OUT-OF-BOUNDS POLICIES (what M does at the edge):
- ignore: the move is skipped, the robot stays put (default)
- wrap: the robot re-enters from the opposite edge, unless that cell is claimed
- bounce: the robot stays put and turns around

OCCUPANCY:
- Robots are processed one after another, in input order.
- With occupancy enabled, each robot claims its final cell when done.
- A later robot skips any move into a claimed cell; turning is never blocked.

RAW FORMAT:
  5 5          <- maxX maxY
  1 2 N        <- robot 1 start
  LMLMLMLMM    <- robot 1 program
  3 3 E        <- robot 2 start
  MMRMMRMRRM   <- robot 2 program

Expected output for the example above: "1 3 N" and "5 1 E".`

// Formatting helpers

func formatExecuteResponse(resp *api.ExecuteResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", resp.RunID)
	b.WriteString("Final positions:\n")
	for _, f := range resp.Finals {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	b.WriteString(formatSummary(resp.Summary))
	if len(resp.Claimed) > 0 {
		cells := make([]string, len(resp.Claimed))
		for i, p := range resp.Claimed {
			cells[i] = p.String()
		}
		fmt.Fprintf(&b, "Claimed cells: %s\n", strings.Join(cells, " "))
	}
	for _, trace := range resp.Traces {
		b.WriteString(formatTrace(trace))
	}
	return b.String()
}

func formatSummary(s service.Summary) string {
	return fmt.Sprintf("Summary: %d robots, %d instructions, %d moves, %d turns, %d blocked, %d out of bounds\n",
		s.Robots, s.Instructions, s.Moves, s.Turns, s.Blocked, s.OutOfBounds)
}

func formatTrace(trace service.RobotTrace) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Robot %d: %s -> %s\n", trace.Robot, trace.Start, trace.Final)
	for _, step := range trace.Steps {
		fmt.Fprintf(&b, "  %3d %s %s->%s %c %s\n",
			step.Idx, step.Instruction, step.From, step.To, step.Heading.Char(), step.Outcome)
	}
	return b.String()
}

func formatRun(run *service.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Source: %s", run.Source)
	if run.Preset != "" {
		fmt.Fprintf(&b, " (preset %s)", run.Preset)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Created: %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Grid: %d %d\n", run.Command.Grid.MaxX, run.Command.Grid.MaxY)
	fmt.Fprintf(&b, "Policy: %s, occupancy: %t, occupy final: %t\n", run.Policy, run.Occupancy, run.OccupyFinal)

	if run.Result == nil {
		return b.String()
	}
	b.WriteString("Robots:\n")
	for i, p := range run.Command.Programs {
		final := "?"
		if i < len(run.Result.Finals) {
			final = run.Result.Finals[i].String()
		}
		fmt.Fprintf(&b, "  %d %d %c %s => %s\n", p.StartX, p.StartY, p.Orientation, p.Instructions, final)
	}
	b.WriteString(formatSummary(run.Result.Summary))
	return b.String()
}

func formatRunList(runs []*service.Run, total int) string {
	if len(runs) == 0 {
		return "No runs recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d of %d):\n", len(runs), total)
	for _, run := range runs {
		finals := make([]string, 0)
		if run.Result != nil {
			for _, f := range run.Result.Finals {
				finals = append(finals, f.String())
			}
		}
		fmt.Fprintf(&b, "- %s [%s] %s: %s\n",
			run.ID, run.Source, run.CreatedAt.Format(time.RFC3339), strings.Join(finals, " | "))
	}
	return b.String()
}

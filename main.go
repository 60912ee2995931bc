// Command robotnav runs the robot navigation server and tools.
//
// Subcommands:
//  1. "serve" – runs the HTTP server exposing the REST API, WebSocket feed, metrics and an /mcp endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "run" – executes a scenario file or preset locally and prints one "x y O" line per robot
//  4. "validate" – checks every preset in a directory
//  5. "analyze" – replays every preset under each out-of-bounds policy and reports step statistics
//
// Configuration comes from defaults, an optional YAML file (--config or
// ROBOTNAV_CONFIG), ROBOTNAV_* environment variables and finally flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/robotnav/config"
	"github.com/wricardo/mcp-training/robotnav/logging"
	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
	"github.com/wricardo/mcp-training/robotnav/navigation/history"
	"github.com/wricardo/mcp-training/robotnav/navigation/preset"
	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "robotnav"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "drive robots across a bounded grid",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				Sources: cli.EnvVars("ROBOTNAV_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "json or console",
			},
			&cli.StringFlag{
				Name:  "presets-dir",
				Usage: "directory holding preset scenarios",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "default out-of-bounds policy (" + strings.Join(engine.PolicyNames(), ", ") + ")",
			},
			&cli.BoolFlag{
				Name:  "occupancy",
				Usage: "block moves into cells claimed by earlier robots by default",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			runCommand(),
			validateCommand(),
			analyzeCommand(),
		},
	}
}

// loadConfig layers flags over the file and environment configuration
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("presets-dir") {
		cfg.Presets.Dir = cmd.String("presets-dir")
	}
	if cmd.IsSet("policy") {
		cfg.Navigation.Policy = cmd.String("policy")
	}
	if cmd.IsSet("occupancy") {
		cfg.Navigation.Occupancy = cmd.Bool("occupancy")
	}
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("ngrok") {
		cfg.Tunnel.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Tunnel.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func navigationDefaults(cfg *config.Config) service.Defaults {
	return service.Defaults{
		Policy:      cfg.Navigation.Policy,
		Occupancy:   cfg.Navigation.Occupancy,
		OccupyFinal: cfg.Navigation.OccupyFinal,
	}
}

// initializeServices wires the run history, preset manager and scenario service
func initializeServices(cfg *config.Config, logger *zap.Logger, opts ...service.Option) (service.ScenarioService, *history.Store, error) {
	presets, err := preset.NewManager(cfg.Presets.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	runs := history.NewStore(cfg.History.Limit)
	opts = append([]service.Option{service.WithLogger(logger)}, opts...)
	svc := service.NewScenarioService(runs, presets, navigationDefaults(cfg), opts...)

	return svc, runs, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute a scenario file (raw text or JSON) or a preset and print final positions",
		ArgsUsage: "[FILE|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: "run a preset by name instead of a file",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every processed instruction",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			opts := service.ProcessOptions{Trace: cmd.Bool("trace"), Source: service.SourceCLI}

			var run *service.Run
			if name := cmd.String("preset"); name != "" {
				svc, _, err := initializeServices(cfg, logger)
				if err != nil {
					return err
				}
				run, err = svc.RunPreset(ctx, name, opts)
				if err != nil {
					return err
				}
			} else {
				scenarioCmd, err := readScenario(cmd.Args().First(), cmd.Root().Reader)
				if err != nil {
					return err
				}
				// a file run needs no preset directory
				svc := service.NewScenarioService(history.NewStore(1), nil, navigationDefaults(cfg), service.WithLogger(logger))
				run, err = svc.Process(ctx, scenarioCmd, opts)
				if err != nil {
					return err
				}
			}

			printRun(cmd.Root().Writer, run)
			return nil
		},
	}
}

// readScenario loads a scenario from path, or from stdin when path is empty or "-".
// JSON files use the request format, everything else the raw text format.
func readScenario(path string, stdin io.Reader) (scenario.Command, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return scenario.Command{}, fmt.Errorf("failed to read scenario: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if filepath.Ext(path) == ".json" || strings.HasPrefix(trimmed, "{") {
		req, err := scenario.DecodeRequest(strings.NewReader(trimmed))
		if err != nil {
			return scenario.Command{}, err
		}
		return req.ToCommand()
	}
	return scenario.ParseRaw(string(data))
}

func printRun(w io.Writer, run *service.Run) {
	if w == nil {
		w = os.Stdout
	}
	for _, final := range run.Result.Finals {
		fmt.Fprintln(w, final)
	}
	for _, trace := range run.Result.Traces {
		fmt.Fprintf(w, "# robot %d: %s -> %s\n", trace.Robot, trace.Start, trace.Final)
		for _, step := range trace.Steps {
			fmt.Fprintf(w, "#   %3d %s %s->%s %c %s\n",
				step.Idx, step.Instruction, step.From, step.To, step.Heading.Char(), step.Outcome)
		}
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate every preset in a directory",
		ArgsUsage: "[DIR]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir := cmd.Args().First()
			if dir == "" {
				dir = cfg.Presets.Dir
			}

			results, err := preset.ValidateDir(dir, navigationDefaults(cfg))
			if err != nil {
				return err
			}
			invalid := printValidation(cmd.Root().Writer, dir, results)
			if invalid > 0 {
				return fmt.Errorf("%d of %d presets invalid", invalid, len(results))
			}
			return nil
		},
	}
}

func printValidation(w io.Writer, dir string, results []preset.ValidationResult) int {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Validating presets in %s\n\n", dir)

	invalid := 0
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(w, "✅ %s\n", r.File)
			for _, info := range r.Info {
				fmt.Fprintf(w, "   %s\n", info)
			}
			continue
		}
		invalid++
		fmt.Fprintf(w, "❌ %s\n", r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "   • %s\n", e)
		}
	}

	fmt.Fprintf(w, "\n%d valid, %d invalid\n", len(results)-invalid, invalid)
	return invalid
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "replay every preset under each out-of-bounds policy and report step statistics",
		ArgsUsage: "[DIR]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir := cmd.Args().First()
			if dir == "" {
				dir = cfg.Presets.Dir
			}

			results, err := preset.AnalyzeDir(dir, navigationDefaults(cfg))
			if err != nil {
				return err
			}
			printAnalysis(cmd.Root().Writer, results)
			return nil
		},
	}
}

func printAnalysis(w io.Writer, results []preset.Analysis) {
	if w == nil {
		w = os.Stdout
	}
	for _, a := range results {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.File)
		if a.Err != "" {
			fmt.Fprintf(w, "❌ %s\n", a.Err)
			continue
		}

		fmt.Fprintf(w, "Grid: %dx%d (%d cells)\n", a.MaxX, a.MaxY, a.Cells())
		fmt.Fprintf(w, "Robots: %d, instructions: %d\n", a.Robots, a.Instructions)
		fmt.Fprintf(w, "Policy: %s, occupancy: %t\n", a.Policy, a.Occupancy)

		for _, stats := range a.Policies {
			marker := " "
			if stats.Policy == a.Policy {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %-6s moved=%d turned=%d out_of_bounds=%d blocked=%d visited=%d finals=%s\n",
				marker, stats.Policy, stats.Moved, stats.Turned, stats.OutOfBounds, stats.Blocked, stats.Visited,
				strings.Join(stats.Finals, " | "))
			if stats.Policy == a.Policy && stats.OutOfBounds > 0 {
				fmt.Fprintf(w, "⚠️  %d moves hit the grid edge under %s\n", stats.OutOfBounds, stats.Policy)
			}
		}
	}
}

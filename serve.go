package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/robotnav/api"
	"github.com/wricardo/mcp-training/robotnav/config"
	"github.com/wricardo/mcp-training/robotnav/logging"
	"github.com/wricardo/mcp-training/robotnav/navigation/history"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
	"github.com/wricardo/mcp-training/robotnav/transport/mcp"
	"github.com/wricardo/mcp-training/robotnav/transport/websocket"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket feed, metrics and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "HTTP server host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP server port",
			},
			&cli.BoolFlag{
				Name:  "ngrok",
				Usage: "expose the server through an ngrok tunnel (token from NGROK_AUTHTOKEN)",
			},
			&cli.StringFlag{
				Name:  "ngrok-domain",
				Usage: "custom ngrok domain",
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

			return runHTTPServer(ctx, cfg, logger)
		},
	}
}

// newRegistry returns a registry with the runtime collectors installed
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newHandler wires the service, hub and API server together
func newHandler(cfg *config.Config, logger *zap.Logger, hub *websocket.Hub) (*api.Server, *history.Store, error) {
	reg := newRegistry()

	svc, runs, err := initializeServices(cfg, logger, service.WithMetrics(service.NewMetrics(reg)))
	if err != nil {
		return nil, nil, err
	}

	apiServer := api.NewServer(svc, hub, logger,
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return apiServer, runs, nil
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If the tunnel is enabled, it also provisions a public ngrok endpoint.
func runHTTPServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	apiServer, runs, err := newHandler(cfg, logger, hub)
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", loopbackAddr(addr)))
	apiServer.Mount("/mcp", mcpClient.HTTPHandler())

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		historyCleanup(ctx, runs, cfg.History, logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "/api/v1"),
			zap.String("ws", "/ws?topic="+websocket.TopicRuns),
			zap.String("mcp", "/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.Tunnel.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveTunnel(ctx, cfg.Tunnel, apiServer, logger)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("Server stopped")
	return runErr
}

// historyCleanup periodically drops runs older than the configured max age
func historyCleanup(ctx context.Context, runs *history.Store, cfg config.HistoryConfig, logger *zap.Logger) {
	if cfg.MaxAge <= 0 || cfg.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := runs.CleanupExpired(cfg.MaxAge); removed > 0 {
				logger.Info("Cleaned up expired runs", zap.Int("removed", removed), zap.Int("remaining", runs.Count()))
			}
		}
	}
}

// serveTunnel serves handler through ngrok until ctx is done
func serveTunnel(ctx context.Context, cfg config.TunnelConfig, handler http.Handler, logger *zap.Logger) {
	authToken := os.Getenv("NGROK_AUTHTOKEN")
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	if authToken == "" {
		logger.Warn("Ngrok enabled but no auth token provided (set NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("Failed to start ngrok tunnel", zap.Error(err))
		return
	}

	logger.Info("Ngrok tunnel established", zap.String("url", tun.URL()))

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("Ngrok server error", zap.Error(err))
	}
	logger.Info("Ngrok tunnel closed")
}

// loopbackAddr rewrites a wildcard listen address into one a local client can dial
func loopbackAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "REST API to reuse when reachable",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("ROBOTNAV_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout belongs to the MCP protocol; logging.New writes to stderr
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runStdioMCP(ctx, cfg, cmd.String("api-url"), logger)
		},
	}
}

// runStdioMCP runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cfg *config.Config, externalURL string, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL := externalURL
	if !apiReachable(ctx, externalURL) {
		logger.Info("No external API server found, starting internal HTTP server", zap.String("checked", externalURL))

		internalURL, shutdown, err := startInternalServer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiReachable(ctx context.Context, baseURL string) bool {
	if baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port
func startInternalServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	apiServer, _, err := newHandler(cfg, logger, hub)
	if err != nil {
		listener.Close()
		return "", nil, err
	}

	httpServer := &http.Server{Handler: apiServer}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Internal HTTP server error", zap.Error(err))
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}

// Command sokoban starts the Sokoban game server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket updates and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from defaults, an optional --settings file, SOKOBAN_* environment
// variables and finally explicit flags. A .env file in the working directory is
// loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/sokoban/api"
	"github.com/wricardo/mcp-training/sokoban/game/levels"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/game/session"
	"github.com/wricardo/mcp-training/sokoban/internal/logs"
	"github.com/wricardo/mcp-training/sokoban/internal/settings"
	"github.com/wricardo/mcp-training/sokoban/transport/mcp"
	"github.com/wricardo/mcp-training/sokoban/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Server"
)

func main() {
	// Missing .env is fine; anything else is reported once logging is up
	envErr := godotenv.Load()
	if errors.Is(envErr, fs.ErrNotExist) {
		envErr = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(envErr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. envErr is a .env load failure to report.
func newApp(envErr error) *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Usage: "YAML/JSON/TOML settings file", Sources: cli.EnvVars("SOKOBAN_SETTINGS")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "level-dir", Value: "levels", Usage: "Directory containing level files", Sources: cli.EnvVars("LEVEL_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-file", Usage: "Also write JSON logs to this rotated file"},
			&cli.BoolFlag{Name: "debug", Usage: "Shorthand for --log-level debug"},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runServe(ctx, cmd, envErr)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server backed by an external or internal HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, cmd, envErr)
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, cmd, envErr)
		},
	}
}

// loadSettings reads the settings file and environment, then applies flags
// the user set explicitly.
func loadSettings(cmd *cli.Command) (*settings.Loader, *settings.Settings, error) {
	loader, err := settings.NewLoader(cmd.String("settings"))
	if err != nil {
		return nil, nil, err
	}
	s, err := loader.Settings()
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd, s)
	return loader, s, nil
}

func applyFlags(cmd *cli.Command, s *settings.Settings) {
	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("level-dir") {
		s.LevelDir = cmd.String("level-dir")
	}
	if cmd.IsSet("log-level") {
		s.Log.Level = cmd.String("log-level")
	}
	if cmd.Bool("debug") {
		s.Log.Level = "debug"
	}
	if cmd.IsSet("log-file") {
		s.Log.File = cmd.String("log-file")
	}
	if cmd.IsSet("ngrok") {
		s.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.Ngrok.Domain = cmd.String("ngrok-domain")
	}
}

// followSettings applies log level changes from the settings file while running
func followSettings(loader *settings.Loader) {
	loader.OnChange(func(s *settings.Settings, err error) {
		if err != nil {
			logs.Warn("ignoring invalid settings change", zap.Error(err))
			return
		}
		logs.SetLevel(s.Log.Level)
		logs.Info("settings reloaded", zap.String("log_level", s.Log.Level))
	})
}

// services bundles what both modes need
type services struct {
	game     service.GameService
	sessions *session.Manager
	levels   *levels.Manager
	hub      *websocket.Hub
}

// initializeServices wires the level catalog, session store, live update hub
// and game service and starts the background routines bound to ctx.
func initializeServices(ctx context.Context, s *settings.Settings) (*services, error) {
	levelManager, err := levels.NewManager(s.LevelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	sessionManager := session.NewManager()
	hub := websocket.NewHub()

	opts := []service.Option{service.WithNotifier(hub)}
	if s.HintBudget > 0 {
		opts = append(opts, service.WithHintBudget(s.HintBudget))
	}
	gameService := service.NewGameService(sessionManager, levelManager, opts...)

	if s.WatchLevels {
		levelManager.OnChange(func(name string) {
			logs.Info("level file changed", zap.String("level", name))
		})
		go func() {
			if err := levelManager.Watch(ctx); err != nil {
				logs.Warn("level watcher stopped", zap.Error(err))
			}
		}()
	}

	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, sessionManager, s.CleanupInterval, s.SessionTTL)

	return &services{game: gameService, sessions: sessionManager, levels: levelManager, hub: hub}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, ttl time.Duration) {
	if every <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logs.Info("cleaned up expired sessions", zap.Int("removed", removed), zap.Int("remaining", manager.Count()))
			}
		}
	}
}

// newHandler mounts the REST API, WebSocket hub and MCP endpoint on one mux
func newHandler(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcpClient)
	return mainRouter
}

// runServe starts the HTTP server and optionally an ngrok tunnel, then waits
// for ctx to be cancelled.
func runServe(ctx context.Context, cmd *cli.Command, envErr error) error {
	loader, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := logs.Init("sokoban", s.Log); err != nil {
		return err
	}
	defer logs.Sync()
	if envErr != nil {
		logs.Warn("error loading .env file", zap.Error(envErr))
	}
	followSettings(loader)

	logs.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "serve"))

	svc, err := initializeServices(ctx, s)
	if err != nil {
		return err
	}

	addr := s.Addr()
	handler := newHandler(api.NewServer(svc.game, svc.hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logs.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)),
			zap.String("levels", s.LevelDir),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if s.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s.Ngrok, handler)
		}()
	}

	select {
	case <-ctx.Done():
		logs.Info("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logs.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logs.Info("server stopped")
	return err
}

// runNgrok serves handler through a public ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, cfg settings.Ngrok, handler http.Handler) {
	if cfg.AuthToken == "" {
		logs.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or ngrok.authtoken)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logs.Info("starting ngrok tunnel", zap.String("domain", cfg.Domain))
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logs.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	ngrokURL := tun.URL()
	logs.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("mcp", ngrokURL+"/mcp"),
	)

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logs.Warn("ngrok server error", zap.Error(err))
	}
	logs.Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether an API server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port
func startInternalAPI(gameService service.GameService, hub *websocket.Hub) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Error("internal HTTP server error", zap.Error(err))
		}
	}()

	return "http://" + listener.Addr().String(), httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an API server already
// running at the configured address, otherwise it starts an internal one.
func runStdioMCP(ctx context.Context, cmd *cli.Command, envErr error) error {
	loader, s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// stdout carries protocol frames
	if err := logs.InitWriter("sokoban", s.Log, os.Stderr); err != nil {
		return err
	}
	defer logs.Sync()
	if envErr != nil {
		logs.Warn("error loading .env file", zap.Error(envErr))
	}
	followSettings(loader)

	baseURL := "http://" + s.Addr()
	if externalAPIAvailable(baseURL) {
		logs.Info("using external API server for MCP", zap.String("url", baseURL))
	} else {
		svc, err := initializeServices(ctx, s)
		if err != nil {
			return err
		}
		var internal *http.Server
		baseURL, internal, err = startInternalAPI(svc.game, svc.hub)
		if err != nil {
			return err
		}
		defer internal.Close()
		logs.Info("started internal API server for MCP", zap.String("url", baseURL))
	}

	logs.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// Command blockrush starts the Block Rush game.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays one game in the terminal
//
// Flags control host/port, config directory, logging, and optional ngrok
// tunneling for easy external access during development. Every flag can also
// be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/blockrush/api"
	"github.com/wricardo/mcp-training/blockrush/game/config"
	"github.com/wricardo/mcp-training/blockrush/game/engine"
	"github.com/wricardo/mcp-training/blockrush/game/loop"
	"github.com/wricardo/mcp-training/blockrush/game/service"
	"github.com/wricardo/mcp-training/blockrush/game/session"
	"github.com/wricardo/mcp-training/blockrush/logging"
	"github.com/wricardo/mcp-training/blockrush/play"
	"github.com/wricardo/mcp-training/blockrush/transport/mcp"
	"github.com/wricardo/mcp-training/blockrush/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Block Rush Game Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
)

// options is the resolved process configuration
type options struct {
	host      string
	port      int
	configDir string
	defPreset string
	logLevel  string
	logFormat string
	logFile   string

	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string

	preset string
	mute   bool
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:         cmd.String("host"),
		port:         int(cmd.Int("port")),
		configDir:    cmd.String("config-dir"),
		defPreset:    cmd.String("default-preset"),
		logLevel:     cmd.String("log-level"),
		logFormat:    cmd.String("log-format"),
		logFile:      cmd.String("log-file"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
		preset:       cmd.String("preset"),
		mute:         cmd.Bool("mute"),
	}
}

// newApp builds the command tree. Running it without a subcommand starts the
// HTTP server.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "blockrush",
		Usage:   "grid puzzle-action game server with REST, WebSocket and MCP transports",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing difficulty presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "default-preset", Usage: "preset for sessions created without one", Sources: cli.EnvVars("DEFAULT_PRESET")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "log format (text or json)", Sources: cli.EnvVars("LOG_FORMAT")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return serverAction(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run HTTP server with API, WebSocket, and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := optionsFrom(cmd)
					// stdout carries the MCP protocol
					logging.Init(opts.logLevel, opts.logFormat, os.Stderr)
					gameService, sessions, err := initializeServices(opts.configDir, opts.defPreset)
					if err != nil {
						return err
					}
					defer sessions.StopAll()
					return runStdioMCPWithInternalServer(gameService, opts)
				},
			},
			{
				Name:  "play",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Value: config.DefaultPreset, Usage: "difficulty preset to play", Sources: cli.EnvVars("BLOCKRUSH_PRESET")},
					&cli.StringFlag{Name: "log-file", Usage: "write logs to this file instead of discarding them"},
					&cli.BoolFlag{Name: "mute", Usage: "disable sound"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPlay(ctx, optionsFrom(cmd))
				},
			},
		},
	}
}

// main loads .env, then runs the selected mode
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Log.WithError(err).Warn("error loading .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logging.Log.WithError(err).Error("exiting")
		os.Exit(1)
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	opts := optionsFrom(cmd)
	logging.Init(opts.logLevel, opts.logFormat, os.Stdout)
	logging.Log.Infof("Starting %s v%s (mode: server)", AppName, Version)

	gameService, sessions, err := initializeServices(opts.configDir, opts.defPreset)
	if err != nil {
		return err
	}
	defer sessions.StopAll()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return runHTTPServer(ctx, gameService, opts, stop)
}

// initializeServices wires session/config managers and the game service.
// defaultPreset, when set, replaces the config manager's default.
// It also starts a background cleanup routine to prune stale sessions.
func initializeServices(configDir, defaultPreset string) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if defaultPreset != "" {
		if err := configManager.SetDefault(defaultPreset); err != nil {
			return nil, nil, fmt.Errorf("failed to set default preset: %w", err)
		}
	}

	sessionManager := session.NewManager()
	gameService := service.NewGameService(sessionManager, configManager)

	go sessionCleanupRoutine(sessionManager, sessionCleanupEvery)

	return gameService, sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(manager *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
			logging.Log.WithField("removed", removed).Info("cleaned up expired sessions")
		}
	}
}

// newHub starts a WebSocket hub that receives every session change and
// accepts moves from its clients
func newHub(gameService service.GameService) *websocket.Hub {
	hub := websocket.NewHub()
	go hub.Run()
	gameService.SetBroadcaster(hub)
	hub.SetInputHandler(func(ctx context.Context, sessionID, direction string) error {
		_, err := gameService.Move(ctx, sessionID, direction, false)
		return err
	})
	return hub
}

// newHandler mounts the API and the /mcp endpoint. The MCP tools call back
// into the API at baseURL.
func newHandler(apiServer *api.Server, baseURL string) http.Handler {
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel. It returns after a
// value arrives on stop.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts options, stop <-chan os.Signal) error {
	hub := newHub(gameService)
	defer hub.Stop()

	addr := opts.addr()
	handler := newHandler(api.NewServer(gameService, hub), fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logging.Log.WithField("addr", addr).Info("HTTP server listening")
		logging.Log.Infof("REST API: http://%s/api", addr)
		logging.Log.Infof("WebSocket: ws://%s/ws?session=<session_id>", addr)
		logging.Log.Infof("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		logging.Log.WithField("signal", sig.String()).Info("shutting down")
	case runErr = <-serveErr:
	case <-ctx.Done():
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logging.Log.Info("Server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		logging.Log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	logging.Log.Info("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		logging.Log.WithField("domain", opts.ngrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		logging.Log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logging.Log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logging.Log.Infof("Ngrok tunnel established: %s", ngrokURL)
	logging.Log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	logging.Log.Infof("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	logging.Log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logging.Log.WithError(err).Debug("ngrok server stopped")
	}
	logging.Log.Info("Ngrok tunnel closed")
}

// apiAvailable reports whether a Block Rush API answers at baseURL
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns its
// base URL
func startInternalServer(gameService service.GameService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	internalAddr := listener.Addr().String()
	hub := newHub(gameService)
	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	httpServer.RegisterOnShutdown(hub.Stop)

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Log.WithError(err).Error("internal HTTP server error")
		}
	}()

	logging.Log.WithField("addr", internalAddr).Info("internal HTTP server started for MCP stdio")
	return fmt.Sprintf("http://%s", internalAddr), httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService, opts options) error {
	baseURL := fmt.Sprintf("http://%s", opts.addr())
	logging.Log.Infof("Checking for external API server at %s...", baseURL)

	if apiAvailable(baseURL) {
		logging.Log.Info("MCP stdio server ready (using external HTTP server)")
	} else {
		internalURL, httpServer, err := startInternalServer(gameService)
		if err != nil {
			return err
		}
		defer httpServer.Close()
		baseURL = internalURL
		logging.Log.Info("MCP stdio server ready (using internal HTTP server)")
	}

	if err := mcp.NewClient(baseURL).ServeStdio(); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// playLogOutput keeps log lines off the terminal the game draws on
func playLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// loadPreset resolves a preset from the config dir, falling back to the
// built-in one when the directory is missing
func loadPreset(configDir, name string) (*engine.GameConfig, error) {
	manager, err := config.NewManager(configDir)
	if err != nil {
		logging.Log.WithError(err).Warn("using built-in preset")
		return engine.DefaultGameConfig(), nil
	}
	return manager.LoadConfig(name)
}

func runPlay(ctx context.Context, opts options) error {
	out, closeLog, err := playLogOutput(opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logging.Init(opts.logLevel, opts.logFormat, out)

	preset, err := loadPreset(opts.configDir, opts.preset)
	if err != nil {
		return err
	}
	e, err := engine.NewEngine(preset, nil)
	if err != nil {
		return err
	}

	runner := loop.NewRunner(e, loop.RealClock()).WithLogger(logging.Log.WithField("preset", preset.Name))

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	chime := &play.Chime{}
	if !opts.mute {
		if err := chime.Init(); err != nil {
			logging.Log.WithError(err).Warn("audio unavailable, playing silently")
		}
	}
	defer chime.Close()

	client := play.New(screen, runner, chime)
	runner.Start()
	defer runner.Stop()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := client.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// ABOUTME: Entry point for the herald bot
// ABOUTME: Receives interaction webhooks and drives the stateless workflows

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/herald/internal/audit"
	"github.com/2389/herald/internal/authz"
	"github.com/2389/herald/internal/config"
	"github.com/2389/herald/internal/dashauth"
	"github.com/2389/herald/internal/gateway"
	"github.com/2389/herald/internal/store"
	"github.com/2389/herald/internal/token"
	"github.com/2389/herald/internal/workflow"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                    _     _
| |__   ___ _ __ __ _| | __| |
| '_ \ / _ \ '__/ _' | |/ _' |
| | | |  __/ |  | (_| | | (_| |
|_| |_|\___|_|   \__,_|_|\__,_|
`

// getConfigPath returns the path to the herald config file.
// Priority: HERALD_CONFIG env var > XDG_CONFIG_HOME/herald/herald.yaml > ~/.config/herald/herald.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HERALD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "herald.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "herald", "herald.yaml")
}

// getDataPath returns the path to the herald data directory.
// Priority: XDG_DATA_HOME/herald > ~/.local/share/herald
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "herald")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: herald <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                              Start the interactions endpoint")
		fmt.Println("  init                               Create a new config file interactively")
		fmt.Println("  health                             Check endpoint health")
		fmt.Println("  dashboard-token --user U --guild G Mint a dashboard session token")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "dashboard-token":
		err = runDashboardToken()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Store:    %s\n", cfg.Database.Driver)
	if cfg.Dashboard.JWTSecret != "" {
		green.Print("    ▶ ")
		fmt.Printf("Dashboard: %s\n", cfg.Dashboard.BaseURL)
	}
	fmt.Println()

	logger.Info("starting herald",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"store", cfg.Database.Driver,
	)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	rest := gateway.NewClient(cfg.Discord.BotToken)
	recorder := audit.NewRecorder(cfg.Discord.ApplicationID, audit.NewSlogSink(logger))
	guard := authz.NewGuard(cfg.Discord.OwnerID)

	dispatcher := workflow.NewDispatcher(guard, logger)
	registrations := map[token.Kind]workflow.Handler{
		token.KindSetup:            workflow.NewSetup(st, recorder, logger),
		token.KindStreamerRequest:  workflow.NewRequest(rest, recorder, logger),
		token.KindStreamerApproval: workflow.NewApproval(st, rest, recorder, logger),
	}
	for kind, h := range registrations {
		if err := dispatcher.Register(kind, h); err != nil {
			return fmt.Errorf("registering workflow: %w", err)
		}
	}

	server, err := gateway.NewServer(cfg.Discord.PublicKey, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("creating interaction server: %w", err)
	}
	server.SetReplyWindow(cfg.Server.ReplyWindow)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore creates the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return store.NewSQLiteStore(cfg.Database.Path)
	case "redis":
		return store.NewRedisStore(ctx, cfg.Database.Addr, cfg.Database.Password, cfg.Database.DB)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runDashboardToken mints a web dashboard session token for a user.
// Supports both "--flag value" and "--flag=value" formats.
func runDashboardToken() error {
	var userID, guildID string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--user" || arg == "-u":
			if i+1 >= len(args) {
				return fmt.Errorf("--user requires a value")
			}
			userID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--user="):
			userID = strings.TrimPrefix(arg, "--user=")
		case arg == "--guild" || arg == "-g":
			if i+1 >= len(args) {
				return fmt.Errorf("--guild requires a value")
			}
			guildID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--guild="):
			guildID = strings.TrimPrefix(arg, "--guild=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	if userID == "" || guildID == "" {
		return fmt.Errorf("--user and --guild are required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Dashboard.JWTSecret == "" {
		return fmt.Errorf("dashboard.jwt_secret is not configured")
	}

	bridge, err := dashauth.NewBridge([]byte(cfg.Dashboard.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating session bridge: %w", err)
	}

	ttl := 24 * time.Hour
	session, err := bridge.Mint(userID, guildID, ttl)
	if err != nil {
		return fmt.Errorf("minting token: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Println("  Dashboard session token")
	fmt.Printf("  User:    %s\n", userID)
	fmt.Printf("  Guild:   %s\n", guildID)
	fmt.Printf("  Expires: %s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	fmt.Println()
	fmt.Println(session)

	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("herald configuration setup")
	fmt.Println("==========================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "herald.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")

	fmt.Println("\n--- Application Credentials ---")
	publicKey := prompt(reader, "Application public key (hex)", "")
	botToken := prompt(reader, "Bot token (leave empty to use ${HERALD_BOT_TOKEN})", "")
	appID := prompt(reader, "Application ID", "")
	ownerID := prompt(reader, "Owner user ID (optional)", "")

	fmt.Println("\n--- Store Configuration ---")
	driver := prompt(reader, "Store driver (sqlite/redis)", "sqlite")

	var dbPath, redisAddr string
	if driver == "redis" {
		redisAddr = prompt(reader, "Redis address", "localhost:6379")
	} else {
		dbPath = prompt(reader, "SQLite database path", defaultDbPath)
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# herald configuration\n")
	cfg.WriteString("# Generated by herald init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("discord:\n")
	cfg.WriteString(fmt.Sprintf("  public_key: \"%s\"\n", publicKey))
	if botToken != "" {
		cfg.WriteString(fmt.Sprintf("  bot_token: \"%s\"\n", botToken))
	} else {
		cfg.WriteString("  bot_token: \"${HERALD_BOT_TOKEN}\"\n")
	}
	cfg.WriteString(fmt.Sprintf("  application_id: \"%s\"\n", appID))
	if ownerID != "" {
		cfg.WriteString(fmt.Sprintf("  owner_id: \"%s\"\n", ownerID))
	}
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  driver: \"%s\"\n", driver))
	if driver == "redis" {
		cfg.WriteString(fmt.Sprintf("  addr: \"%s\"\n", redisAddr))
	} else {
		cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	if driver != "redis" {
		dataDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the bot:")
	fmt.Printf("  herald serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

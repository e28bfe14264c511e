// ABOUTME: Entry point for the patio chat server
// ABOUTME: Serves the HTTP API and hosts the bot mention pipeline

package main

import (
	"context"
	"encoding/json"
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

	"github.com/patiochat/patio/internal/auth"
	"github.com/patiochat/patio/internal/bots"
	"github.com/patiochat/patio/internal/chat"
	"github.com/patiochat/patio/internal/completion"
	"github.com/patiochat/patio/internal/config"
	"github.com/patiochat/patio/internal/dialogue"
	"github.com/patiochat/patio/internal/httpapi"
	"github.com/patiochat/patio/internal/responder"
	"github.com/patiochat/patio/internal/store"
)

// version can be overridden at build time via -ldflags.
var version = "dev"

const banner = `
             _   _
  _ __  __ _| |_(_) ___
 | '_ \/ _' | __| |/ _ \
 | |_) | (_| | |_| | (_) |
 | .__/\__,_|\__|_|\___/
 |_|
`

// getConfigPath returns the path to the patio config file.
// Priority: PATIO_CONFIG env var > XDG_CONFIG_HOME/patio/patio.yaml > ~/.config/patio/patio.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PATIO_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "patio.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "patio", "patio.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: patio <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve       Start the chat server")
		fmt.Println("  seed        Load demo users, channels and the assistant bot")
		fmt.Println("  channels    List channels and their members")
		fmt.Println("  health      Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "seed":
		err = runSeed(ctx)
	case "channels":
		err = runChannels(ctx)
	case "health":
		err = runHealth(ctx)
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
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	if cfg.OpenAI.APIKey == "" {
		yellow := color.New(color.FgYellow)
		yellow.Print("    ▶ ")
		fmt.Println("OpenAI:   no api key, bots fall back to canned replies")
	}
	fmt.Println()

	logger.Info("starting patio",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gateway := completion.NewGateway(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	resp := responder.New(
		st,
		bots.NewResolver(st, logger),
		dialogue.NewAssembler(st, cfg.Bots.ContextMessages, logger),
		gateway,
		bots.NewBootstrap(st, logger),
		logger,
		func(o *responder.Options) { o.ReplyTimeout = cfg.Bots.ReplyTimeout },
	)

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	chatSvc := chat.NewService(st, resp, logger)
	authSvc := auth.NewService(st, verifier, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	})
	httpapi.NewServer(chatSvc, authSvc, verifier, logger).Routes(mux)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return srv.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
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
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server unhealthy: %s", resp.Status)
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Println("server healthy")
	return nil
}

func runChannels(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	channels, err := st.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("listing channels: %w", err)
	}

	if len(channels) == 0 {
		fmt.Println("No channels. Run 'patio seed' to load the demo data.")
		return nil
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	for _, ch := range channels {
		members, err := st.ListChannelMembers(ctx, ch.ID)
		if err != nil {
			return fmt.Errorf("listing members of %q: %w", ch.Name, err)
		}

		cyan.Printf("#%d %s", ch.ID, ch.Name)
		gray.Printf("  (%d members)\n", len(members))
		for _, m := range members {
			switch m.Kind {
			case store.MemberUser:
				fmt.Printf("    %s", m.UserName)
				gray.Printf(" <%s>  member %d\n", m.UserEmail, m.ID)
			case store.MemberBot:
				fmt.Printf("    %s", m.BotName)
				if m.BotActive {
					gray.Printf("  [bot]  member %d\n", m.ID)
				} else {
					gray.Printf("  [bot, inactive]  member %d\n", m.ID)
				}
			}
		}
	}
	return nil
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

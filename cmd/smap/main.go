package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qnotes/smap/internal/auth"
	"github.com/qnotes/smap/internal/catalog"
	"github.com/qnotes/smap/internal/collaborator"
	"github.com/qnotes/smap/internal/handler"
	appI18n "github.com/qnotes/smap/internal/i18n"
	"github.com/qnotes/smap/internal/store"
	"github.com/qnotes/smap/internal/workflow"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smap",
		Short: "SMAP practice server for SEC filing analysis",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `smap --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP practice server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", ":memory:", "SQLite database path (:memory: keeps nothing)")
	f.String("collaborator-url", "http://localhost:8000", "Grading service base URL")
	f.String("session-id", "", "Fixed practice session id (generated when empty)")
	f.StringSliceP("sections", "s", nil, "Paths to extra section JSON files (repeatable)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.Bool("teaching", true, "Show teaching material before drafting")
	f.Bool("allow-empty-submit", true, "Permit grading an empty draft")
	f.Duration("request-timeout", 30*time.Second, "Timeout for grading service requests")
	f.StringSlice("cors-origins", nil, "Allowed CORS origins (empty disables CORS)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export graded attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "", "SQLite database path (required)")
	f.String("session-id", "", "Session identifier for output")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("smap")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/smap")
	v.AddConfigPath("/etc/smap")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cat := catalog.New()
	for _, path := range v.GetStringSlice("sections") {
		added, err := cat.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load sections file %s: %w", path, err)
		}
		slog.Info("loaded sections file", "path", path, "added", added)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	sessions := auth.NewStaticProvider(v.GetString("session-id"))
	if err := sessions.Init(context.Background()); err != nil {
		return fmt.Errorf("init session provider: %w", err)
	}
	defer sessions.Teardown(context.Background())
	session, err := sessions.CurrentSession(context.Background())
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if err := db.SetMetadata("session_id", session.ID); err != nil {
		return fmt.Errorf("record session id: %w", err)
	}

	collab := collaborator.New(
		v.GetString("collaborator-url"),
		sessions,
		v.GetDuration("request-timeout"),
	)
	// The grading service may come up after us; a failed ping is not fatal.
	if err := collab.Ping(context.Background()); err != nil {
		slog.Warn("grading service unreachable", "url", v.GetString("collaborator-url"), "error", err)
	} else {
		slog.Info("grading service OK", "url", v.GetString("collaborator-url"))
	}

	wf := workflow.New(workflow.Config{
		TeachingEnabled:  v.GetBool("teaching"),
		AllowEmptySubmit: v.GetBool("allow-empty-submit"),
	}, collab, db, cat, slog.Default())
	defer wf.Close()

	wf.OnTransition(func(from, to workflow.State) {
		slog.Debug("state transition", "from", from, "to", to)
	})

	h := handler.New(wf, cat, db, collab)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if origins := v.GetStringSlice("cors-origins"); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware(lang))
	r.Use(handler.SessionMiddleware(session.ID))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"collaborator_url", v.GetString("collaborator-url"),
		"session_id", session.ID,
		"lang", lang,
		"sections", cat.Len(),
		"teaching", v.GetBool("teaching"),
		"db", v.GetString("db"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sessionID := v.GetString("session-id")
	if sessionID == "" {
		if sessionID, err = db.GetMetadata("session_id"); err != nil {
			return fmt.Errorf("read session id: %w", err)
		}
	}

	export, err := db.ExportSession(sessionID)
	if err != nil {
		return fmt.Errorf("export session: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/careform/intake/internal/api"
	"github.com/careform/intake/internal/db"
	"github.com/careform/intake/internal/jobs"
	"github.com/careform/intake/internal/middleware"
	"github.com/careform/intake/internal/notify"
	"github.com/careform/intake/internal/utils"
)

var _ api.Store = (*db.SQLiteStore)(nil)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	addr := utils.SafeEnv("INTAKE_ADDR", ":8080")
	dbPath := utils.SafeEnv("INTAKE_DB_PATH", "intake.db")

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logger.Fatal("open database", zap.String("path", dbPath), zap.Error(err))
	}
	defer func() { _ = conn.Close() }()

	if err := db.RunMigrations(conn, os.Getenv("INTAKE_MIGRATIONS_DIR")); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	store, err := db.NewSQLiteStore(conn, logger)
	if err != nil {
		logger.Fatal("init store", zap.Error(err))
	}

	var mailer notify.Mailer
	if smtp := notify.NewSMTPMailerFromEnv(); smtp != nil {
		mailer = smtp
	} else {
		logger.Info("smtp not configured, email notifications disabled")
	}
	notifier := notify.NewService(store, mailer, logger)

	janitor := jobs.NewJanitor(store, logger)
	if err := janitor.Start(); err != nil {
		logger.Fatal("start janitor", zap.Error(err))
	}
	defer janitor.Stop()

	mux := http.NewServeMux()
	api.NewRouter(store, notifier, logger).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"name":   "Intake API",
			"locale": locale,
			"msg":    utils.T(locale, "health.ok"),
		})
	})

	// Static files for the form frontend when packaged as one image.
	if staticDir := os.Getenv("INTAKE_STATIC_DIR"); staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	handler := middleware.NoStore(
		middleware.SecureHeaders(
			middleware.CORS(
				middleware.LocaleMiddleware(
					middleware.WithAuth(mux)))))

	logger.Info("intake server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

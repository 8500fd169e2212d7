package main

import (
	"net/http"
	"os"

	"github.com/upliftnews/uplift/internal/app"
	"github.com/upliftnews/uplift/internal/config"
	"github.com/upliftnews/uplift/internal/dashboard"
	"github.com/upliftnews/uplift/internal/logger"
)

// The dashboard is read-only and deliberately does not load the full
// publisher configuration; it needs only the state location.
func main() {
	logger.Init(os.Getenv("DEBUG") == "true")

	cfg := &config.Config{
		StatePath:   envOrDefault("STATE_PATH", "uplift_state.json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	st, err := app.OpenStore(cfg)
	if err != nil {
		logger.Error("state store unavailable", "error", err)
		os.Exit(1)
	}

	refresh := func() (dashboard.StateReader, error) {
		if err := st.Load(); err != nil {
			return nil, err
		}
		return st, nil
	}

	addr := envOrDefault("DASHBOARD_ADDR", ":8080")
	srv := dashboard.NewServer(refresh)

	logger.Info("dashboard listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		logger.Error("dashboard server stopped", "error", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

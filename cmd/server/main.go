package main

import (
	"log"
	"net/http"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/adapters/handler"
	"github.com/sibincbaby/vouchzy/pkg/adapters/repository/sqlite"
	"github.com/sibincbaby/vouchzy/pkg/adapters/shortener"
	"github.com/sibincbaby/vouchzy/pkg/adapters/timeapi"
	"github.com/sibincbaby/vouchzy/pkg/config"
	"github.com/sibincbaby/vouchzy/pkg/core/expiry"
	"github.com/sibincbaby/vouchzy/pkg/core/services"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

func main() {
	cfg := config.Load()

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// External collaborators. Both degrade gracefully when unconfigured:
	// no time service means local-clock judgments, no shortener means the
	// long share URL is used as-is.
	var timeSource ports.TimeSource
	if cfg.TimeServiceURL != "" {
		timeSource = timeapi.NewClient(cfg.TimeServiceURL)
	}
	oracle := expiry.NewOracle(timeSource)
	short := shortener.NewClient(cfg.ShortenerURL)

	// Initialize Service
	service := services.NewVoucherService(repo, short, cfg.BaseURL)

	// Initialize Router
	mux := handler.NewRouter(cfg, service, oracle)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

package handler

import (
	"net/http"

	"github.com/sibincbaby/vouchzy/pkg/adapters/handler"
	"github.com/sibincbaby/vouchzy/pkg/adapters/repository/sqlite"
	"github.com/sibincbaby/vouchzy/pkg/adapters/shortener"
	"github.com/sibincbaby/vouchzy/pkg/adapters/timeapi"
	"github.com/sibincbaby/vouchzy/pkg/config"
	"github.com/sibincbaby/vouchzy/pkg/core/expiry"
	"github.com/sibincbaby/vouchzy/pkg/core/services"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		// Log but don't fatal, let internal error happen on request if crucial
		panic(err)
	}

	var timeSource ports.TimeSource
	if cfg.TimeServiceURL != "" {
		timeSource = timeapi.NewClient(cfg.TimeServiceURL)
	}
	oracle := expiry.NewOracle(timeSource)
	short := shortener.NewClient(cfg.ShortenerURL)

	service := services.NewVoucherService(repo, short, cfg.BaseURL)
	mux = handler.NewRouter(cfg, service, oracle)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}

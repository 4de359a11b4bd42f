package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/noirrs/v3/internal/admin"
	"github.com/noirrs/v3/internal/collector"
	"github.com/noirrs/v3/internal/config"
	"github.com/noirrs/v3/internal/geo"
	"github.com/noirrs/v3/internal/metrics"
	"github.com/noirrs/v3/internal/relay"
	"github.com/noirrs/v3/internal/site"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.FromEnv()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	store, err := metrics.NewStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("init visitor metrics")
	}

	loader, err := site.NewLoader(db, cfg.DataURL, cfg.DataCacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("init portfolio loader")
	}

	// Retention cleanup runs in the background at startup, like the
	// rest of the privacy plumbing: best-effort, logged only.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if deleted, err := store.CleanupOld(ctx); err != nil {
			log.Warn().Err(err).Msg("visitor retention cleanup failed")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("visitor retention cleanup")
		}
	}()

	var notifier relay.Notifier
	if cfg.TelegramConfigured() {
		notifier = relay.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID)
		log.Info().Msg("telegram relay configured")
	} else {
		log.Warn().Msg("telegram credentials missing, beacons will not be forwarded")
	}
	trackHandler := relay.NewHandler(notifier)

	col := collector.New(cfg.BeaconURL, buildGeoChain(cfg))

	pages := site.NewHandlers(loader)

	adminPanel, err := admin.New(store, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("init admin")
	}

	r := gin.Default()
	r.LoadHTMLGlob("templates/*")
	r.Static("/static", "./static")

	r.Use(metrics.Middleware(store))

	r.GET("/", col.PageLoad(), pages.Index)
	r.GET("/sections/:name", col.SectionView(), pages.Section)
	r.GET("/trial-fonts", pages.TrialFonts)
	r.POST("/api/track", trackHandler.Track)
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	adminPanel.Register(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

// buildGeoChain assembles the lookup chain in fixed priority order:
// local MaxMind database first when configured, then the three public
// services.
func buildGeoChain(cfg config.Config) *geo.Chain {
	var providers []geo.Provider
	if cfg.GeoDBPath != "" {
		mm, err := geo.NewMaxMind(cfg.GeoDBPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.GeoDBPath).Msg("geo database unavailable")
		} else {
			providers = append(providers, mm)
		}
	}
	providers = append(providers,
		geo.NewIPAPICo(""),
		geo.NewIPAPICom(""),
		geo.NewIPWhoIs(""),
	)
	return geo.NewChain(providers...)
}

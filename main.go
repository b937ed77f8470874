// main.go
//
// Process entry point: load .env + typed config, set up logging, open
// and migrate the database, seed the default scene if missing, then run
// the HTTP server until SIGINT/SIGTERM.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/waldo-game/go-server/assets"
	"github.com/waldo-game/go-server/internal/config"
	"github.com/waldo-game/go-server/internal/httpserver"
	"github.com/waldo-game/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("failed to open database")
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	st := store.NewSQLite(db)
	if err := seedIfEmpty(st); err != nil {
		log.Fatal().Err(err).Msg("failed to seed scene")
	}

	srv := httpserver.New(st, cfg)
	addr := ":" + cfg.Port

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hs := &http.Server{Addr: addr, Handler: srv.Router()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("starting waldo-go server")
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		return hs.Shutdown(context.Background())
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// seedIfEmpty installs the embedded default scene when the database has
// none. Existing data is left untouched (reseeding is the admin
// endpoint's job).
func seedIfEmpty(st store.Store) error {
	ctx := context.Background()
	if _, err := st.DefaultScene(ctx); err == nil {
		return nil
	}
	seed, err := assets.DefaultScene()
	if err != nil {
		return err
	}
	sc, err := st.SeedScene(ctx, seed, false)
	if err != nil {
		return err
	}
	log.Info().Int("sceneId", sc.ID).Str("name", sc.Name).Int("characters", len(sc.Characters)).Msg("seeded default scene")
	return nil
}

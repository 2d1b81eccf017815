package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordle/apps/arena-server/assets"
	"github.com/robalobadob/wordle/apps/arena-server/internal/config"
	"github.com/robalobadob/wordle/apps/arena-server/internal/daily"
	"github.com/robalobadob/wordle/apps/arena-server/internal/dispatch"
	"github.com/robalobadob/wordle/apps/arena-server/internal/game"
	"github.com/robalobadob/wordle/apps/arena-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/arena-server/internal/store"
	"github.com/robalobadob/wordle/apps/arena-server/internal/tcpserver"
	"github.com/robalobadob/wordle/apps/arena-server/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}

func run(cfg config.Config) error {
	dict, err := words.Load(cfg.Game.WordsFile, cfg.Game.WordLength)
	if err != nil {
		return err
	}
	gameCfg, err := game.NewConfig(cfg.Game.MaxRounds, dict.Words())
	if err != nil {
		return err
	}

	scores, err := openLedger(cfg, assets.Migrations())
	if err != nil {
		return errors.WithMessagef(err, "open %s ledger", cfg.Ledger.Driver)
	}
	defer func() {
		if err := scores.Close(); err != nil {
			log.Warn().Err(err).Msg("close ledger")
		}
	}()

	d := dispatch.New(dispatch.Options{
		Store:  store.NewMemoryStore(cfg.Game.IDDigits),
		Config: gameCfg,
		Ledger: scores,
		Daily:  daily.Picker{Salt: cfg.Game.DailySalt, Words: dict.Words()},
		Answer: dict.Random,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	tcp := tcpserver.New(d, tcpserver.Options{Addr: cfg.TCP.Addr, WriteTimeout: cfg.WriteTimeout})
	g.Go(func() error { return tcp.ListenAndServe(ctx) })

	if cfg.HTTP.Addr != "" {
		ops := httpserver.New(httpserver.Options{
			Dispatcher:   d,
			Ledger:       scores,
			Words:        dict,
			TCPLive:      tcp.Live,
			WriteTimeout: cfg.WriteTimeout,
		})
		g.Go(func() error { return ops.ListenAndServe(ctx, cfg.HTTP.Addr, cfg.ShutdownTimeout) })
	}

	log.Info().
		Str("env", cfg.Env).
		Str("tcp", cfg.TCP.Addr).
		Str("http", cfg.HTTP.Addr).
		Int("words", dict.Len()).
		Int("max_rounds", cfg.Game.MaxRounds).
		Str("ledger", cfg.Ledger.Driver).
		Msg("starting arena-server")

	return g.Wait()
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

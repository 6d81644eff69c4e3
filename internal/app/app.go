// Package app assembles the Telegram runtime from bootstrapped services.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/lnmubot/core/bootstrap"
	coreconfig "github.com/m3rciful/lnmubot/core/config"
	"github.com/m3rciful/lnmubot/core/logger"
	tg "github.com/m3rciful/lnmubot/core/telegram"
	"github.com/m3rciful/lnmubot/core/telegram/router"
	"github.com/m3rciful/lnmubot/internal/bot"
)

// App is the LNMU bot ready to run.
type App struct {
	cfg *coreconfig.Config
	res *bootstrap.Result
	bot *bot.Bot

	stopSweep context.CancelFunc
}

// New bootstraps infrastructure for cfg.
func New(cfg *coreconfig.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return FromResult(cfg, res), nil
}

// FromResult builds the App around already bootstrapped services.
func FromResult(cfg *coreconfig.Config, res *bootstrap.Result) *App {
	return &App{
		cfg: cfg,
		res: res,
		bot: bot.New(bot.Options{
			Documents: res.Documents,
			Jobs:      res.Pool,
			Share:     cfg.Share,
		}),
	}
}

// TelegramRunOptions wires commands, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: %w", err)
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(a.bot.Sessions(), reg)...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Metrics:     a.res.Metrics,
		Middlewares: tg.DefaultMiddlewares(a.res.Metrics),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, _ tg.Runtime) error {
	interval := a.cfg.Files.SweepInterval
	if interval <= 0 {
		return nil
	}
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweep = cancel
	go a.res.Files.Run(sweepCtx, interval, a.res.Metrics.AddSwept)
	logger.LogEvent(ctx, logger.Files, slog.LevelInfo, "files.sweeper",
		slog.String("status", "ok"),
		slog.Duration("interval", interval),
	)
	return nil
}

func (a *App) onStop(context.Context, tg.Runtime) error {
	if a.stopSweep != nil {
		a.stopSweep()
	}
	a.res.Close()
	return nil
}

// Package app wires the top-up bot: storage, catalog, sessions and the
// Telegram routes that drive the order flow and admin review.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topupbot/core/bootstrap"
	"github.com/m3rciful/topupbot/core/logger"
	"github.com/m3rciful/topupbot/core/opsserver"
	coretelegram "github.com/m3rciful/topupbot/core/telegram"
	"github.com/m3rciful/topupbot/core/telegram/sender"
	"github.com/m3rciful/topupbot/topup/assistant"
	"github.com/m3rciful/topupbot/topup/catalog"
	"github.com/m3rciful/topupbot/topup/config"
	"github.com/m3rciful/topupbot/topup/flow"
	"github.com/m3rciful/topupbot/topup/orders"
	"github.com/m3rciful/topupbot/topup/review"
	"github.com/m3rciful/topupbot/topup/session"
)

// Messenger is everything the services send through.
type Messenger interface {
	flow.Messenger
	review.Messenger
}

// App owns long-lived dependencies of the bot process.
type App struct {
	cfg       *config.Config
	store     orders.Store
	catalog   *catalog.Catalog
	sessions  *session.Table
	assistant *assistant.Client

	flow   *flow.Service
	review *review.Service
	msg    Messenger

	// respond answers callback queries; replaced in tests.
	respond func(c tele.Context, resp *tele.CallbackResponse) error

	ops       *opsserver.Server
	stopSweep context.CancelFunc
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
}

// New bootstraps logging, the order store (running migrations for PostgreSQL)
// and loads the catalog.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	bootOpts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.Orders.Driver == config.DriverPostgres {
		bootOpts.Database = &cfg.Database
	}
	res, err := bootstrap.Run(ctx, bootOpts)
	if err != nil {
		return nil, err
	}

	var store orders.Store
	switch cfg.Orders.Driver {
	case config.DriverPostgres:
		// The store takes ownership of the bootstrap connection.
		store = orders.NewPgStore(res.DB)
	default:
		fs, err := orders.NewFileStore(cfg.Orders.Path)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		store = fs
	}

	return newApp(ctx, cfg, store, catalog.LoadOrEmpty(ctx, cfg.Catalog.Path)), nil
}

func newApp(_ context.Context, cfg *config.Config, store orders.Store, cat *catalog.Catalog) *App {
	return &App{
		cfg:      cfg,
		store:    store,
		catalog:  cat,
		sessions: session.NewTable(session.Options{TTL: cfg.Sessions.TTL()}),
		assistant: assistant.NewClient(assistant.Options{
			APIKey:      cfg.Assistant.APIKey,
			BaseURL:     cfg.Assistant.BaseURL,
			Model:       cfg.Assistant.Model,
			MaxTokens:   cfg.Assistant.MaxTokens,
			Temperature: cfg.Assistant.Temperature,
			Timeout:     cfg.Assistant.Timeout(),
		}),
		respond: func(c tele.Context, resp *tele.CallbackResponse) error {
			return c.Respond(resp)
		},
	}
}

// bind builds the services on top of an outbound messenger.
func (a *App) bind(msg Messenger) {
	channels := make([]flow.PaymentChannel, 0, len(a.cfg.Shop.PaymentChannels))
	for _, ch := range a.cfg.Shop.PaymentChannels {
		channels = append(channels, flow.PaymentChannel{Name: ch.Name, Number: ch.Number})
	}
	a.msg = msg
	a.flow = flow.New(flow.Options{
		Sessions:  a.sessions,
		Catalog:   a.catalog,
		Orders:    a.store,
		Messenger: msg,
		Assistant: a.assistant,
		AdminID:   a.cfg.Telegram.AdminID,
		Shop: flow.Shop{
			Currency: a.cfg.Shop.Currency,
			GameName: a.cfg.Shop.GameName,
			Location: a.cfg.Shop.Location(),
			Channels: channels,
		},
	})
	a.review = review.New(review.Options{
		Orders:    a.store,
		Messenger: msg,
		AdminID:   a.cfg.Telegram.AdminID,
		GameName:  a.cfg.Shop.GameName,
		Currency:  a.cfg.Shop.Currency,
	})
}

// TelegramRunOptions registers commands, callbacks and message routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg, err := a.registry()
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), a.onRateLimited),
		Routes:      a.routes(reg),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.bind(sender.NewMessenger(rt.Bot, rt.Dispatcher))
	return a.startBackground(ctx)
}

func (a *App) startBackground(ctx context.Context) error {
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweep = cancel
	a.sweepWG.Add(1)
	go func() {
		defer a.sweepWG.Done()
		a.sessions.Run(sweepCtx)
	}()

	if a.cfg.Ops.Listen != "" {
		a.ops = opsserver.New(opsserver.Options{
			Listen:    a.cfg.Ops.Listen,
			Token:     a.cfg.Ops.Token,
			Ready:     a.store.Ping,
			Protected: a.opsRoutes,
		})
		if err := a.ops.Start(); err != nil {
			a.stopBackground()
			return fmt.Errorf("app: ops server: %w", err)
		}
	}
	logger.Component("app").Info("services ready",
		slog.String("event", "app.start"),
		slog.Int("products", a.catalog.Len()),
		slog.String("orders_driver", a.cfg.Orders.Driver),
		slog.Bool("assistant", a.assistant.Configured()),
		slog.Bool("ops", a.ops != nil),
	)
	return nil
}

func (a *App) stopBackground() {
	if a.stopSweep != nil {
		a.stopSweep()
		a.sweepWG.Wait()
		a.stopSweep = nil
	}
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	a.stopBackground()
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			return fmt.Errorf("app: ops shutdown: %w", err)
		}
	}
	return nil
}

// Close releases the order store.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.stopBackground()
		err = a.store.Close()
	})
	return err
}

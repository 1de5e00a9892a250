package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stellarlinkco/rampup/internal/bus"
	"github.com/stellarlinkco/rampup/internal/collab"
	"github.com/stellarlinkco/rampup/internal/config"
	"github.com/stellarlinkco/rampup/internal/notify"
	"github.com/stellarlinkco/rampup/internal/onboard"
	"github.com/stellarlinkco/rampup/internal/reminder"
	"github.com/stellarlinkco/rampup/internal/store"
	"github.com/stellarlinkco/rampup/internal/web"
	"github.com/stellarlinkco/rampup/internal/workflow"
)

// Options for creating a Gateway
type Options struct {
	SignalChan chan os.Signal // for testing signal handling
}

// Gateway wires the store, collaborators, orchestrator and the long-running
// services (web, reminders, notifier) behind one Run loop.
type Gateway struct {
	cfg        *config.Config
	bus        *bus.EventBus
	store      *store.Store
	collabs    *collab.Collaborators
	orch       *onboard.Orchestrator
	web        *web.Server
	notifier   *notify.Notifier
	reminders  *reminder.Service
	signalChan chan os.Signal // for testing
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewEventBus(config.DefaultBufSize)

	st, err := store.New(cfg.Store.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	g.store = st

	g.collabs = collab.New(cfg)
	resolver := workflow.NewResolver(cfg.Workflows.Dir)
	g.orch = onboard.New(st, g.collabs, resolver, g.bus, cfg.Slack.DefaultChannel)

	g.web = web.New(cfg.Server, st, g.orch, resolver, g.collabs.Docs, g.bus)

	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		n, err := notify.New(cfg.Notify)
		if err != nil {
			log.Printf("[gateway] notifier warning: %v", err)
		} else {
			g.notifier = n
		}
	}

	if cfg.Reminders.Enabled {
		g.reminders = reminder.NewService(cfg.Reminders, st, g.collabs.Chat, g.bus)
	}

	g.signalChan = opts.SignalChan

	return g, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.Dispatch(ctx)

	if err := g.web.Start(); err != nil {
		return fmt.Errorf("start web server: %w", err)
	}

	if g.notifier != nil {
		if err := g.notifier.Start(g.bus); err != nil {
			log.Printf("[gateway] notifier start warning: %v", err)
			g.notifier = nil
		}
	}

	if g.reminders != nil {
		if err := g.reminders.Start(ctx); err != nil {
			log.Printf("[gateway] reminder start warning: %v", err)
			g.reminders = nil
		}
	}

	log.Printf("[gateway] running on %s:%d (data: %s, employees: %d)",
		g.cfg.Server.Host, g.cfg.Server.Port, g.store.Path(), len(g.store.ListEmployees()))

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) Shutdown() error {
	if g.reminders != nil {
		g.reminders.Stop()
	}
	g.web.Stop()
	if err := g.store.Flush(); err != nil {
		log.Printf("[gateway] store flush warning: %v", err)
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

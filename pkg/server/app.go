package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "BlockCast/pkg/http"
	applogger "BlockCast/pkg/logger"
)

// Component is a background worker started before the HTTP server and
// stopped after it (Kafka consumer, job queue).
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

// NamedComponent labels a Component for logs.
type NamedComponent struct {
	Name string
	Component
}

// NamedCloser labels an infrastructure client closed last.
type NamedCloser struct {
	Name string
	io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	components      []NamedComponent
	closers         []NamedCloser
	shutdownTimeout time.Duration
}

// New creates a new App instance with all dependencies.
func New(log *applogger.Logger, httpServer *xhttp.Server, shutdownTimeout time.Duration) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 20 * time.Second
	}
	return &App{
		log:             log,
		httpServer:      httpServer,
		shutdownTimeout: shutdownTimeout,
	}
}

// AddComponent registers a worker. Nil components are ignored.
func (a *App) AddComponent(name string, c Component) {
	if c != nil {
		a.components = append(a.components, NamedComponent{Name: name, Component: c})
	}
}

// AddCloser registers a client closed in reverse registration order on shutdown.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, NamedCloser{Name: name, Closer: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts everything and blocks until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	for i, c := range a.components {
		if err := c.Start(); err != nil {
			a.log.Error("component start failed", applogger.String("component", c.Name), applogger.Error(err))
			a.stopComponents(a.components[:i])
			a.closeAll()
			return err
		}
		a.log.Info("component started", applogger.String("component", c.Name))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.stopComponents(a.components)
		a.closeAll()
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	a.stopComponentsCtx(ctx, a.components)
	// flush collected logs while the producer is still open
	a.log.RemoveCollector()
	a.closeAll()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) stopComponents(cs []NamedComponent) {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.stopComponentsCtx(ctx, cs)
}

func (a *App) stopComponentsCtx(ctx context.Context, cs []NamedComponent) {
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Stop(ctx); err != nil {
			a.log.Warn("component stop error", applogger.String("component", cs[i].Name), applogger.Error(err))
		}
	}
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", a.closers[i].Name), applogger.Error(err))
		}
	}
	a.closers = nil
}

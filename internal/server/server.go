package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/arthurd34/OpenImpro-Live/internal/hub"
	"github.com/arthurd34/OpenImpro-Live/internal/router"
	"github.com/arthurd34/OpenImpro-Live/internal/server/middleware"
	"github.com/arthurd34/OpenImpro-Live/internal/session"
	"github.com/arthurd34/OpenImpro-Live/internal/show"
	"github.com/arthurd34/OpenImpro-Live/pkg/config"
	"github.com/arthurd34/OpenImpro-Live/pkg/state/sqlitestore"
	"github.com/arthurd34/OpenImpro-Live/pkg/transport"
)

type App struct {
	logger      *slog.Logger
	config      *config.Config
	store       *sqlitestore.Store
	hub         *hub.Hub
	library     *show.Library
	engine      *session.Engine
	eventRouter *router.EventRouter
	wg          sync.WaitGroup
	http        *http.Server

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) (*App, error) {
	store, err := sqlitestore.Open(logger, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	library, err := show.NewLibrary(logger, cfg.Shows.Dir)
	if err != nil {
		store.Close()
		return nil, err
	}
	h := hub.New(logger)
	engine, err := session.New(logger, store, h, library, session.Options{
		AdminPassword:       cfg.Server.AdminPassword,
		KickDisconnectDelay: cfg.Session.KickDisconnectDelay,
		DefaultProposalCap:  cfg.Session.DefaultProposalCap,
		AdminTokenCap:       cfg.Session.AdminTokenCap,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	app := &App{
		logger:      logger,
		config:      cfg,
		store:       store,
		hub:         h,
		library:     library,
		engine:      engine,
		eventRouter: router.NewEventRouter(logger, engine),
		ctx:         rootCtx,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
			middleware.NewConnectionLimiter(logger, h.CountByIP, cfg.Server.ConnectionLimit),
		),
	)
	mux.Handle("POST /admin/upload-show",
		middleware.Chain(http.HandlerFunc(app.uploadShowHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(logger),
		),
	)

	app.http = &http.Server{Addr: cfg.Server.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app, nil
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	var ip string
	if reqMeta != nil {
		ip = reqMeta.IP
	}
	connLogger := a.logger.With(slog.String("remoteAddr", ip))

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		a.logger,
	)
	connID := conn.ID().String()
	a.hub.Register(conn, ip)

	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		a.hub.Deregister(id.String())
		a.engine.Disconnect(id.String())
	})

	connLogger.Info("Connection established", slog.String("connID", connID))
	conn.Run()
	// every client starts from the canonical snapshot
	a.engine.SyncTo(connID)
	<-conn.Done()
}

// graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.hub.CloseAll("graceful shutdown")
	a.wg.Wait()
	a.engine.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close state store", slog.Any("error", err))
	}
	a.logger.Info("Server shut down gracefully.")
	return nil
}

package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/contactbook/internal/boot"
	"github.com/memohai/contactbook/internal/handlers"
	"github.com/memohai/contactbook/internal/server"
	"github.com/memohai/contactbook/internal/version"
	"github.com/memohai/contactbook/internal/views"
)

var HandlersModule = fx.Module(
	"handlers",
	fx.Provide(
		provideServerHandler(handlers.NewContactsHandler),
		provideServerHandler(handlers.NewPingHandler),
		provideErrorHandler,
	),
)

var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServer,
	),
	fx.Invoke(startServer),
)

// App assembles the web application.
func App(configPath string) fx.Option {
	return fx.Options(
		InfrastructureModule(configPath),
		DomainModule,
		HandlersModule,
		ServerModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideErrorHandler(log *slog.Logger, rc *boot.RuntimeConfig) *handlers.ErrorHandler {
	return handlers.NewErrorHandler(log, rc.TransientUnavailable)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	Views          *views.Registry
	ErrorHandler   *handlers.ErrorHandler
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	rc := params.RuntimeConfig
	return server.NewServer(params.Logger, server.Options{
		Addr:           rc.ServerAddr,
		RequestTimeout: rc.RequestTimeout,
		RateLimit:      rc.RateLimit,
		RateBurst:      rc.RateBurst,
		Renderer:       params.Views,
		ErrorHandler:   params.ErrorHandler.Handle,
	}, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting contactbook %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/caffeineduck/gorc/executor"
	"github.com/caffeineduck/gorc/internal/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module wires the executor, the instance manager and the HTTP server into an
// fx application.
func Module(cfg config.Config, logger *zap.Logger) fx.Option {
	if logger == nil {
		logger = zap.NewNop()
	}
	return fx.Options(
		fx.Supply(cfg, logger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			newExecutor,
			newManager,
			New,
		),
		fx.Invoke(registerHooks),
	)
}

func newExecutor(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*executor.Executor, error) {
	exec, err := executor.New(cfg.Executor.Options(logger)...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return exec.Close()
		},
	})
	return exec, nil
}

func newManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *Manager {
	m := NewManager(cfg.Server.InstanceTTL.Duration, cfg.Server.MaxInstances, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			m.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			m.Stop()
			return nil
		},
	})
	return m
}

func registerHooks(lc fx.Lifecycle, s *Server, cfg config.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Executor.Timeout.Duration + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("server starting", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("server stopping")
			return srv.Shutdown(ctx)
		},
	})
}

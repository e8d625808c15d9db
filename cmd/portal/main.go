package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	portal "github.com/istokvel/go-portal"
	"github.com/istokvel/go-portal/web"
)

// zapLogger adapts a sugared zap logger to the portal Logger interface.
type zapLogger struct {
	log *zap.SugaredLogger
}

func (l zapLogger) Debug(format string, args ...any) { l.log.Debugw(format, args...) }
func (l zapLogger) Info(format string, args ...any)  { l.log.Infow(format, args...) }
func (l zapLogger) Warn(format string, args ...any)  { l.log.Warnw(format, args...) }
func (l zapLogger) Error(format string, args ...any) { l.log.Errorw(format, args...) }

func main() {
	// a missing .env file is fine, the environment may be set directly
	_ = godotenv.Load()

	zlog, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer zlog.Sync()
	logger := zapLogger{log: zlog.Sugar()}

	config := portal.NewConfigFromEnv()
	logger.Debug("portal config", "config", print.MaybePrettyJSON(config))

	store, err := portal.NewFileSessionStore(config.GetSessionFile())
	if err != nil {
		logger.Error("unable to open session store", "error", err)
		os.Exit(1)
	}

	session := portal.NewSessionManager(store, portal.WithSessionLogger(logger))

	client := portal.NewClient(config.GetAPIBaseURL(), store,
		portal.WithClientLogger(logger),
		portal.WithHTTPClient(&http.Client{Timeout: config.GetHTTPTimeout()}),
	)

	auth := portal.NewAuthenticator(client, session).
		WithLogger(logger).
		WithHomeRoutes(config.GetAdminHomeRoute(), config.GetMemberHomeRoute()).
		WithActivitySink(portal.ActivitySinkFunc(func(ctx context.Context, event portal.ActivityEvent) error {
			logger.Info("auth activity", "event", string(event.EventType), "user_id", event.UserID)
			return nil
		}))

	notifications := portal.NewNotificationService(client, store,
		portal.WithNotificationsLogger(logger),
	)

	services := web.Services{
		Session:       session,
		Auth:          auth,
		Profile:       portal.NewProfileService(client, store).WithLogger(logger),
		Notifications: notifications,
		KYC:           portal.NewKYCService(client).WithLogger(logger),
		Admin:         portal.NewAdminService(client).WithLogger(logger),
	}

	server := web.NewServer(config, services, web.WithServerLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := portal.NewPoller(notifications,
		portal.WithPollInterval(config.GetPollInterval()),
		portal.WithPollLogger(logger),
	)
	go poller.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

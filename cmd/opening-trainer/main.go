package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/park285/Cheese-opening-trainer/internal/adapter/trainerpresenter"
	appcfg "github.com/park285/Cheese-opening-trainer/internal/config"
	"github.com/park285/Cheese-opening-trainer/internal/irisfast"
	"github.com/park285/Cheese-opening-trainer/internal/msgcat"
	"github.com/park285/Cheese-opening-trainer/internal/obslog"
	"github.com/park285/Cheese-opening-trainer/internal/trainerbuilder"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer obslog.Sync()
	logger := obslog.L()

	if err := run(logger); err != nil {
		logger.Error("opening_trainer_exit", zap.Error(err))
		obslog.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	cfg, err := appcfg.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return fmt.Errorf("messages: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithLogger(logger.Named("iris")),
	)
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger.Named("ws"))
	egress := irisfast.NewEgress(cfg.EgressMode, false, client, ws, logger)

	deps, err := trainerbuilder.New(ctx, cfg, logger.Named("trainer"))
	if err != nil {
		return fmt.Errorf("trainer deps: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("deps_close_error", zap.Error(err))
		}
	}()

	formatter := trainerpresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, catalog)
	presenter := trainerpresenter.NewPresenter(egress.SendText, formatter, logger.Named("presenter"))
	router := newRouter(cfg.BotPrefix, deps.Service, presenter, cfg.TrainerHistoryLimit, logger.Named("router"))

	// WS read loop must not block on service calls
	irisfast.Subscribe(ws, func(msg *irisfast.Message) { go router.handle(ctx, msg) },
		irisfast.InRooms(cfg.AllowedRooms),
		irisfast.WithPrefix(cfg.BotPrefix),
	)

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		// reconnect is already scheduled; HTTP egress keeps replies flowing
		logger.Warn("ws_connect_error", zap.Error(err))
	}

	done := make(chan error, 1)
	go func() { done <- deps.Service.Run(ctx, cfg.TrainerTick, presenter) }()
	logger.Info("opening_trainer_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.String("store", cfg.RepertoireStore),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("opening_trainer_stopping")
		<-done
	case runErr = <-done:
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := ws.Close(closeCtx); err != nil {
		logger.Warn("ws_close_error", zap.Error(err))
	}
	return runErr
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

// Command irischeck probes the Iris endpoints the trainer talks to: the HTTP
// config route, the websocket feed and optionally one outgoing reply.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	appcfg "github.com/park285/Cheese-opening-trainer/internal/config"
	"github.com/park285/Cheese-opening-trainer/internal/irisfast"
	"github.com/park285/Cheese-opening-trainer/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	watch := flag.Duration("watch", 10*time.Second, "how long to print websocket messages")
	room := flag.String("room", "", "room to send a test reply to")
	text := flag.String("text", "irischeck ping", "test reply text")
	dryrun := flag.Bool("dry-run", false, "log the websocket test reply instead of sending it")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.LoadTools()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}
	if cfg.IrisBaseURL == "" {
		logger.Fatal("IRIS_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if cfg.XUserID != "" {
			m["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			m["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			m["X-Session-Id"] = cfg.XSessionID
		}
		return m
	}

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
		irisfast.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ic, err := client.GetConfig(ctx); err != nil {
		logger.Error("config_check_failed", zap.Error(err))
	} else {
		logger.Info("config_check_ok",
			zap.Int("port", ic.Port),
			zap.Int("polling", ic.PollingSpeed),
			zap.Int("rate", ic.MessageRate),
			zap.String("endpoint", ic.WebserverEndpoint),
		)
	}

	if cfg.IrisWSURL == "" {
		logger.Info("ws_check_skipped", zap.String("reason", "IRIS_WS_URL not set"))
		return
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 0, time.Second)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger)
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("room=%s from=%s text=%q\n", msg.Room, msg.SenderName(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_failed", zap.Error(err))
		return
	}

	if *room != "" {
		egress := irisfast.NewEgress(cfg.EgressMode, *dryrun, client, ws, logger)
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := egress.SendText(sctx, *room, *text)
		scancel()
		if err != nil {
			logger.Error("reply_check_failed", zap.String("mode", cfg.EgressMode), zap.Error(err))
		} else {
			logger.Info("reply_check_ok", zap.String("mode", cfg.EgressMode), zap.String("room", *room))
		}
	}

	t := time.NewTimer(*watch)
	<-t.C
	logger.Info("ws_final_state", zap.String("state", ws.State().String()))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}

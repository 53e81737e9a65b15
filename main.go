package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/broadcast"
	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/internal/convert"
	"github.com/simplelearn-uz/convertbot/internal/handlers"
	"github.com/simplelearn-uz/convertbot/internal/metrics"
	"github.com/simplelearn-uz/convertbot/internal/middleware"
	"github.com/simplelearn-uz/convertbot/internal/payment"
	"github.com/simplelearn-uz/convertbot/internal/quota"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/internal/subscription"
	"github.com/simplelearn-uz/convertbot/internal/worker"
	"github.com/simplelearn-uz/convertbot/store"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load("config.env")
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "convertbot")
	if err != nil {
		logrus.WithError(err).Fatal("connect to redis")
	}
	defer rdb.Close()

	pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		logrus.WithError(err).Fatal("connect to postgres")
	}
	defer pg.Close()

	sessions := session.NewManager(store.NewRedisSessionStore(rdb, 24))
	quotaEngine := quota.NewEngine(pg)
	subs := subscription.NewService(pg)

	httpClient := &http.Client{Timeout: 10 * time.Minute}
	pollTimeout := 50 * time.Second

	b, err := bot.New(cfg.BotToken, bot.WithHTTPClient(pollTimeout, httpClient))
	if err != nil {
		logrus.WithError(err).Fatal("create bot")
	}

	adapter := handlers.NewBotAdapter(b, pg)
	dispatcher := convert.NewDispatcher(cfg.TempDir, convert.NewExecRunner())

	pool := worker.NewPool(dispatcher, quotaEngine, sessions, pg, adapter, adapter, cfg.Workers)
	pool.Start()
	defer pool.Stop()

	payments := payment.NewWorkflow(pg, pg, subs, adapter, cfg.IsAdmin)
	broadcaster := broadcast.New(pg, adapter, cfg.BroadcastBatchSize, time.Duration(cfg.BroadcastDelayMS)*time.Millisecond)

	h := handlers.New(cfg, sessions, pg, pg, payments, subs, quotaEngine, pool, broadcaster, pg)
	mw := middleware.New(sessions, pg)

	handlerChain := mw.SessionMiddleware(mw.AnalyzeMessageMiddleware(h.MainHandler))

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	go metrics.Serve(ctx, cfg.MetricsAddr)

	logrus.Info("bot started")
	b.Start(ctx)
	logrus.Info("bot stopped")
}

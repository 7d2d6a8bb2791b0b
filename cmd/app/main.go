package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/august-unsainted/payment-bot/internal/application"
	"github.com/august-unsainted/payment-bot/internal/config"
	"github.com/august-unsainted/payment-bot/internal/domain/model"
	pg "github.com/august-unsainted/payment-bot/internal/infra/db/postgres"
	"github.com/august-unsainted/payment-bot/internal/infra/i18n"
	"github.com/august-unsainted/payment-bot/internal/infra/logging"
	"github.com/august-unsainted/payment-bot/internal/infra/metrics"
	red "github.com/august-unsainted/payment-bot/internal/infra/redis"
	"github.com/august-unsainted/payment-bot/internal/infra/sched"
	tele "github.com/august-unsainted/payment-bot/internal/infra/telegram"
	"github.com/august-unsainted/payment-bot/internal/infra/web"
	"github.com/august-unsainted/payment-bot/internal/infra/worker"
	"github.com/august-unsainted/payment-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	dedupe := red.NewJoinDedupe(redisClient, time.Minute)

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	jobRepo := pg.NewJobRepo(pool)
	submissionRepo := pg.NewSubmissionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Price catalog & messages ----
	plans := make([]*model.Plan, 0, len(cfg.Plans))
	for key, p := range cfg.Plans {
		plan, err := model.NewPlan(key, p.Label, p.Amount, p.PeriodDays)
		if err != nil {
			logger.Fatal().Str("plan", key).Msg("invalid plan config")
		}
		plans = append(plans, plan)
	}
	catalog, err := usecase.NewPriceCatalog(plans)
	if err != nil {
		logger.Fatal().Err(err).Msg("price catalog")
	}
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("translator")
	}

	// ---- Worker pool ----
	workerPool := worker.NewPool(cfg.Bot.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Transport ----
	botAdapter, err := tele.NewRealBotAdapter(&cfg.Bot, rateLimiter, dedupe, translator, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Core ----
	payUC := usecase.NewPaymentUseCase(paymentRepo, txManager, logger)
	scheduler := sched.NewExpiryScheduler(jobRepo, workerPool, time.Now, logger)
	accessUC := usecase.NewAccessUseCase(payUC, catalog, botAdapter, translator, cfg.Bot.AdminChat, logger)
	scheduler.RegisterHandler(model.JobKindNotify, accessUC.OnNotify)
	scheduler.RegisterHandler(model.JobKindRevoke, accessUC.OnRevoke)
	membershipUC := usecase.NewMembershipUseCase(
		payUC, scheduler, botAdapter, translator,
		cfg.Bot.AdminChat, cfg.Scheduler.NotifyLeadTime, time.Now, logger,
	)

	facade := application.NewBotFacade(
		catalog, payUC, membershipUC, accessUC,
		submissionRepo, botAdapter, translator,
		cfg.Bot.AdminChat, cfg.Scheduler.SubmissionTTL, logger,
	)
	botAdapter.AttachFacade(facade)

	// Re-arm persisted timers before taking new traffic: past-due expiries
	// fire immediately after a restart.
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("scheduler")
	}
	defer scheduler.Stop()

	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin / observability HTTP ----
	auth := web.NewAuthManager(cfg.Web.SessionSecret, !cfg.Runtime.Dev, 30*time.Minute)
	webSrv := web.NewServer(paymentRepo, jobRepo, auth, cfg.Web.APIKey, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Web.Port), Handler: webSrv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}

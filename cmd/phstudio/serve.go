package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ph-studio/internal/bot"
	"ph-studio/internal/config"
	"ph-studio/internal/inquiry"
	"ph-studio/internal/metrics"
	"ph-studio/internal/server"
	"ph-studio/internal/storage"
	"ph-studio/pkg/logger"
	"ph-studio/pkg/redis"
	"ph-studio/pkg/resend"
	"ph-studio/pkg/sheets"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP storefront",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return serve(logger.WithLogger(ctx, log), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Environment == logger.ProductionEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog, err := config.LoadCatalog(cfg.PricingFile)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.Storage, cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := server.Options{
		HTTP:     cfg.HTTP,
		Admin:    cfg.Admin,
		Receiver: cfg.Mail.Receiver,
		Catalog:  catalog,
		Store:    store,
		Metrics:  metrics.New(),
		Logger:   log,
	}

	if cfg.Redis.Addr != "" {
		rc := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			log.Warn("Redis is unreachable, continuing without cache", zap.Error(err))
		}
		opts.Store = storage.NewCachedStorage(store, rc, rc.TTL(), log)
		opts.Limiter = rc
	} else {
		log.Info("REDIS_ADDR not set, cache and rate limits are off")
	}

	var notifiers []inquiry.Notifier
	if cfg.Sheets.FormEndpoint != "" {
		client := sheets.NewClient(cfg.Sheets.FormEndpoint, cfg.Sheets.Timeout, log)
		if st := client.Status(); st != sheets.EndpointOK {
			log.Warn("FORM_ENDPOINT does not look like an Apps Script web app", zap.String("status", string(st)))
		}
		notifiers = append(notifiers, inquiry.NewSheetNotifier(client))
	}
	if cfg.Telegram.Token != "" {
		tg, err := bot.New(cfg.Telegram, cfg.Admin, store, log)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, tg)

		go func() {
			if err := tg.Start(ctx); err != nil {
				log.Error("Telegram bot stopped with error", zap.Error(err))
			}
		}()
	}

	if cfg.Mail.ResendAPIKey == "" || cfg.Mail.Receiver == "" {
		log.Warn("RESEND_API_KEY or RECEIVER_EMAIL not set, inquiries will be rejected")
	}
	mailer := resend.NewClient(cfg.Mail.ResendBaseURL, cfg.Mail.ResendAPIKey, cfg.Mail.Timeout, log)
	opts.Inquiries = inquiry.NewService(cfg.Mail, mailer, store, catalog, log, notifiers...)

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/imagegenie/whatsapp-bot/internal/bot"
	"github.com/imagegenie/whatsapp-bot/internal/config"
	"github.com/imagegenie/whatsapp-bot/internal/database"
	"github.com/imagegenie/whatsapp-bot/internal/gemini"
	"github.com/imagegenie/whatsapp-bot/internal/imagegen"
	"github.com/imagegenie/whatsapp-bot/internal/repository"
	"github.com/imagegenie/whatsapp-bot/internal/server"
	"github.com/imagegenie/whatsapp-bot/internal/service"
	"github.com/imagegenie/whatsapp-bot/internal/storage"
	"github.com/imagegenie/whatsapp-bot/internal/whatsapp"
	"github.com/imagegenie/whatsapp-bot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.Debug)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	var enhancer service.Enhancer
	if cfg.GoogleAPIKey != "" {
		enhancer = gemini.NewClient(cfg.GoogleAPIKey, cfg.GeminiBaseURL, cfg.RequestTimeout, logr)
	} else {
		logr.Warn("GOOGLE_API_KEY not set, prompt enhancement disabled")
	}

	var mirror service.MediaMirror
	if cfg.MirrorConfigured() {
		m, err := storage.NewMirror(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage mirror: %v", err)
		}
		mirror = m
	}

	synth := imagegen.NewSynthesizer(cfg.PlaceholderBaseURL)
	sender := whatsapp.NewClient(cfg.WhatsAppToken, cfg.PhoneNumberID, cfg.GraphBaseURL, cfg.RequestTimeout, logr)

	accountService := service.NewAccountService(accountRepo)
	generationService := service.NewGenerationService(logr, accountRepo, generationRepo, enhancer, synth, mirror, cfg.RequestTimeout)

	b := bot.New(logr, accountService, generationService, sender)

	srv := server.New(
		fmt.Sprintf(":%d", cfg.Port),
		cfg.VerifyToken,
		cfg.AdminUsername,
		cfg.AdminPassword,
		logr,
		b,
		accountService,
		generationService,
		sender,
	)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}

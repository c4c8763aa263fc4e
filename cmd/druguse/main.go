package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Chenche0119/DrugUse-LineBot/internal/bot"
	"github.com/Chenche0119/DrugUse-LineBot/internal/config"
	"github.com/Chenche0119/DrugUse-LineBot/internal/gemini"
	"github.com/Chenche0119/DrugUse-LineBot/internal/images"
	"github.com/Chenche0119/DrugUse-LineBot/internal/line"
	"github.com/Chenche0119/DrugUse-LineBot/internal/maps"
	"github.com/Chenche0119/DrugUse-LineBot/internal/provision"
	"github.com/Chenche0119/DrugUse-LineBot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := store.NewMedicineStore(filepath.Join(cfg.DataDir, "medicine.db"))
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	provisionStore(db, cfg)

	ctx := context.Background()
	ai, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("gemini: %v", err)
	}

	replier, err := line.NewReplier(cfg.ChannelAccessToken)
	if err != nil {
		log.Fatalf("line: %v", err)
	}
	media, err := line.NewMediaFetcher(cfg.ChannelAccessToken)
	if err != nil {
		log.Fatalf("line: %v", err)
	}

	imgStore, err := images.NewStore(filepath.Join(cfg.DataDir, "images"))
	if err != nil {
		log.Fatalf("images: %v", err)
	}

	botHandler := bot.NewHandler(bot.Deps{
		Medicines: db,
		AI:        ai,
		Pharmacy:  maps.NewClient(cfg.MapsAPIKey),
		Media:     media,
		Images:    imgStore,
		Replier:   replier,
	}, cfg.BaseURL)

	// Periodic cleanup of uploaded images and stale reply-token entries
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if n := imgStore.Sweep(1 * time.Hour); n > 0 {
				log.Printf("images: swept %d stale files", n)
			}
			botHandler.Cleanup(1 * time.Hour)
		}
	}()

	webhookHandler := line.NewWebhookHandler(cfg.ChannelSecret, botHandler.HandleEvent)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Line Webhook Server"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/callback", webhookHandler.HandleCallback)
	r.Get("/images/{filename}", imgStore.ServeFile)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("druguse: listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("druguse: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("druguse: stopped")
}

// provisionStore refreshes the medicine dataset from Google Drive when
// credentials are configured. A failed download is fatal only when the
// store has no data to fall back on.
func provisionStore(db *store.MedicineStore, cfg *config.Config) {
	err := provision.EnsureMedicineData(context.Background(), db, cfg.DriveCredentialsJSON, cfg.DriveFileID)
	if err == nil {
		return
	}
	if errors.Is(err, provision.ErrNotConfigured) {
		log.Println("provision: drive credentials not set, skipping download")
		return
	}

	n, countErr := db.Count()
	if countErr != nil || n == 0 {
		log.Fatalf("provision: %v (and no local dataset available)", err)
	}
	log.Printf("provision: %v (keeping %d existing records)", err, n)
}

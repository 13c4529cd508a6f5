package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/config"
	"github.com/manoela-fs/blog/content"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/likes"
	"github.com/manoela-fs/blog/site"
	"github.com/manoela-fs/blog/storage"
	"github.com/manoela-fs/blog/translation"
	"github.com/manoela-fs/blog/users"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close(db)

	files := storage.NewFileStore(cfg.Uploads.Dir)
	translator := translation.NewClient(translation.ClientOptions{
		BaseURL:       cfg.Translate.URL,
		APIKey:        cfg.Translate.APIKey,
		Timeout:       cfg.Translate.Timeout,
		RatePerSecond: cfg.Translate.RatePerSecond,
	})
	worker := translation.NewWorker(db, translator, translation.WorkerOptions{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		MaxAttempts:  cfg.Worker.MaxAttempts,
		RetryBackoff: cfg.Worker.RetryBackoff,
	})

	cat := catalog.New(db)
	ledger := likes.New(db)
	server := &site.Server{
		Users:          users.New(db, files),
		Posts:          content.New(db, files, cat, ledger, translation.NewQueue(), worker),
		Catalog:        cat,
		Likes:          ledger,
		Files:          files,
		Sessions:       site.NewSessionStore(cfg.Session.Secret, cfg.Session.Secure),
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		SecureCookies:  cfg.Session.Secure,
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           initRouter(server, cfg.HTTP.RateLimitPerMinute),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Running on %s (listening on %s)", cfg.PublicURL, cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		// Block until a signal is received
		<-ctx.Done()
		log.Println("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
}

func initRouter(server *site.Server, requestsPerMinute int) *chi.Mux {

	r := chi.NewRouter()

	CORSMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}

	r.Use(CORSMiddleware.Handler)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute)) // general rate limiter for all routes (shared across all routes)
	r.Use(middleware.Recoverer)

	server.Routes(r)

	return r
}

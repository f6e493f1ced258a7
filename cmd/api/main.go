package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"captureplan/api/internal/app"
	"captureplan/api/internal/authpw"
	"captureplan/api/internal/config"
	"captureplan/api/internal/email"
	"captureplan/api/internal/export"
	"captureplan/api/internal/search"
	"captureplan/api/internal/session"
	"captureplan/api/internal/store"
)

// exportStore adapts the Postgres store to the export service's view of the data.
type exportStore struct {
	store *store.PostgresStore
}

func (e *exportStore) GetOrganizationName(ctx context.Context, id string) (string, error) {
	org, err := e.store.GetOrganization(ctx, id)
	if err != nil {
		return "", err
	}
	return org.Name, nil
}

func (e *exportStore) ListOutlineRows(ctx context.Context, organizationID string) ([]export.OutlineRow, error) {
	outlines, err := e.store.ListOutlines(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	rows := make([]export.OutlineRow, 0, len(outlines))
	for _, o := range outlines {
		rows = append(rows, export.OutlineRow{
			Header:      o.Header,
			SectionType: o.SectionType,
			Status:      o.Status,
			Target:      o.Target,
			Limit:       o.Limit,
			Reviewer:    o.Reviewer,
		})
	}
	return rows, nil
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
		go searchService.ReindexAllFromPG(ctx)
	}

	var sessions app.SessionStore = dataStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Printf("Using PostgreSQL for session storage")
	}

	emailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if !emailService.IsConfigured() {
		log.Printf("SMTP not configured, verification and invitation links will be logged")
	}

	authService := authpw.NewService(dataStore)
	exportService := export.NewService(&exportStore{store: dataStore})

	service := app.New(cfg, dataStore, sessions, authService, emailService, searchService, exportService)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CapturePlan API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

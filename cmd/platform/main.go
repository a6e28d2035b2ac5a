package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rtwworks/platform/internal/adapters/payroll"
	payrollmssql "github.com/rtwworks/platform/internal/adapters/payroll/mssql"
	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/directory"
	"github.com/rtwworks/platform/internal/engine"
	"github.com/rtwworks/platform/internal/shared/auth"
	"github.com/rtwworks/platform/internal/shared/config"
	"github.com/rtwworks/platform/internal/shared/database"
	"github.com/rtwworks/platform/internal/shared/events"
	"github.com/rtwworks/platform/internal/shared/metrics"
	secmiddleware "github.com/rtwworks/platform/internal/shared/middleware"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
	Syncer *payroll.Syncer
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	// Initialize database (optional - skip if not available)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Printf("Warning: Database not available: %v\n", err)
		fmt.Println("Running in limited mode without database...")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	// Initialize event bus (optional - skip if not available)
	bus, err := events.NewBus(ctx, cfg.EventStore)
	if err != nil {
		fmt.Printf("Warning: EventStore not available: %v\n", err)
		fmt.Println("Running without event streaming...")
	} else {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("EventStore bus initialized")
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.MaxBodySize(1 << 20))
	r.Use(secmiddleware.RateLimiter(100, 200))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth))

		if app.DB == nil {
			return
		}

		var busIface events.EventBus
		if app.Bus != nil {
			busIface = app.Bus
		}

		caseRepo := casefile.NewPostgresRepository(app.DB.Pool)
		caseHandler := casefile.NewHandler(caseRepo, busIface)
		r.Mount("/cases", caseHandler.Routes())

		userRepo := directory.NewPostgresRepository(app.DB.Pool)
		userHandler := directory.NewHandler(userRepo)
		r.Mount("/users", userHandler.Routes())

		// Derived alert surfaces: notifications, flags, workloads
		alertHandler := engine.NewHandler(caseRepo, userRepo)
		r.Mount("/alerts", alertHandler.Routes())

		// Payroll wage-data sync (optional)
		if cfg.Payroll.Enabled {
			adapterCfg := payrollmssql.DefaultMSSQLConfig()
			adapterCfg.Host = cfg.Payroll.Host
			adapterCfg.Port = cfg.Payroll.Port
			adapterCfg.Database = cfg.Payroll.Database
			adapterCfg.User = cfg.Payroll.User
			adapterCfg.Password = cfg.Payroll.Password
			adapterCfg.SSLMode = cfg.Payroll.SSLMode
			adapterCfg.PollInterval = cfg.Payroll.PollInterval

			adapter, err := payrollmssql.New(adapterCfg)
			if err != nil {
				fmt.Printf("Warning: Payroll adapter initialization failed: %v\n", err)
			} else {
				app.Syncer = payroll.NewSyncer(adapter, caseRepo, busIface)
				if err := app.Syncer.Run(ctx); err != nil {
					fmt.Printf("Warning: Payroll sync failed to start: %v\n", err)
					app.Syncer = nil
				} else {
					fmt.Println("Payroll wage sync started")
				}
			}
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if app.Syncer != nil {
			if err := app.Syncer.Stop(ctx); err != nil {
				fmt.Printf("Payroll sync shutdown error: %v\n", err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("RTW Works Case Management Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:    %s\n", cfg.Server.Env)
	fmt.Printf("Server:         http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:            http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:         http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("EventStore:     %s:%d\n", cfg.EventStore.Host, cfg.EventStore.Port)
	fmt.Printf("Payroll sync:   %v\n", cfg.Payroll.Enabled)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "RTW Works Case Management Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

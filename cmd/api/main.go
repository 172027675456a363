// cmd/api/main.go
// Main entry point for the application
// Bootstraps all components and starts the server

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberly-app/emberly-backend/internal/auth"
	"github.com/emberly-app/emberly-backend/internal/common/database"
	"github.com/emberly-app/emberly-backend/internal/config"
	"github.com/emberly-app/emberly-backend/internal/discover"
	"github.com/emberly-app/emberly-backend/internal/events"
	"github.com/emberly-app/emberly-backend/internal/matches"
	"github.com/emberly-app/emberly-backend/internal/monetize"
	"github.com/emberly-app/emberly-backend/internal/preferences"
	"github.com/emberly-app/emberly-backend/internal/realtime"
	"github.com/emberly-app/emberly-backend/internal/swipes"
	"github.com/emberly-app/emberly-backend/internal/users"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🔥 Starting Emberly Dating API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load and validate configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed:", err)
	}
	log.Println("✅ Configuration loaded and valid")

	// 3. Connect to PostgreSQL
	log.Println("\n🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL:", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 4. Connect to Redis (optional)
	log.Println("\n📮 Step 4: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis successfully")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, skipping Redis connection")
	}

	// 5. Run database migrations
	log.Println("\n🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	// 6. Start the event bus and realtime hub
	log.Println("\n📡 Step 6: Starting event bus and realtime hub...")
	bus := events.NewBus()
	hub := realtime.NewHub()
	go hub.Run()
	log.Println("✅ Event bus and realtime hub started")

	// 7. Initialize repositories
	log.Println("\n🗂️  Step 7: Initializing repositories...")
	userRepo := users.NewPostgresRepository(db)
	prefRepo := preferences.NewPostgresRepository(db)
	matchRepo := matches.NewPostgresRepository(db)
	swipeRepo := swipes.NewPostgresRepository(db)
	boostRepo := monetize.NewPostgresBoostRepository(db)
	superLikeRepo := monetize.NewPostgresSuperLikeRepository(db)
	creditRepo := monetize.NewPostgresCreditRepository(db)
	queueStore := discover.NewPostgresQueueStore(db)
	log.Println("✅ Repositories initialized")

	// 8. Initialize the discovery engine
	log.Println("\n🧭 Step 8: Initializing discovery engine...")
	engine := discover.NewEngine(
		userRepo, prefRepo, matchRepo, swipeRepo,
		boostRepo, superLikeRepo, queueStore,
		cfg.DeckTargetSize, cfg.SuperLikeQueryLimit,
	)
	discoverHandler := discover.NewHandler(engine)
	log.Println("✅ Discovery engine initialized")

	// 9. Initialize services and handlers
	log.Println("\n⚙️  Step 9: Initializing services...")

	authService := auth.NewService(userRepo, &auth.Config{
		JWTSecret:         cfg.JWTSecret,
		BCryptCost:        cfg.BCryptCost,
		AccessTokenExpiry: cfg.AccessTokenExpiry,
	})
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(authService)

	prefService := preferences.NewService(prefRepo, engine, bus, hub)
	prefHandler := preferences.NewHandler(prefService)

	userService := users.NewService(userRepo, prefService, bus)
	userHandler := users.NewHandler(userService)

	matchService := matches.NewService(matchRepo)
	matchHandler := matches.NewHandler(matchService)

	swipeService := swipes.NewService(swipeRepo, matchRepo, engine, userService, hub, redisClient)
	swipeHandler := swipes.NewHandler(swipeService)

	monetizeService := monetize.NewService(
		boostRepo, superLikeRepo, creditRepo, userRepo,
		swipeService, queueStore, hub,
		time.Duration(cfg.BoostDurationMinutes)*time.Minute,
	)
	monetizeHandler := monetize.NewHandler(monetizeService)

	log.Println("✅ Services initialized")

	// 10. Wire queue invalidation to profile changes
	log.Println("\n🔗 Step 10: Wiring queue invalidation...")
	bus.Subscribe(events.TopicPreferencesUpdated, func(payload interface{}) {
		if evt, ok := payload.(events.PreferencesUpdated); ok {
			if err := engine.ClearForUser(context.Background(), evt.UserID); err != nil {
				log.Printf("⚠️  Queue invalidation failed for user %d: %v", evt.UserID, err)
			}
		}
	})
	bus.Subscribe(events.TopicLocationUpdated, func(payload interface{}) {
		if evt, ok := payload.(events.LocationUpdated); ok {
			if err := engine.ClearForUser(context.Background(), evt.UserID); err != nil {
				log.Printf("⚠️  Queue invalidation failed for user %d: %v", evt.UserID, err)
			}
		}
	})
	log.Println("✅ Queue invalidation wired")

	// 11. Setup routes
	log.Println("\n🛣️  Step 11: Setting up routes...")
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	authHandler.RegisterRoutes(router)
	users.RegisterRoutes(router, userHandler, authMiddleware.Authenticate)
	preferences.RegisterRoutes(router, prefHandler, authMiddleware)
	matches.RegisterRoutes(router, matchHandler, authMiddleware)
	swipes.RegisterRoutes(router, swipeHandler, authMiddleware)
	monetize.RegisterRoutes(router, monetizeHandler, authMiddleware)
	discover.RegisterRoutes(router, discoverHandler, authMiddleware)

	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("", hub.ServeWS)

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	log.Println("✅ Routes registered")

	// 12. Start background sweeps
	go startCreditCleanup(creditRepo)

	// 13. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("\n========================================")
		log.Printf("🔥 Server starting on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited gracefully")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.RequestURI, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// startCreditCleanup periodically deletes expired resource credits
func startCreditCleanup(credits monetize.CreditRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := credits.CleanupExpired(context.Background()); err != nil {
			log.Printf("⚠️  Credit cleanup failed: %v", err)
		}
	}
}

// runMigrations creates the schema if it does not exist yet
func runMigrations(db *sqlx.DB) error {
	log.Println("   - Creating/updating tables...")

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			gender VARCHAR(20),
			bio TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			subscription_tier VARCHAR(20) NOT NULL DEFAULT 'free',
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS profile_preferences (
			user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			min_age INTEGER NOT NULL DEFAULT 18,
			max_age INTEGER NOT NULL DEFAULT 100,
			distance INTEGER NOT NULL DEFAULT 100,
			gender_preference VARCHAR(20) NOT NULL DEFAULT 'any',
			interests JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS swipes (
			id BIGSERIAL PRIMARY KEY,
			swiper_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			direction VARCHAR(10) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (swiper_id, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS rejections (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			undone_at TIMESTAMPTZ,
			UNIQUE (user_id, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			user_a_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user_b_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			celebration_shown_to_a BOOLEAN NOT NULL DEFAULT FALSE,
			celebration_shown_to_b BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_a_id, user_b_id),
			CHECK (user_a_id < user_b_id)
		)`,

		`CREATE TABLE IF NOT EXISTS super_likes (
			id BIGSERIAL PRIMARY KEY,
			sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS boosts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS resource_credits (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(50) NOT NULL,
			amount INTEGER NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_queue (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			target_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'queued',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			consumed_at TIMESTAMPTZ,
			UNIQUE (user_id, target_id)
		)`,

		`CREATE TABLE IF NOT EXISTS soft_deleted_users (
			id BIGSERIAL PRIMARY KEY,
			source_user_id BIGINT NOT NULL,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(100) NOT NULL,
			gender VARCHAR(20),
			bio TEXT NOT NULL DEFAULT '',
			preferences JSONB,
			subscription_tier VARCHAR(20) NOT NULL DEFAULT 'free',
			deleted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_swipes_target ON swipes(target_id, direction)`,
		`CREATE INDEX IF NOT EXISTS idx_queue_user_status ON recommendation_queue(user_id, status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_boosts_active ON boosts(is_active, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_super_likes_receiver ON super_likes(receiver_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Package main is the entry point for the Blue Sky social API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/internal/events"
	"github.com/blueskyapp/social-api/internal/handlers"
	"github.com/blueskyapp/social-api/internal/middleware"
	"github.com/blueskyapp/social-api/internal/repositories"
	"github.com/blueskyapp/social-api/internal/services"
	"github.com/blueskyapp/social-api/internal/stores"
	"github.com/blueskyapp/social-api/internal/utils"
	"github.com/blueskyapp/social-api/pkg/kafka"
	"github.com/blueskyapp/social-api/pkg/mongodb"
	"github.com/blueskyapp/social-api/pkg/smtp"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"
)

func main() {
	// Load environment variables (ignore error in dev)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// MongoDB
	db, err := mongodb.NewClient(mongodb.Config{
		URI:         cfg.MongoDB.URI,
		Database:    cfg.MongoDB.Database,
		MaxPoolSize: cfg.MongoDB.MaxPoolSize,
		MinPoolSize: cfg.MongoDB.MinPoolSize,
		MaxRetries:  cfg.MongoDB.MaxRetries,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to create indexes: %v", err)
		}
		cancel()
	}

	// Kafka is optional: without a producer the publisher only logs events.
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Printf("Kafka producer unavailable, events will be log-only: %v", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}
	publisher := events.NewPublisher(producer, cfg.Kafka.Topics)

	// SMTP
	smtpClient, err := smtp.NewClient(cfg.SMTP)
	if err != nil {
		log.Fatalf("Failed to initialize SMTP client: %v", err)
	}

	// JWT
	jwtService, err := utils.NewJWTService(cfg.JWT)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	log.Println("JWT service initialized")

	// Challenge store: Redis when configured, in-process otherwise.
	var challengeStore stores.ChallengeStore
	if cfg.Reset.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Reset.RedisAddr,
			Password: cfg.Reset.RedisPassword,
		})
		challengeStore = stores.NewRedisChallengeStore(redisClient, cfg.Reset.CodeTTL)
		log.Printf("Using Redis challenge store at %s", cfg.Reset.RedisAddr)
	} else {
		challengeStore = stores.NewMemoryChallengeStore(cfg.Reset.CodeTTL)
		log.Println("Using in-memory challenge store")
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, jwtService, publisher)
	resetService := services.NewResetService(userRepo, challengeStore, smtpClient, publisher, cfg.Reset)
	userService := services.NewUserService(userRepo, notificationRepo, publisher)
	postService := services.NewPostService(postRepo, userRepo, notificationRepo, publisher)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)

	// Handlers
	secureCookie := cfg.Server.Environment == "production"
	authHandler := handlers.NewAuthHandler(authService, resetService, secureCookie)
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Version)

	// Router
	router := mux.NewRouter()
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Endpoint not found"}}`))
	})

	router.HandleFunc("/health", healthHandler.GetOverallHealth).Methods("GET", "OPTIONS")

	// Swagger UI endpoint - API documentation
	router.PathPrefix("/swagger").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:"+cfg.Server.Port+"/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	authMiddleware := middleware.JWTAuth(jwtService)

	// Public auth routes
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	auth.HandleFunc("/refresh", authHandler.Refresh).Methods("POST", "OPTIONS")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST", "OPTIONS")

	// Reset endpoints sit behind a per-IP limiter; the service also limits
	// issuance per email.
	reset := api.PathPrefix("/auth").Subrouter()
	reset.Use(middleware.RateLimit(rate.Every(6*time.Second), 10))
	reset.HandleFunc("/forgot-password", authHandler.ForgotPassword).Methods("POST", "OPTIONS")
	reset.HandleFunc("/verify-otp", authHandler.VerifyOTP).Methods("POST", "OPTIONS")
	reset.HandleFunc("/reset-password", authHandler.ResetPassword).Methods("POST", "OPTIONS")

	authed := api.NewRoute().Subrouter()
	authed.Use(authMiddleware)
	authed.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")

	// Users
	authed.HandleFunc("/users/profile/{username}", userHandler.Profile).Methods("GET", "OPTIONS")
	authed.HandleFunc("/users/suggested", userHandler.Suggested).Methods("GET", "OPTIONS")
	authed.HandleFunc("/users/search", userHandler.Search).Methods("GET", "OPTIONS")
	authed.HandleFunc("/users/follow/{id}", userHandler.Follow).Methods("POST", "OPTIONS")
	authed.HandleFunc("/users/update", userHandler.Update).Methods("POST", "OPTIONS")

	// Posts
	authed.HandleFunc("/posts/all", postHandler.All).Methods("GET", "OPTIONS")
	authed.HandleFunc("/posts/following", postHandler.Following).Methods("GET", "OPTIONS")
	authed.HandleFunc("/posts/user/{username}", postHandler.UserPosts).Methods("GET", "OPTIONS")
	authed.HandleFunc("/posts/likes/{id}", postHandler.LikedPosts).Methods("GET", "OPTIONS")
	authed.HandleFunc("/posts/saved", postHandler.SavedPosts).Methods("GET", "OPTIONS")
	authed.HandleFunc("/posts/create", postHandler.Create).Methods("POST", "OPTIONS")
	authed.HandleFunc("/posts/like/{id}", postHandler.Like).Methods("POST", "OPTIONS")
	authed.HandleFunc("/posts/repost/{id}", postHandler.Repost).Methods("POST", "OPTIONS")
	authed.HandleFunc("/posts/save/{id}", postHandler.Save).Methods("POST", "OPTIONS")
	authed.HandleFunc("/posts/comment/{id}", postHandler.Comment).Methods("POST", "OPTIONS")
	authed.HandleFunc("/posts/{id}", postHandler.Delete).Methods("DELETE", "OPTIONS")

	// Notifications
	authed.HandleFunc("/notifications", notificationHandler.List).Methods("GET", "OPTIONS")
	authed.HandleFunc("/notifications", notificationHandler.DeleteAll).Methods("DELETE", "OPTIONS")

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// corsMiddleware adds CORS headers for the configured origins.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				originAllowed := false
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						originAllowed = true
						break
					}
				}

				if !originAllowed {
					http.Error(w, "Origin not allowed", http.StatusForbidden)
					return
				}

				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

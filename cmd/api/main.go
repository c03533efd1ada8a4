package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"authhub/internal/config"
	"authhub/internal/database"
	"authhub/internal/domain"
	"authhub/internal/mailer"
	"authhub/internal/middleware"
	"authhub/internal/modules/admin"
	"authhub/internal/modules/auth"
	jwtsvc "authhub/internal/pkg/jwt"
	"authhub/internal/repository"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.Principal{},
		&domain.Session{},
		&domain.VerificationToken{},
	); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	principalRepo := repository.NewPrincipalRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	verificationRepo := repository.NewVerificationTokenRepository(db)

	jwtService := jwtsvc.New(cfg.JWTSecret, cfg.AccessTTL)

	var m mailer.Mailer
	if cfg.AMQPURL != "" {
		m = mailer.NewAMQPMailer(cfg.AMQPURL)
	} else {
		m = mailer.NewDevConsoleMailer(cfg.AppEnv == "dev")
	}

	authService := auth.NewService(
		principalRepo,
		sessionRepo,
		verificationRepo,
		jwtService,
		m,
		cfg.TokenPepper,
		auth.Policy{
			RefreshTTL:           cfg.RefreshTTL,
			RememberMeRefreshTTL: cfg.RememberMeRefreshTTL,
			ResetTokenTTL:        cfg.ResetTokenTTL,
			VerifyTokenTTL:       cfg.VerifyTokenTTL,
			ResendCooldown:       cfg.ResendCooldown,
			LockoutThreshold:     cfg.LockoutThreshold,
			LockoutWindow:        cfg.LockoutWindow,
		},
	)
	authHandler := auth.NewHandler(authService)

	adminService := admin.NewService(principalRepo, sessionRepo)
	adminHandler := admin.NewHandler(adminService)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("/")
		public.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(), rdb))
		{
			authHandler.RegisterPublicRoutes(public)
		}

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			{
				adminHandler.RegisterRoutes(adminGroup)
			}
		}
	}

	log.Printf("authhub listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

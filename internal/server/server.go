package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "personafit/docs" // Сгенерированная OpenAPI спецификация
	"personafit/internal/config"
	"personafit/internal/database"
	authhandler "personafit/internal/handler/auth"
	"personafit/internal/handler/health"
	"personafit/internal/handler/middleware"
	userhandler "personafit/internal/handler/user"
	workouthandler "personafit/internal/handler/workout"
	"personafit/internal/mailer"
	pgrepo "personafit/internal/repository/postgres"
	authuc "personafit/internal/usecase/auth"
	credstore "personafit/internal/usecase/credential"
	goaluc "personafit/internal/usecase/fitnessgoal"
	useruc "personafit/internal/usecase/user"
	workoutuc "personafit/internal/usecase/workoutlog"
	"personafit/pkg/clock"
	jwtsvc "personafit/pkg/jwt"
	"personafit/pkg/lockout"
	"personafit/pkg/logger"
)

// Server представляет HTTP сервер приложения
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *database.DB
	cfg        *config.Config

	jwtService     jwtsvc.Service
	authHandler    *authhandler.Handler
	userHandler    *userhandler.Handler
	workoutHandler *workouthandler.Handler
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config, db *database.DB) *Server {
	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
	}

	// Инициализируем зависимости доменов один раз
	gormDB := db.DB
	clk := clock.Real()
	appLogger := logger.Default()

	userRepo := pgrepo.NewUserRepository(gormDB)
	verifRepo := pgrepo.NewEmailVerificationRepository(gormDB)
	workoutRepo := pgrepo.NewWorkoutLogRepository(gormDB)
	goalRepo := pgrepo.NewFitnessGoalRepository(gormDB)

	creds := credstore.NewStore(userRepo, clk, cfg.Security.MinPasswordEntropy)
	s.jwtService = jwtsvc.NewService(&cfg.JWT)
	emailSender := mailer.NewSMTPSender(&cfg.Email, appLogger)

	authService := authuc.NewService(authuc.Config{
		Users:       userRepo,
		EmailVerifs: verifRepo,
		Creds:       creds,
		Policy: lockout.Policy{
			MaxAttempts: cfg.Security.MaxLoginAttempts,
			Window:      cfg.Security.LockoutWindow,
		},
		JWT:             s.jwtService,
		EmailSender:     emailSender,
		Clock:           clk,
		Logger:          appLogger,
		ResetTTL:        cfg.Security.ResetTokenTTL,
		VerificationTTL: cfg.Security.VerificationTTL,
		MaxCodeAttempts: cfg.Security.VerificationMaxAttempts,
		MinEntropy:      cfg.Security.MinPasswordEntropy,
	})
	userService := useruc.NewService(userRepo, clk)
	workoutService := workoutuc.NewService(workoutRepo, userRepo, clk, cfg.Workout.AllowNegativeWeightLost)
	goalService := goaluc.NewService(goalRepo, userRepo, clk)

	s.authHandler = authhandler.NewHandler(authService)
	s.userHandler = userhandler.NewHandler(userService)
	s.workoutHandler = workouthandler.NewHandler(workoutService, goalService)

	// Настраиваем middleware и роуты
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware настраивает middleware для роутера
func (s *Server) setupMiddleware() {
	// Recovery middleware - должен быть первым для перехвата паник
	s.router.Use(middleware.Recovery())

	// Logger middleware - логирование всех запросов
	s.router.Use(middleware.LoggerStructured())

	// CORS middleware - настройка CORS
	s.router.Use(middleware.CORS(&s.cfg.CORS))
}

// setupRoutes настраивает маршруты приложения
func (s *Server) setupRoutes() {
	s.setupHealthRoutes()
	s.setupAuthRoutes()
	s.setupUserRoutes()
	s.setupWorkoutRoutes()
	s.setupSwaggerRoutes()
}

// setupHealthRoutes настраивает health-check эндпоинты.
func (s *Server) setupHealthRoutes() {
	healthHandler := health.NewHandler(s.db, s.cfg.AppEnv)
	// GET /health — базовый health-check сервера (жив ли процесс).
	s.router.GET("/health", healthHandler.Health)
	// GET /health/db — проверка доступности базы данных.
	s.router.GET("/health/db", healthHandler.HealthDB)
}

// setupAuthRoutes настраивает эндпоинты аутентификации и корневой роут API.
func (s *Server) setupAuthRoutes() {
	v1 := s.router.Group("/api/v1")

	// GET /api/v1/ — корневой эндпоинт API v1, возвращает версию и базовую информацию.
	v1.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "PersonaFit API v1",
			"version": "1.0.0",
		})
	})

	authGroup := v1.Group("/auth")
	{
		// POST /api/v1/auth/register — регистрация нового пользователя по email/паролю/username.
		authGroup.POST("/register", s.authHandler.Register)
		// POST /api/v1/auth/verify-email — подтверждение email кодом из письма.
		authGroup.POST("/verify-email", s.authHandler.VerifyEmail)
		// POST /api/v1/auth/resend-code — повторная отправка кода подтверждения email.
		authGroup.POST("/resend-code", s.authHandler.ResendCode)
		// POST /api/v1/auth/login — аутентификация по email-или-username/паролю.
		authGroup.POST("/login", s.authHandler.Login)
		// POST /api/v1/auth/refresh — обновление пары access/refresh токенов по refresh-токену.
		authGroup.POST("/refresh", s.authHandler.Refresh)
		// POST /api/v1/auth/password-reset — запрос токена сброса пароля на email.
		authGroup.POST("/password-reset", s.authHandler.RequestReset)
		// POST /api/v1/auth/password-reset/confirm — установка нового пароля по токену сброса.
		authGroup.POST("/password-reset/confirm", s.authHandler.ConfirmReset)
	}
}

// setupUserRoutes настраивает защищённые эндпоинты пользователя.
func (s *Server) setupUserRoutes() {
	v1 := s.router.Group("/api/v1")

	userGroup := v1.Group("/users")
	userGroup.Use(middleware.Auth(s.jwtService))
	{
		// GET /api/v1/users/me — получить профиль текущего аутентифицированного пользователя.
		userGroup.GET("/me", s.userHandler.GetMe)
		// PATCH /api/v1/users/me — частично обновить профиль текущего пользователя.
		userGroup.PATCH("/me", s.userHandler.UpdateMe)
		// DELETE /api/v1/users/me — мягко удалить аккаунт текущего пользователя.
		userGroup.DELETE("/me", s.userHandler.DeleteMe)

		// Административные эндпоинты: доступны только admin и moderator.
		adminOnly := middleware.RequireRole("admin", "moderator")
		// GET /api/v1/users — список всех неудалённых пользователей.
		userGroup.GET("", adminOnly, s.userHandler.List)
		// PUT /api/v1/users/:id/status — модерация статуса аккаунта.
		userGroup.PUT("/:id/status", adminOnly, s.userHandler.SetStatus)
	}
}

// setupWorkoutRoutes настраивает защищённые эндпоинты журнала тренировок.
func (s *Server) setupWorkoutRoutes() {
	v1 := s.router.Group("/api/v1")

	workoutGroup := v1.Group("/workouts")
	workoutGroup.Use(middleware.Auth(s.jwtService))
	{
		// POST /api/v1/workouts/logs — добавить запись журнала тренировок.
		workoutGroup.POST("/logs", s.workoutHandler.Create)
		// GET /api/v1/workouts/logs — записи журнала за диапазон дат.
		workoutGroup.GET("/logs", s.workoutHandler.List)
		// PATCH /api/v1/workouts/logs/:id — частично обновить запись журнала.
		workoutGroup.PATCH("/logs/:id", s.workoutHandler.Update)
		// GET /api/v1/workouts/progress — агрегированные метрики за диапазон дат.
		workoutGroup.GET("/progress", s.workoutHandler.Progress)

		// GET /api/v1/workouts/fitness-goal — фитнес-цель текущего пользователя.
		workoutGroup.GET("/fitness-goal", s.workoutHandler.GetGoal)
		// POST /api/v1/workouts/fitness-goal — установка цели (создание или перезапись).
		workoutGroup.POST("/fitness-goal", s.workoutHandler.SetGoal)
		// PATCH /api/v1/workouts/fitness-goal — частичное обновление цели.
		workoutGroup.PATCH("/fitness-goal", s.workoutHandler.UpdateGoal)
	}
}

// setupSwaggerRoutes публикует OpenAPI документацию.
// В production документация не публикуется.
func (s *Server) setupSwaggerRoutes() {
	if s.cfg.AppEnv == "production" {
		return
	}
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Start запускает HTTP сервер с graceful shutdown
func (s *Server) Start() error {
	address := s.cfg.Server.Address()

	s.httpServer = &http.Server{
		Addr:           address,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Канал для получения сигналов ОС
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Канал для ошибок запуска сервера
	serverErr := make(chan error, 1)

	// Запускаем сервер в отдельной горутине
	go func() {
		log.Printf("HTTP сервер запущен на %s", address)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("ошибка запуска HTTP сервера: %w", err)
		}
	}()

	// Ожидаем либо сигнал для graceful shutdown, либо ошибку запуска
	select {
	case err := <-serverErr:
		// Если сервер не смог запуститься, пытаемся корректно остановить
		log.Printf("Ошибка запуска сервера: %v", err)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
		return err
	case sig := <-quit:
		log.Printf("Получен сигнал %v для остановки сервера...", sig)
	}

	// Создаем контекст с таймаутом для graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Останавливаем сервер
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при остановке сервера: %w", err)
	}

	log.Println("HTTP сервер успешно остановлен")
	return nil
}

// GetRouter возвращает роутер (для тестирования)
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

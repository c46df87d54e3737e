// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/db"
	agentHandler "insurance-service/internal/handlers/agent"
	authHandler "insurance-service/internal/handlers/auth"
	claimHandler "insurance-service/internal/handlers/claim"
	customerHandler "insurance-service/internal/handlers/customer"
	policyHandler "insurance-service/internal/handlers/policy"
	reportHandler "insurance-service/internal/handlers/report"
	wsHandler "insurance-service/internal/handlers/websocket"
	"insurance-service/internal/middleware"
	"insurance-service/internal/pkg/jwt"
	"insurance-service/internal/pkg/session"
	"insurance-service/internal/repository/postgres"
	agentUsecase "insurance-service/internal/service/agent"
	authUsecase "insurance-service/internal/service/auth"
	claimUsecase "insurance-service/internal/service/claim"
	customerUsecase "insurance-service/internal/service/customer"
	policyUsecase "insurance-service/internal/service/policy"
	reportUsecase "insurance-service/internal/service/report"
	roleUsecase "insurance-service/internal/service/role"
	"insurance-service/internal/storage"
	"insurance-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	http   *http.Server
	pool   *pgxpool.Pool
	redis  *redis.Client
	cancel context.CancelFunc
}

func NewServer(cfg config.AppConfig) (*Server, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20

	return &Server{cfg: cfg, engine: engine, logger: logger}, nil
}

func (s *Server) Logger() *zap.Logger { return s.logger }

// Start wires every dependency and serves until Shutdown is called. It
// returns nil on a clean shutdown.
func (s *Server) Start(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	// ----- PostgreSQL -----
	if s.cfg.AutoMigrate {
		if err := db.Migrate(s.cfg.DatabaseURL, s.logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL, s.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.pool = pool

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.redis = redisClient
	s.logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Object storage -----
	store, err := s.newStore(ctx)
	if err != nil {
		return err
	}

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(dbWrapper)
	roleRepo := postgres.NewRoleRepository(dbWrapper)
	policyRepo := postgres.NewPolicyRepository(dbWrapper)
	typeRepo := postgres.NewPolicyTypeRepository(dbWrapper)
	providerRepo := postgres.NewProviderRepository(dbWrapper)
	customerRepo := postgres.NewCustomerRepository(dbWrapper)
	claimRepo := postgres.NewClaimRepository(dbWrapper)
	reportRepo := postgres.NewReportRepository(dbWrapper)

	// ----- WebSocket Hub -----
	// The hub authenticates through the auth middleware, which resolves
	// permissions through the role service, which notifies the hub.
	var authMiddleware *middleware.AuthMiddleware
	hub := websocket.NewHub(websocket.AuthenticatorFunc(func(ctx context.Context, token string) (*jwt.Claims, error) {
		return authMiddleware.Authenticate(ctx, token)
	}), s.logger)

	roleService := roleUsecase.NewRoleService(roleRepo, hub, s.cfg.CatalogCacheTTL, s.logger)
	authMiddleware = middleware.NewAuthMiddleware(jwtManager.Verifier, sessionManager, roleService, s.logger)

	go hub.Run(ctx)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(
		userRepo,
		jwtManager.Generator,
		jwtManager.Verifier,
		sessionManager,
		rateLimiter,
		roleService,
		hub,
		s.logger,
	)
	if s.cfg.SuperAdminEmail != "" && s.cfg.SuperAdminPassword != "" {
		if err := authService.EnsureAdminExists(ctx, s.cfg.SuperAdminEmail, s.cfg.SuperAdminPassword, s.cfg.SuperAdminName); err != nil {
			return fmt.Errorf("failed to bootstrap administrator: %w", err)
		}
	}

	agentService := agentUsecase.NewAgentService(userRepo, sessionManager, hub, s.logger)
	policyService := policyUsecase.NewPolicyService(
		policyRepo,
		typeRepo,
		providerRepo,
		s.cfg.CatalogCacheSize,
		s.cfg.CatalogCacheTTL,
		s.logger,
	)
	customerService := customerUsecase.NewCustomerService(
		customerRepo,
		policyService,
		store,
		s.cfg.Uploads.KYCMaxBytes,
		s.logger,
	)
	claimService := claimUsecase.NewClaimService(
		claimRepo,
		customerRepo,
		policyRepo,
		store,
		hub,
		s.cfg.Uploads.ClaimMaxBytes,
		s.logger,
	)
	reportService := reportUsecase.NewReportService(reportRepo, s.logger)

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService, s.logger),
		AgentHandler:    agentHandler.NewAgentHandler(agentService, roleService, s.logger),
		PolicyHandler:   policyHandler.NewPolicyHandler(policyService),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService),
		ClaimHandler:    claimHandler.NewClaimHandler(claimService),
		ReportHandler:   reportHandler.NewReportHandler(reportService, s.logger),
		WSHandler:       wsHandler.NewWebSocketHandler(ctx, hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware:  authMiddleware,
	}

	// ----- Middleware -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
		middleware.MetricsMiddleware(),
	)

	// ----- Router -----
	SetupRouter(s.engine, s.logger, handlers)

	s.http = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting",
		zap.String("addr", s.cfg.HTTPAddr),
		zap.String("storage", s.cfg.Storage.Driver),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains HTTP requests, closes websocket clients and releases
// the database and redis pools.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

func (s *Server) newStore(ctx context.Context) (storage.ObjectStore, error) {
	switch s.cfg.Storage.Driver {
	case "s3":
		if s.cfg.Storage.Bucket == "" {
			return nil, errors.New("S3_BUCKET is required for the s3 storage driver")
		}
		client, err := storage.NewS3Client(ctx, s.cfg.Storage.Region, s.cfg.Storage.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to build S3 client: %w", err)
		}
		return storage.NewS3Store(client, s.cfg.Storage.Bucket), nil
	case "local", "":
		store, err := storage.NewLocalStore(s.cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open local storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.cfg.Storage.Driver)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

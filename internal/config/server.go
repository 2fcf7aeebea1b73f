package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"InterviewLo/database/sqldb"
	interviewHandler "InterviewLo/internal/api/interview/handler"
	interviewRepository "InterviewLo/internal/api/interview/repository"
	interviewService "InterviewLo/internal/api/interview/service"
	sessionHandler "InterviewLo/internal/api/session/handler"
	"InterviewLo/internal/middleware"
	"InterviewLo/internal/orchestrator"
	"InterviewLo/pkg/gemini"
	chatGPT "InterviewLo/pkg/openai"
	"InterviewLo/pkg/redis"
	"InterviewLo/pkg/s3"
	"InterviewLo/pkg/utils"
	"InterviewLo/pkg/vapi"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	geminiClient gemini.IGemini
	chatGPT      chatGPT.IChatGPT
	s3Client     s3.ItfS3
	vapiAPI      vapi.API
	settings     OrchestratorSettings
	sessions     *orchestrator.Manager
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.settings == (OrchestratorSettings{}) {
		server.settings = OrchestratorSettingsFromEnv(server.log)
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects with DB_DRIVER/DB_DSN and creates missing tables.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := sqldb.New(sqldb.ConfigFromEnv())
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		if err := sqldb.Migrate(db); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		s.db = db
		return nil
	}
}

// WithDB uses an already opened database.
func WithDB(db *sqlx.DB) ServerOption {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

// WithS3Client enables transcript archiving. Without AWS_BUCKET_NAME the
// archive is skipped.
func WithS3Client() ServerOption {
	return func(s *Server) error {
		if os.Getenv("AWS_BUCKET_NAME") == "" {
			if s.log != nil {
				s.log.Warn("AWS_BUCKET_NAME not set, transcript archiving disabled")
			}
			return nil
		}
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithOpenAIClient() ServerOption {
	return func(s *Server) error {
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for feedback scoring")
		}
		s.chatGPT = chatGPT.NewChatGPT()
		return nil
	}
}

// WithVapi configures the voice provider. Missing credentials are not fatal:
// sessions then fail to start with PROVIDER_UNAVAILABLE and the manual setup
// form remains usable.
func WithVapi() ServerOption {
	return func(s *Server) error {
		cfg := vapi.ConfigFromEnv()
		cfg.Logger = s.log

		api, err := vapi.NewAPI(cfg)
		if errors.Is(err, vapi.ErrProviderUnavailable) {
			if s.log != nil {
				s.log.Warn("VAPI_API_KEY not set, voice calls disabled")
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create voice provider client: %w", err)
		}
		s.vapiAPI = api
		return nil
	}
}

func WithOrchestratorSettings(settings OrchestratorSettings) ServerOption {
	return func(s *Server) error {
		s.settings = settings
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) newProviderClient() (vapi.Client, error) {
	if s.vapiAPI == nil {
		return nil, vapi.ErrProviderUnavailable
	}
	return vapi.NewClient(s.vapiAPI, s.log), nil
}

func (s *Server) orchestratorConfig(svc interviewService.IInterviewService) orchestrator.Config {
	cfg := orchestrator.Config{
		Log:             s.log,
		NewClient:       s.newProviderClient,
		WorkflowID:      s.settings.WorkflowID,
		Lookup:          svc,
		Generator:       svc,
		Feedback:        svc,
		Store:           svc,
		PollInterval:    s.settings.PollInterval,
		PollTimeout:     s.settings.PollTimeout,
		DispatchTimeout: s.settings.DispatchTimeout,
	}
	if s.vapiAPI != nil {
		cfg.Calls = s.vapiAPI
	}
	if s.redisServer != nil {
		cfg.Guard = s.redisServer
	}
	if s.s3Client != nil {
		cfg.Archiver = s.s3Client
	}
	return cfg
}

func (s *Server) RegisterHandler() {
	// Interview domain
	interviewRepo := interviewRepository.New(s.db, s.log)
	interviewServices := interviewService.NewInterviewService(s.log, interviewRepo, s.geminiClient, s.chatGPT, s.vapiAPI, s.utils)

	// Live sessions
	s.sessions = orchestrator.NewManager(s.orchestratorConfig(interviewServices))

	interviewHandlers := interviewHandler.New(s.log, s.validator, s.middleware, interviewServices, s.sessions)
	sessionHandlers := sessionHandler.New(s.log, s.validator, s.middleware, s.sessions, interviewServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, interviewHandlers, sessionHandlers)
}

func (s *Server) mount() {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}
}

func (s *Server) Run() error {
	s.mount()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown ends every live session before closing the listener and clients.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sessions != nil {
		s.sessions.Close()
	}

	err := s.engine.ShutdownWithContext(ctx)

	if s.geminiClient != nil {
		s.geminiClient.Close()
	}
	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.WithField("error", cerr.Error()).Warn("Failed to close redis")
		}
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.WithField("error", cerr.Error()).Warn("Failed to close database")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})

	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		status := fiber.Map{"database": "ok", "sessions": s.sessions.Len()}
		code := fiber.StatusOK

		if err := s.db.PingContext(ctx.UserContext()); err != nil {
			status["database"] = err.Error()
			code = fiber.StatusServiceUnavailable
		}
		if s.redisServer != nil {
			if err := s.redisServer.Ping(ctx.UserContext()); err != nil {
				status["redis"] = err.Error()
				code = fiber.StatusServiceUnavailable
			} else {
				status["redis"] = "ok"
			}
		}
		status["voice"] = s.vapiAPI != nil

		return ctx.Status(code).JSON(status)
	})
}

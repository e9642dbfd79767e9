// Root composition root. Owns infrastructure (DB, Redis, storage) and wires
// the chat module. This is the only place that knows about all modules.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/ai/providers/aianthropic"
	"github.com/Abraxas-365/chatstream/pkg/ai/providers/aigemini"
	"github.com/Abraxas-365/chatstream/pkg/ai/providers/aiopenai"
	"github.com/Abraxas-365/chatstream/pkg/chat"
	"github.com/Abraxas-365/chatstream/pkg/chat/chatinfra"
	"github.com/Abraxas-365/chatstream/pkg/config"
	"github.com/Abraxas-365/chatstream/pkg/fsx"
	"github.com/Abraxas-365/chatstream/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/chatstream/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/chatstream/pkg/iam/auth"
	"github.com/Abraxas-365/chatstream/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/chatstream/pkg/integrations"
	"github.com/Abraxas-365/chatstream/pkg/jobx"
	"github.com/Abraxas-365/chatstream/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/chatstream/pkg/logx"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed module handlers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB       *sqlx.DB
	Redis    *redis.Client
	Store    fsx.Store
	S3Client *s3.Client

	// Modules
	Provider       llm.Provider
	AuthMiddleware *auth.Middleware
	ChatHandler    *chat.Handler
	Worker         *jobx.Worker
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, object storage
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Config.Database.Host,
		c.Config.Database.Port,
		c.Config.Database.User,
		c.Config.Database.Password,
		c.Config.Database.Name,
		c.Config.Database.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Object storage
	c.initStorage()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initStorage() {
	switch c.Config.Storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.Store = fsxs3.NewStore(c.S3Client, c.Config.Storage.Bucket, "")
		logx.Infof("  ✅ S3 storage configured (bucket: %s, region: %s)",
			c.Config.Storage.Bucket, c.Config.Storage.AWSRegion)

	case "local":
		store, err := fsxlocal.NewStore(c.Config.Storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local storage: %v", err)
		}
		c.Store = store
		logx.Infof("  ✅ Local storage configured (path: %s)", c.Config.Storage.UploadDir)

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", c.Config.Storage.Mode)
	}
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	// Auth
	jwtService := auth.NewJWTService(
		c.Config.Auth.JWTSecret,
		c.Config.Auth.AccessTokenTTL,
		c.Config.Auth.Issuer,
	)
	keyService := auth.NewAPIKeyService(authinfra.NewPostgresKeyStore(c.DB))
	c.AuthMiddleware = auth.NewMiddleware(jwtService, keyService)
	logx.Info("  ✅ Auth module initialized")

	// Model provider
	c.Provider = c.buildProvider()
	logx.Infof("  ✅ Model provider initialized (%s)", c.Provider.Name())

	// Chat
	repo := chatinfra.NewPostgresTranscriptRepo(c.DB)
	queue := jobxredis.NewQueue(c.Redis)

	c.ChatHandler = chat.NewHandler(chat.HandlerConfig{
		Provider: c.Provider,
		Deps: integrations.Deps{
			PerplexityAPIKey: c.Config.Integrations.PerplexityAPIKey,
		},
		Repo:     repo,
		Cache:    chatinfra.NewRedisSessionCache(c.Redis),
		Queue:    queue,
		Store:    c.Store,
		Model:    c.Config.AI.Model,
		MaxSteps: c.Config.AI.MaxSteps,
	})
	logx.Info("  ✅ Chat module initialized")

	// Background worker
	c.Worker = jobx.NewWorker(queue)
	c.Worker.Register(chat.JobPersistTranscript, chat.TranscriptJobHandler(repo))
	logx.Info("  ✅ Job worker initialized")
}

func (c *Container) buildProvider() llm.Provider {
	switch c.Config.AI.Provider {
	case "gemini":
		provider, err := aigemini.NewGeminiProvider(context.Background(), os.Getenv("GEMINI_API_KEY"))
		if err != nil {
			logx.Fatalf("Failed to initialize Gemini provider: %v", err)
		}
		return provider
	case "openai":
		return aiopenai.NewOpenAIProvider(os.Getenv("OPENAI_API_KEY"))
	case "anthropic":
		return aianthropic.NewAnthropicProvider(os.Getenv("ANTHROPIC_API_KEY"))
	default:
		logx.Fatalf("Unknown AI_PROVIDER: %s (use gemini, openai or anthropic)", c.Config.AI.Provider)
		return nil
	}
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")
	go c.Worker.Run(ctx)
	logx.Info("  ✅ Job worker running")
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

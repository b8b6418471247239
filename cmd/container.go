// container.go
package main

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/wanderlust/pkg/ai/llm"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/agentx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/graphx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx"
	"github.com/Abraxas-365/wanderlust/pkg/ai/llm/memoryx/memoryxinfra"
	"github.com/Abraxas-365/wanderlust/pkg/ai/providers/mock"
	aiopenai "github.com/Abraxas-365/wanderlust/pkg/ai/providers/openai"
	"github.com/Abraxas-365/wanderlust/pkg/chat"
	"github.com/Abraxas-365/wanderlust/pkg/chat/chatapi"
	"github.com/Abraxas-365/wanderlust/pkg/chat/chatinfra"
	"github.com/Abraxas-365/wanderlust/pkg/chat/chatsrv"
	"github.com/Abraxas-365/wanderlust/pkg/config"
	"github.com/Abraxas-365/wanderlust/pkg/fsx"
	"github.com/Abraxas-365/wanderlust/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/wanderlust/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/wanderlust/pkg/logx"
	"github.com/Abraxas-365/wanderlust/pkg/travel"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client
	SQLite     *memoryxinfra.SQLiteSaver

	// Agent
	Model llm.LLM
	Saver memoryx.Saver
	Graph *graphx.Graph

	// Chat
	SessionStore chat.SessionStore
	TokenService chat.TokenService
	ChatService  *chatsrv.ChatService
	ChatHandlers *chatapi.ChatHandlers

	// Background Services
	CleanupService *chatinfra.CleanupService
}

// NewContainer initializes the dependency injection container
func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing dependency container...")

	c := &Container{
		Config: cfg,
	}

	c.initInfrastructure()
	c.initAgent()
	c.initChat()

	logx.Info("✅ Container initialized successfully")
	return c
}

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database Connection (postgres checkpoints only)
	if c.Config.Storage.UsesPostgres() {
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
		logx.Info("✅ Database connected")
	}

	// 2. Redis Connection
	if c.Config.Storage.UsesRedis() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("✅ Redis connected")
	}

	// 3. Transcript archive (Local or S3)
	c.initFileStorage()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.ArchiveMode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(cfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, storage.AWSBucket, storage.AWSPrefix)
		logx.Infof("✅ S3 transcript archive configured (bucket: %s, region: %s)", storage.AWSBucket, storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(storage.ArchiveDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("✅ Local transcript archive configured (path: %s)", localFS.GetBasePath())

	case "none":
		logx.Info("Transcript archive disabled")

	default:
		logx.Fatalf("Unknown ARCHIVE_MODE: %s (use 'none', 'local' or 's3')", storage.ArchiveMode)
	}
}

func (c *Container) initAgent() {
	logx.Info("🤖 Initializing agent...")

	llmCfg := c.Config.LLM

	// --- Model ---
	switch llmCfg.Provider {
	case config.LLMProviderMock:
		c.Model = mock.NewProvider()
		logx.Warn("⚠️  Using the mock model (offline, canned answers)")

	case config.LLMProviderOllama, config.LLMProviderOpenAI:
		apiKey := llmCfg.APIKey
		if apiKey == "" && llmCfg.Provider == config.LLMProviderOllama {
			// Ollama ignores the key but the client refuses to send an empty one
			apiKey = "ollama"
		}
		opts := []option.RequestOption{option.WithRequestTimeout(llmCfg.Timeout)}
		if llmCfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(llmCfg.BaseURL))
		}
		c.Model = aiopenai.NewOpenAIProvider(apiKey, opts...)
		logx.Infof("✅ %s model %s configured", llmCfg.Provider, llmCfg.Model)

	default:
		logx.Fatalf("Unknown LLM_PROVIDER: %s", llmCfg.Provider)
	}

	// --- Checkpoints ---
	switch c.Config.Storage.CheckpointStore {
	case "redis":
		c.Saver = memoryxinfra.NewRedisSaver(c.Redis)
		logx.Info("✅ Using Redis checkpoint store")
	case "sqlite":
		saver, err := memoryxinfra.NewSQLiteSaver(c.Config.Storage.SQLitePath)
		if err != nil {
			logx.Fatalf("Failed to open SQLite checkpoint store: %v", err)
		}
		c.SQLite = saver
		c.Saver = saver
		logx.Infof("✅ Using SQLite checkpoint store (%s)", c.Config.Storage.SQLitePath)
	case "postgres":
		saver := memoryxinfra.NewPostgresSaver(c.DB)
		if err := saver.EnsureSchema(context.Background()); err != nil {
			logx.Fatalf("Failed to prepare checkpoint table: %v", err)
		}
		c.Saver = saver
		logx.Info("✅ Using Postgres checkpoint store")
	default:
		c.Saver = memoryx.NewInMemorySaver()
		logx.Warn("⚠️  Using in-memory checkpoints (lost on restart)")
	}

	// --- Graph, compiled once and shared by every session ---
	var clientOpts []llm.Option
	if llmCfg.Model != "" {
		clientOpts = append(clientOpts, llm.WithModel(llmCfg.Model))
	}
	agent := agentx.New(
		llm.NewClient(c.Model, clientOpts...),
		travel.Tools(),
		agentx.WithSystemPrompt(c.Config.Agent.SystemPrompt),
		agentx.WithTemperature(llmCfg.Temperature),
	)

	graph, err := agent.Compile(c.Saver, c.Config.Agent.MaxSteps)
	if err != nil {
		logx.Fatalf("Failed to compile agent graph: %v", err)
	}
	c.Graph = graph

	logx.Info("✅ Agent graph compiled")
}

func (c *Container) initChat() {
	logx.Info("💬 Initializing chat services...")

	sessionCfg := c.Config.Session

	// --- Sessions ---
	if c.Config.Storage.SessionStore == "redis" {
		c.SessionStore = chatinfra.NewRedisSessionStore(c.Redis)
		logx.Info("✅ Using Redis session store")
	} else {
		c.SessionStore = chatinfra.NewInMemorySessionStore()
		logx.Warn("⚠️  Using in-memory session store (not recommended for production)")
	}

	c.TokenService = chatinfra.NewJWTTokenService(sessionCfg.Secret, sessionCfg.Issuer)

	var archiver chat.Archiver
	if c.FileSystem != nil {
		archiver = chatinfra.NewFSArchiver(c.FileSystem)
	}

	// --- Domain Services ---
	c.ChatService = chatsrv.NewChatService(
		c.SessionStore,
		c.TokenService,
		c.Graph,
		archiver,
		sessionCfg.TTL,
	)

	// --- API Handlers ---
	c.ChatHandlers = chatapi.NewChatHandlers(c.ChatService, chatapi.Options{
		Title: c.Config.Agent.Title,
		Cookie: chatapi.CookieOptions{
			Name:     sessionCfg.CookieName,
			Secure:   sessionCfg.CookieSecure,
			SameSite: sessionCfg.CookieSameSite,
		},
		TurnTimeout: c.Config.Agent.TurnTimeout,
	})

	// --- Background Services ---
	c.CleanupService = chatinfra.NewCleanupService(c.SessionStore, sessionCfg.CleanupInterval)

	logx.Info("✅ All services and handlers initialized")
}

// StartBackgroundServices starts background workers
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	go c.CleanupService.Start(ctx)
	logx.Info("✅ Session cleanup service started")
}

// Cleanup closes all connections and stops workers
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("✅ Database connection closed")
		}
	}

	if c.SQLite != nil {
		if err := c.SQLite.Close(); err != nil {
			logx.Errorf("Error closing SQLite: %v", err)
		} else {
			logx.Info("✅ SQLite checkpoint store closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}

func repeatString(s string, count int) string {
	result := ""
	for range count {
		result += s
	}
	return result
}

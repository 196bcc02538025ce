package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendella/trendella/internal/api"
	"github.com/trendella/trendella/internal/auth"
	"github.com/trendella/trendella/internal/chat"
	"github.com/trendella/trendella/internal/genai"
	"github.com/trendella/trendella/internal/history"
	"github.com/trendella/trendella/internal/lockfile"
	"github.com/trendella/trendella/internal/recommend"
	"github.com/trendella/trendella/internal/store"
	"github.com/trendella/trendella/internal/util"
	"github.com/trendella/trendella/internal/wishlist"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Trendella state data
	DefaultStateDir = "/var/lib/trendella"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "trendella.db"
)

func main() {
	// Load environment configuration
	config := loadEnvironmentConfig()

	// Initialize structured logger
	initializeLogger()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// A state-directory lock keeps two instances off the same SQLite file
	if *flags.dbDSN != "" && store.DetectDSNType(*flags.dbDSN) == store.DSNTypeSQLite {
		lock, err := lockfile.AcquireLock(*flags.stateDir)
		if err != nil {
			slog.Error("Failed to acquire state directory lock", "error", err)
			os.Exit(1)
		}
		defer lock.Release()
	}

	// Open the store backend
	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Build the recommendation client
	recClient, err := recommend.NewClient(buildRecommendOptions(flags)...)
	if err != nil {
		slog.Error("Failed to create recommendation client", "error", err)
		os.Exit(1)
	}

	// Session auto-naming is optional
	var gaClient *genai.Client
	if *flags.openaiKey != "" {
		gaClient, err = genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Error("Failed to create GenAI client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("No OpenAI API key configured, session auto-naming disabled")
	}

	historySvc := history.NewService(st)
	manager := chat.NewManager(historySvc, recClient)
	server := api.NewServer(manager, historySvc, wishlist.NewService(st),
		auth.NewJWTVerifier(*flags.jwtSecret), gaClient, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Trendella")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "",
		"recommend_url_set", *flags.recommendURL != "", "api_addr", *flags.apiAddr)
	if err := server.Run(ctx); err != nil {
		slog.Error("Trendella failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Trendella exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir     string
	DatabaseURL  string
	RecommendURL string
	OpenAIKey    string
	JWTSecret    string
	APIAddr      string
}

// Flags holds command line flag values
type Flags struct {
	stateDir     *string
	dbDSN        *string
	recommendURL *string
	openaiKey    *string
	jwtSecret    *string
	apiAddr      *string
}

// initializeLogger sets up structured logging; DEBUG=true enables debug level
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:     os.Getenv("TRENDELLA_STATE_DIR"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RecommendURL: os.Getenv("RECOMMEND_URL"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		APIAddr:      os.Getenv("API_ADDR"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TRENDELLA_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"TRENDELLA_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"RECOMMEND_URL_SET", config.RecommendURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"AUTH_JWT_SECRET_SET", config.JWTSecret != "",
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for Trendella data (overrides $TRENDELLA_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DatabaseURL, "database DSN for the session store (overrides $DATABASE_URL)"),
		recommendURL: flag.String("recommend-url", config.RecommendURL, "recommendation service endpoint (overrides $RECOMMEND_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for session auto-naming (overrides $OPENAI_API_KEY)"),
		jwtSecret:    flag.String("jwt-secret", config.JWTSecret, "HMAC secret for verifying bearer tokens (overrides $AUTH_JWT_SECRET)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"recommendURL_set", *flags.recommendURL != "",
		"openaiKeySet", *flags.openaiKey != "",
		"jwtSecretSet", *flags.jwtSecret != "",
		"apiAddr", *flags.apiAddr)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// openStore selects and opens the store backend from the DSN
func openStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == store.DSNTypePostgres {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildRecommendOptions constructs recommendation client options
func buildRecommendOptions(flags Flags) []recommend.Option {
	opts := []recommend.Option{recommend.WithTimeout(30 * time.Second)}
	if *flags.recommendURL != "" {
		opts = append(opts, recommend.WithURL(*flags.recommendURL))
	}
	return opts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

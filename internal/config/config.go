package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	LLM       LLM       `yaml:"llm"`
	Chat      Chat      `yaml:"chat"`
	Quota     Quota     `yaml:"quota"`
	Scheduler Scheduler `yaml:"scheduler"`
	Rotation  Rotation  `yaml:"rotation"`
	Bluesky   Bluesky   `yaml:"bluesky"`
	Twitter   Twitter   `yaml:"twitter"`
	Telegram  Telegram  `yaml:"telegram"`
	S3        S3        `yaml:"s3"`
}

// Server holds HTTP server configuration
type Server struct {
	Host         string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// Database holds database configuration. PostgresDSN is optional: without
// it chat history falls back to a bounded in-memory store.
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"DB_CONN_LIFETIME" env-default:"5m"`
}

// LLM holds the text generation backend configuration. Without an API key
// the service runs in FAQ-only mode: no generated posts, canned replies only.
type LLM struct {
	APIKey    string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model" env:"LLM_MODEL" env-default:"claude-sonnet-4-20250514"`
	MaxTokens int64  `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1024"`
}

// Chat holds the web chat endpoint configuration
type Chat struct {
	HistoryLimit   int           `yaml:"history_limit" env:"CHAT_HISTORY_LIMIT" env-default:"12"`
	RateWindow     time.Duration `yaml:"rate_window" env:"CHAT_RATE_WINDOW" env-default:"1m"`
	RatePerSession int           `yaml:"rate_per_session" env:"CHAT_RATE_PER_SESSION" env-default:"5"`
	RateGlobal     int           `yaml:"rate_global" env:"CHAT_RATE_GLOBAL" env-default:"60"`
}

// Quota holds the daily posting and reply ceilings
type Quota struct {
	PostsBluesky    int `yaml:"posts_bluesky" env:"QUOTA_POSTS_BLUESKY" env-default:"4"`
	PostsTwitter    int `yaml:"posts_twitter" env:"QUOTA_POSTS_TWITTER" env-default:"2"`
	PostsTelegram   int `yaml:"posts_telegram" env:"QUOTA_POSTS_TELEGRAM" env-default:"4"`
	RepliesBluesky  int `yaml:"replies_bluesky" env:"QUOTA_REPLIES_BLUESKY" env-default:"20"`
	RepliesTwitter  int `yaml:"replies_twitter" env:"QUOTA_REPLIES_TWITTER" env-default:"10"`
	RepliesTelegram int `yaml:"replies_telegram" env:"QUOTA_REPLIES_TELEGRAM" env-default:"30"`
	CombinedPosts   int `yaml:"combined_posts" env:"QUOTA_COMBINED_POSTS" env-default:"8"`
	CombinedReplies int `yaml:"combined_replies" env:"QUOTA_COMBINED_REPLIES" env-default:"50"`
}

// Scheduler holds scheduling configuration
type Scheduler struct {
	Enabled            bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	Timezone           string        `yaml:"timezone" env:"SCHEDULER_TIMEZONE" env-default:"UTC"`
	PostingEnabled     bool          `yaml:"posting_enabled" env:"POSTING_ENABLED" env-default:"true"`
	RepliesEnabled     bool          `yaml:"replies_enabled" env:"REPLIES_ENABLED" env-default:"true"`
	MorningPostTime    string        `yaml:"morning_post_time" env:"MORNING_POST_TIME" env-default:"09:30"`
	EveningSlots       []string      `yaml:"evening_slots" env:"EVENING_SLOTS" env-default:"18:00,19:30,21:00"`
	BlueskyPoll        time.Duration `yaml:"bluesky_poll" env:"BLUESKY_POLL_INTERVAL" env-default:"5m"`
	TwitterPoll        time.Duration `yaml:"twitter_poll" env:"TWITTER_POLL_INTERVAL" env-default:"15m"`
	TelegramPoll       time.Duration `yaml:"telegram_poll" env:"TELEGRAM_POLL_INTERVAL" env-default:"2m"`
	MaxRepliesPerCycle int           `yaml:"max_replies_per_cycle" env:"MAX_REPLIES_PER_CYCLE" env-default:"3"`
	Signature          string        `yaml:"signature" env:"POST_SIGNATURE" env-default:""`
	RetentionDays      int           `yaml:"retention_days" env:"RETENTION_DAYS" env-default:"7"`
}

// Retention converts the configured retention days to a duration
func (s Scheduler) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// Rotation holds content rotation configuration
type Rotation struct {
	TopicExclusion int `yaml:"topic_exclusion" env:"ROTATION_TOPIC_EXCLUSION" env-default:"5"`
	StyleExclusion int `yaml:"style_exclusion" env:"ROTATION_STYLE_EXCLUSION" env-default:"2"`
	HistoryCap     int `yaml:"history_cap" env:"ROTATION_HISTORY_CAP" env-default:"14"`
}

// Bluesky holds Bluesky (AT Protocol) credentials. Empty identifier
// disables the platform.
type Bluesky struct {
	BaseURL     string `yaml:"base_url" env:"BLUESKY_BASE_URL" env-default:"https://bsky.social"`
	Identifier  string `yaml:"identifier" env:"BLUESKY_IDENTIFIER"`
	AppPassword string `yaml:"app_password" env:"BLUESKY_APP_PASSWORD"`
}

// Twitter holds X API credentials. Empty access token disables the platform.
type Twitter struct {
	BaseURL     string `yaml:"base_url" env:"TWITTER_BASE_URL" env-default:"https://api.twitter.com"`
	AccessToken string `yaml:"access_token" env:"TWITTER_ACCESS_TOKEN"`
	UserID      string `yaml:"user_id" env:"TWITTER_USER_ID"`
}

// Telegram holds bot credentials. Empty token disables the platform.
type Telegram struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// S3 holds S3/MinIO storage configuration for the promo media library.
// Empty endpoint disables media attachments.
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET" env-default:"media"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	PublicURL       string `yaml:"public_url" env:"S3_PUBLIC_URL"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

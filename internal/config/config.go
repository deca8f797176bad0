package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 90 * time.Second

type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	UploadDir      string `yaml:"upload_dir"`
	OutputDir      string `yaml:"output_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	DefaultBatchSize  int    `yaml:"default_batch_size"`
	LLMProvider       string `yaml:"llm_provider"`
	LLMModel          string `yaml:"llm_model"`
	GeminiAPIKey      string `yaml:"gemini_api_key"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	LLMTimeoutSeconds int    `yaml:"llm_timeout_seconds"`
	RulesPromptPath   string `yaml:"rules_prompt_path"`

	DBPath                     string `yaml:"db_path"`
	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	CleanupSchedule string `yaml:"cleanup_schedule"`
	RetentionHours  int    `yaml:"retention_hours"`
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.UploadDir, "UPLOAD_DIR")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverrideInt64(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	envOverrideInt(&cfg.DefaultBatchSize, "DEFAULT_BATCH_SIZE")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	// The Gemini key historically ships as GOOGLE_API_KEY; honor both.
	envOverride(&cfg.GeminiAPIKey, "GOOGLE_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverrideInt(&cfg.LLMTimeoutSeconds, "LLM_TIMEOUT_SECONDS")
	envOverride(&cfg.RulesPromptPath, "RULES_PROMPT_PATH")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.CleanupSchedule, "CLEANUP_SCHEDULE")
	envOverrideInt(&cfg.RetentionHours, "RETENTION_HOURS")

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./outputs"
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	if cfg.DefaultBatchSize == 0 {
		cfg.DefaultBatchSize = 200
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
	if cfg.LLMTimeoutSeconds == 0 {
		cfg.LLMTimeoutSeconds = 120
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./tagsheet.db"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = "0 * * * *"
	}
	if cfg.RetentionHours == 0 {
		cfg.RetentionHours = 24
	}

	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Fatalf("gemini_api_key is required when llm_provider=gemini")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatalf("openai_api_key is required when llm_provider=openai")
		}
	default:
		log.Fatalf("llm_provider must be 'gemini', 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}
	if cfg.DefaultBatchSize < 1 {
		log.Fatalf("invalid default_batch_size '%d': must be >= 1", cfg.DefaultBatchSize)
	}
	if cfg.LLMTimeoutSeconds < 1 {
		log.Fatalf("invalid llm_timeout_seconds '%d': must be >= 1", cfg.LLMTimeoutSeconds)
	}
	if cfg.MaxUploadBytes < 1 {
		log.Fatalf("invalid max_upload_bytes '%d': must be >= 1", cfg.MaxUploadBytes)
	}
	if cfg.RetentionHours < 1 {
		log.Fatalf("invalid retention_hours '%d': must be >= 1", cfg.RetentionHours)
	}
	if cfg.RulesPromptPath != "" {
		if _, err := os.Stat(cfg.RulesPromptPath); err != nil {
			log.Fatalf("invalid rules_prompt_path '%s': %v", cfg.RulesPromptPath, err)
		}
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideInt64(field *int64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

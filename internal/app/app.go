package app

import (
	"log"
	"net/http"
	"os"
	"time"

	"tagsheet/internal/classify"
	"tagsheet/internal/cleanup"
	"tagsheet/internal/config"
	"tagsheet/internal/httpx"
	"tagsheet/internal/llm"
	"tagsheet/internal/notify"
	"tagsheet/internal/prompt"
	"tagsheet/internal/storage/sqlite"
	"tagsheet/internal/web"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Provider=%s Model=%s BatchSize=%d LLMTimeout=%ds Retention=%dh ExternalHTTPTimeout=%s",
		cfg.LLMProvider,
		cfg.LLMModel,
		cfg.DefaultBatchSize,
		cfg.LLMTimeoutSeconds,
		cfg.RetentionHours,
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	os.MkdirAll(cfg.UploadDir, 0755)
	os.MkdirAll(cfg.OutputDir, 0755)

	gen, err := llm.NewGenerator(cfg)
	if err != nil {
		log.Fatalf("Failed to init LLM provider: %v", err)
	}
	engine := classify.NewEngine(gen, cfg.DefaultBatchSize, time.Duration(cfg.LLMTimeoutSeconds)*time.Second)

	rules := prompt.DefaultRules
	if text := prompt.LoadRulesFile(cfg.RulesPromptPath); text != "" {
		rules = text
	}

	cleanup.StartRetentionSweeper(cfg)

	srv := web.NewServer(cfg, db, engine, notify.New(cfg), rules)

	log.Printf("Starting keyword classification server on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}

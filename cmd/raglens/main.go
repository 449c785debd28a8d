// File path: cmd/raglens/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/raglens/raglens/internal/api"
	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/data/orchestrator"
	"github.com/raglens/raglens/internal/llm"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("raglens: .env file not loaded", "error", err)
	} else {
		logger.Info("raglens: environment loaded from .env")
	}

	addr := flag.String("addr", ":8081", "listen address")
	catalogPath := flag.String("catalog", "", "path to the SQLite catalog database")
	indexName := flag.String("index", "", "search index name")
	schemaPath := flag.String("schema", "", "path to the index schema template")
	uploadRoot := flag.String("upload-root", "", "staging directory for uploaded documents")
	flag.Parse()

	logger.Info("raglens: startup initiated", "addr", *addr)

	orchCfg := orchestrator.LoadConfig()
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		orchCfg.SQLitePath = trimmed
	}
	if trimmed := strings.TrimSpace(*indexName); trimmed != "" {
		orchCfg.IndexName = trimmed
	}
	if trimmed := strings.TrimSpace(*schemaPath); trimmed != "" {
		orchCfg.SchemaPath = trimmed
	}

	orch, err := orchestrator.New(ctx, orchCfg)
	if err != nil {
		logger.Error("raglens: orchestrator initialization failed", "error", err)
		fmt.Println("orchestrator error:", err)
		os.Exit(1)
	}
	defer orch.Close()

	provider := llm.NewProvider()
	logger.Info("raglens: llm provider ready", "provider", provider.Name())
	if orch.Bucket() != nil {
		logger.Info("raglens: bucket configured")
	} else {
		logger.Info("raglens: bucket not configured")
	}

	cfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*uploadRoot); trimmed != "" {
		cfg.UploadRoot = trimmed
	}

	server, err := api.NewServer(orch, provider, &cfg)
	if err != nil {
		logger.Error("raglens: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("raglens: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("raglens: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("raglens: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

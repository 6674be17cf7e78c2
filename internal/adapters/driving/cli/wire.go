package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/cvescope/internal/adapters/driven/ai"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/metrics"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/nvd"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/cvescope/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
	"github.com/custodia-labs/cvescope/internal/core/services"
	"github.com/custodia-labs/cvescope/internal/logger"
)

var (
	// Set by wireServices for the MCP server.
	metricsRecorder *metrics.Recorder
	promptDir       string
	promptStore     driven.PromptStore

	closers []func()
)

// wireServices builds every adapter and service from the settings.
// LLM connectivity is only checked for commands that generate text.
func wireServices(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settings := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings.SetEnv(os.Getenv)
	settingsService = settings

	cfg, err := settings.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	dir, err := resolveDataDir(dataDir, cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	logger.Debug("data directory: %s (%s backend)", dir, cfg.Storage.Backend)

	sessions, reports, err := openRepositories(cfg.Storage.Backend, dir)
	if err != nil {
		return err
	}

	metricsRecorder = metrics.NewRecorder()

	registry := nvd.NewClient(nvd.Config{
		BaseURL:   cfg.Registry.BaseURL,
		APIKey:    cfg.Registry.APIKey,
		Timeout:   cfg.Registry.Timeout,
		UserAgent: "cvescope/" + version,
	})
	registry.SetMetrics(metricsRecorder)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompts: %w", err)
	}
	promptStore = prompts
	promptDir = prompts.Dir()

	var llm driven.LLMService
	if needsLLM(cmd) {
		result := ai.Init(&cfg.LLM)
		for _, w := range result.Warnings {
			logger.Warn("%s", w)
		}
		if result.FellBack {
			logger.Warn("reports will not include an AI analysis")
		}
		llm = result.LLMService
		closers = append(closers, result.Close)
	}

	a := services.NewAnalyzer(registry, llm)
	a.SetPromptStore(prompts)
	a.SetMetrics(metricsRecorder)
	analyzer = a

	h := services.NewHistoryService(sessions, reports)
	h.SetMetrics(metricsRecorder)
	historyService = h

	c := services.NewChatService(sessions, llm)
	c.SetPromptStore(prompts)
	c.SetMetrics(metricsRecorder)
	chatService = c

	return nil
}

// openRepositories opens the session and report stores for backend.
func openRepositories(
	backend domain.StorageBackend,
	dir string,
) (driven.SessionRepository, driven.ReportRepository, error) {
	switch backend {
	case domain.StorageBackendSQLite:
		store, err := sqlite.NewStore(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing database: %v", err)
			}
		})
		return store.SessionStore(), store.ReportStore(), nil
	case domain.StorageBackendJSON, "":
		sessions := jsonfile.NewSessionStore(dir)
		return sessions, jsonfile.NewReportStore(dir, sessions), nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, backend)
	}
}

// resolveDataDir picks the --data-dir flag, then the configured directory,
// then ~/.cvescope/data.
func resolveDataDir(flagValue, configured string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if configured != "" {
		return configured, nil
	}
	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving data directory: %w", err)
	}
	return filepath.Join(configDir, "data"), nil
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}

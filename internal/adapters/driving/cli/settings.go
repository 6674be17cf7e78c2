package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cvescope/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM provider, the vulnerability registry and
history storage.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for vulnerability analysis and chat.`,
	RunE:  runSettingsLLM,
}

var (
	registryURL    string
	registryAPIKey string
)

var settingsRegistryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Configure the vulnerability registry",
	Long: `Set the NVD endpoint and API key. Without --url the public NVD endpoint
is used. An API key raises the NVD rate limit; NVD_API_KEY overrides it.`,
	RunE: runSettingsRegistry,
}

var (
	storageBackend   string
	storageRetention int
)

var settingsStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Configure history storage",
	Long: `Select where sessions and reports are kept.

Available backends:
  json   - two JSON documents in the data directory
  sqlite - one embedded database in the data directory`,
	RunE: runSettingsStorage,
}

func init() {
	settingsRegistryCmd.Flags().StringVar(&registryURL, "url", "", "registry base URL")
	settingsRegistryCmd.Flags().StringVar(&registryAPIKey, "api-key", "", "registry API key")

	settingsStorageCmd.Flags().StringVar(&storageBackend, "backend", "", "storage backend (json, sqlite)")
	settingsStorageCmd.Flags().IntVar(&storageRetention, "retention-days", 0, "default age cut-off for prune")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsRegistryCmd)
	settingsCmd.AddCommand(settingsStorageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(out.Render(out.Title, "Current Settings"))
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(settings.LLM.APIKey))
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Registry]")
	cmd.Printf("  Base URL: %s\n", settings.Registry.BaseURL)
	cmd.Printf("  API Key: %s\n", displayKey(settings.Registry.APIKey))
	cmd.Printf("  Timeout: %s\n", settings.Registry.Timeout)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend.Description())
	dir := settings.Storage.DataDir
	if dir == "" {
		dir = "(default)"
	}
	cmd.Printf("  Data Dir: %s\n", dir)
	cmd.Printf("  Retention: %d days\n", settings.Storage.RetentionDays)

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsRegistry(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetRegistry(registryURL, registryAPIKey); err != nil {
		return fmt.Errorf("failed to configure registry: %w", err)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Printf("Registry configured: %s\n", settings.Registry.BaseURL)
	return nil
}

func runSettingsStorage(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	backend := settings.Storage.Backend
	if storageBackend != "" {
		backend = domain.StorageBackend(storageBackend)
	}
	retention := settings.Storage.RetentionDays
	if cmd.Flags().Changed("retention-days") {
		retention = storageRetention
	}

	if err := settingsService.SetStorage(backend, retention); err != nil {
		return fmt.Errorf("failed to configure storage: %w", err)
	}

	cmd.Printf("Storage configured: %s, retention %d days\n", backend.Description(), retention)
	if backend != settings.Storage.Backend {
		cmd.Println("Existing history is not migrated between backends.")
	}
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if isTerminal(os.Stdin) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

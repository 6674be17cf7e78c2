package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/cvescope/internal/core/domain"
	"github.com/custodia-labs/cvescope/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
var defaultPrompts = map[string]string{
	driven.PromptCVEAnalysis: domain.DefaultAnalysisPrompt,
	driven.PromptSystem:      domain.DefaultSystemPrompt,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.cvescope/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file is missing or empty.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = domain.ErrNotFound
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Names returns the built-in prompt names.
func (s *PromptStore) Names() []string {
	return []string{driven.PromptCVEAnalysis, driven.PromptSystem}
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# cvescope prompts

Edit these files to change how reports and chat replies are generated.

## Files

- ` + "`cve_analysis.txt`" + ` - Analysis request sent for every CVE lookup
- ` + "`system.txt`" + ` - System prompt sent before every conversation

## Placeholders

` + "`cve_analysis.txt`" + ` takes one ` + "`%s`" + ` placeholder which receives the CVE
details. Without it the details are appended to the end of the prompt.

Edits are picked up by the next command, or immediately by a running
` + "`cvescope chat`" + ` or ` + "`cvescope mcp serve`" + `.
`
	return os.WriteFile(path, []byte(content), 0600)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to coderag! Let's configure your index.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select embedding/chat provider",
		Items: []string{"ollama", "openai"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	preset := GetPreset(cfg.Provider)
	if cfg.Provider == ProviderOpenAI {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}

	storePrompt := promptui.Select{
		Label: "Select vector store",
		Items: []string{"chromem", "sqlite"},
	}
	_, storeStr, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	cfg.Store = StoreType(storeStr)

	if cfg.BaseURL, err = ask("Provider base URL", cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.EmbedModel, err = ask("Embedding model", preset.EmbedModel); err != nil {
		return nil, err
	}
	if cfg.LLMModel, err = ask("Chat model", preset.LLMModel); err != nil {
		return nil, err
	}
	if cfg.DB, err = ask("Database directory", cfg.DB); err != nil {
		return nil, err
	}

	wd, _ := os.Getwd()
	if cfg.Collection, err = ask("Collection name", Slugify(filepath.Base(wd))); err != nil {
		return nil, err
	}

	workers, err := ask("Embedding workers", strconv.Itoa(cfg.Workers))
	if err != nil {
		return nil, err
	}
	if cfg.Workers, err = strconv.Atoi(workers); err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}

	ignore, err := ask("Extra ignore patterns (comma-separated)", "")
	if err != nil {
		return nil, err
	}
	cfg.Ignore = splitAndTrim(ignore)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running coderag ingest.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func ask(label, def string) (string, error) {
	p := promptui.Prompt{Label: label, Default: def}
	v, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(v), nil
}

// splitAndTrim splits a comma-separated string and drops empty items.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

// Slugify lowercases name and replaces every run of characters outside
// [a-z0-9_] with a single dash. An empty result becomes "collection".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		default:
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "collection"
	}
	return s
}

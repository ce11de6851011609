package chat

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/social-listening/mentions-dashboard/internal/config"
	"gopkg.in/yaml.v3"
)

const defaultSystemPrompt = "You are an AI assistant specialised in social media listening and digital marketing analysis. " +
	"Answer clearly, ground every claim in the dashboard data you are given, and suggest practical next steps."

// Settings configures the assistant
type Settings struct {
	SystemPrompt string  `yaml:"system_prompt" json:"systemPrompt"`
	Model        string  `yaml:"model"         json:"model"`
	Temperature  float64 `yaml:"temperature"   json:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"    json:"maxTokens"`
	APIKey       string  `yaml:"api_key,omitempty" json:"-"`
	BaseURL      string  `yaml:"base_url,omitempty" json:"baseUrl,omitempty"`
}

// SettingsPatch carries a partial settings update; nil fields are unchanged
type SettingsPatch struct {
	SystemPrompt *string  `json:"systemPrompt,omitempty"`
	Model        *string  `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"maxTokens,omitempty"`
	APIKey       *string  `json:"apiKey,omitempty"`
}

// LoadSettings builds settings from the environment and overlays the YAML file
// named by AI_SETTINGS_FILE when it exists.
func LoadSettings(cfg *config.Config) (Settings, error) {
	settings := Settings{
		SystemPrompt: defaultSystemPrompt,
		Model:        cfg.OpenAIModel,
		Temperature:  cfg.OpenAITemperature,
		MaxTokens:    cfg.OpenAIMaxTokens,
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
	}

	if cfg.AISettingsFile == "" {
		return settings, settings.validate()
	}

	data, err := os.ReadFile(cfg.AISettingsFile)
	if errors.Is(err, os.ErrNotExist) {
		return settings, settings.validate()
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read AI settings file: %w", err)
	}

	overlay := settings
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Settings{}, fmt.Errorf("failed to parse AI settings file %s: %w", cfg.AISettingsFile, err)
	}
	if overlay.APIKey == "" {
		overlay.APIKey = settings.APIKey
	}

	return overlay, overlay.validate()
}

// SaveSettings writes settings to path as YAML. The API key is never written.
func SaveSettings(path string, settings Settings) error {
	settings.APIKey = ""
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode AI settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write AI settings file: %w", err)
	}
	return nil
}

// Apply returns a copy of s with the patch applied
func (s Settings) Apply(p SettingsPatch) (Settings, error) {
	out := s
	if p.SystemPrompt != nil {
		out.SystemPrompt = strings.TrimSpace(*p.SystemPrompt)
	}
	if p.Model != nil {
		out.Model = strings.TrimSpace(*p.Model)
	}
	if p.Temperature != nil {
		out.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		out.MaxTokens = *p.MaxTokens
	}
	if p.APIKey != nil {
		out.APIKey = strings.TrimSpace(*p.APIKey)
	}
	if err := out.validate(); err != nil {
		return s, err
	}
	return out, nil
}

func (s Settings) validate() error {
	if s.SystemPrompt == "" {
		return fmt.Errorf("%w: system prompt must not be empty", ErrInvalidSettings)
	}
	if s.Model == "" {
		return fmt.Errorf("%w: model must not be empty", ErrInvalidSettings)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2, got %v", ErrInvalidSettings, s.Temperature)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidSettings, s.MaxTokens)
	}
	return nil
}

package brain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Provider names.
const (
	OpenAI = "openai"
	Claude = "claude"
	Grok   = "grok"
	Gemini = "gemini"
	Ollama = "ollama"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultClaudeModel = "claude-sonnet-4-5-20250929"
	DefaultGrokModel   = "grok-3-fast"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOllamaModel = "llama3.2"
	DefaultOllamaHost  = "http://localhost:11434"
)

// Options override a preset. Empty fields keep the preset defaults.
type Options struct {
	APIKey   string
	Model    string
	Endpoint string
}

// Provider configurations

func OpenAIConfig(o Options) *ProviderConfig {
	return &ProviderConfig{
		Name:          OpenAI,
		Endpoint:      or(o.Endpoint, "https://api.openai.com/v1/chat/completions"),
		APIKey:        o.APIKey,
		Model:         or(o.Model, DefaultOpenAIModel),
		AuthHeader:    "Authorization",
		AuthPrefix:    "Bearer ",
		BuildBody:     buildOpenAIBody,
		ParseResponse: parseOpenAIResponse,
	}
}

func ClaudeConfig(o Options) *ProviderConfig {
	return &ProviderConfig{
		Name:       Claude,
		Endpoint:   or(o.Endpoint, "https://api.anthropic.com/v1/messages"),
		APIKey:     o.APIKey,
		Model:      or(o.Model, DefaultClaudeModel),
		AuthHeader: "x-api-key",
		ExtraHeaders: map[string]string{
			"anthropic-version": "2023-06-01",
		},
		BuildBody:     buildClaudeBody,
		ParseResponse: parseClaudeResponse,
	}
}

func GrokConfig(o Options) *ProviderConfig {
	return &ProviderConfig{
		Name:          Grok,
		Endpoint:      or(o.Endpoint, "https://api.x.ai/v1/chat/completions"),
		APIKey:        o.APIKey,
		Model:         or(o.Model, DefaultGrokModel),
		AuthHeader:    "Authorization",
		AuthPrefix:    "Bearer ",
		BuildBody:     buildOpenAIBody, // Grok uses OpenAI-compatible API
		ParseResponse: parseOpenAIResponse,
	}
}

func GeminiConfig(o Options) *ProviderConfig {
	model := or(o.Model, DefaultGeminiModel)
	return &ProviderConfig{
		Name:          Gemini,
		Endpoint:      or(o.Endpoint, "https://generativelanguage.googleapis.com/v1beta/models/"+model+":generateContent"),
		APIKey:        o.APIKey,
		Model:         model,
		AuthHeader:    "x-goog-api-key",
		BuildBody:     buildGeminiBody,
		ParseResponse: parseGeminiResponse,
	}
}

func OllamaConfig(o Options) *ProviderConfig {
	host := strings.TrimSuffix(or(o.Endpoint, DefaultOllamaHost), "/")
	return &ProviderConfig{
		Name:          Ollama,
		Endpoint:      host + "/api/chat",
		Model:         or(o.Model, DefaultOllamaModel),
		KeyOptional:   true,
		BuildBody:     buildOllamaBody,
		ParseResponse: parseOllamaResponse,
	}
}

// ConfigByName returns the preset for name.
func ConfigByName(name string, o Options) (*ProviderConfig, error) {
	switch strings.ToLower(name) {
	case OpenAI, "":
		return OpenAIConfig(o), nil
	case Claude, "anthropic":
		return ClaudeConfig(o), nil
	case Grok, "xai":
		return GrokConfig(o), nil
	case Gemini:
		return GeminiConfig(o), nil
	case Ollama:
		return OllamaConfig(o), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// NewProvider creates the named provider.
func NewProvider(name string, o Options) (*HTTPProvider, error) {
	cfg, err := ConfigByName(name, o)
	if err != nil {
		return nil, err
	}
	return NewHTTPProvider(cfg), nil
}

// Body builders

func conversation(req Request) []map[string]string {
	messages := make([]map[string]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, map[string]string{"role": m.Role, "content": m.Content})
	}
	return messages
}

func buildOpenAIBody(cfg *ProviderConfig, req Request) map[string]any {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": RoleSystem, "content": req.SystemPrompt})
	}
	messages = append(messages, conversation(req)...)

	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 2048),
		"messages":   messages,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	return body
}

func buildClaudeBody(cfg *ProviderConfig, req Request) map[string]any {
	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 2048),
		"messages":   conversation(req),
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	return body
}

func buildGeminiBody(cfg *ProviderConfig, req Request) map[string]any {
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]string{{"text": m.Content}},
		})
	}

	generation := map[string]any{
		"maxOutputTokens": maxTokensOr(req.MaxTokens, 2048),
	}
	if req.Temperature > 0 {
		generation["temperature"] = req.Temperature
	}

	body := map[string]any{
		"contents":         contents,
		"generationConfig": generation,
	}
	if req.SystemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}
	return body
}

func buildOllamaBody(cfg *ProviderConfig, req Request) map[string]any {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": RoleSystem, "content": req.SystemPrompt})
	}
	messages = append(messages, conversation(req)...)

	options := map[string]any{
		"num_predict": maxTokensOr(req.MaxTokens, 2048),
	}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	return map[string]any{
		"model":    cfg.Model,
		"messages": messages,
		"stream":   false,
		"options":  options,
	}
}

// Response parsers

func parseOpenAIResponse(body []byte) (string, string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, resp.Model, nil
	}
	return "", resp.Model, nil
}

func parseClaudeResponse(body []byte) (string, string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	var texts []string
	for _, c := range resp.Content {
		if c.Type == "text" {
			texts = append(texts, c.Text)
		}
	}
	return strings.Join(texts, "\n\n"), resp.Model, nil
}

func parseGeminiResponse(body []byte) (string, string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		ModelVersion string `json:"modelVersion"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		return resp.Candidates[0].Content.Parts[0].Text, resp.ModelVersion, nil
	}
	return "", resp.ModelVersion, nil
}

func parseOllamaResponse(body []byte) (string, string, error) {
	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	return resp.Message.Content, resp.Model, nil
}

// Helpers

func or(v, defaultVal string) string {
	if v != "" {
		return v
	}
	return defaultVal
}

func maxTokensOr(v, defaultVal int) int {
	if v > 0 {
		return v
	}
	return defaultVal
}

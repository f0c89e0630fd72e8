package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"horse.fit/telephone/internal/language"
)

const (
	// DefaultLocalEndpoint points to a local OpenAI-compatible translation endpoint.
	DefaultLocalEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultLocalModel is the default HY-MT model name.
	DefaultLocalModel = "tencent/HY-MT1.5-7B"
)

// LocalOptions configures a LocalProvider.
type LocalOptions struct {
	Endpoint string
	Model    string
	Client   *http.Client
	Catalog  *language.Catalog
	// Detector handles DetectLanguage; chat endpoints cannot report a source language.
	Detector Detector
}

// LocalProvider translates text by calling an OpenAI-compatible chat completions endpoint.
type LocalProvider struct {
	endpointURL string
	model       string
	apiKey      string
	client      *http.Client
	catalog     *language.Catalog
	detector    Detector
}

// NewLocalProvider builds a local provider. apiKey is sent as a bearer token.
func NewLocalProvider(apiKey string, opts LocalOptions) (*LocalProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, ErrMissingCredential
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultLocalModel
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = language.Default()
	}
	return &LocalProvider{
		endpointURL: chatCompletionsURL(normalizeEndpoint(opts.Endpoint)),
		model:       model,
		apiKey:      key,
		client:      client,
		catalog:     catalog,
		detector:    opts.Detector,
	}, nil
}

func (p *LocalProvider) Name() string {
	return "local"
}

// ModelName returns the configured model identifier.
func (p *LocalProvider) ModelName() string {
	if p == nil {
		return ""
	}
	return p.model
}

// EndpointURL returns the resolved chat completions URL.
func (p *LocalProvider) EndpointURL() string {
	return p.endpointURL
}

func (p *LocalProvider) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	if p.detector == nil {
		return "", &ProviderError{Provider: p.Name(), Op: OpDetect, Kind: KindUnsupported, Err: errors.New("no language detector configured")}
	}
	return p.detector.DetectLanguage(ctx, text)
}

func (p *LocalProvider) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: p.Name(), Op: OpTranslate, Kind: KindUnsupported, Err: errors.New("text is required")}
	}
	if !p.catalog.Contains(target) {
		return "", &ProviderError{Provider: p.Name(), Op: OpTranslate, Kind: KindUnsupported, Err: fmt.Errorf("unsupported target language %q", target)}
	}

	body, err := json.Marshal(localChatRequest{
		Model: p.model,
		Messages: []localChatMessage{
			{
				Role:    "user",
				Content: buildHYMTPrompt(text, p.catalog.Name(target), target),
			},
		},
		Temperature: 0.7,
		TopP:        0.6,
	})
	if err != nil {
		return "", fmt.Errorf("marshal translation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", transportError(ctx, p.Name(), OpTranslate, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ctx, p.Name(), OpTranslate, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(respBody))
		var errPayload localChatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				message = msg
			}
		}
		return "", &ProviderError{
			Provider:   p.Name(),
			Op:         OpTranslate,
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        errors.New(message),
		}
	}

	var parsed localChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &ProviderError{Provider: p.Name(), Op: OpTranslate, Kind: KindInvalidResponse, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Op: OpTranslate, Kind: KindInvalidResponse, Err: errors.New("response missing choices")}
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", &ProviderError{Provider: p.Name(), Op: OpTranslate, Kind: KindInvalidResponse, Err: errors.New("response was empty")}
	}
	return translated, nil
}

type localChatRequest struct {
	Model       string             `json:"model"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type localChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildHYMTPrompt(text, targetName string, target language.Code) string {
	if language.PrimarySubtag(string(target)) == "ZH" {
		// HY-MT zh<=>xx template.
		return fmt.Sprintf("将以下文本翻译为中文，注意只需要输出翻译后的结果，不要额外解释：\n\n%s", text)
	}
	// HY-MT xx<=>xx template.
	return fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", targetName, text)
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultLocalEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		parsed.Path = "/v1"
	}
	return parsed.String()
}

func chatCompletionsURL(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint + "/chat/completions"
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}

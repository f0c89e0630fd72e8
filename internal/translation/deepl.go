package translation

import (
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
	DeepLFreeAPIURL = "https://api-free.deepl.com"
	DeepLProAPIURL  = "https://api.deepl.com"

	// deeplDetectTarget is the target used when a translate call only serves detection.
	deeplDetectTarget language.Code = "EN-US"
)

// DeepLOptions customizes a DeepL provider.
type DeepLOptions struct {
	// BaseURL overrides the free/pro endpoint selection.
	BaseURL string
	Client  *http.Client
	Catalog *language.Catalog
}

// DeepLProvider calls the DeepL v2 REST API with one authentication key.
type DeepLProvider struct {
	authKey string
	baseURL string
	client  *http.Client
	catalog *language.Catalog
}

// NewDeepLProvider builds a provider for authKey. Free-tier keys end in ":fx".
func NewDeepLProvider(authKey string, opts DeepLOptions) (*DeepLProvider, error) {
	key := strings.TrimSpace(authKey)
	if key == "" {
		return nil, ErrMissingCredential
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DeepLServerURL(key)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid DeepL base URL %q: %w", base, err)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = language.Default()
	}

	return &DeepLProvider{
		authKey: key,
		baseURL: base,
		client:  client,
		catalog: catalog,
	}, nil
}

// DeepLServerURL picks the API host matching the key's plan.
func DeepLServerURL(authKey string) string {
	if strings.HasSuffix(strings.TrimSpace(authKey), ":fx") {
		return DeepLFreeAPIURL
	}
	return DeepLProAPIURL
}

func (p *DeepLProvider) Name() string {
	return "deepl"
}

// BaseURL returns the resolved API endpoint.
func (p *DeepLProvider) BaseURL() string {
	return p.baseURL
}

func (p *DeepLProvider) DetectLanguage(ctx context.Context, text string) (language.Code, error) {
	translations, err := p.translate(ctx, OpDetect, []string{text}, deeplDetectTarget)
	if err != nil {
		return "", err
	}
	detected := strings.TrimSpace(translations[0].DetectedSourceLanguage)
	if detected == "" {
		return "", &ProviderError{
			Provider: p.Name(),
			Op:       OpDetect,
			Kind:     KindInvalidResponse,
			Err:      errors.New("response did not include a detected source language"),
		}
	}
	code, err := p.catalog.FromProviderCode(detected)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Op: OpDetect, Kind: KindUnsupported, Err: err}
	}
	return code, nil
}

func (p *DeepLProvider) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	translations, err := p.translate(ctx, OpTranslate, []string{text}, target)
	if err != nil {
		return "", err
	}
	return translations[0].Text, nil
}

func (p *DeepLProvider) TranslateBatch(ctx context.Context, texts []string, target language.Code) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	translations, err := p.translate(ctx, OpTranslate, texts, target)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(translations))
	for _, t := range translations {
		out = append(out, t.Text)
	}
	return out, nil
}

type deeplTranslation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

type deeplTranslateResponse struct {
	Translations []deeplTranslation `json:"translations"`
}

type deeplErrorResponse struct {
	Message string `json:"message"`
}

func (p *DeepLProvider) translate(ctx context.Context, op string, texts []string, target language.Code) ([]deeplTranslation, error) {
	if strings.TrimSpace(string(target)) == "" {
		return nil, &ProviderError{Provider: p.Name(), Op: op, Kind: KindUnsupported, Err: errors.New("target language is required")}
	}

	form := url.Values{}
	for _, text := range texts {
		form.Add("text", text)
	}
	form.Set("target_lang", string(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build deepl request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.authKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(ctx, p.Name(), op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, p.Name(), op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(body))
		var payload deeplErrorResponse
		if jsonErr := json.Unmarshal(body, &payload); jsonErr == nil && strings.TrimSpace(payload.Message) != "" {
			message = strings.TrimSpace(payload.Message)
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return nil, &ProviderError{
			Provider:   p.Name(),
			Op:         op,
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        errors.New(message),
		}
	}

	var parsed deeplTranslateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: op, Kind: KindInvalidResponse, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Translations) != len(texts) {
		return nil, &ProviderError{
			Provider: p.Name(),
			Op:       op,
			Kind:     KindInvalidResponse,
			Err:      fmt.Errorf("expected %d translations, got %d", len(texts), len(parsed.Translations)),
		}
	}
	return parsed.Translations, nil
}

// transportError classifies a failure that happened before a status code was seen.
func transportError(ctx context.Context, provider, op string, err error) error {
	kind := KindNetwork
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	return &ProviderError{Provider: provider, Op: op, Kind: kind, Err: err}
}

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/telephone/internal/chain"
	"horse.fit/telephone/internal/db"
	"horse.fit/telephone/internal/divergence"
	requestschema "horse.fit/telephone/internal/schema"
	"horse.fit/telephone/internal/stream"
	"horse.fit/telephone/internal/telephone"
	"horse.fit/telephone/internal/translation"
)

const (
	headerRunID        = "X-Run-ID"
	historySaveTimeout = 5 * time.Second
)

func (s *Server) handleLanguages(c echo.Context) error {
	return success(c, map[string]any{
		"items":             s.catalog.Entries(),
		"min_chain_length":  chain.MinLength,
		"max_chain_length":  chain.MaxLength,
		"divergence_policy": divergence.PolicyVersion,
	})
}

func (s *Server) handleChainStream(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	payload, err := requestschema.DecodeChainRequest(body)
	if err != nil {
		return s.failDecode(c, err)
	}

	req := telephone.Request{
		Text:              payload.Text,
		LanguageChain:     payload.LanguageChain,
		RandomChainLength: payload.RandomChainLength,
		StartLanguage:     derefString(payload.StartLanguage),
		Credential:        payload.APIKey,
	}
	if err := req.Validate(s.catalog); err != nil {
		return s.failRequest(c, err)
	}

	provider, providerName, err := s.openProvider(derefString(payload.Provider), payload.APIKey)
	if err != nil {
		return failValidation(c, map[string]string{"provider": err.Error()})
	}

	orchestrator, err := telephone.New(provider, telephone.Options{Catalog: s.catalog, Logger: s.logger})
	if err != nil {
		s.logger.Error().Err(err).Msg("build orchestrator failed")
		return internalError(c, "Failed to start translation chain")
	}
	ctx := c.Request().Context()
	run, err := orchestrator.Start(ctx, req)
	if err != nil {
		return s.failRequest(c, err)
	}

	// Chains can outlive the server write timeout.
	if err := http.NewResponseController(c.Response().Writer).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Debug().Err(err).Msg("clear write deadline failed")
	}

	resp := c.Response()
	stream.SetHeaders(resp.Header())
	resp.Header().Set(headerRunID, run.ID())
	resp.WriteHeader(http.StatusOK)

	tap := func(ev telephone.Event) {
		if ev.Type == telephone.EventComplete {
			s.saveRun(ctx, run.ID(), providerName, ev.Result)
		}
	}
	if err := stream.Pump(run.Events(), stream.NewEncoder(resp), tap); err != nil {
		s.logger.Info().Err(err).Str("run_id", run.ID()).Msg("stream consumer went away")
	}
	return nil
}

type batchResponse struct {
	Translations []string `json:"translations"`
}

func (s *Server) handleTranslateBatch(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	payload, err := requestschema.DecodeBatchRequest(body)
	if err != nil {
		return s.failDecode(c, err)
	}

	rawTarget := strings.TrimSpace(derefString(payload.DeepLCode))
	if rawTarget == "" {
		rawTarget = payload.TargetLang
	}
	target, err := s.catalog.FromProviderCode(rawTarget)
	if err != nil {
		return failValidation(c, map[string]string{"targetLang": err.Error()})
	}

	provider, _, err := s.openProvider(derefString(payload.Provider), payload.APIKey)
	if err != nil {
		if errors.Is(err, translation.ErrMissingCredential) {
			return failValidation(c, map[string]string{"apiKey": "is required"})
		}
		return failValidation(c, map[string]string{"provider": err.Error()})
	}

	translations, err := translation.TranslateAll(c.Request().Context(), provider, payload.Texts, target)
	if err != nil {
		return s.failProvider(c, err)
	}
	return success(c, batchResponse{Translations: translations})
}

func (s *Server) openProvider(name, credential string) (translation.Provider, string, error) {
	resolved, err := s.providers.Resolve(name)
	if err != nil {
		return nil, "", err
	}
	provider, err := s.providers.Open(resolved, credential)
	if err != nil {
		return nil, "", err
	}
	return provider, resolved, nil
}

func (s *Server) saveRun(ctx context.Context, runID, providerName string, result *telephone.Result) {
	if s.history == nil || result == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	err := s.history.InsertChainRun(saveCtx, db.InsertChainRunParams{
		RunUUID:  runID,
		Provider: providerName,
		Result:   result,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("store chain run failed")
	}
}

func (s *Server) failDecode(c echo.Context, err error) error {
	var schemaErr *requestschema.Error
	if errors.As(err, &schemaErr) {
		return failValidation(c, schemaErr.Fields)
	}
	s.logger.Error().Err(err).Msg("decode request failed")
	return internalError(c, "Failed to read request")
}

func (s *Server) failRequest(c echo.Context, err error) error {
	var verr *telephone.ValidationError
	if errors.As(err, &verr) {
		return failValidation(c, verr.Fields)
	}
	s.logger.Error().Err(err).Msg("start chain run failed")
	return internalError(c, "Failed to start translation chain")
}

func (s *Server) failProvider(c echo.Context, err error) error {
	kind := translation.KindOf(err)
	if kind == "" {
		s.logger.Error().Err(err).Msg("translation failed")
		return internalError(c, "Translation failed")
	}
	s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("translation provider failed")
	return failUpstream(c, kind, err.Error())
}

func statusForKind(kind translation.Kind) int {
	switch kind {
	case translation.KindAuth:
		return http.StatusUnauthorized
	case translation.KindRateLimit, translation.KindQuota:
		return http.StatusTooManyRequests
	case translation.KindUnsupported:
		return http.StatusBadRequest
	case translation.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func readBody(c echo.Context) ([]byte, error) {
	req := c.Request()
	if req.Body == nil {
		return nil, fmt.Errorf("request body is required")
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, maxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxRequestBodyBytes)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

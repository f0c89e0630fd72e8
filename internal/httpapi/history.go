package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"horse.fit/telephone/internal/auth"
	"horse.fit/telephone/internal/db"
)

func (s *Server) requireHistoryToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.history == nil {
				return failNotFound(c, "Run history is not enabled")
			}
			if strings.TrimSpace(s.opts.HistoryTokenHash) == "" {
				return fail(c, http.StatusForbidden, "Run history access is not configured", nil)
			}
			token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok || !auth.VerifyToken(token, s.opts.HistoryTokenHash) {
				return fail(c, http.StatusUnauthorized, "Authentication required", nil)
			}
			return next(c)
		}
	}
}

func (s *Server) handleListRuns(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), db.DefaultListLimit, 1, db.MaxListLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}
	offset, err := parsePositiveInt(c.QueryParam("offset"), 0, 0, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"offset": err.Error()})
	}

	page, err := s.history.ListChainRuns(c.Request().Context(), limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("list chain runs failed")
		return internalError(c, "Failed to load runs")
	}
	return success(c, page)
}

func (s *Server) handleRunDetail(c echo.Context) error {
	runUUID := strings.TrimSpace(c.Param("run_uuid"))
	if _, err := uuid.Parse(runUUID); err != nil {
		return failValidation(c, map[string]string{"run_uuid": "must be a UUID"})
	}

	detail, err := s.history.GetChainRunByUUID(c.Request().Context(), runUUID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Run not found")
		}
		s.logger.Error().Err(err).Str("run_uuid", runUUID).Msg("load chain run failed")
		return internalError(c, "Failed to load run")
	}
	return success(c, detail)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"horse.fit/telephone/internal/translation"
)

func recordJSend(t *testing.T, write func(c echo.Context) error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := write(c); err != nil {
		t.Fatalf("write response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, payload
}

func TestFailUpstreamCarriesKind(t *testing.T) {
	t.Parallel()

	cases := map[translation.Kind]int{
		translation.KindAuth:      http.StatusUnauthorized,
		translation.KindRateLimit: http.StatusTooManyRequests,
		translation.KindTimeout:   http.StatusGatewayTimeout,
	}
	for kind, wantStatus := range cases {
		status, payload := recordJSend(t, func(c echo.Context) error {
			return failUpstream(c, kind, "provider said no")
		})
		if status != wantStatus {
			t.Fatalf("unexpected status for %s: got %d want %d", kind, status, wantStatus)
		}
		if payload["status"] != "fail" || payload["message"] != "provider said no" {
			t.Fatalf("unexpected envelope for %s: %v", kind, payload)
		}
		data, _ := payload["data"].(map[string]any)
		if data["kind"] != string(kind) {
			t.Fatalf("unexpected kind: got %v want %s", data["kind"], kind)
		}
	}
}

func TestFailOmitsEmptyData(t *testing.T) {
	t.Parallel()

	status, payload := recordJSend(t, func(c echo.Context) error {
		return failNotFound(c, "Run history is not enabled")
	})
	if status != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", status, http.StatusNotFound)
	}
	if _, ok := payload["data"]; ok {
		t.Fatalf("expected no data field, got %v", payload)
	}
}

func TestInternalErrorEnvelope(t *testing.T) {
	t.Parallel()

	status, payload := recordJSend(t, func(c echo.Context) error {
		return internalError(c, "Translation failed")
	})
	if status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", status)
	}
	if payload["status"] != "error" || payload["code"] != float64(http.StatusInternalServerError) {
		t.Fatalf("unexpected envelope: %v", payload)
	}
}

package translation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"horse.fit/telephone/internal/language"
)

func newDeepLTestServer(t *testing.T, handler http.HandlerFunc) (*DeepLProvider, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewDeepLProvider("secret-key", DeepLOptions{BaseURL: server.URL, Client: server.Client()})
	if err != nil {
		t.Fatalf("new deepl provider: %v", err)
	}
	return provider, server
}

func TestDeepLTranslate(t *testing.T) {
	t.Parallel()

	provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key secret-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("target_lang"); got != "DE" {
			t.Errorf("unexpected target_lang: %q", got)
		}
		if got := r.PostForm.Get("text"); got != "Hello world" {
			t.Errorf("unexpected text: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"Hallo Welt"}]}`))
	})

	got, err := provider.Translate(context.Background(), "Hello world", "DE")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Hallo Welt" {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestDeepLDetectLanguageNormalizesCodes(t *testing.T) {
	t.Parallel()

	cases := map[string]language.Code{
		"EN": "EN-US",
		"PT": "PT-BR",
		"ZH": "ZH-HANS",
		"de": "DE",
	}
	for detected, want := range cases {
		provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			if got := r.PostForm.Get("target_lang"); got != "EN-US" {
				t.Errorf("unexpected detection target: %q", got)
			}
			_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"` + detected + `","text":"x"}]}`))
		})

		got, err := provider.DetectLanguage(context.Background(), "text")
		if err != nil {
			t.Fatalf("detect %s: %v", detected, err)
		}
		if got != want {
			t.Fatalf("unexpected detected code for %s: got %s want %s", detected, got, want)
		}
	}
}

func TestDeepLDetectLanguageUnsupported(t *testing.T) {
	t.Parallel()

	provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"HE","text":"x"}]}`))
	})

	_, err := provider.DetectLanguage(context.Background(), "שלום")
	if KindOf(err) != KindUnsupported {
		t.Fatalf("expected unsupported kind, got %v", err)
	}
	if !errors.Is(err, language.ErrUnknownCode) {
		t.Fatalf("expected wrapped unknown code error, got %v", err)
	}
}

func TestDeepLStatusMapping(t *testing.T) {
	t.Parallel()

	cases := map[int]Kind{
		http.StatusForbidden:           KindAuth,
		http.StatusTooManyRequests:     KindRateLimit,
		456:                            KindQuota,
		http.StatusBadRequest:          KindUnsupported,
		http.StatusInternalServerError: KindNetwork,
	}
	for status, want := range cases {
		provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
		})

		_, err := provider.Translate(context.Background(), "Hello", "DE")
		var perr *ProviderError
		if !errors.As(err, &perr) {
			t.Fatalf("expected ProviderError for status %d, got %v", status, err)
		}
		if perr.Kind != want || perr.StatusCode != status {
			t.Fatalf("unexpected error for status %d: kind=%s status=%d", status, perr.Kind, perr.StatusCode)
		}
		if perr.Err == nil || perr.Err.Error() != "nope" {
			t.Fatalf("expected provider message to be kept, got %v", perr.Err)
		}
	}
}

func TestDeepLTranslateBatch(t *testing.T) {
	t.Parallel()

	provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := len(r.PostForm["text"]); got != 2 {
			t.Errorf("unexpected text count: %d", got)
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"eins"},{"text":"zwei"}]}`))
	})

	got, err := TranslateAll(context.Background(), provider, []string{"one", "two"}, "DE")
	if err != nil {
		t.Fatalf("translate batch: %v", err)
	}
	if len(got) != 2 || got[0] != "eins" || got[1] != "zwei" {
		t.Fatalf("unexpected batch result: %v", got)
	}
}

func TestDeepLInvalidResponse(t *testing.T) {
	t.Parallel()

	provider, _ := newDeepLTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[]}`))
	})

	if _, err := provider.Translate(context.Background(), "Hello", "DE"); KindOf(err) != KindInvalidResponse {
		t.Fatalf("expected invalid response kind, got %v", err)
	}
}

func TestDeepLServerURL(t *testing.T) {
	t.Parallel()

	if got := DeepLServerURL("abc:fx"); got != DeepLFreeAPIURL {
		t.Fatalf("unexpected free URL: %q", got)
	}
	if got := DeepLServerURL("abc"); got != DeepLProAPIURL {
		t.Fatalf("unexpected pro URL: %q", got)
	}

	provider, err := NewDeepLProvider(" key:fx ", DeepLOptions{})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if provider.BaseURL() != DeepLFreeAPIURL {
		t.Fatalf("unexpected resolved base URL: %q", provider.BaseURL())
	}

	if _, err := NewDeepLProvider("  ", DeepLOptions{}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

package translation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingCredential is returned before any call when no credential was supplied.
var ErrMissingCredential = errors.New("translation credential is required")

const (
	OpDetect    = "detect"
	OpTranslate = "translate"
)

// Kind classifies provider failures.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindAuth            Kind = "auth"
	KindRateLimit       Kind = "rate_limit"
	KindQuota           Kind = "quota"
	KindUnsupported     Kind = "unsupported"
	KindTimeout         Kind = "timeout"
	KindInvalidResponse Kind = "invalid_response"
)

// ProviderError reports a failed call to the translation provider.
type ProviderError struct {
	Provider   string
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(" ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
	} else {
		b.WriteString("call")
	}
	b.WriteString(" failed (")
	b.WriteString(string(e.Kind))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ", status %d", e.StatusCode)
	}
	b.WriteString(")")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a ProviderError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// kindForStatus maps an HTTP status returned by a provider onto a failure kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == 456:
		return KindQuota
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return KindUnsupported
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindNetwork
	}
}

package requestschema

import (
	"errors"
	"testing"
)

func TestDecodeChainRequest_Valid(t *testing.T) {
	payload := []byte(`{
		"text":"Hello world",
		"languageChain":["DE","FR","ES"],
		"startLanguage":null,
		"apiKey":"abc:fx"
	}`)

	req, err := DecodeChainRequest(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
	if req.Text != "Hello world" || len(req.LanguageChain) != 3 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.StartLanguage != nil || req.RandomChainLength != nil {
		t.Fatalf("expected absent optional fields, got %+v", req)
	}
}

func TestDecodeChainRequest_RandomLength(t *testing.T) {
	req, err := DecodeChainRequest([]byte(`{"text":"Hi","randomChainLength":5,"apiKey":"k"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.RandomChainLength == nil || *req.RandomChainLength != 5 {
		t.Fatalf("unexpected random length: %v", req.RandomChainLength)
	}
}

func TestDecodeChainRequest_WrongTypes(t *testing.T) {
	_, err := DecodeChainRequest([]byte(`{"text":"Hi","randomChainLength":"five","languageChain":["DE",7],"apiKey":"k"}`))
	var schemaErr *Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if _, ok := schemaErr.Fields["randomChainLength"]; !ok {
		t.Fatalf("expected randomChainLength violation, got %v", schemaErr.Fields)
	}
	if _, ok := schemaErr.Fields["languageChain[1]"]; !ok {
		t.Fatalf("expected languageChain[1] violation, got %v", schemaErr.Fields)
	}
}

func TestDecodeChainRequest_UnknownField(t *testing.T) {
	_, err := DecodeChainRequest([]byte(`{"text":"Hi","randomChainLength":3,"apiKey":"k","chain":["DE"]}`))
	var schemaErr *Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error for unknown field, got %v", err)
	}
}

func TestDecodeChainRequest_Malformed(t *testing.T) {
	for _, payload := range []string{``, `{"text":`, `{"text":"a"} {"text":"b"}`} {
		_, err := DecodeChainRequest([]byte(payload))
		var schemaErr *Error
		if !errors.As(err, &schemaErr) {
			t.Fatalf("expected body error for %q, got %v", payload, err)
		}
		if _, ok := schemaErr.Fields["body"]; !ok {
			t.Fatalf("expected body field for %q, got %v", payload, schemaErr.Fields)
		}
	}
}

func TestDecodeBatchRequest(t *testing.T) {
	req, err := DecodeBatchRequest([]byte(`{"texts":["Start","Stop"],"targetLang":"de","apiKey":"k"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Texts) != 2 || req.TargetLang != "de" {
		t.Fatalf("unexpected request: %+v", req)
	}

	_, err = DecodeBatchRequest([]byte(`{"texts":[],"targetLang":"de"}`))
	var schemaErr *Error
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestFieldName(t *testing.T) {
	cases := map[string]string{
		"":                 "body",
		"/text":            "text",
		"/languageChain/2": "languageChain[2]",
		"/a/b":             "a.b",
	}
	for pointer, want := range cases {
		if got := fieldName(pointer); got != want {
			t.Fatalf("unexpected field name for %q: got %q want %q", pointer, got, want)
		}
	}
}

package language

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCode is returned when a code is not part of the catalog.
var ErrUnknownCode = errors.New("unknown language code")

// Code identifies one supported language, for example "DE" or "PT-BR".
type Code string

func (c Code) String() string {
	return string(c)
}

// Entry is one catalog row.
type Entry struct {
	Code Code   `json:"code"`
	Name string `json:"name"`
}

// Catalog is an immutable, ordered table of supported languages.
type Catalog struct {
	entries []Entry
	byCode  map[Code]string
	aliases map[string]Code
}

var supportedLanguages = []Entry{
	{Code: "EN-US", Name: "English (US)"},
	{Code: "EN-GB", Name: "English (UK)"},
	{Code: "DE", Name: "German"},
	{Code: "FR", Name: "French"},
	{Code: "ES", Name: "Spanish"},
	{Code: "IT", Name: "Italian"},
	{Code: "PT-PT", Name: "Portuguese (European)"},
	{Code: "PT-BR", Name: "Portuguese (Brazilian)"},
	{Code: "NL", Name: "Dutch"},
	{Code: "PL", Name: "Polish"},
	{Code: "RU", Name: "Russian"},
	{Code: "JA", Name: "Japanese"},
	{Code: "ZH-HANS", Name: "Chinese (Simplified)"},
	{Code: "KO", Name: "Korean"},
	{Code: "SV", Name: "Swedish"},
	{Code: "DA", Name: "Danish"},
	{Code: "FI", Name: "Finnish"},
	{Code: "NB", Name: "Norwegian (Bokmål)"},
	{Code: "CS", Name: "Czech"},
	{Code: "EL", Name: "Greek"},
	{Code: "HU", Name: "Hungarian"},
	{Code: "RO", Name: "Romanian"},
	{Code: "TR", Name: "Turkish"},
	{Code: "ID", Name: "Indonesian"},
	{Code: "BG", Name: "Bulgarian"},
	{Code: "SK", Name: "Slovak"},
	{Code: "LT", Name: "Lithuanian"},
	{Code: "LV", Name: "Latvian"},
	{Code: "ET", Name: "Estonian"},
	{Code: "SL", Name: "Slovenian"},
	{Code: "UK", Name: "Ukrainian"},
	{Code: "AR", Name: "Arabic"},
}

// providerAliases maps provider-native or ISO 639-1 codes that are not catalog
// codes themselves onto the concrete supported variant.
var providerAliases = map[string]Code{
	"EN":      "EN-US",
	"PT":      "PT-BR",
	"ZH":      "ZH-HANS",
	"ZH-CN":   "ZH-HANS",
	"ZH-SG":   "ZH-HANS",
	"NO":      "NB",
	"NN":      "NB",
	"EN-UK":   "EN-GB",
	"EN-AU":   "EN-GB",
	"PT-AO":   "PT-PT",
	"ZH-HANT": "ZH-HANS",
}

var defaultCatalog = NewCatalog(supportedLanguages, providerAliases)

// Default returns the shared catalog of supported languages. It is never mutated.
func Default() *Catalog {
	return defaultCatalog
}

// NewCatalog builds a catalog from entries (order preserved) and an alias table.
// Duplicate codes keep the first entry.
func NewCatalog(entries []Entry, aliases map[string]Code) *Catalog {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[Code]string, len(entries)),
		aliases: make(map[string]Code, len(aliases)),
	}
	for _, entry := range entries {
		code := Code(NormalizeTag(string(entry.Code)))
		if code == "" {
			continue
		}
		if _, exists := c.byCode[code]; exists {
			continue
		}
		c.byCode[code] = entry.Name
		c.entries = append(c.entries, Entry{Code: code, Name: entry.Name})
	}
	for raw, target := range aliases {
		key := NormalizeTag(raw)
		if key == "" {
			continue
		}
		c.aliases[key] = Code(NormalizeTag(string(target)))
	}
	return c
}

// Name returns the display name for code, or the code itself when it is not registered.
func (c *Catalog) Name(code Code) string {
	if c != nil {
		if name, ok := c.byCode[code]; ok {
			return name
		}
	}
	return string(code)
}

// Contains reports whether code is registered.
func (c *Catalog) Contains(code Code) bool {
	if c == nil {
		return false
	}
	_, ok := c.byCode[code]
	return ok
}

// Codes returns all codes in catalog order.
func (c *Catalog) Codes() []Code {
	if c == nil {
		return nil
	}
	codes := make([]Code, 0, len(c.entries))
	for _, entry := range c.entries {
		codes = append(codes, entry.Code)
	}
	return codes
}

// Entries returns a copy of the catalog rows in catalog order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of registered languages.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Parse canonicalizes caller input and requires the result to be a catalog code.
// Aliases are not applied: callers must name a concrete variant.
func (c *Catalog) Parse(raw string) (Code, error) {
	code := Code(NormalizeTag(raw))
	if code == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCode, strings.TrimSpace(raw))
	}
	if !c.Contains(code) {
		return "", fmt.Errorf("%w: %s", ErrUnknownCode, code)
	}
	return code, nil
}

// FromProviderCode maps a provider-native code ("en", "PT", "zh-CN") onto a catalog code.
// This is the only place where provider spellings are translated.
func (c *Catalog) FromProviderCode(raw string) (Code, error) {
	tag := NormalizeTag(raw)
	if tag == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCode, strings.TrimSpace(raw))
	}
	if c.Contains(Code(tag)) {
		return Code(tag), nil
	}
	if alias, ok := c.aliases[tag]; ok && c.Contains(alias) {
		return alias, nil
	}
	primary := PrimarySubtag(tag)
	if c.Contains(Code(primary)) {
		return Code(primary), nil
	}
	if alias, ok := c.aliases[primary]; ok && c.Contains(alias) {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCode, tag)
}

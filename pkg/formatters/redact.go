package formatters

import (
	"regexp"
	"sync"

	"github.com/pkg/errors"

	"github.com/wayneeseguin/relay/pkg/types"
)

// DefaultRedaction replaces matches when no replacement is given.
const DefaultRedaction = "[REDACTED]"

// maxRedactCache bounds the number of remembered inputs.
const maxRedactCache = 1000

// Redactor replaces every match of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
	replace  string

	mu    sync.RWMutex
	cache map[string]string
}

// NewRedactor compiles patterns.
//
// Parameters:
//   - patterns: Regular expressions matching sensitive data
//   - replace: The replacement text; empty means DefaultRedaction
//
// Returns:
//   - *Redactor: The configured redactor
//   - error: If any pattern fails to compile
//
// Example:
//
//	redactor, err := formatters.NewRedactor([]string{`password=\S+`}, "")
//	d.WithFormat(redactor.Format)
func NewRedactor(patterns []string, replace string) (*Redactor, error) {
	if replace == "" {
		replace = DefaultRedaction
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "compile redaction pattern %q", pattern)
		}
		compiled = append(compiled, re)
	}

	return &Redactor{
		patterns: compiled,
		replace:  replace,
		cache:    make(map[string]string),
	}, nil
}

// Redact applies every pattern to input.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	if cached, ok := r.cache[input]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	result := input
	for _, pattern := range r.patterns {
		result = pattern.ReplaceAllString(result, r.replace)
	}

	r.mu.Lock()
	if len(r.cache) < maxRedactCache {
		r.cache[input] = result
	}
	r.mu.Unlock()

	return result
}

// Format implements Formatter.
func (r *Redactor) Format(msg string, _ *types.Record) string {
	return r.Redact(msg)
}

// Then returns a Func that runs next and redacts its output.
func (r *Redactor) Then(next Func) Func {
	if next == nil {
		return r.Format
	}
	return func(msg string, rec *types.Record) string {
		return r.Redact(next(msg, rec))
	}
}

// CreditCardRedactor redacts common card number formats
func CreditCardRedactor() *Redactor {
	return mustRedactor([]string{
		`\b4\d{3}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`,     // Visa
		`\b5[1-5]\d{2}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`, // MasterCard
		`\b3[47]\d{2}[\s-]?\d{6}[\s-]?\d{5}\b`,             // Amex
		`\b6011[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`,        // Discover
	}, "[CC-REDACTED]")
}

// EmailRedactor redacts email addresses
func EmailRedactor() *Redactor {
	return mustRedactor([]string{
		`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
	}, "[EMAIL-REDACTED]")
}

// APIKeyRedactor redacts common API key formats
func APIKeyRedactor() *Redactor {
	return mustRedactor([]string{
		`\bAKIA[0-9A-Z]{16}\b`,                                // AWS
		`\bghp_[a-zA-Z0-9]{36,40}\b`,                          // GitHub
		`\bxoxb-[0-9]{10,13}-[0-9]{10,13}-[a-zA-Z0-9]{24}\b`, // Slack
	}, "[API-KEY-REDACTED]")
}

func mustRedactor(patterns []string, replace string) *Redactor {
	r, err := NewRedactor(patterns, replace)
	if err != nil {
		panic(err)
	}
	return r
}

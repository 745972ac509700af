package logger

import (
	"regexp"
	"strings"
	"sync"
)

// secretAssignment matches common secret syntaxes in rendered output:
// a name ending in api_key/token/password/secret/credential, followed by
// "=" or ":" and the value. Redaction runs over the final rendered line so
// structured field values are covered too.
var secretAssignment = regexp.MustCompile(
	`(?i)\b([a-z0-9_\-]*(?:api_key|apikey|token|password|secret|credential))"?\s*[:=]\s*("[^"]*"|[^\s,;"']+)`)

var (
	customMu       sync.Mutex
	customPatterns []*regexp.Regexp
)

// RegisterRedactionPattern adds a custom pattern to the redaction set.
// Patterns must be registered before Init; afterwards registration is
// rejected. A pattern's first capture group, when present, names the
// redacted field; otherwise the whole match is replaced.
func RegisterRedactionPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return &InvalidPatternError{Expr: expr, Err: err}
	}
	if installed.Load() {
		return &InvalidPatternError{Expr: expr, Reason: "registered after logger initialization"}
	}
	customMu.Lock()
	defer customMu.Unlock()
	customPatterns = append(customPatterns, re)
	return nil
}

// resetRedactionPatterns drops registered custom patterns. Test hook.
func resetRedactionPatterns() {
	customMu.Lock()
	defer customMu.Unlock()
	customPatterns = nil
}

// Redactor substitutes sensitive substrings in rendered log output with a
// named placeholder. Safe for concurrent use; the pattern set is frozen
// at construction.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor snapshots the default and registered patterns.
func NewRedactor() *Redactor {
	customMu.Lock()
	defer customMu.Unlock()
	patterns := make([]*regexp.Regexp, 0, len(customPatterns)+1)
	patterns = append(patterns, secretAssignment)
	patterns = append(patterns, customPatterns...)
	return &Redactor{patterns: patterns}
}

// Redact replaces every sensitive match in line with
// <name>=[REDACTED:<NAME>], where name is the pattern's first capture
// group; a match of a pattern without one becomes [REDACTED].
func (r *Redactor) Redact(line []byte) []byte {
	for _, re := range r.patterns {
		line = re.ReplaceAllFunc(line, func(m []byte) []byte {
			groups := re.FindSubmatch(m)
			if len(groups) > 1 && len(groups[1]) > 0 {
				name := string(groups[1])
				return []byte(name + "=[REDACTED:" + strings.ToUpper(name) + "]")
			}
			return []byte("[REDACTED]")
		})
	}
	return line
}

// RedactString is Redact for string input.
func (r *Redactor) RedactString(line string) string {
	return string(r.Redact([]byte(line)))
}

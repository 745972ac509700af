package execctx

import "strings"

// allowedNames is the fixed allow-list of environment variables included
// in a snapshot verbatim. LC_* variables are allowed by prefix.
var allowedNames = map[string]bool{
	"PATH":  true,
	"HOME":  true,
	"USER":  true,
	"SHELL": true,
	"LANG":  true,
	"PWD":   true,
	"TERM":  true,
}

// sensitiveSuffixes exclude a variable even when the allow-list would
// admit it. Matching is case-insensitive.
var sensitiveSuffixes = []string{
	"_KEY",
	"_TOKEN",
	"_PASSWORD",
	"_SECRET",
	"_CREDENTIAL",
}

var sensitiveNames = map[string]bool{
	"API_KEY":               true,
	"AUTH_TOKEN":            true,
	"AWS_SECRET_ACCESS_KEY": true,
	"GITHUB_TOKEN":          true,
	"GITLAB_TOKEN":          true,
}

// FilterEnviron reduces a raw environ list to the allow-listed, non-
// sensitive subset. The result is independent of input order.
func FilterEnviron(environ []string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if !isAllowedName(name) || isSensitiveName(name) {
			continue
		}
		out[name] = value
	}
	return out
}

func isAllowedName(name string) bool {
	return allowedNames[name] || strings.HasPrefix(name, "LC_")
}

func isSensitiveName(name string) bool {
	upper := strings.ToUpper(name)
	if sensitiveNames[upper] {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

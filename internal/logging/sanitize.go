package logging

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// MaxTitleWidth bounds window titles written to logs.
const MaxTitleWidth = 48

var (
	sensitiveFlagPattern = regexp.MustCompile(`(?i)(--(?:token|access-token|api-key|apikey|secret|password|passwd|auth|cookie))(=|\s+)(\S+)`)
	sensitiveEnvPattern  = regexp.MustCompile(`(?i)\b([A-Z0-9_]*?(?:TOKEN|SECRET|PASSWORD|PASS|API_KEY|APIKEY|AUTH|COOKIE)[A-Z0-9_]*)=([^\s]+)`)
)

// SanitizeCommand redacts common sensitive tokens in restart command strings.
func SanitizeCommand(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	out := sensitiveFlagPattern.ReplaceAllString(value, "$1$2<redacted>")
	return sensitiveEnvPattern.ReplaceAllString(out, "$1=<redacted>")
}

// SanitizeTitle strips control characters from a window title and clips it
// to MaxTitleWidth display cells.
func SanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if runewidth.StringWidth(cleaned) <= MaxTitleWidth {
		return cleaned
	}
	return runewidth.Truncate(cleaned, MaxTitleWidth, "…")
}

// TitleAttr returns a sanitized title attribute.
func TitleAttr(title string) slog.Attr {
	return slog.String("title", SanitizeTitle(title))
}

package segment

import (
	"strings"

	"golang.org/x/text/language"
)

// Canonical reduces a language hint such as "EN", "en-US" or "pt_BR" to its
// ISO 639 base code. Unparseable or undetermined hints yield "".
func Canonical(hint string) string {
	hint = strings.TrimSpace(strings.ReplaceAll(hint, "_", "-"))
	if hint == "" {
		return ""
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return ""
	}
	// "und" and script- or region-only tags only have a guessed base.
	base, conf := tag.Base()
	if conf != language.Exact {
		return ""
	}
	return base.String()
}

package segment

import "strings"

var terminalReplacer = strings.NewReplacer("!", ".", "?", ".")

// Universal splits on sentence-terminal punctuation only. It needs no language
// data and is the fallback for every language. The terminators are consumed.
type Universal struct{}

// Name returns "universal".
func (Universal) Name() string { return "universal" }

// Split maps "!" and "?" to "." and splits on ".".
func (Universal) Split(text string) ([]string, error) {
	if err := validate(text); err != nil {
		return nil, err
	}
	parts := strings.Split(terminalReplacer.Replace(text), ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = appendSentence(out, p)
	}
	return out, nil
}

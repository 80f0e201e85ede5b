// Package translate translates text with a generative model served by Ollama.
// A comparison can then run on the original and the translation, or on a
// translation and a human-written counterpart. It is best effort: every
// failure yields an unsuccessful Translation with empty text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/hyperjump/awase/internal/llmcompare"
	"github.com/hyperjump/awase/internal/models"
)

var (
	// ErrEmptyText is reported for blank input.
	ErrEmptyText = errors.New("text is empty")
	// ErrUnsupportedLanguage is reported for target languages that are not a
	// recognizable language tag.
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)

// Generator runs a single prompt against a model. An empty model means the
// generator's own default.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelSelector reports the selected model of a kind.
type ModelSelector interface {
	Selected(kind models.ModelKind) string
}

// Translator translates text. It holds no per-call state.
type Translator struct {
	gen          Generator
	selector     ModelSelector
	defaultModel string
	logger       *zap.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithSelector makes the selected translation model the default.
func WithSelector(sel ModelSelector) Option {
	return func(t *Translator) { t.selector = sel }
}

// WithDefaultModel sets the model used when neither the request nor the
// selector names one.
func WithDefaultModel(name string) Option {
	return func(t *Translator) { t.defaultModel = strings.TrimSpace(name) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Translator on top of gen.
func New(gen Generator, opts ...Option) *Translator {
	t := &Translator{gen: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the model a request naming requested would use. "" means
// the generator's default.
func (t *Translator) Model(requested string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	if t.selector != nil {
		if sel := t.selector.Selected(models.KindTranslation); sel != "" {
			return sel
		}
	}
	return t.defaultModel
}

// Translate translates req.Text into req.TargetLanguage. It does not return
// an error; failures leave Success false and Text empty.
func (t *Translator) Translate(ctx context.Context, req models.TranslateRequest) *models.Translation {
	result := &models.Translation{
		TargetLanguage: strings.TrimSpace(req.TargetLanguage),
		Model:          t.Model(req.Model),
	}
	if err := Validate(req); err != nil {
		return t.fail(result, err)
	}
	tag, name, _ := targetLanguage(result.TargetLanguage)
	result.TargetLanguage = tag

	answer, err := t.gen.Generate(ctx, result.Model, buildPrompt(req.Text, name))
	if err != nil {
		return t.fail(result, err)
	}
	text := cleanAnswer(answer)
	if text == "" {
		return t.fail(result, errors.New("empty translation"))
	}
	t.logger.Debug("text translated",
		zap.String("target_language", tag),
		zap.String("model", result.Model),
		zap.Int("input_bytes", len(req.Text)),
		zap.Int("output_bytes", len(text)))
	result.Text = text
	result.Success = true
	return result
}

func (t *Translator) fail(result *models.Translation, err error) *models.Translation {
	t.logger.Warn("translation failed", zap.String("target_language", result.TargetLanguage), zap.Error(err))
	result.Error = err.Error()
	return result
}

// Validate checks that req has text and a recognizable target language.
func Validate(req models.TranslateRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	_, _, err := targetLanguage(strings.TrimSpace(req.TargetLanguage))
	return err
}

// targetLanguage returns the canonical tag and English name of hint.
func targetLanguage(hint string) (string, string, error) {
	hint = strings.ReplaceAll(hint, "_", "-")
	if hint == "" {
		return "", "", fmt.Errorf("target language required: %w", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return "", "", fmt.Errorf("%q: %w", hint, ErrUnsupportedLanguage)
	}
	if base, conf := tag.Base(); conf != language.Exact || base.String() == "und" {
		return "", "", fmt.Errorf("%q: %w", hint, ErrUnsupportedLanguage)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		name = tag.String()
	}
	return tag.String(), name, nil
}

func buildPrompt(text, languageName string) string {
	return fmt.Sprintf("Translate the following text into %s. Translate every sentence and keep their order. "+
		"Reply with the translation only, without notes or quotes.\n\nText:\n%s", languageName, text)
}

// cleanAnswer drops reasoning sections, code fences and a leading label that
// some models add.
func cleanAnswer(answer string) string {
	answer = llmcompare.StripThinking(answer)
	answer = strings.TrimSpace(strings.ReplaceAll(answer, "```", ""))
	for _, label := range []string{"Translation:", "translation:"} {
		answer = strings.TrimSpace(strings.TrimPrefix(answer, label))
	}
	return answer
}

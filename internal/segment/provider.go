package segment

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

//go:embed abbreviations/*.txt
var builtinAbbreviations embed.FS

// DefaultLanguages are the languages with a boundary model out of the box.
var DefaultLanguages = []string{"en", "de", "fr", "es", "it", "pt", "nl"}

// Provider hands out a Splitter per language code. Boundary models are loaded
// once per language and cached; languages without a model, or whose model fails
// to load, get the Universal splitter.
type Provider struct {
	languages map[string]bool
	dir       string
	logger    *zap.Logger

	mu     sync.Mutex
	loaded map[string]Splitter
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithAbbreviationsDir makes the provider read "<dir>/<lang>.txt" instead of the
// built-in list when that file exists.
func WithAbbreviationsDir(dir string) Option {
	return func(p *Provider) { p.dir = dir }
}

// WithLanguages restricts boundary models to the given languages.
func WithLanguages(langs ...string) Option {
	return func(p *Provider) {
		if len(langs) == 0 {
			return
		}
		p.languages = make(map[string]bool, len(langs))
		for _, l := range langs {
			if c := Canonical(l); c != "" {
				p.languages[c] = true
			}
		}
	}
}

// NewProvider creates a provider for DefaultLanguages.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		languages: make(map[string]bool, len(DefaultLanguages)),
		logger:    zap.NewNop(),
		loaded:    make(map[string]Splitter),
	}
	for _, l := range DefaultLanguages {
		p.languages[l] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Splitter returns the splitter for lang. It never returns nil.
func (p *Provider) Splitter(lang string) Splitter {
	code := Canonical(lang)
	if !p.languages[code] {
		return Universal{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.loaded[code]; ok {
		return s
	}
	abbrevs, err := p.loadAbbreviations(code)
	if err != nil {
		p.logger.Warn("sentence model unavailable, using universal splitter",
			zap.String("language", code), zap.Error(err))
		// Cache the fallback so a broken model is reported once.
		p.loaded[code] = Universal{}
		return Universal{}
	}
	s := NewBoundary(code, abbrevs)
	p.loaded[code] = s
	p.logger.Debug("loaded sentence model", zap.String("language", code), zap.Int("abbreviations", len(abbrevs)))
	return s
}

// Segment normalizes text and splits it with the splitter for lang.
// Blank text yields an empty, non-nil slice.
func (p *Provider) Segment(text, lang string) ([]string, error) {
	text = Normalize(text)
	if text == "" {
		return []string{}, nil
	}
	s := p.Splitter(lang)
	out, err := s.Split(text)
	if err != nil {
		return nil, fmt.Errorf("%s splitter: %w", s.Name(), err)
	}
	return out, nil
}

// Languages returns the codes that have a boundary model configured.
func (p *Provider) Languages() []string {
	out := make([]string, 0, len(p.languages))
	for _, l := range DefaultLanguages {
		if p.languages[l] {
			out = append(out, l)
		}
	}
	for l := range p.languages {
		if !contains(DefaultLanguages, l) {
			out = append(out, l)
		}
	}
	return out
}

func (p *Provider) loadAbbreviations(code string) ([]string, error) {
	name := code + ".txt"
	if p.dir != "" {
		f, err := os.Open(filepath.Join(p.dir, name))
		if err == nil {
			defer f.Close()
			return readAbbreviations(f)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to open abbreviations: %w", err)
		}
	}
	f, err := builtinAbbreviations.Open("abbreviations/" + name)
	if err != nil {
		return nil, fmt.Errorf("no sentence model for %q: %w", code, err)
	}
	defer f.Close()
	return readAbbreviations(f)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

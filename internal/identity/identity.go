// Package identity matches scraped display names to historical records by
// trying progressively more aggressive spellings of the name.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/albapepper/courtstats/internal/metrics"
	"github.com/albapepper/courtstats/internal/storage"
)

// Strategy names a normalization step.
type Strategy string

const (
	Exact         Strategy = "exact"
	Diacritics    Strategy = "diacritics"
	Transliterate Strategy = "transliterate"
)

// Lookup finds the most recent historical record stored under exactly name.
type Lookup func(ctx context.Context, name string) (storage.HistoricalRecord, bool, error)

// Step is one normalization tried by the resolver.
type Step struct {
	Strategy  Strategy
	Normalize func(string) string
}

// DefaultSteps is the cascade used for scraped player names: as given, then
// without combining marks, then with umlauts and sharp s spelled out.
var DefaultSteps = []Step{
	{Strategy: Exact, Normalize: func(s string) string { return s }},
	{Strategy: Diacritics, Normalize: StripDiacritics},
	{Strategy: Transliterate, Normalize: TransliterateUmlauts},
}

// Resolution is the outcome of resolving one name.
type Resolution struct {
	Record   storage.HistoricalRecord
	Strategy Strategy // empty when unresolved
	Tried    []string // spellings looked up, in order
}

// Resolved reports whether any strategy matched.
func (r Resolution) Resolved() bool { return r.Strategy != "" }

// Resolver runs Steps in order against a Lookup and stops at the first match.
type Resolver struct {
	steps  []Step
	logger *slog.Logger
}

// NewResolver returns a Resolver over steps (DefaultSteps when nil).
func NewResolver(steps []Step, logger *slog.Logger) *Resolver {
	if steps == nil {
		steps = DefaultSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{steps: steps, logger: logger}
}

// Resolve tries each step against lookup. Every step normalizes the original
// name, not the previous step's output. A spelling identical to one already
// tried is not looked up again. Lookup errors end the cascade and are
// returned; "no match" is not an error.
func (r *Resolver) Resolve(ctx context.Context, name string, lookup Lookup) (Resolution, error) {
	var res Resolution
	seen := make(map[string]struct{}, len(r.steps))

	for _, step := range r.steps {
		candidate := step.Normalize(name)
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		res.Tried = append(res.Tried, candidate)

		rec, ok, err := lookup(ctx, candidate)
		if err != nil {
			return res, fmt.Errorf("resolve %q (%s): %w", name, step.Strategy, err)
		}
		if ok {
			res.Record = rec
			res.Strategy = step.Strategy
			metrics.Resolved(string(step.Strategy))
			if step.Strategy != Exact {
				r.logger.Debug("Resolved by normalized name", "name", name, "as", candidate, "strategy", step.Strategy)
			}
			return res, nil
		}
	}

	metrics.Resolved("")
	r.logger.Warn("No existing record for player", "name", name, "tried", strings.Join(res.Tried, " | "))
	return res, nil
}

// StripDiacritics removes combining marks after canonical decomposition:
// "Jokić" becomes "Jokic", "Dončić" becomes "Doncic".
func StripDiacritics(s string) string {
	// Chained transformers carry state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// TransliterateUmlauts spells out lowercase umlauts and sharp s as ASCII
// digraphs: "Schröder" becomes "Schroeder".
func TransliterateUmlauts(s string) string {
	return umlauts.Replace(s)
}

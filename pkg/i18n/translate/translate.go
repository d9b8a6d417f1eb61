// Package translate seeds values for new translation keys.
//
// A [Provider] is the external machine-translation collaborator. It is only
// consulted for keys a non-authoring locale has never seen; existing values,
// including human edits, are never sent to it. [Seeder.Seed] never fails:
// transient provider errors are retried and any remaining failure falls back
// to the source text so an export can always complete.
package translate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/observability"
)

// Provider translates text from the source locale into the target locale.
// Implementations mark transient failures with errors.Retryable.
type Provider interface {
	Translate(ctx context.Context, text, target, source string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text, target, source string) (string, error)

// Translate calls f.
func (f ProviderFunc) Translate(ctx context.Context, text, target, source string) (string, error) {
	return f(ctx, text, target, source)
}

// Identity returns the source text unchanged. It is the default provider.
var Identity Provider = ProviderFunc(func(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
})

// Pseudo prefixes text with the target locale, for example "[fr] Launch".
// It makes untranslated strings easy to spot in a preview build.
var Pseudo Provider = ProviderFunc(func(_ context.Context, text, target, _ string) (string, error) {
	return fmt.Sprintf("[%s] %s", target, text), nil
})

// Dictionary is a fixed lookup table keyed by target locale then source text.
// Unknown texts fail with a PROVIDER error.
type Dictionary map[string]map[string]string

// Translate implements Provider.
func (d Dictionary) Translate(_ context.Context, text, target, _ string) (string, error) {
	if out, ok := d[target][text]; ok {
		return out, nil
	}
	return "", errors.New(errors.ErrCodeProvider, "no %s translation for %q", target, text)
}

// LoadDictionary decodes a TOML dictionary with one table per target locale:
//
//	[fr]
//	"Get started" = "Commencer"
func LoadDictionary(r io.Reader) (Dictionary, error) {
	d := Dictionary{}
	if _, err := toml.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode dictionary")
	}
	return d, nil
}

// Provider names accepted by ByName.
const (
	ProviderIdentity   = "identity"
	ProviderPseudo     = "pseudo"
	ProviderDictionary = "dictionary"
)

// ByName returns the named builtin provider. The dictionary provider reads
// its table from dictPath.
func ByName(name, dictPath string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderIdentity:
		return Identity, nil
	case ProviderPseudo:
		return Pseudo, nil
	case ProviderDictionary:
		if dictPath == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "dictionary provider needs a dictionary file")
		}
		f, err := os.Open(dictPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open dictionary")
		}
		defer f.Close()
		return LoadDictionary(f)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown translation provider %q", name)
}

// Request is one key to seed.
type Request struct {
	Key  string
	Text string
}

// Result holds seeded values keyed by request key.
type Result struct {
	Values    map[string]string
	Fallbacks []string // keys that received the source text after a failure
}

// Seeder calls a Provider with bounded concurrency.
type Seeder struct {
	Provider    Provider
	Logger      *log.Logger
	Concurrency int
	Backoff     errors.Backoff
}

// NewSeeder returns a Seeder. A nil provider means Identity; concurrency
// below one means four.
func NewSeeder(p Provider, concurrency int, logger *log.Logger) *Seeder {
	if p == nil {
		p = Identity
	}
	if concurrency < 1 {
		concurrency = 4
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Seeder{Provider: p, Logger: logger, Concurrency: concurrency, Backoff: errors.DefaultBackoff}
}

// Seed translates every request into target. The result does not depend on
// the order in which provider calls complete.
func (s *Seeder) Seed(ctx context.Context, reqs []Request, target, source string) Result {
	res := Result{Values: make(map[string]string, len(reqs))}
	if len(reqs) == 0 {
		return res
	}

	out := make([]string, len(reqs))
	failed := make([]bool, len(reqs))

	var g errgroup.Group
	g.SetLimit(max(s.Concurrency, 1))
	for i, req := range reqs {
		g.Go(func() error {
			text, err := s.translate(ctx, req.Text, target, source)
			if err != nil {
				s.Logger.Warn("translation failed, using source text",
					"key", req.Key, "locale", target, "err", err)
				observability.Translate().OnFallback(ctx, target)
				text = req.Text
				failed[i] = true
			}
			out[i] = text
			return nil
		})
	}
	_ = g.Wait()

	for i, req := range reqs {
		res.Values[req.Key] = out[i]
		if failed[i] {
			res.Fallbacks = append(res.Fallbacks, req.Key)
		}
	}
	return res
}

func (s *Seeder) translate(ctx context.Context, text, target, source string) (string, error) {
	var out string
	err := errors.Retry(ctx, s.Backoff, func() error {
		start := time.Now()
		var err error
		out, err = s.Provider.Translate(ctx, text, target, source)
		observability.Translate().OnProviderCall(ctx, target, time.Since(start), err)
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

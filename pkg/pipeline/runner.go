package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagecraft/pkg/bundle"
	"github.com/matzehuels/pagecraft/pkg/cache"
	"github.com/matzehuels/pagecraft/pkg/codegen"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/i18n"
	"github.com/matzehuels/pagecraft/pkg/i18n/extract"
	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
	"github.com/matzehuels/pagecraft/pkg/i18n/translate"
	pageio "github.com/matzehuels/pagecraft/pkg/io"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/observability"
	"github.com/matzehuels/pagecraft/pkg/preview"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/storage"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// Runner executes exports against one translation store.
//
// A Runner holds no per-export state. Concurrent exports of the same
// project must be serialized by the caller, since both read and write the
// same namespaces.
type Runner struct {
	Store    storage.Store
	Cache    cache.Cache
	Keyer    cache.Keyer
	Registry *registry.Registry
	Seeder   *translate.Seeder
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means DefaultKeyer and a nil logger discards output. Registry defaults to
// the builtin catalog and Seeder to the identity provider; set the fields
// to override them.
func NewRunner(store storage.Store, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Store:    store,
		Cache:    c,
		Keyer:    keyer,
		Registry: registry.Builtin(),
		Seeder:   translate.NewSeeder(nil, 0, logger),
		Logger:   logger,
	}
}

// Execute runs extract → merge → persist → generate → package.
func (r *Runner) Execute(ctx context.Context, opts Options) (res *Result, err error) {
	start := time.Now()
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no translation store configured")
	}
	logger := opts.Logger
	defer func() {
		size := 0
		if res != nil && res.Archive != nil {
			size = len(res.Archive.Data)
		}
		observability.Pipeline().OnExportComplete(ctx, opts.Project, size, time.Since(start), err)
	}()

	page := opts.Page
	res = &Result{Fallbacks: map[string][]string{}}
	res.Stats.Components = len(page.Components)

	// Stage 1: Extract
	var source i18n.Catalog
	res.Stats.ExtractTime, err = r.stage(ctx, StageExtract, func() error {
		source = r.Extract(page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Stats.Namespaces = len(source)
	res.Stats.Keys = len(source.Flatten())
	logger.Info("extracted translations",
		"namespaces", res.Stats.Namespaces,
		"keys", res.Stats.Keys,
		"duration", res.Stats.ExtractTime)

	// Stage 2: Merge
	var pending []write
	res.Stats.MergeTime, err = r.stage(ctx, StageMerge, func() error {
		var err error
		pending, err = r.merge(ctx, source, &opts, res)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(res.Stale) > 0 {
		logger.Warn("stored translations differ from the layout; kept stored values",
			"locale", opts.SourceLocale, "keys", res.Stale)
	}
	logger.Info("merged translations",
		"locales", opts.Locales,
		"mode", opts.Mode,
		"seeded", res.Stats.Seeded,
		"duration", res.Stats.MergeTime)

	// Stage 3: Persist
	res.Stats.PersistTime, err = r.stage(ctx, StagePersist, func() error {
		return r.persist(ctx, pending)
	})
	if err != nil {
		return nil, err
	}
	res.Stats.Written = len(pending)
	logger.Info("persisted translations",
		"written", res.Stats.Written,
		"duration", res.Stats.PersistTime)

	// Stage 4: Generate
	var out codegen.Output
	res.Stats.GenerateTime, err = r.stage(ctx, StageGenerate, func() error {
		var err error
		out, res.LayoutHash, res.CacheInfo.SourceHit, err = r.GenerateWithCacheInfo(ctx, page, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Source = out.Source
	res.Missing = out.Missing
	if len(out.Missing) > 0 {
		logger.Warn("layout uses unregistered components", "types", out.Missing)
	}
	logger.Info("generated page source",
		"components", len(out.Components),
		"bindings", out.Bindings,
		"cached", res.CacheInfo.SourceHit,
		"duration", res.Stats.GenerateTime)

	// Stage 5: Package
	res.Stats.PackageTime, err = r.stage(ctx, StagePackage, func() error {
		p, err := bundle.New(opts.Format)
		if err != nil {
			return err
		}
		res.Archive, err = p.Package(bundle.Input{
			Project:       opts.Project,
			Title:         page.Meta.Title,
			DefaultLocale: opts.SourceLocale,
			Time:          opts.Time,
			Page:          page,
			Source:        out.Source,
			Components:    out.Components,
			ImportPath:    opts.ImportPath,
			Messages:      res.Catalogs,
			Integrations:  r.integrations(page),
			Enabled:       opts.EnabledIntegrations,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("packaged export",
		"archive", res.Archive.Root,
		"entries", len(res.Archive.Entries),
		"bytes", len(res.Archive.Data),
		"duration", res.Stats.PackageTime)

	return res, nil
}

// stage runs fn between observability hooks and wraps its error.
func (r *Runner) stage(ctx context.Context, name string, fn func() error) (time.Duration, error) {
	observability.Pipeline().OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	observability.Pipeline().OnStageComplete(ctx, name, d, err)
	if err != nil {
		return d, &StageError{Stage: name, Err: err}
	}
	return d, nil
}

// Extract returns the source-locale catalog of page. Instances of
// unregistered types are skipped, matching the generated source.
func (r *Runner) Extract(page *layout.Page) i18n.Catalog {
	policy := extract.NewPolicy(r.Registry)
	c := i18n.Catalog{}
	for _, in := range page.Components {
		if _, ok := r.Registry.Get(in.Type); !ok {
			continue
		}
		for _, e := range policy.Instance(in) {
			c.Set(e.Key, e.Text)
		}
	}
	return c
}

type write struct {
	locale, namespace string
	data              value.Map
}

// merge computes the merged namespaces of every locale and returns the
// namespaces that changed.
func (r *Runner) merge(ctx context.Context, source i18n.Catalog, opts *Options, res *Result) ([]write, error) {
	namespaces := source.Namespaces()
	res.Catalogs = make(map[string]i18n.Catalog, len(opts.Locales))

	var pending []write
	var readErrs []error
	for _, locale := range opts.Locales {
		existing := make(map[string]value.Map, len(namespaces))
		for _, ns := range namespaces {
			m, err := r.Store.Read(ctx, locale, ns)
			if err != nil {
				readErrs = append(readErrs, err)
				continue
			}
			existing[ns] = m
		}
		if len(readErrs) > 0 {
			continue
		}

		incoming := source
		if locale != opts.SourceLocale {
			incoming = r.seed(ctx, locale, source, existing, opts, res)
		}

		merged := i18n.Catalog{}
		for _, ns := range namespaces {
			mr := merge.Merge(existing[ns], incoming[ns], opts.Mode)
			merged[ns] = mr.Merged
			if locale == opts.SourceLocale && opts.Mode != merge.ModeReplace {
				for _, path := range mr.Stale {
					res.Stale = append(res.Stale, ns+"."+path)
				}
			}
			if mr.Changed() {
				pending = append(pending, write{locale: locale, namespace: ns, data: mr.Merged})
			}
		}
		res.Catalogs[locale] = merged
	}
	if len(readErrs) > 0 {
		return nil, errors.Retryable(errors.Wrap(errors.ErrCodePersistence, errors.Join(readErrs...),
			"read %d namespaces", len(readErrs)))
	}
	slices.Sort(res.Stale)
	return pending, nil
}

// seed builds the incoming catalog of a non-authoring locale: stored values
// are kept and each missing path gets a provider translation of the source
// text. Replace mode re-seeds every path.
func (r *Runner) seed(ctx context.Context, locale string, source i18n.Catalog, existing map[string]value.Map, opts *Options, res *Result) i18n.Catalog {
	var reqs []translate.Request
	for _, ns := range source.Namespaces() {
		for _, path := range merge.Missing(existing[ns], source[ns], opts.Mode) {
			v, _ := source[ns].Lookup(value.ParsePath(path))
			text, _ := v.AsString()
			reqs = append(reqs, translate.Request{Key: ns + "." + path, Text: text})
		}
	}
	seeded := r.Seeder.Seed(ctx, reqs, locale, opts.SourceLocale)
	res.Stats.Seeded += len(reqs)
	if len(seeded.Fallbacks) > 0 {
		res.Fallbacks[locale] = seeded.Fallbacks
	}

	out := i18n.Catalog{}
	for _, ns := range source.Namespaces() {
		if opts.Mode == merge.ModeReplace || existing[ns] == nil {
			out[ns] = value.Map{}
		} else {
			out[ns] = existing[ns].Clone()
		}
	}
	for _, req := range reqs {
		out.Set(req.Key, seeded.Values[req.Key])
	}
	return out
}

// persist writes every pending namespace, attempting all of them before
// reporting. Failures are joined into one retryable error.
func (r *Runner) persist(ctx context.Context, pending []write) error {
	var errs []error
	for _, w := range pending {
		if err := r.Store.Write(ctx, w.locale, w.namespace, w.data); err != nil {
			r.Logger.Error("write failed", "locale", w.locale, "namespace", w.namespace, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Retryable(errors.Wrap(errors.ErrCodePersistence, errors.Join(errs...),
		"%d of %d namespace writes failed", len(errs), len(pending)))
}

// GenerateWithCacheInfo generates page source with caching. It returns the
// output, the layout hash and whether the output came from the cache.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, page *layout.Page, opts Options) (codegen.Output, string, bool, error) {
	layoutHash, err := LayoutHash(page)
	if err != nil {
		return codegen.Output{}, "", false, err
	}
	regHash, err := RegistryHash(r.Registry)
	if err != nil {
		return codegen.Output{}, "", false, err
	}
	key := r.Keyer.SourceKey(layoutHash, opts.SourceKeyOpts(regHash))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var out codegen.Output
			if json.Unmarshal(data, &out) == nil {
				observability.Cache().OnCacheHit(ctx, "source")
				return out, layoutHash, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	out := codegen.New(codegen.Options{ImportPath: opts.ImportPath, Registry: r.Registry}).Generate(page)
	if data, err := json.Marshal(out); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLSource); err != nil {
			r.Logger.Debug("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "source", len(data))
		}
	}
	return out, layoutHash, false, nil
}

// Outline renders the layout outline SVG with caching.
func (r *Runner) Outline(ctx context.Context, page *layout.Page) ([]byte, bool, error) {
	layoutHash, err := LayoutHash(page)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.OutlineKey(layoutHash)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "outline")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "outline")

	svg, err := preview.Outline(ctx, page, r.Registry)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, svg, cache.TTLOutline); err == nil {
		observability.Cache().OnCacheSet(ctx, "outline", len(svg))
	}
	return svg, false, nil
}

// integrations returns the integrations required by the page's components.
func (r *Runner) integrations(page *layout.Page) []string {
	var out []string
	for _, typ := range page.Types() {
		if s, ok := r.Registry.Get(typ); ok && s.Integration != "" && !slices.Contains(out, s.Integration) {
			out = append(out, s.Integration)
		}
	}
	return out
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// LayoutHash is the content hash of a layout document.
func LayoutHash(page *layout.Page) (string, error) {
	var buf bytes.Buffer
	if err := pageio.WriteJSON(page, &buf); err != nil {
		return "", fmt.Errorf("hash layout: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

// RegistryHash is the content hash of every registered schema.
func RegistryHash(reg *registry.Registry) (string, error) {
	data, err := json.Marshal(reg.All())
	if err != nil {
		return "", fmt.Errorf("hash registry: %w", err)
	}
	return cache.Hash(data), nil
}

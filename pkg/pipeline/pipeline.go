// Package pipeline implements the export pipeline for pagecraft.
//
// An export turns a page layout into a deployable archive in five sequential
// stages. Each stage completes before the next one starts:
//
//  1. Extract: collect translatable strings from the layout
//  2. Merge: merge them into every locale's stored translations, seeding
//     first-seen keys of non-authoring locales through a translation provider
//  3. Persist: write changed namespaces back to the translation store
//  4. Generate: emit the page source (cached by layout hash)
//  5. Package: bundle scaffold, source and translations into a zip archive
//
// Editing is forgiving, exporting is not: any store failure aborts the export
// with a single [StageError] naming the stage. Persistence failures are
// aggregated, marked retryable and no archive is returned.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Page:    page,
//	    Locales: []string{"en", "fr"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(result.Archive.Root+".zip", result.Archive.Data, 0o644)
package pipeline

import (
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
	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
	"github.com/matzehuels/pagecraft/pkg/layout"
)

// Stage names, used in StageError, logs and observability hooks.
const (
	StageExtract  = "extract"
	StageMerge    = "merge"
	StagePersist  = "persist"
	StageGenerate = "generate"
	StagePackage  = "package"
)

// Defaults applied by Options.ValidateAndSetDefaults.
const (
	DefaultLocale  = "en"
	DefaultProject = "page"
)

// StageError reports the stage an export failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the stage's error.
func (e *StageError) Unwrap() error { return e.Err }

// Options configures one export.
type Options struct {
	// Page is the layout to export. Required.
	Page *layout.Page `json:"-"`

	// Project names the archive directory. Defaults to the page title.
	Project string `json:"project,omitempty"`

	// SourceLocale is the authoring locale: its values come from the
	// layout itself. Defaults to the page locale, then DefaultLocale.
	SourceLocale string `json:"source_locale,omitempty"`

	// Locales to export. The source locale is always included.
	Locales []string `json:"locales,omitempty"`

	Mode                merge.Mode    `json:"mode,omitempty"`
	Format              bundle.Format `json:"format,omitempty"`
	ImportPath          string        `json:"import_path,omitempty"`
	EnabledIntegrations []string      `json:"enabled_integrations,omitempty"`

	// Refresh skips the generated-source cache.
	Refresh bool `json:"refresh,omitempty"`

	// Time stamps the archive directory. Defaults to now.
	Time time.Time `json:"-"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks required fields, normalizes locales and
// applies defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Page == nil {
		return errors.New(errors.ErrCodeNoLayout, "no layout to export")
	}
	if err := o.Page.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "layout")
	}

	if o.SourceLocale == "" {
		o.SourceLocale = o.Page.Meta.Locale
	}
	if o.SourceLocale == "" {
		o.SourceLocale = DefaultLocale
	}
	src, err := i18n.ParseLocale(o.SourceLocale)
	if err != nil {
		return err
	}
	o.SourceLocale = src

	locales := []string{src}
	for _, l := range o.Locales {
		tag, err := i18n.ParseLocale(l)
		if err != nil {
			return err
		}
		if !slices.Contains(locales, tag) {
			locales = append(locales, tag)
		}
	}
	o.Locales = locales

	if o.Mode, err = merge.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	if o.Format, err = bundle.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.ImportPath == "" {
		o.ImportPath = codegen.DefaultImportPath
	}
	if o.Project == "" {
		o.Project = o.Page.Meta.Title
	}
	if bundle.Slug(o.Project) == "" {
		o.Project = DefaultProject
	}
	if o.Time.IsZero() {
		o.Time = time.Now()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// TargetLocales returns the non-authoring locales.
func (o *Options) TargetLocales() []string {
	var out []string
	for _, l := range o.Locales {
		if l != o.SourceLocale {
			out = append(out, l)
		}
	}
	return out
}

// SourceKeyOpts returns cache key options for generated source.
func (o *Options) SourceKeyOpts(registryHash string) cache.SourceKeyOpts {
	return cache.SourceKeyOpts{ImportPath: o.ImportPath, Registry: registryHash}
}

// Result contains the outputs of an export.
type Result struct {
	// Archive is the packaged export.
	Archive *bundle.Archive

	// LayoutHash is the content hash of the exported layout.
	LayoutHash string

	// Source is the generated page module.
	Source []byte

	// Catalogs holds the merged namespaces touched by this export, per locale.
	Catalogs map[string]i18n.Catalog

	// Stale lists source-locale keys whose stored value differs from the
	// layout. The stored value was kept.
	Stale []string

	// Fallbacks lists, per locale, keys seeded with the source text after a
	// provider failure.
	Fallbacks map[string][]string

	// Missing lists component types absent from the registry.
	Missing []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains export statistics.
type Stats struct {
	Components int
	Keys       int
	Namespaces int
	Seeded     int
	Written    int

	ExtractTime  time.Duration
	MergeTime    time.Duration
	PersistTime  time.Duration
	GenerateTime time.Duration
	PackageTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	SourceHit bool // generated source came from cache
}

// Package pkg provides the core libraries for Pagecraft page composition.
//
// # Overview
//
// Pagecraft builds a landing page from a catalog of component types, keeps
// per-locale translation files in sync with the page text, and exports a
// Next.js project. The pkg directory is organized into four areas:
//
//  1. Model: [value], [registry], [layout] and [layout/reorder]
//  2. Localization: [i18n], [i18n/extract], [i18n/merge], [i18n/translate]
//  3. Output: [codegen], [bundle], [preview]
//  4. Infrastructure: [pipeline], [storage], [cache], [session], [config]
//
// # Architecture
//
// Edits go through a [layout.Store], which keeps instances ordered by
// section (top, flexible, bottom) with dense positions. An export runs:
//
//	layout.Page
//	     ↓
//	[i18n/extract]   translatable strings → <type>_<id>.<path> keys
//	     ↓
//	[i18n/merge]     merge into each locale's stored namespaces
//	     ↓
//	[storage]        persist the merged namespaces
//	     ↓
//	[codegen]        page.tsx bound to t("<namespace>.<path>")
//	     ↓
//	[bundle]         scaffold + source + messages → zip
//
// # Quick Start
//
//	ls := layout.NewStore(nil, nil)
//	ls.Create(layout.Meta{Title: "Acme Launch", Locale: "en"})
//	ls.AddByType("header", -1)
//	ls.AddByType("hero", -1)
//	page, _ := ls.Snapshot()
//
//	runner := pipeline.NewRunner(storage.NewMemoryStore(), nil, nil, nil)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Page:    page,
//	    Locales: []string{"en", "fr"},
//	})
//	os.WriteFile(res.Archive.Root+".zip", res.Archive.Data, 0o644)
//
// # Error Handling
//
// Libraries return coded errors from [errors]. Editing operations treat
// unknown ids as no-ops; exports fail fast with a retryable PERSISTENCE
// error when the translation store cannot be written.
//
// [value]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/value
// [registry]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/registry
// [layout]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/layout
// [layout.Store]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/layout#Store
// [layout/reorder]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/layout/reorder
// [i18n]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/i18n
// [i18n/extract]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/i18n/extract
// [i18n/merge]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/i18n/merge
// [i18n/translate]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/i18n/translate
// [codegen]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/codegen
// [bundle]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/bundle
// [preview]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/preview
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/pipeline
// [storage]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/storage
// [cache]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pagecraft/pkg/errors
package pkg

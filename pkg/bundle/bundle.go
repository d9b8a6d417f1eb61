// Package bundle packages an exported page as a zip archive.
//
// The archive holds a Next.js project under a single top-level directory
// named <project>-<timestamp>:
//
//	README.md, package.json, ...       scaffold rendered from embedded templates
//	app/[locale]/page.tsx              generated page source
//	components/sections/index.tsx      placeholder sections (local import paths only)
//	messages/<locale>/<ns>.<json|yaml> one file per touched namespace
//	messages/manifest.json             locales and namespaces
//	lib/integrations/<name>.ts         disabled stub per excluded integration
//	pagecraft.json                     the layout document
//
// Entries are written in sorted order with a fixed modification time, so
// only the directory name changes between two exports of the same input.
package bundle

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pagecraft/pkg/codegen"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/i18n"
	pageio "github.com/matzehuels/pagecraft/pkg/io"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/value"
)

//go:embed scaffold templates
var assets embed.FS

// Format is the encoding of translation files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates s. An empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown translation format %q (want json or yaml)", s)
}

// TimestampLayout formats the export time in the archive's directory name.
const TimestampLayout = "20060102-150405"

// PagePath is the archive path of the generated page source.
const PagePath = "app/[locale]/page.tsx"

// ManifestPath is the archive path of the translation manifest.
const ManifestPath = "messages/manifest.json"

var modTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Input is everything one export contributes to the archive.
type Input struct {
	Project       string
	Title         string
	DefaultLocale string
	Time          time.Time

	Page       *layout.Page // written as pagecraft.json when set
	Source     []byte       // generated page module
	Components []string     // component export names used by Source
	ImportPath string       // module Source imports components from

	// Messages holds the touched namespaces of every locale.
	Messages map[string]i18n.Catalog

	// Integrations used by the page and the subset kept enabled. Every
	// used integration that is not enabled gets a disabled stub.
	Integrations []string
	Enabled      []string
}

// File is one archive entry, relative to the archive root.
type File struct {
	Path string
	Data []byte
}

// Archive is a packaged export.
type Archive struct {
	Root    string
	Entries []string // full entry names, in archive order
	Data    []byte
}

// Packager renders archives. It is safe for concurrent use.
type Packager struct {
	format   Format
	scaffold map[string]*template.Template
	stub     *template.Template
	sections *template.Template
}

// New parses the embedded templates.
func New(format Format) (*Packager, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	p := &Packager{format: format, scaffold: map[string]*template.Template{}}
	err = fs.WalkDir(assets, "scaffold", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		t, err := parse(name)
		if err != nil {
			return err
		}
		p.scaffold[strings.TrimSuffix(strings.TrimPrefix(name, "scaffold/"), ".tmpl")] = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse scaffold: %w", err)
	}
	if p.stub, err = parse("templates/integration.ts.tmpl"); err != nil {
		return nil, err
	}
	if p.sections, err = parse("templates/sections.tsx.tmpl"); err != nil {
		return nil, err
	}
	return p, nil
}

func parse(name string) (*template.Template, error) {
	src, err := assets.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return template.New(path.Base(name)).Funcs(funcs).Parse(string(src))
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"join": strings.Join,
}

type scaffoldData struct {
	Project       string
	Title         string
	DefaultLocale string
	Locales       []string
	Format        Format
	Stubs         []string
	Components    []string
}

type manifest struct {
	DefaultLocale string   `json:"defaultLocale"`
	Format        Format   `json:"format"`
	Locales       []string `json:"locales"`
	Namespaces    []string `json:"namespaces"`
}

// Files renders every entry of in, sorted by path, and returns the root
// directory name.
func (p *Packager) Files(in Input) (string, []File, error) {
	project := Slug(in.Project)
	if project == "" {
		return "", nil, errors.New(errors.ErrCodeValidation, "project name %q has no usable characters", in.Project)
	}
	if in.DefaultLocale == "" {
		return "", nil, errors.New(errors.ErrCodeValidation, "default locale is required")
	}
	if in.Time.IsZero() {
		in.Time = time.Now()
	}
	if in.Title == "" {
		in.Title = in.Project
	}
	root := project + "-" + in.Time.UTC().Format(TimestampLayout)

	locales := []string{in.DefaultLocale}
	var namespaces []string
	for locale, cat := range in.Messages {
		if !slices.Contains(locales, locale) {
			locales = append(locales, locale)
		}
		for _, ns := range cat.Namespaces() {
			if !slices.Contains(namespaces, ns) {
				namespaces = append(namespaces, ns)
			}
		}
	}
	slices.Sort(locales)
	slices.Sort(namespaces)
	if namespaces == nil {
		namespaces = []string{}
	}

	stubs := disabled(in.Integrations, in.Enabled)
	data := scaffoldData{
		Project:       project,
		Title:         in.Title,
		DefaultLocale: in.DefaultLocale,
		Locales:       locales,
		Format:        p.format,
		Stubs:         stubs,
		Components:    slices.Sorted(slices.Values(in.Components)),
	}

	files := make(map[string][]byte)
	for name, t := range p.scaffold {
		b, err := execute(t, data)
		if err != nil {
			return "", nil, fmt.Errorf("render %s: %w", name, err)
		}
		files[name] = b
	}
	files[PagePath] = in.Source

	if dir, ok := localDir(in.ImportPath); ok && len(data.Components) > 0 {
		b, err := execute(p.sections, data)
		if err != nil {
			return "", nil, fmt.Errorf("render sections: %w", err)
		}
		files[path.Join(dir, "index.tsx")] = b
	}

	for locale, cat := range in.Messages {
		if err := errors.ValidateSegment("locale", locale); err != nil {
			return "", nil, err
		}
		for _, ns := range cat.Namespaces() {
			if err := errors.ValidateSegment("namespace", ns); err != nil {
				return "", nil, err
			}
			b, err := p.encode(cat[ns])
			if err != nil {
				return "", nil, fmt.Errorf("encode %s/%s: %w", locale, ns, err)
			}
			files[path.Join("messages", locale, ns+"."+string(p.format))] = b
		}
	}
	m, err := json.MarshalIndent(manifest{
		DefaultLocale: in.DefaultLocale,
		Format:        p.format,
		Locales:       locales,
		Namespaces:    namespaces,
	}, "", "  ")
	if err != nil {
		return "", nil, err
	}
	files[ManifestPath] = append(m, '\n')

	for _, name := range stubs {
		b, err := execute(p.stub, struct{ Name string }{name})
		if err != nil {
			return "", nil, fmt.Errorf("render %s stub: %w", name, err)
		}
		files[path.Join("lib", "integrations", name+".ts")] = b
	}

	if in.Page != nil {
		var buf bytes.Buffer
		if err := pageio.WriteJSON(in.Page, &buf); err != nil {
			return "", nil, err
		}
		files["pagecraft.json"] = buf.Bytes()
	}

	out := make([]File, 0, len(files))
	for _, name := range slices.Sorted(maps.Keys(files)) {
		if err := errors.ValidatePath(name); err != nil {
			return "", nil, fmt.Errorf("entry %q: %w", name, err)
		}
		out = append(out, File{Path: name, Data: files[name]})
	}
	return root, out, nil
}

// Package renders in and zips it.
func (p *Packager) Package(in Input) (*Archive, error) {
	root, files, err := p.Files(in)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	a := &Archive{Root: root, Entries: make([]string, 0, len(files))}
	for _, f := range files {
		name := root + "/" + f.Path
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		a.Entries = append(a.Entries, name)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	a.Data = buf.Bytes()
	return a, nil
}

func (p *Packager) encode(ns value.Map) ([]byte, error) {
	if p.format == FormatYAML {
		return yaml.Marshal(ns.Any())
	}
	b, err := json.MarshalIndent(ns, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// disabled returns the sorted, deduplicated integrations not in enabled.
func disabled(used, enabled []string) []string {
	var out []string
	for _, name := range used {
		if name == "" || slices.Contains(enabled, name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// localDir maps an "@/..." import path to its directory in the project.
func localDir(importPath string) (string, bool) {
	if importPath == "" {
		importPath = codegen.DefaultImportPath
	}
	dir, ok := strings.CutPrefix(importPath, "@/")
	if !ok || dir == "" || !fs.ValidPath(dir) {
		return "", false
	}
	return dir, true
}

var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and collapses every run of other characters into "-".
func Slug(s string) string {
	return strings.Trim(slugRE.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Package config loads pagecraft project configuration.
//
// Configuration comes from a TOML file (pagecraft.toml by default) with
// PAGECRAFT_* environment variables layered on top:
//
//	project       = "Acme Launch"
//	source_locale = "en"
//	locales       = ["en", "fr", "de"]
//	mode          = "smart"            # replace, merge or smart
//	format        = "json"             # json or yaml
//	import_path   = "@/components/sections"
//	integrations  = ["payment"]        # integrations kept enabled in exports
//	catalog       = "components.toml"  # extra component schemas
//
//	[storage]
//	location = "translations"          # dir, memory:, sqlite://..., mongodb://...
//
//	[cache]
//	location = ".pagecraft-cache"      # dir, none or redis://...
//
//	[translate]
//	provider    = "pseudo"             # identity, pseudo or dictionary
//	dictionary  = "dictionary.toml"
//	concurrency = 4
//
//	[server]
//	addr        = ":8080"
//	session_ttl = "24h"
//
// A missing file is not an error: defaults and the environment still apply.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"golang.org/x/text/language"

	"github.com/matzehuels/pagecraft/pkg/bundle"
	"github.com/matzehuels/pagecraft/pkg/cache"
	"github.com/matzehuels/pagecraft/pkg/codegen"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
	"github.com/matzehuels/pagecraft/pkg/i18n/translate"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/pipeline"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/storage"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "pagecraft.toml"

// Defaults.
const (
	DefaultStore       = "translations"
	DefaultAddr        = ":8080"
	DefaultSessionTTL  = 24 * time.Hour
	DefaultConcurrency = 4
)

// Config is the project configuration.
type Config struct {
	Project      string   `toml:"project"`
	SourceLocale string   `toml:"source_locale"`
	Locales      []string `toml:"locales"`
	Mode         string   `toml:"mode"`
	Format       string   `toml:"format"`
	ImportPath   string   `toml:"import_path"`
	Integrations []string `toml:"integrations"`
	Catalog      string   `toml:"catalog"`

	Storage   StorageConfig   `toml:"storage"`
	Cache     CacheConfig     `toml:"cache"`
	Translate TranslateConfig `toml:"translate"`
	Server    ServerConfig    `toml:"server"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// StorageConfig selects the translation store.
type StorageConfig struct {
	Location string `toml:"location"`
}

// CacheConfig selects the generated-source cache.
type CacheConfig struct {
	Location string `toml:"location"`
}

// TranslateConfig selects the provider used to seed new keys.
type TranslateConfig struct {
	Provider    string `toml:"provider"`
	Dictionary  string `toml:"dictionary"`
	Concurrency int    `toml:"concurrency"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr       string        `toml:"addr"`
	SessionTTL time.Duration `toml:"session_ttl"`
}

// Load reads path, applies environment overrides and defaults, and
// validates the result. An empty path means DefaultFile; a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		cfg.Path = path
		cfg.resolvePaths(filepath.Dir(path))
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolvePaths makes file references relative to the config file's directory.
func (c *Config) resolvePaths(dir string) {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") || strings.HasSuffix(p, ":") {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Catalog = rel(c.Catalog)
	c.Translate.Dictionary = rel(c.Translate.Dictionary)
	c.Storage.Location = rel(c.Storage.Location)
	if c.Cache.Location != "none" {
		c.Cache.Location = rel(c.Cache.Location)
	}
}

// applyEnvOverrides applies PAGECRAFT_* environment variables. Environment
// variables always override the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAGECRAFT_PROJECT"); v != "" {
		cfg.Project = v
	}
	if v := os.Getenv("PAGECRAFT_SOURCE_LOCALE"); v != "" {
		cfg.SourceLocale = v
	}
	if v := os.Getenv("PAGECRAFT_LOCALES"); v != "" {
		cfg.Locales = splitList(v)
	}
	if v := os.Getenv("PAGECRAFT_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("PAGECRAFT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PAGECRAFT_IMPORT_PATH"); v != "" {
		cfg.ImportPath = v
	}
	if v := os.Getenv("PAGECRAFT_INTEGRATIONS"); v != "" {
		cfg.Integrations = splitList(v)
	}
	if v := os.Getenv("PAGECRAFT_CATALOG"); v != "" {
		cfg.Catalog = v
	}
	if v := os.Getenv("PAGECRAFT_STORE"); v != "" {
		cfg.Storage.Location = v
	}
	if v := os.Getenv("PAGECRAFT_CACHE"); v != "" {
		cfg.Cache.Location = v
	}
	if v := os.Getenv("PAGECRAFT_PROVIDER"); v != "" {
		cfg.Translate.Provider = v
	}
	if v := os.Getenv("PAGECRAFT_DICTIONARY"); v != "" {
		cfg.Translate.Dictionary = v
	}
	if v := os.Getenv("PAGECRAFT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Translate.Concurrency = n
		}
	}
	if v := os.Getenv("PAGECRAFT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PAGECRAFT_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.SessionTTL = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.SourceLocale == "" {
		cfg.SourceLocale = pipeline.DefaultLocale
	}
	if cfg.Mode == "" {
		cfg.Mode = string(merge.DefaultMode)
	}
	if cfg.Format == "" {
		cfg.Format = string(bundle.FormatJSON)
	}
	if cfg.ImportPath == "" {
		cfg.ImportPath = codegen.DefaultImportPath
	}
	if cfg.Storage.Location == "" {
		cfg.Storage.Location = DefaultStore
	}
	if cfg.Translate.Provider == "" {
		cfg.Translate.Provider = translate.ProviderIdentity
	}
	if cfg.Translate.Concurrency <= 0 {
		cfg.Translate.Concurrency = DefaultConcurrency
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = DefaultSessionTTL
	}
}

// Validate checks locales, mode and format. Locales are rewritten in
// canonical form with the source locale first.
func (c *Config) Validate() error {
	src, err := language.Parse(c.SourceLocale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidLocale, err, "source_locale %q", c.SourceLocale)
	}
	c.SourceLocale = src.String()

	locales := []string{c.SourceLocale}
	for _, l := range c.Locales {
		tag, err := language.Parse(l)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLocale, err, "locales: %q", l)
		}
		if !slices.Contains(locales, tag.String()) {
			locales = append(locales, tag.String())
		}
	}
	c.Locales = locales

	if _, err := merge.ParseMode(c.Mode); err != nil {
		return err
	}
	if _, err := bundle.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// ExportOptions returns pipeline options for exporting page.
func (c *Config) ExportOptions(page *layout.Page) pipeline.Options {
	mode, _ := merge.ParseMode(c.Mode)
	format, _ := bundle.ParseFormat(c.Format)
	return pipeline.Options{
		Page:                page,
		Project:             c.Project,
		SourceLocale:        c.SourceLocale,
		Locales:             slices.Clone(c.Locales),
		Mode:                mode,
		Format:              format,
		ImportPath:          c.ImportPath,
		EnabledIntegrations: slices.Clone(c.Integrations),
	}
}

// Registry returns the builtin catalog extended with the configured catalog
// file, if any.
func (c *Config) Registry() (*registry.Registry, error) {
	reg := registry.Builtin()
	if c.Catalog == "" {
		return reg, nil
	}
	if _, err := reg.LoadFile(c.Catalog); err != nil {
		return nil, err
	}
	return reg, nil
}

// OpenStore opens the configured translation store.
func (c *Config) OpenStore(ctx context.Context) (storage.Store, error) {
	return storage.Open(ctx, c.Storage.Location)
}

// OpenCache opens the configured cache. An empty location falls back to
// dir, which callers set to the user cache directory.
func (c *Config) OpenCache(ctx context.Context, dir string) (cache.Cache, error) {
	loc := c.Cache.Location
	if loc == "" {
		loc = dir
	}
	return cache.Open(ctx, loc)
}

// Seeder returns a seeder for the configured provider.
func (c *Config) Seeder(logger *log.Logger) (*translate.Seeder, error) {
	p, err := translate.ByName(c.Translate.Provider, c.Translate.Dictionary)
	if err != nil {
		return nil, err
	}
	return translate.NewSeeder(p, c.Translate.Concurrency, logger), nil
}

// Runner wires a pipeline runner from the configuration. cacheDir is the
// fallback cache location; the runner owns the store and cache it opens.
func (c *Config) Runner(ctx context.Context, cacheDir string, logger *log.Logger) (*pipeline.Runner, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	seeder, err := c.Seeder(logger)
	if err != nil {
		return nil, err
	}
	store, err := c.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := c.OpenCache(ctx, cacheDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	var keyer cache.Keyer
	if slug := bundle.Slug(c.Project); slug != "" {
		keyer = cache.NewScopedKeyer(nil, "project:"+slug+":")
	}
	r := pipeline.NewRunner(store, ch, keyer, logger)
	r.Registry = reg
	r.Seeder = seeder
	return r, nil
}

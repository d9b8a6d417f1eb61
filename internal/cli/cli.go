package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/pkg/buildinfo"
	"github.com/matzehuels/pagecraft/pkg/config"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/pipeline"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pagecraft"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// errNoPage is returned by editing commands before "pagecraft new".
var errNoPage = errors.New(errors.ErrCodeNoLayout, "no page in progress (run \"pagecraft new\" first)")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the project configuration file.
	ConfigPath string

	// SessionDir holds the persisted editing session. Empty means
	// session.DefaultDir.
	SessionDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:     newLogger(w, level),
		ConfigPath: config.DefaultFile,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pagecraft composes, translates and exports landing pages",
		Long:         `Pagecraft builds pages from a catalog of components, keeps per-locale translation files in sync with the layout, and exports a ready-to-run Next.js project.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", config.DefaultFile, "project configuration file")
	root.PersistentFlags().StringVar(&c.SessionDir, "session-dir", "", "directory holding the editing session")

	// Page lifecycle
	root.AddCommand(c.newCommand())
	root.AddCommand(c.openCommand())
	root.AddCommand(c.saveCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.previewCommand())

	// Component editing
	root.AddCommand(c.componentsCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.duplicateCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.editCommand())

	// Output
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.outlineCommand())
	root.AddCommand(c.serveCommand())

	root.AddCommand(c.cacheCommand())

	return root
}

// =============================================================================
// Configuration & Sessions
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.ConfigPath)
}

func (c *CLI) sessionStore() (*session.FileStore, error) {
	return session.NewFileStore(c.SessionDir)
}

// current loads the session being edited. It returns errNoPage when there
// is none.
func (c *CLI) current(ctx context.Context) (*session.FileStore, *session.Session, error) {
	store, err := c.sessionStore()
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.Get(ctx, session.CurrentID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || sess.Page == nil {
		return nil, nil, errNoPage
	}
	return store, sess, nil
}

// edit opens the current session, applies fn and saves the result.
func (c *CLI) edit(ctx context.Context, fn func(ls *layout.Store, reg *registry.Registry) error) (*layout.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	store, sess, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	ls, err := sess.Open(reg, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := fn(ls, reg); err != nil {
		return nil, err
	}
	if err := sess.Capture(ls); err != nil {
		return nil, err
	}
	if err := store.Set(ctx, sess); err != nil {
		return nil, err
	}
	return ls, nil
}

// save replaces the current session with page.
func (c *CLI) save(ctx context.Context, page *layout.Page) error {
	store, err := c.sessionStore()
	if err != nil {
		return err
	}
	return store.Set(ctx, session.NewWithID(session.CurrentID, page, 0))
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the project configuration.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		cfg.Cache.Location = "none"
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	return cfg.Runner(ctx, dir, c.Logger)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pagecraft/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

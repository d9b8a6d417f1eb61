package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/pkg/bundle"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output  string
		locales []string
		mode    string
		format  string
		project string
		refresh bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the page as a Next.js project archive",
		Long: `Export the page as a Next.js project archive.

Translatable text is extracted into per-component namespaces, merged into
the translation store with the configured mode, and packaged together with
the generated page source. New keys in other locales are seeded by the
configured translation provider.

Merge modes:
  replace   overwrite stored namespaces with the layout's text
  merge     deep-merge, stored values win, missing keys are added
  smart     same as merge (default)`,
		Example: `  pagecraft export
  pagecraft export --locale fr --locale de --mode merge -o dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			_, sess, err := c.current(ctx)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := cfg.ExportOptions(sess.Page)
			opts.Logger = logger
			opts.Refresh = refresh
			if project != "" {
				opts.Project = project
			}
			if len(locales) > 0 {
				opts.Locales = locales
			}
			if mode != "" {
				opts.Mode = merge.Mode(mode)
			}
			if format != "" {
				opts.Format = bundle.Format(format)
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, "Exporting...")
			spinner.Start()
			res, err := runner.Execute(ctx, opts)
			spinner.Stop()
			if err != nil {
				if errors.IsRetryable(err) {
					printError("Export failed: %s", errors.UserMessage(err))
					printNextStep("The translation store may be unavailable; retry with", "pagecraft export")
				}
				return err
			}

			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(output, res.Archive.Root+".zip")
			if err := os.WriteFile(path, res.Archive.Data, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
			prog.done("Export complete")

			printSuccess("Exported %s", StyleHighlight.Render(opts.Project))
			printExportStats(res.Stats, res.CacheInfo.SourceHit)
			printFile(path)
			for _, typ := range res.Missing {
				printWarning("Unknown component %q exported as a placeholder", typ)
			}
			if len(res.Stale) > 0 {
				printWarning("%d stored translations differ from the layout and were kept", len(res.Stale))
				for _, key := range res.Stale {
					printDetail("%s", key)
				}
				printNextStep("Overwrite them with", "pagecraft export --mode replace")
			}
			for locale, keys := range res.Fallbacks {
				printWarning("%s: %d keys seeded with source text (%s)", locale, len(keys), strings.Join(keys, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "directory for the archive")
	cmd.Flags().StringSliceVarP(&locales, "locale", "l", nil, "locales to export (default: from config)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "merge mode: replace, merge, smart (default: from config)")
	cmd.Flags().StringVar(&format, "format", "", "translation file format: json, yaml (default: from config)")
	cmd.Flags().StringVar(&project, "project", "", "project name (default: from config or page title)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "regenerate source even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// outlineCommand creates the outline command.
func (c *CLI) outlineCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Render an SVG outline of the page",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			_, sess, err := c.current(ctx)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			svg, cached, err := runner.Outline(ctx, sess.Page)
			if err != nil {
				return err
			}
			if output == "" {
				output = "outline.svg"
			}
			if err := os.WriteFile(output, svg, 0o644); err != nil {
				return fmt.Errorf("write outline: %w", err)
			}
			status := iconFresh
			if cached {
				status = iconCached
			}
			printSuccess("Outline rendered (%s)", status)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "outline.svg", "output file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/pkg/errors"
	pageio "github.com/matzehuels/pagecraft/pkg/io"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/preview"
	"github.com/matzehuels/pagecraft/pkg/registry"
)

// newCommand creates the new command.
func (c *CLI) newCommand() *cobra.Command {
	var (
		locale string
		tags   []string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Start a new page",
		Long: `Start a new, empty page and make it the page being edited.

The page locale defaults to the project's source locale. An existing page
is only replaced with --force.`,
		Example: `  pagecraft new "Acme Launch"
  pagecraft new "Lancement" --locale fr --tag landing`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !force {
				if _, sess, err := c.current(ctx); err == nil && sess.Page != nil {
					return errors.New(errors.ErrCodeValidation, "a page is already in progress (%q); use --force to replace it", sess.Page.Meta.Title)
				}
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if locale == "" {
				locale = cfg.SourceLocale
			}
			title := "Untitled"
			if len(args) == 1 {
				title = args[0]
			}

			ls := layout.NewStore(nil, c.Logger)
			id := ls.Create(layout.Meta{Title: title, Locale: locale, Tags: tags})
			page, err := ls.Snapshot()
			if err != nil {
				return err
			}
			if err := c.save(ctx, page); err != nil {
				return err
			}
			printSuccess("Created page %s", StyleHighlight.Render(title))
			printDetail("id %s · locale %s", id, locale)
			printNextStep("Add a component", "pagecraft add hero")
			return nil
		},
	}

	cmd.Flags().StringVar(&locale, "locale", "", "page locale (default: project source locale)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "page tags (repeatable)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace the page in progress")

	return cmd
}

// openCommand creates the open command.
func (c *CLI) openCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open <file>",
		Short: "Load a layout document as the page being edited",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := pageio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			// Open normalizes positions and assigns an id when missing.
			ls := layout.NewStore(reg, c.Logger)
			if err := ls.Open(page); err != nil {
				return err
			}
			if page, err = ls.Snapshot(); err != nil {
				return err
			}
			if err := c.save(cmd.Context(), page); err != nil {
				return err
			}
			printSuccess("Opened %s", StyleHighlight.Render(page.Meta.Title))
			printDetail("%d components", len(page.Components))
			warnUnknown(page, reg)
			return nil
		},
	}
}

// saveCommand creates the save command.
func (c *CLI) saveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <file>",
		Short: "Write the page being edited as a layout document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := c.current(cmd.Context())
			if err != nil {
				return err
			}
			if err := pageio.ExportJSON(sess.Page, args[0]); err != nil {
				return err
			}
			printSuccess("Saved layout")
			printFile(args[0])
			return nil
		},
	}
}

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the components of the page being edited",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := c.current(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return pageio.WriteJSON(sess.Page, os.Stdout)
			}

			p := sess.Page
			fmt.Println(StyleTitle.Render(p.Meta.Title))
			printKeyValue("ID", p.ID)
			printKeyValue("Locale", p.Meta.Locale)
			if len(p.Meta.Tags) > 0 {
				printKeyValue("Tags", strings.Join(p.Meta.Tags, ", "))
			}
			state := layout.StateEditing
			if sess.Preview {
				state = layout.StatePreviewing
			}
			printKeyValue("State", state.String())
			if len(p.Components) == 0 {
				printInfo("No components yet")
				printNextStep("List available components", "pagecraft components")
				return nil
			}
			fmt.Println(pageTable(p, sess.Selected))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout document")
	return cmd
}

// clearCommand creates the clear command.
func (c *CLI) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every component from the page",
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int
			_, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				removed = ls.Len()
				return ls.Clear()
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %d components", removed)
			return nil
		},
	}
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		toggle bool
		width  int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the page in the terminal",
		Long: `Render the page in the terminal.

With --toggle the stored editing state switches between editing and
previewing. Previewing hides the selection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reg *registry.Registry
			ls, err := c.edit(cmd.Context(), func(ls *layout.Store, r *registry.Registry) error {
				reg = r
				if toggle {
					_, err := ls.TogglePreview()
					return err
				}
				return nil
			})
			if err != nil {
				return err
			}
			page, err := ls.Snapshot()
			if err != nil {
				return err
			}

			selected, _ := ls.Selected()
			if ls.State() == layout.StatePreviewing {
				selected = ""
			}
			r := preview.NewRenderer(reg)
			r.Width = width
			fmt.Println(r.RenderPage(page, selected))
			if toggle {
				printInfo("State: %s", ls.State())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toggle, "toggle", false, "switch between editing and previewing")
	cmd.Flags().IntVar(&width, "width", preview.DefaultWidth, "block width")
	return cmd
}

// warnUnknown reports component types missing from the catalog.
func warnUnknown(p *layout.Page, reg *registry.Registry) {
	for _, typ := range p.Types() {
		if _, ok := reg.Get(typ); !ok {
			printWarning("Unknown component type %q (rendered as a placeholder)", typ)
		}
	}
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// componentsCommand creates the components command.
func (c *CLI) componentsCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "components [query]",
		Short: "List the component catalog",
		Long: `List the component catalog.

The query matches names, descriptions and tags. The catalog is the builtin
set plus the file named by "catalog" in pagecraft.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			var schemas []registry.Schema
			for _, s := range reg.Search(query) {
				if category == "" || s.Category == category {
					schemas = append(schemas, s)
				}
			}
			if len(schemas) == 0 {
				printInfo("No components match")
				printDetail("Categories: %v", reg.Categories())
				return nil
			}
			fmt.Println(catalogTable(schemas))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

// addCommand creates the add command.
func (c *CLI) addCommand() *cobra.Command {
	var at int

	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Add a component to the page",
		Long: `Add a component to the page with the catalog defaults.

Without --at the component goes to its natural slot: after the last top
component, before the first bottom component, or at the end of the
flexible section. --at is clamped into the component's section.`,
		Example: `  pagecraft add header
  pagecraft add pricing --at 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			ls, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				var err error
				id, err = ls.AddByType(args[0], at)
				return err
			})
			if err != nil {
				return err
			}
			page, _ := ls.Snapshot()
			in, _ := page.Find(id)
			printSuccess("Added %s at position %d", StyleHighlight.Render(args[0]), in.Position)
			printDetail("id %s", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&at, "at", -1, "insert at this position")
	return cmd
}

// removeCommand creates the remove command.
func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <component>",
		Aliases: []string{"rm"},
		Short:   "Remove a component",
		Long:    `Remove a component. Components are referenced by position, id or id prefix.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			_, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				page, err := ls.Snapshot()
				if err != nil {
					return err
				}
				if id, err = resolveRef(page, args[0]); err != nil {
					return err
				}
				return ls.Remove(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", shortID(id))
			return nil
		},
	}
}

// moveCommand creates the move command.
func (c *CLI) moveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <component> <position>",
		Short: "Move a flexible component",
		Long: `Move a flexible component to a new position.

The target is clamped into the flexible section. Top and bottom components
stay where they are.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeValidation, "position must be a number, got %q", args[1])
			}
			var (
				id    string
				moved bool
				in    *layout.Instance
			)
			_, err = c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				page, err := ls.Snapshot()
				if err != nil {
					return err
				}
				if id, err = resolveRef(page, args[0]); err != nil {
					return err
				}
				in, _ = page.Find(id)
				moved, err = ls.Move(id, target)
				return err
			})
			if err != nil {
				return err
			}
			switch {
			case moved:
				printSuccess("Moved %s", in.Type)
			case in.Section != registry.PositionFlexible:
				printWarning("%s is fixed to the %s section", in.Type, in.Section)
			default:
				printInfo("%s is already at that position", in.Type)
			}
			return nil
		},
	}
}

// duplicateCommand creates the duplicate command.
func (c *CLI) duplicateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "duplicate <component>",
		Aliases: []string{"dup"},
		Short:   "Copy a component directly after itself",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			_, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				page, err := ls.Snapshot()
				if err != nil {
					return err
				}
				src, err := resolveRef(page, args[0])
				if err != nil {
					return err
				}
				id, err = ls.Duplicate(src)
				return err
			})
			if err != nil {
				return err
			}
			printSuccess("Duplicated as %s", shortID(id))
			return nil
		},
	}
}

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	var raw string

	cmd := &cobra.Command{
		Use:   "update <component> [key=value...]",
		Short: "Change component properties",
		Long: `Change component properties.

Top-level properties are replaced as a whole; a dotted key such as
cta.label changes one field of an object and keeps the others. Values that
parse as JSON keep their type (numbers, booleans, lists, objects); anything
else is text. Property names cannot contain dots.`,
		Example: `  pagecraft update 1 title="Launch Faster"
  pagecraft update hero cta.label="Go now"
  pagecraft update hero --json '{"cta": {"label": "Buy", "href": "/buy"}}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				id    string
				props value.Map
			)
			_, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				page, err := ls.Snapshot()
				if err != nil {
					return err
				}
				if id, err = resolveRef(page, args[0]); err != nil {
					return err
				}
				in, _ := page.Find(id)
				if props, err = parseProps(in.Props, args[1:], raw); err != nil {
					return err
				}
				return ls.Update(id, props)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %d properties of %s", len(props), shortID(id))
			return nil
		},
	}

	cmd.Flags().StringVar(&raw, "json", "", "properties as a JSON object")
	return cmd
}

// selectCommand creates the select command.
func (c *CLI) selectCommand() *cobra.Command {
	var clearSel bool

	cmd := &cobra.Command{
		Use:   "select [component]",
		Short: "Select a component",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearSel && len(args) == 0 {
				return errors.New(errors.ErrCodeValidation, "name a component or pass --clear")
			}
			var id string
			_, err := c.edit(cmd.Context(), func(ls *layout.Store, _ *registry.Registry) error {
				if clearSel {
					ls.ClearSelection()
					return nil
				}
				page, err := ls.Snapshot()
				if err != nil {
					return err
				}
				if id, err = resolveRef(page, args[0]); err != nil {
					return err
				}
				ls.Select(id)
				return nil
			})
			if err != nil {
				return err
			}
			if clearSel {
				printSuccess("Selection cleared")
				return nil
			}
			printSuccess("Selected %s", shortID(id))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearSel, "clear", false, "clear the selection")
	return cmd
}

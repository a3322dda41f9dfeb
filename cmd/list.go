package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "index",
	Aliases: []string{"list", "ls"},
	Short:   "View every persona, pattern and workflow in the project",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var (
	listPersonas  bool
	listPatterns  bool
	listWorkflows bool
	listShort     bool
)

func init() {
	listCmd.Flags().BoolVar(&listPersonas, "personas", false, "Show only personas")
	listCmd.Flags().BoolVar(&listPatterns, "patterns", false, "Show only patterns")
	listCmd.Flags().BoolVar(&listWorkflows, "workflows", false, "Show only workflows")
	listCmd.Flags().BoolVar(&listShort, "short", false, "Truncate descriptions to one line")
	rootCmd.AddCommand(listCmd)
}

// entry is one record as shown in the project index.
type entry struct {
	Key         string
	Name        string
	Description string
	Document    bool
}

// kindIndex lets the index command walk every kind without knowing its record type.
type kindIndex interface {
	kindName() string
	entries(paths *config.Paths) ([]entry, error)
}

func (k *assetKind[R]) kindName() string {
	return string(k.spec.Kind)
}

func (k *assetKind[R]) entries(paths *config.Paths) ([]entry, error) {
	store := k.store(paths)
	ix, warn := store.Load()
	var out []entry
	for _, indexKey := range ix.Keys() {
		r := ix.Entries[indexKey]
		out = append(out, entry{
			Key:         indexKey,
			Name:        r.Title(),
			Description: r.Summary(),
			Document:    store.Exists(r.Key()),
		})
	}
	return out, warn
}

func runList(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	showAll := !listPersonas && !listPatterns && !listWorkflows
	var kinds []kindIndex
	if showAll || listPersonas {
		kinds = append(kinds, personaKind)
	}
	if showAll || listPatterns {
		kinds = append(kinds, patternKind)
	}
	if showAll || listWorkflows {
		kinds = append(kinds, workflowKind)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SectionHeader("Persona Kit"))
	fmt.Fprintln(out)

	descWidth := ui.TerminalWidth() - 8
	if descWidth < 40 {
		descWidth = 40
	}

	total, missing := 0, 0
	for _, k := range kinds {
		list, warn := k.entries(paths)
		if warn != nil {
			fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load %ss: %v", k.kindName(), warn)))
		}
		if len(list) == 0 {
			continue
		}
		total += len(list)

		fmt.Fprintf(out, "  %s %s\n\n", ui.KindBadge(k.kindName()), ui.RenderMuted(fmt.Sprintf("(%d)", len(list))))
		for _, e := range list {
			tag := ""
			if !e.Document {
				missing++
				tag = " " + ui.Render(ui.Warning, "[missing document]")
			}
			fmt.Fprintf(out, "    %s %s%s\n", ui.RenderHighlight(e.Name), ui.RenderMuted(e.Key), tag)

			if e.Description == "" {
				fmt.Fprintln(out)
				continue
			}
			if listShort {
				fmt.Fprintf(out, "    %s\n", ui.RenderMuted(ui.Truncate(e.Description, descWidth)))
			} else {
				for _, line := range ui.WrapText(e.Description, descWidth) {
					fmt.Fprintf(out, "    %s\n", ui.RenderMuted(line))
				}
			}
			fmt.Fprintln(out)
		}
	}

	if total == 0 {
		fmt.Fprintln(out, ui.EmptyKind("personas, patterns or workflows", "persona-kit init"))
		return nil
	}

	summary := fmt.Sprintf("  %d records", total)
	if missing > 0 {
		summary += fmt.Sprintf(", %d missing documents", missing)
	}
	fmt.Fprintln(out, ui.RenderMuted(summary))
	if footer := ui.PageFooter(); footer != "" {
		fmt.Fprintln(out, footer)
	}
	return nil
}

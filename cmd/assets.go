package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kennyg/persona-kit/internal/artifact"
	"github.com/kennyg/persona-kit/internal/config"
	"github.com/kennyg/persona-kit/internal/ui"
)

// descriptionWidth bounds descriptions in list tables
const descriptionWidth = 50

// assetKind describes one record kind to the shared list, create, show,
// validate and remove commands.
type assetKind[R artifact.Record] struct {
	spec     artifact.KindSpec
	singular string
	plural   string
	short    string
	examples string

	// newRecord returns an empty record carrying key
	newRecord func(key artifact.Key) R
	// form lists the prompts that fill r
	form func(r R) []formField
	// details lists the labelled fields shown by show, in order
	details func(r R) [][2]string

	force    bool
	fromFile string
	strict   bool
}

func (k *assetKind[R]) command() *cobra.Command {
	keyUse, nargs := "<type>", 1
	if k.spec.Categorized {
		keyUse, nargs = "<category> <type>", 2
	}

	group := &cobra.Command{
		Use:   k.plural,
		Short: k.short,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured " + k.plural,
		Args:    cobra.NoArgs,
		RunE:    k.runList,
	}

	createCmd := &cobra.Command{
		Use:   "create " + keyUse,
		Short: "Create a " + k.singular,
		Long: fmt.Sprintf(`Create a %s and write its document.

Fields are prompted for interactively, or read from a YAML file with
--from-file. An existing %s is only replaced after confirmation or with
--force.

Examples:
%s`, k.singular, k.singular, k.examples),
		Args: cobra.ExactArgs(nargs),
		RunE: k.runCreate,
	}
	createCmd.Flags().BoolVarP(&k.force, "force", "f", false, "overwrite an existing "+k.singular+" without asking")
	createCmd.Flags().StringVar(&k.fromFile, "from-file", "", "read fields from a YAML file instead of prompting")

	showCmd := &cobra.Command{
		Use:   "show " + keyUse,
		Short: "Show a " + k.singular + " and its document",
		Args:  cobra.ExactArgs(nargs),
		RunE:  k.runShow,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every " + k.singular + " against its document",
		Args:  cobra.NoArgs,
		RunE:  k.runValidate,
	}
	validateCmd.Flags().BoolVar(&k.strict, "strict", false, "exit non-zero when any "+k.singular+" has problems")

	removeCmd := &cobra.Command{
		Use:     "remove " + keyUse,
		Aliases: []string{"rm"},
		Short:   "Remove a " + k.singular + " and its document",
		Args:    cobra.ExactArgs(nargs),
		RunE:    k.runRemove,
	}

	group.AddCommand(listCmd, createCmd, showCmd, validateCmd, removeCmd)
	return group
}

func (k *assetKind[R]) store(paths *config.Paths) *artifact.Store[R] {
	return artifact.NewStore[R](k.spec, paths.KindDir(k.spec.Dir),
		artifact.WithLogger(slog.Default()),
		artifact.WithLockFile(paths.LockFile),
	)
}

func (k *assetKind[R]) key(args []string) (artifact.Key, error) {
	return artifact.ParseKey(strings.Join(args, "/"), k.spec.Categorized)
}

func (k *assetKind[R]) createHint() string {
	if k.spec.Categorized {
		return "persona-kit " + k.plural + " create <category> <type>"
	}
	return "persona-kit " + k.plural + " create <type>"
}

func (k *assetKind[R]) runList(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	store := k.store(paths)

	ix, warn := store.Load()
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load %s: %v", k.plural, warn)))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SectionHeader(capitalize(k.plural)))
	fmt.Fprintln(out)

	if ix.Len() == 0 {
		fmt.Fprintln(out, ui.EmptyKind(k.plural, k.createHint()))
		return nil
	}

	headers := []string{"Type", "Name", "Description", "Document"}
	var category string
	var rows [][]string
	flush := func() {
		if len(rows) == 0 {
			return
		}
		if category != "" {
			fmt.Fprintln(out, "  "+ui.Render(ui.Subtitle, category))
		}
		fmt.Fprintln(out, ui.Table(headers, rows))
		fmt.Fprintln(out)
		rows = nil
	}

	for _, indexKey := range ix.Keys() {
		r := ix.Entries[indexKey]
		key := r.Key()
		if k.spec.Categorized && key.Category != category {
			flush()
			category = key.Category
		}
		doc := ui.StatusOK()
		if !store.Exists(key) {
			doc = ui.StatusError() + " missing document"
		}
		rows = append(rows, []string{key.Type, r.Title(), ui.Truncate(r.Summary(), descriptionWidth), doc})
	}
	flush()

	fmt.Fprintln(out, ui.RenderMuted(fmt.Sprintf("  %d %s", ix.Len(), k.plural)))
	if footer := ui.PageFooter(); footer != "" {
		fmt.Fprintln(out, footer)
	}
	return nil
}

func (k *assetKind[R]) runCreate(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	key, err := k.key(args)
	if err != nil {
		return &artifact.ValidationError{Kind: k.spec.Kind, Key: strings.Join(args, "/"), Err: artifact.ErrInvalidRecord, Reason: err.Error()}
	}

	catalog, err := artifact.LoadCatalog(paths.CatalogFile)
	if err != nil {
		return err
	}
	if err := catalog.Check(k.spec.Kind, key); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	store := k.store(paths)

	ix, warn := store.Load()
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load %s: %v", k.plural, warn)))
	}

	overwrite := k.force
	if ix.Has(key) && !overwrite {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("%s '%s' already exists.", capitalize(k.singular), key)))
		ok, err := confirm("Do you want to overwrite it?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "  Operation cancelled.")
			return nil
		}
		overwrite = true
	}

	r := k.newRecord(key)
	if k.fromFile != "" {
		if err := decodeFile(k.fromFile, r); err != nil {
			return err
		}
		if got := r.Key(); got != key {
			return &artifact.ValidationError{
				Kind:   k.spec.Kind,
				Key:    key.String(),
				Err:    artifact.ErrInvalidRecord,
				Reason: fmt.Sprintf("%s describes '%s'", k.fromFile, got),
			}
		}
	} else {
		title := fmt.Sprintf("Creating %s %s", key, k.singular)
		if err := runForm(title, k.form(r)); err != nil {
			return err
		}
	}

	if err := store.Create(r, overwrite); err != nil {
		if errors.Is(err, artifact.ErrOverwriteDeclined) {
			fmt.Fprintln(out, "  Operation cancelled.")
			return nil
		}
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.SuccessLine(fmt.Sprintf("%s '%s' created successfully!", capitalize(k.singular), key)))
	fmt.Fprintln(out, ui.RenderMuted("    "+store.DocumentPath(key)))
	return nil
}

func (k *assetKind[R]) runShow(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	key, err := k.key(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	store := k.store(paths)

	ix, warn := store.Load()
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load %s: %v", k.plural, warn)))
	}
	r, ok := ix.Get(key)
	if !ok {
		return &artifact.ValidationError{Kind: k.spec.Kind, Key: key.String(), Err: artifact.ErrNotFound}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s %s\n", ui.KindBadge(string(k.spec.Kind)), ui.RenderHighlight(r.Title()))
	fmt.Fprintf(out, "  Type: %s\n", key)
	fmt.Fprintf(out, "  Description: %s\n", r.Summary())

	for _, d := range k.details(r) {
		if d[1] == "" {
			continue
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  "+ui.Render(ui.Subtitle, d[0]+":"))
		for _, line := range strings.Split(d[1], "\n") {
			fmt.Fprintln(out, "  "+line)
		}
	}
	fmt.Fprintln(out)

	doc, err := store.ReadDocument(key)
	if err != nil {
		fmt.Fprintln(out, ui.WarningLine(capitalize(k.singular)+" document not found on disk."))
		return nil
	}
	fmt.Fprintln(out, "  Full document:")
	fmt.Fprintln(out, ui.Divider(40))
	fmt.Fprint(out, doc)
	return nil
}

func (k *assetKind[R]) runValidate(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	store := k.store(paths)

	ix, warn := store.Load()
	if warn != nil {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Could not load %s: %v", k.plural, warn)))
	}
	if ix.Len() == 0 {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("No %s configured.", k.plural)))
		fmt.Fprintf(out, "  Use '%s' to add %s.\n", k.createHint(), k.plural)
		return errSilent
	}

	fmt.Fprintln(out, ui.Render(ui.Title, fmt.Sprintf("Validating %s...", k.plural)))
	fmt.Fprintln(out)

	report := store.Validate(ix)
	var rows [][]string
	for _, rs := range report.Records {
		doc := ui.StatusError()
		if rs.Document {
			doc = ui.StatusOK()
		}
		rows = append(rows, []string{rs.Key, rs.Name, doc, statusBadge(rs.Status) + " " + string(rs.Status)})
	}
	fmt.Fprintln(out, ui.Table([]string{capitalize(k.singular), "Name", "Document", "Status"}, rows))

	for _, rs := range report.Records {
		for _, p := range rs.Problems {
			fmt.Fprintln(out, ui.RenderMuted(fmt.Sprintf("  %s: %s", rs.Key, p)))
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, ui.RenderMuted("  "+summarizeCounts(report.Counts())))

	if degraded := report.Degraded(); len(degraded) > 0 {
		fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("%d %s indexed without a document. Re-run create with --force to restore it.", len(degraded), k.plural)))
	}

	if report.Valid() {
		fmt.Fprintln(out, ui.SuccessLine(fmt.Sprintf("All %s are valid!", k.plural)))
		return nil
	}
	fmt.Fprintln(out, ui.WarningLine(fmt.Sprintf("Some %s have issues that need to be resolved.", k.plural)))
	if k.strict {
		return errSilent
	}
	return nil
}

func (k *assetKind[R]) runRemove(cmd *cobra.Command, args []string) error {
	paths, err := openProject()
	if err != nil {
		return err
	}
	key, err := k.key(args)
	if err != nil {
		return err
	}

	if err := k.store(paths).Remove(key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessLine(fmt.Sprintf("%s '%s' removed.", capitalize(k.singular), key)))
	return nil
}

// statusBadge marks records that only lack their document as warnings.
func statusBadge(st artifact.Status) string {
	switch st {
	case artifact.StatusValid:
		return ui.StatusOK()
	case artifact.StatusMissingDocument:
		return ui.StatusWarn()
	}
	return ui.StatusError()
}

// summarizeCounts renders e.g. "2 valid, 1 missing-document".
func summarizeCounts(counts map[artifact.Status]int) string {
	var parts []string
	for _, st := range []artifact.Status{
		artifact.StatusValid,
		artifact.StatusMissingDocument,
		artifact.StatusInvalidRecord,
		artifact.StatusMalformedKey,
	} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

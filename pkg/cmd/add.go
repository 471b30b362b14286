package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/document"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/edit"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/imports"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/resolver"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/utils"
)

var (
	addModule    string
	addQualifier string
	addNamespace string
	addInPlace   bool
)

var addCmd = &cobra.Command{
	Use:   "add IDENTIFIER FILE",
	Short: "Add the import that provides an identifier",
	Long: `add imports IDENTIFIER into FILE the way the editor command does.

Without --module the identifier is looked up in the symbols of the enclosing
Go module and the configured symbols. When several modules provide it, the
candidates are listed and nothing is changed.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addModule, "module", "", "Import path providing the identifier")
	addCmd.Flags().StringVar(&addQualifier, "qualifier", "", "Name to import the module under")
	addCmd.Flags().StringVar(&addNamespace, "namespace", "", "Restrict the lookup to values or types")
	addCmd.Flags().BoolVar(&addInPlace, "in-place", false, "Modify the file in place instead of printing the edit")
}

func runAdd(cmd *cobra.Command, args []string) error {
	identifier, path := args[0], args[1]
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cfg, logger, closeLog, err := setup(cmd, filepath.Dir(path))
	if err != nil {
		return err
	}
	defer closeLog()

	req := imports.Request{Identifier: identifier}
	if cmd.Flags().Changed("module") {
		req.Module = imports.String(addModule)
	}
	if cmd.Flags().Changed("qualifier") {
		req.Qualifier = imports.String(addQualifier)
	}
	if addNamespace != "" {
		ns, err := imports.ParseNamespace(addNamespace)
		if err != nil {
			return err
		}
		req.Namespace = &ns
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadFile, err)
	}

	root, _ := utils.FindModuleRoot(path)
	session, err := newSession(cmd.Context(), cfg, root, logger, false)
	if err != nil {
		return err
	}
	defer session.Close()

	file := analysis.File{Path: path, Text: string(src)}
	existing, err := session.Analyzer.Imports(cmd.Context(), file)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToExtractImports, err)
	}
	r := resolver.New(session.Analyzer, resolver.ResolverConfig{OpenModule: cfg.OpenModule, Logger: logger})
	outcome, err := r.Resolve(cmd.Context(), req, file, existing)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch o := outcome.(type) {
	case imports.Updated:
		if addInPlace {
			if err := os.WriteFile(path, []byte(o.Text), 0644); err != nil {
				return fmt.Errorf("%s: %w", errors.ErrMsgFailedToWriteFile, err)
			}
			fmt.Fprintf(out, errors.InfoMsgProcessedFiles+"\n", path)
			return nil
		}
		printEdit(out, path, edit.Synthesize(document.PathToURI(path), 0, file.Text, o.Text))
	case imports.Ambiguous:
		fmt.Fprintf(out, errors.InfoMsgAmbiguousImport+"\n", identifier)
		for _, candidate := range o.Candidates {
			fmt.Fprintf(out, "  %s\n", candidate)
		}
	default:
		fmt.Fprintf(out, errors.InfoMsgNothingToImport+"\n", identifier)
	}
	return nil
}

// printEdit writes the replaced line range followed by the new lines
func printEdit(w io.Writer, path string, result edit.Result) {
	d, ok := result.(edit.DocumentEdit)
	if !ok {
		return
	}
	r := d.Edit.Range
	if r.End.Line > r.Start.Line {
		fmt.Fprintf(w, "%s:%d-%d: replace with\n", path, r.Start.Line+1, r.End.Line)
	} else {
		fmt.Fprintf(w, "%s:%d: insert\n", path, r.Start.Line+1)
	}
	fmt.Fprint(w, d.Edit.NewText)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/diagnostic"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/protocol"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/utils"
)

var (
	pathColor = color.New(color.Bold)
	hintColor = color.New(color.FgCyan)
	codeColor = color.New(color.FgYellow)
)

var checkCmd = &cobra.Command{
	Use:   "check PATH",
	Short: "Report files whose imports are not organized",
	Long: `check reports every Go file whose import block differs from its organized form.
It exits with status 1 when any file needs organizing.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// fileReport is the outcome of checking one file
type fileReport struct {
	path        string
	diagnostics []protocol.Diagnostic
	err         error
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, logger, closeLog, err := setup(cmd, dirOf(path))
	if err != nil {
		return err
	}
	defer closeLog()

	files, err := goFiles(path, cfg.Exclude)
	if err != nil {
		return err
	}

	session, err := newSession(cmd.Context(), cfg, "", logger, false)
	if err != nil {
		return err
	}
	defer session.Close()

	detector := diagnostic.New(session.Analyzer, diagnostic.DetectorConfig{
		Keyword: cfg.ImportKeyword,
		Logger:  logger,
	})
	reports := checkFiles(cmd, detector, files, logger)
	return printReports(cmd.OutOrStdout(), path, reports)
}

// goFiles returns path itself or the Go files below it
func goFiles(path string, exclude []string) ([]string, error) {
	isDir, err := utils.IsDirectory(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToCheckPath, err)
	}
	if !isDir {
		return []string{path}, nil
	}
	files, err := utils.FindGoFiles(path, exclude...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToFindGoFiles, err)
	}
	return files, nil
}

// checkFiles runs the detector over files concurrently. Reports keep the
// order of files.
func checkFiles(cmd *cobra.Command, detector *diagnostic.Detector, files []string, logger zerolog.Logger) []fileReport {
	reports := make([]fileReport, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			reports[i].path = path
			src, err := os.ReadFile(path)
			if err != nil {
				reports[i].err = fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadFile, err)
				return nil
			}
			reports[i].diagnostics, reports[i].err = detector.Check(cmd.Context(), analysis.File{Path: path, Text: string(src)})
			logger.Debug().Str("path", path).Int("diagnostics", len(reports[i].diagnostics)).Msg("checked")
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func printReports(w io.Writer, path string, reports []fileReport) error {
	found, failed := 0, 0
	for _, r := range reports {
		if r.err != nil {
			fmt.Fprintf(w, errors.InfoMsgErrorProcessing+"\n", r.path, r.err)
			failed++
			continue
		}
		for _, d := range r.diagnostics {
			fmt.Fprintf(w, "%s:%d: %s %s %s\n",
				pathColor.Sprint(r.path),
				d.Range.End.Line+1,
				hintColor.Sprint(d.Severity),
				codeColor.Sprint(d.Code),
				d.Message,
			)
			found++
		}
	}

	if failed > 0 {
		return fmt.Errorf(errors.ErrMsgFilesFailedToProcess, failed)
	}
	if found > 0 {
		return fmt.Errorf(errors.ErrMsgFilesNeedOrganizing, found)
	}
	fmt.Fprintf(w, errors.InfoMsgImportsCanonical+"\n", path)
	return nil
}

package formatter

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/utils"
)

type ProcessorConfig struct {
	Analyzer       analysis.Analyzer
	InPlace        bool     // whether to modify files in place
	Exclude        []string // doublestar patterns skipped when walking directories
	CurrentProject string   // printed when walking directories
	Out            io.Writer
}

// Processor reorganizes the imports of files on disk
type Processor struct {
	config ProcessorConfig
}

func NewProcessor(config ProcessorConfig) *Processor {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	return &Processor{
		config: config,
	}
}

// ProcessFile reorganizes one file. In place, the file is rewritten only when
// its imports change; otherwise the reorganized source is printed when
// verbose is set.
func (p *Processor) ProcessFile(ctx context.Context, path string, verbose bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToReadFile, err)
	}

	out, ok, err := p.config.Analyzer.ReorganizeImports(ctx, analysis.File{Path: path, Text: string(src)})
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgAnalysisCallFailed, err)
	}
	if !ok {
		out = string(src)
	}

	if p.config.InPlace {
		if out == string(src) {
			return nil
		}
		if err := os.WriteFile(path, []byte(out), 0644); err != nil {
			return fmt.Errorf("%s: %w", errors.ErrMsgFailedToWriteFile, err)
		}
		return nil
	}

	if verbose {
		fmt.Fprint(p.config.Out, out)
	}
	return nil
}

// ProcessFiles processes multiple Go source files and groups their imports
func (p *Processor) ProcessFiles(ctx context.Context, filePaths []string) error {
	processedCount := 0
	errorCount := 0

	for _, filePath := range filePaths {
		if err := p.ProcessFile(ctx, filePath, false); err != nil {
			fmt.Fprintf(p.config.Out, errors.InfoMsgErrorProcessing+"\n", filePath, err)
			errorCount++
		} else {
			processedCount++
			if p.config.InPlace {
				fmt.Fprintf(p.config.Out, errors.InfoMsgProcessedFiles+"\n", filePath)
			}
		}
	}

	fmt.Fprintf(p.config.Out, errors.InfoMsgProcessedCount, processedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.config.Out, errors.InfoMsgErrorCount, errorCount)
	}
	fmt.Fprintln(p.config.Out)

	if errorCount > 0 {
		return fmt.Errorf(errors.ErrMsgFilesFailedToProcess, errorCount)
	}
	return nil
}

// ProcessPath processes a file or directory path
func (p *Processor) ProcessPath(ctx context.Context, path string) error {
	isDir, err := utils.IsDirectory(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToCheckPath, err)
	}

	if !isDir {
		return p.ProcessFile(ctx, path, true)
	}

	// When processing directories, in-place mode is recommended
	if !p.config.InPlace {
		fmt.Fprintln(p.config.Out, errors.WarnMsgProcessingDirWithoutInPlace)
		fmt.Fprint(p.config.Out, errors.InfoMsgUseInPlaceFlag+"\n\n")
	}

	goFiles, err := utils.FindGoFiles(path, p.config.Exclude...)
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrMsgFailedToFindGoFiles, err)
	}

	if len(goFiles) == 0 {
		fmt.Fprintf(p.config.Out, errors.InfoMsgNoGoFilesFound+"\n", path)
		return nil
	}

	fmt.Fprintf(p.config.Out, errors.InfoMsgFoundGoFiles+"\n", len(goFiles), path)
	if p.config.CurrentProject != "" {
		fmt.Fprintf(p.config.Out, errors.InfoMsgCurrentProject+"\n", p.config.CurrentProject)
	}
	fmt.Fprintln(p.config.Out)

	return p.ProcessFiles(ctx, goFiles)
}

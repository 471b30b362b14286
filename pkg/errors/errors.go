package errors

import stderrors "errors"

// Error message constants for the go-imports-lsp application
const (
	// File processing errors
	ErrMsgFailedToReadFile       = "failed to read file"
	ErrMsgFailedToParseFile      = "failed to parse file"
	ErrMsgFailedToWriteFile      = "failed to write file"
	ErrMsgFailedToExtractImports = "failed to extract imports"
	ErrMsgFailedToIndexSymbols   = "failed to index workspace symbols"

	// Directory processing errors
	ErrMsgFailedToCheckPath    = "failed to check path"
	ErrMsgFailedToFindGoFiles  = "failed to find Go files in directory"
	ErrMsgFilesFailedToProcess = "%d files failed to process"
	ErrMsgFilesNeedOrganizing  = "%d files need their imports organized"

	// Configuration errors
	ErrMsgFailedToReadConfig  = "failed to read config"
	ErrMsgFailedToParseConfig = "failed to parse config"
	ErrMsgFailedToOpenLogFile = "failed to open log file"

	// Analysis service errors
	ErrMsgFailedToStartAnalysis = "failed to start analysis process"
	ErrMsgAnalysisCallFailed    = "analysis call failed"
	ErrMsgFailedToDecodeResult  = "failed to decode analysis result"

	// Info/warning messages
	WarnMsgProcessingDirWithoutInPlace = "Warning: Processing directory without --in-place flag. No files will be modified."
	InfoMsgUseInPlaceFlag              = "Use --in-place flag to modify files or specify a single file for stdout output."
	InfoMsgNoGoFilesFound              = "No Go files found in directory: %s"
	InfoMsgFoundGoFiles                = "Found %d Go files in directory: %s"
	InfoMsgCurrentProject              = "Current project: %s"
	InfoMsgProcessedFiles              = "Processed: %s"
	InfoMsgErrorProcessing             = "Error processing %s: %v"
	InfoMsgProcessedCount              = "\nProcessed %d files successfully"
	InfoMsgErrorCount                  = ", %d files had errors"
	InfoMsgAmbiguousImport             = "%s is exported by several modules:"
	InfoMsgNothingToImport             = "Nothing to import for %s"
	InfoMsgImportsCanonical            = "%s: imports are organized"
)

// Sentinel errors
var (
	// ErrNoSession means no analysis service is available
	ErrNoSession = stderrors.New("no active analysis session")

	// ErrMalformedRequest means command arguments did not have the expected shape
	ErrMalformedRequest = stderrors.New("malformed request")

	// ErrDisabled means the operation is turned off in configuration
	ErrDisabled = stderrors.New("disabled by configuration")

	// ErrDocumentNotOpen means the document store has no text for the URI
	ErrDocumentNotOpen = stderrors.New("document not open")

	// ErrAnalysisClosed means the analysis process has exited
	ErrAnalysisClosed = stderrors.New("analysis process closed")
)

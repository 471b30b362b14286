package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/logging"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, logger, closeLog, err := setup(cmd, cwd)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(os.Stdin, os.Stdout, server.Options{
		Config: cfg,
		NewSession: func(ctx context.Context, root string) (*analysis.Session, error) {
			if root == "" {
				root = cwd
			}
			return newSession(ctx, cfg, root, logger, true)
		},
		Logger: logging.Component(logger, "server"),
	})
	logger.Info().Str("cwd", cwd).Msg("serving on stdio")
	return srv.Run(ctx)
}

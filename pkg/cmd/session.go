package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/analysis/remote"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/errors"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/formatter"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/logging"
)

// newSession starts the analysis service selected by cfg. The built-in Go
// backend indexes root; with background set the index fills while the
// session is already in use.
func newSession(ctx context.Context, cfg *config.Config, root string, logger zerolog.Logger, background bool) (*analysis.Session, error) {
	if len(cfg.Analysis.Command) > 0 {
		client, err := remote.Start(cfg.Analysis.Command,
			remote.WithLogger(logging.Component(logger, "remote")),
			remote.WithTimeout(cfg.Analysis.Timeout),
		)
		if err != nil {
			return nil, err
		}
		return analysis.NewSession(cfg.Analysis.Command[0], client), nil
	}

	index := formatter.NewSymbolIndex()
	if err := index.AddConfigured(cfg.Symbols); err != nil {
		return nil, fmt.Errorf("%s: %w", errors.ErrMsgFailedToParseConfig, err)
	}
	backend := formatter.New(formatter.BackendConfig{
		FormatterConfig: formatter.FormatterConfig{
			Orgs:           cfg.Orgs,
			CurrentProject: cfg.CurrentProject,
		},
		Index:  index,
		Logger: logging.Component(logger, "formatter"),
	})

	if root != "" {
		build := func() {
			if err := index.IndexDir(ctx, root, cfg.Exclude); err != nil {
				logger.Warn().Err(err).Str("root", root).Msg("symbol index incomplete")
				return
			}
			logger.Debug().Str("root", root).Int("modules", len(index.Modules())).Msg("symbol index ready")
		}
		if background {
			go build()
		} else {
			build()
		}
	}
	return analysis.NewSession("go", backend), nil
}

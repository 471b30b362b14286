package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/config"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/logging"
	"github.com/siyuan-infoblox/go-imports-lsp/pkg/version"
)

const (
	UseDescription   = "gil"
	ShortDescription = "Go imports language server - adds and organizes imports from your editor"
	LongDescription  = `gil adds imports for symbols picked in the editor and keeps import blocks organized.

Imports are organized into groups:
1. Go standard library
2. Third-party packages
3. Organization/company packages (configurable)
4. Current project packages

Organization packages can be further subdivided by project.

Run "gil serve" from an editor to use it as a language server, or use the
organize, check and add subcommands directly on files and directories.`
)

var (
	configPath     string
	orgs           []string
	currentProject string
	logLevel       string
	showVersion    bool
)

var rootCmd = &cobra.Command{
	Use:          UseDescription,
	Short:        ShortDescription,
	Long:         LongDescription,
	Args:         cobra.NoArgs,
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().StringSliceVar(&orgs, "orgs", []string{}, "Comma-separated list of organization prefixes (e.g., github.com/myorg,github.com/acme-corp)")
	rootCmd.PersistentFlags().StringVar(&currentProject, "current-project", "", "Name of the current project (e.g., github.com/username/go-imports-lsp)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	rootCmd.AddCommand(serveCmd, organizeCmd, checkCmd, addCmd)
}

func run(cmd *cobra.Command, args []string) error {
	if showVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		return nil
	}
	return cmd.Help()
}

// loadConfig reads the config file for dir and applies the persistent flags
func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Find(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("orgs") {
		cfg.Orgs = orgs
	}
	if flags.Changed("current-project") {
		cfg.CurrentProject = currentProject
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// setup loads configuration for dir and builds the logger. The returned
// function closes the log file.
func setup(cmd *cobra.Command, dir string) (*config.Config, zerolog.Logger, func() error, error) {
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger, closeLog, err := logging.New(cfg, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, logger, closeLog, nil
}

// Execute runs the root command. buildVersion is the module version from the
// build info and is used when no version was set with ldflags.
func Execute(buildVersion string) error {
	if version.Version == "dev" && buildVersion != "" && buildVersion != "(devel)" {
		version.Version = buildVersion
	}
	return rootCmd.Execute()
}

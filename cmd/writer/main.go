package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"research-writer/internal/app"
	"research-writer/internal/config"
	"research-writer/internal/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "writer",
		Short: "Research Writer - search-backed article generation",
		Long: `Turns a short query into a finished article. A Researcher agent summarizes
web search results for the query, then a Writer agent turns that summary into
publishable prose.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Serve command
	var serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Serve POST /prompt, GET /health and GET /metrics until interrupted.`,
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	// Run command
	var runCmd = &cobra.Command{
		Use:   "run [query]",
		Short: "Generate one article and print it",
		Long:  `Run the research and writing pipeline once for the query and print the article to stdout.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOnce,
	}

	// Config command
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Manage writer configuration files.`,
	}

	var configInitCmd = &cobra.Command{
		Use:   "init [filename]",
		Short: "Create a default configuration file",
		Long:  `Generate a default configuration file with all available options. Credentials are left empty.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}

	var configValidateCmd = &cobra.Command{
		Use:   "validate [filename]",
		Short: "Validate a configuration file",
		Long:  `Validate the syntax and values of a configuration file, with environment overrides applied.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigValidate,
	}

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	rootCmd.AddCommand(serveCmd, runCmd, configCmd)
	return rootCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	srv, err := a.Server()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configFile != "" {
		a.Logger.Info().Str("config", configFile).Msg("Configuration loaded")
	}
	return srv.Run(ctx)
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	article, err := a.Pipeline.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), article)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	filename := "writer-config.json"
	if len(args) > 0 {
		filename = args[0]
	}

	cfg := config.DefaultConfig()
	if err := cfg.SaveToFile(filename); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Default configuration saved to: %s\n", filename)
	fmt.Fprintf(out, "Set OPENAI_API_KEY and SERPER_API_KEY, or edit this file to add credentials.\n")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := config.Load(filename)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file '%s' is valid!\n", filename)

	if verbose {
		fmt.Fprintf(out, "\nConfiguration details:\n")
		fmt.Fprintln(out, cfg.String())
	}
	return nil
}

// setup loads configuration and builds the logger and pipeline.
func setup() (*app.App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = zerolog.LevelDebugValue
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return a, nil
}


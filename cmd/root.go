// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-profile/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "github-profile",
	Short: "A CLI tool to analyze GitHub user profiles.",
	Long: `github-profile fetches a GitHub user's profile and repositories and
summarizes them: total stars, a language histogram and the top starred
repositories. Run it once from the terminal, or serve it over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "Path to a .env file with GITHUB_TOKEN and friends")
}

// newLogger discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadConfig reads the default .env leniently, or the --env-file the user
// named strictly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if !cmd.Flags().Changed("env-file") {
		return config.Load()
	}
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-profile/internal/config"
	"github.com/naka-gawa/github-profile/internal/gateway"
	"github.com/naka-gawa/github-profile/internal/usecase"
)

// ErrAnalysisFailed is returned after printing when at least one user could not be analyzed.
var ErrAnalysisFailed = errors.New("one or more profiles could not be analyzed")

// maxParallelUsers bounds how many profiles are analyzed at once.
const maxParallelUsers = 4

var analyzeCmd = &cobra.Command{
	Use:   "analyze USERNAME [USERNAME...]",
	Short: "Analyzes GitHub user profiles and outputs them as JSON",
	Long: `Fetches the profile and repositories of each given GitHub user and prints
total stars, language usage and top repositories in JSON format. Several users
are analyzed concurrently; the output keeps the argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		logger := newLogger(cmd)

		for _, username := range args {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("username is required")
			}
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if api, _ := cmd.Flags().GetString("api"); api != "" {
			cfg.GitHubAPI = api
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		// Inject dependencies and run the main business logic.
		source, err := gateway.NewGateway(cfg.GitHubAPI, cfg.GitHubToken, cfg.GitHubBaseURL, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		aggregator := usecase.NewProfileAggregator(source, logger)

		results := make([]any, len(args))
		// A plain Group lets every user finish; Wait reports whether any failed.
		var eg errgroup.Group
		eg.SetLimit(maxParallelUsers)
		for i, username := range args {
			eg.Go(func() error {
				userCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()
				result, err := aggregator.Aggregate(userCtx, username)
				if err != nil {
					results[i] = err
					return err
				}
				results[i] = result
				return nil
			})
		}
		waitErr := eg.Wait()

		var output any = results
		if len(results) == 1 {
			output = results[0]
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))

		if waitErr != nil {
			return ErrAnalysisFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("api", "", "GitHub API to use: rest or graphql (overrides GITHUB_API)")
}

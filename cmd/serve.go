package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-profile/internal/gateway"
	"github.com/naka-gawa/github-profile/internal/handler"
	"github.com/naka-gawa/github-profile/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves profile analysis over HTTP",
	Long: `Starts an HTTP server exposing POST /analyze (form field "username")
and GET /api/v1/users/:username, both answering with the JSON analysis.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}

		source, err := gateway.NewGateway(cfg.GitHubAPI, cfg.GitHubToken, cfg.GitHubBaseURL, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		aggregator := usecase.NewProfileAggregator(source, logger)
		app := handler.NewApp(aggregator, cfg.RequestTimeout, logger)

		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on :%s\n", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
}

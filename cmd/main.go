package main

import (
	"fmt"
	"os"
	"strconv"

	"go-medical-appointment/cmd/bootstrap"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	serve := serveCommand()

	root := &cobra.Command{
		Use:          "clinic",
		Short:        "Medical appointment service",
		SilenceUsage: true,
		// Running the binary without a subcommand starts the server
		RunE: serve.RunE,
	}
	root.AddCommand(serve, migrateCommand(), seedCatalogCommand())
	return root
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Initialize application with all dependencies
			app, err := bootstrap.New(cmd.Context())
			if err != nil {
				logrus.Errorf("Failed to initialize application: %v", err)
				return err
			}

			// Run the application
			app.Run()
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return bootstrap.MigrateUp()
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				return bootstrap.MigrateDown(steps)
			},
		},
	)
	return cmd
}

func seedCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-catalog <file>",
		Short: "Upsert the analysis catalog from a YAML file",
		Example: `  clinic seed-catalog catalog.yaml

  # catalog.yaml
  analyses:
    - code: CBC
      name: Complete blood count
      price: "150.00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bootstrap.SeedCatalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d analyses\n", n)
			return nil
		},
	}
}

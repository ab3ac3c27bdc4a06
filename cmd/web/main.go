package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/ad-atlas/pkg/server"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite/run"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var dbPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve finalized advertising reports over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&dbPath, "db", "ad-atlas.db", "Path to the run store")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := sqlite.NewDB(sqlite.Settings{DbPath: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer db.Close()

	runStore, err := run.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "8080"
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(host, port),
		Dependencies: server.Dependencies{
			Runs: runStore,
		},
	})

	return api.Start()
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nemuri-labs/nemuri/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nemurid",
		Short: "Nemuri daemon and CLI",
		Long:  "Nemuri daemon for running the sleep-hygiene assistant API and ingesting knowledge",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

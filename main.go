package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/evflow/evflow/cmd"
)

var version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Internal error: %v. This is a bug.\n", r)
			os.Exit(1)
		}
	}()

	root := &cobra.Command{
		Use:     "evflow",
		Short:   "evdev event-processing pipeline",
		Version: version,
	}
	root.AddCommand(cmd.CreateRunCmd())

	if err := root.Execute(); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

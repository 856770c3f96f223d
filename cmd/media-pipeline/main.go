// cmd/media-pipeline/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "media-pipeline",
		Short:         "Route audio, image and text files through speech, OCR and synthesis engines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default: configs/config.yaml)")

	root.AddCommand(
		newProcessCommand(&configPath),
		newServeCommand(&configPath),
		newWorkerCommand(&configPath),
	)
	return root
}

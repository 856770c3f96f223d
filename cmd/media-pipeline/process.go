package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"media-pipeline/internal/pipeline/router"
)

func newProcessCommand(configPath *string) *cobra.Command {
	var (
		file   string
		output string
		voice  string
		rate   int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one file and write the JSON or WAV result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			req := router.Request{InputPath: file, OutputPath: output}
			if cmd.Flags().Changed("voice") {
				req.Voice = &voice
			}
			if cmd.Flags().Changed("rate") {
				req.Rate = &rate
			}

			r := a.newRouter(router.Options{Output: router.OutputFile, Intent: router.IntentDiscard})
			res, err := r.Route(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s output to %s\n", res.Kind, res.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (audio, image or .txt)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (.json or .wav)")
	cmd.Flags().StringVar(&voice, "voice", "", "synthesis voice id or name")
	cmd.Flags().IntVar(&rate, "rate", 0, "synthesis speaking rate in words per minute")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

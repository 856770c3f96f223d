package processmedia

import "media-pipeline/internal/pipeline/intent"

type Input struct {
	InputPath  string  `json:"inputPath"`
	OutputPath string  `json:"outputPath"`
	Voice      *string `json:"voice,omitempty"`
	Rate       *int    `json:"rate,omitempty"`
}

type Output struct {
	Kind       string         `json:"kind"`
	OutputPath string         `json:"outputPath"`
	Intent     *intent.Result `json:"intent,omitempty"`
}

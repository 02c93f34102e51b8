package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/delaneyj/fxgraph/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	genericParamCountKey = "count"
	outKey               = "out"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate the typed subscriber helpers of package fx",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  genericParamCountKey,
				Usage: "Number of typed dependencies to generate helpers for",
				Value: 4,
			},
			&cli.StringFlag{
				Name:  outKey,
				Usage: "Output file",
				Value: "fx/typed_gen.go",
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("codegen failed", "error", err)
		os.Exit(1)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	out := cmd.String(outKey)
	count := int(cmd.Uint(genericParamCountKey))

	slog.Info("codegen started", "out", out, "count", count)
	defer func() {
		slog.Info("codegen finished", "took", time.Since(start))
	}()

	contents := templates.TypedHelpersGen(count)
	return os.WriteFile(out, []byte(contents), 0644)
}

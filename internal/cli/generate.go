package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tactilab/dotplate/pkg/config"
	"github.com/tactilab/dotplate/pkg/errors"
	"github.com/tactilab/dotplate/pkg/pipeline"
	"github.com/tactilab/dotplate/pkg/plate"
)

// generateOpts holds the command-line flags for the generate command.
// Flags override values from the plate definition file.
type generateOpts struct {
	output    string  // output base path (extension per format is appended)
	plateType string  // "embossing" or "counter", overrides the definition
	formats   string  // comma-separated output formats
	segments  int     // tessellation segments per revolution
	epsilon   float64 // seating/boolean epsilon in mm
	strict    bool    // treat grid overflow as an error
	refresh   bool    // recompute even when cached
	cache     cacheFlags
}

// generateCommand creates the generate command for building plate geometry.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate <definition.toml>",
		Short: "Generate plate geometry from a plate definition",
		Long: `Generate reads a dotplate.toml plate definition and writes the
requested artifacts: the canonical geometry spec as JSON and, when
requested, the assembled solid as binary STL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: definition file name)")
	cmd.Flags().StringVarP(&opts.plateType, "plate", "p", "", "plate type: embossing or counter")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), stl (comma-separated)")
	cmd.Flags().IntVar(&opts.segments, "segments", 0, "tessellation segments per revolution")
	cmd.Flags().Float64Var(&opts.epsilon, "epsilon", 0, "seating epsilon in mm")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on grid overflow instead of truncating")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute artifacts even when cached")
	opts.cache.register(cmd)

	return cmd
}

// runGenerate loads the definition, runs the pipeline and writes artifacts.
func (c *CLI) runGenerate(ctx context.Context, input string, opts *generateOpts) error {
	if opts.output != "" {
		if err := errors.ValidateOutputPath(opts.output); err != nil {
			return err
		}
	}

	def, err := config.Load(input)
	if err != nil {
		return err
	}
	pipeOpts, err := def.Options()
	if err != nil {
		return err
	}
	applyFlags(&pipeOpts, opts)
	pipeOpts.Logger = c.Logger

	// Defaults must be applied here, not just inside Execute: the format
	// list drives writeArtifacts after the run.
	if err := pipeOpts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	// The definition's cache section applies unless flags say otherwise.
	if opts.cache.cacheDir == "" {
		opts.cache.cacheDir = def.Cache.Dir
	}
	if opts.cache.redisURL == "" {
		opts.cache.redisURL = def.Cache.URL
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx = withLogger(ctx, c.Logger)
	prog := newProgress(c.Logger)

	var spin *Spinner
	if pipeOpts.WantsMesh() {
		spin = newSpinnerWithContext(ctx, "Assembling solid...")
		spin.Start()
	}

	result, err := runner.Execute(ctx, pipeOpts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		printError("Generation failed: %v", err)
		return err
	}
	prog.done(fmt.Sprintf("Built %d primitives", result.Stats.PrimitiveCount))

	if result.Truncated > 0 {
		printWarning("%d cells truncated; use --strict to fail instead", result.Truncated)
	}

	base := basePath(opts.output, input)
	written, err := writeArtifacts(ctx, base, pipeOpts.Formats, result)
	if err != nil {
		return err
	}

	cached := result.CacheInfo.MeshHit || (!pipeOpts.WantsMesh() && result.CacheInfo.SpecHit)
	printSuccess("Generated %s plate", result.Spec.PlateType)
	printStats(result.Stats.CellCount, result.Stats.PrimitiveCount,
		result.Stats.TriangleCount, cached)
	for _, path := range written {
		printFile(path)
	}
	printDetail("spec %s", result.SpecHash[:12])
	return nil
}

// applyFlags overrides definition values with explicitly set flags.
func applyFlags(pipeOpts *pipeline.Options, opts *generateOpts) {
	if opts.plateType != "" {
		pipeOpts.PlateType = plate.PlateType(opts.plateType)
	}
	if opts.formats != "" {
		pipeOpts.Formats = parseFormats(opts.formats)
	}
	if opts.segments > 0 {
		pipeOpts.Segments = opts.segments
	}
	if opts.epsilon > 0 {
		pipeOpts.Epsilon = opts.epsilon
	}
	if opts.strict {
		pipeOpts.StrictOverflow = true
	}
	if opts.refresh {
		pipeOpts.Refresh = true
	}
}

// basePath derives the artifact base path from the output flag and the
// input file. A known format extension on the output is stripped so that
// "-o plate.stl" and "-o plate" behave identically.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeArtifacts writes each requested format next to the base path and
// returns the written file paths.
func writeArtifacts(ctx context.Context, base string, formats []string, result *pipeline.Result) ([]string, error) {
	logger := loggerFromContext(ctx)

	var written []string
	for _, format := range formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := fmt.Sprintf("%s.%s", base, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		logger.Debug("wrote artifact", "path", path, "bytes", len(data))
		written = append(written, path)
	}
	return written, nil
}

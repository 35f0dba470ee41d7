package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/paleta/internal/colour"
	"github.com/jmylchreest/paleta/internal/image"
)

// previewWidth is the swatch width in terminal cells.
const previewWidth = 11

// extractOptions holds the extract command flags.
type extractOptions struct {
	colours     int
	seed        int64
	restarts    int
	size        int
	format      string
	output      string
	showPreview bool
}

func newExtractCmd(global *globalOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image|url>",
		Short: "Extract a colour palette from an image",
		Long: `Extract a colour palette from an image file or HTTP(S) URL.

The image is downsampled to a fixed working size and its pixels are grouped
with k-means clustering. Each cluster centre becomes one colour. Results are
deterministic for the same image, colour count and seed.

The colour count is clamped to the configured range (3-15 by default).

Examples:
  # Extract the default number of colours
  paleta extract photo.jpg

  # Extract 8 colours with terminal swatches
  paleta extract --preview -c 8 photo.png

  # Output JSON with cluster weights
  paleta extract --format json photo.jpg

  # Use a different seed and save the result
  paleta extract --seed 7 -o colours.txt https://example.com/photo.webp`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.colours, "colours", "c", 0, "number of colours to extract (default from configuration)")
	cmd.Flags().Int64Var(&opts.seed, "seed", colour.DefaultSeed, "master seed for k-means restarts")
	cmd.Flags().IntVar(&opts.restarts, "restarts", colour.DefaultRestarts, "number of k-means restarts")
	cmd.Flags().IntVar(&opts.size, "size", colour.DefaultWorkingSize, "side of the square working image in pixels")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.showPreview, "preview", false, "show colour swatches when the terminal supports it")

	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, global *globalOptions, opts *extractOptions, source string) error {
	logger := global.logger
	cfg := global.config

	// Flags override configuration only when set explicitly.
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if flags.Changed("restarts") {
		cfg.Restarts = opts.restarts
	}
	if flags.Changed("size") {
		cfg.WorkingSize = opts.size
	}

	var requested *int
	if flags.Changed("colours") {
		requested = &opts.colours
	}
	count := cfg.ClampColors(requested)
	if requested != nil && count != *requested {
		logger.Warn("colour count clamped", "requested", *requested, "used", count)
	}

	switch opts.format {
	case "hex", "json":
	default:
		return fmt.Errorf("unsupported format: %s (supported: hex, json)", opts.format)
	}

	extractor, err := colour.NewExtractor(cfg.ExtractorConfig(logger))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("loading image", "source", source)
	loader := image.NewSmartLoader(cfg.LoaderOptions(logger.Named("loader")))
	img, err := loader.Load(cmd.Context(), source)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	bounds := img.Bounds()
	logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy(), "colours", count)

	palette, err := extractor.Extract(img, count)
	if err != nil {
		return fmt.Errorf("failed to extract colours: %w", err)
	}

	logger.Debug("extracted palette", "colours", palette.Len())

	preview := opts.showPreview && opts.output == "" && colour.SupportsANSIColours()
	output, err := formatPalette(palette, opts.format, preview)
	if err != nil {
		return err
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(output), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Debug("wrote palette", "path", opts.output)
		return nil
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}

// formatPalette formats the palette according to the specified format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatHex(palette, showPreview), nil
	case "json":
		jsonBytes, err := palette.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, json)", format)
	}
}

// formatHex formats the palette as one hex code per line. With a preview
// each line is a swatch labelled with the hex code and its cluster share.
func formatHex(palette *colour.Palette, showPreview bool) string {
	var sb strings.Builder
	palette.All()(func(i int, rgb colour.RGB) bool {
		if !showPreview {
			sb.WriteString(rgb.Hex())
			sb.WriteByte('\n')
			return true
		}
		sb.WriteString(colour.ColourPreviewWithText(rgb, rgb.Hex(), previewWidth))
		if i < len(palette.Weights) {
			fmt.Fprintf(&sb, " %5.1f%%", palette.Weights[i]*100)
		}
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

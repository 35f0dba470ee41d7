package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/paleta/internal/bundle"
	"github.com/jmylchreest/paleta/internal/colour"
	"github.com/jmylchreest/paleta/internal/export"
)

// stdoutPath selects standard output for -o.
const stdoutPath = "-"

// exportOptions holds the export command flags.
type exportOptions struct {
	colors []string
	from   string
	format export.Format
	output string
	all    bool
	bundle string
}

func newExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{format: export.FormatJSON}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a list of colours to a palette file",
		Long: `Export an ordered list of hex colours to a palette file format.

Colours come from --colors or from a JSON file written by "paleta extract
--format json" or "paleta export -f json". A bundle written with --bundle
can be given to --from as well; its palette.json is used. Each colour must be #RRGGBB; it
is trimmed and uppercased before encoding.

Examples:
  # Adobe Swatch Exchange file named palette.ase
  paleta export --colors "#FF5733,#33FF57,#3357FF" -f ase

  # GIMP palette to stdout
  paleta export --colors "#FF5733,#33FF57,#3357FF" -f gpl -o -

  # Every format into one archive
  paleta extract --format json photo.jpg -o colours.json
  paleta export --from colours.json --all --bundle palettes.tar.xz

  # Re-export from an existing bundle
  paleta export --from palettes.tar.xz -f gpl

  # Every format as separate files in a directory
  paleta export --from colours.json --all -o ./palettes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, global, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.colors, "colors", nil, "comma-separated hex colours")
	cmd.Flags().StringVar(&opts.from, "from", "", "read colours from a JSON file or bundle")
	cmd.Flags().VarP(&opts.format, "format", "f", "export format (json, gpl, ase, csv, aco, png)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output path (default: palette.<format>, "-" for stdout)`)
	cmd.Flags().BoolVar(&opts.all, "all", false, "export every format")
	cmd.Flags().StringVar(&opts.bundle, "bundle", "", "with --all, write one .tar.gz, .tar.xz or .zip archive")

	cmd.MarkFlagsMutuallyExclusive("colors", "from")
	cmd.MarkFlagsOneRequired("colors", "from")
	cmd.MarkFlagsMutuallyExclusive("all", "format")

	return cmd
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, global *globalOptions, opts *exportOptions) error {
	logger := global.logger
	cfg := global.config

	if opts.bundle != "" && !opts.all {
		return errors.New("--bundle requires --all")
	}

	raw := opts.colors
	if opts.from != "" {
		var err error
		raw, err = readColoursFile(opts.from)
		if err != nil {
			return err
		}
	}

	colors, err := colour.NormalizePalette(raw, cfg.MinColors, cfg.MaxColors)
	if err != nil {
		return err
	}

	encoder := export.NewEncoder(export.WithLogger(logger))

	if !opts.all {
		res, err := encoder.Encode(colors, opts.format)
		if err != nil {
			return err
		}
		return writeResult(cmd, res, opts.output)
	}

	results, err := encoder.EncodeAll(colors)
	if err != nil {
		return err
	}

	if opts.bundle != "" {
		return writeBundle(opts.bundle, results, time.Now())
	}

	dir := opts.output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - output directory chosen by the user
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, res := range results {
		path := filepath.Join(dir, res.Filename)
		if err := os.WriteFile(path, res.Data, 0o644); err != nil { // #nosec G306 - palette output is not sensitive
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("wrote palette", "format", res.Format, "path", path)
	}
	return nil
}

// writeResult writes a single encoded palette to path, stdout or the
// format's default file name.
func writeResult(cmd *cobra.Command, res *export.Result, path string) error {
	if path == stdoutPath {
		_, err := cmd.OutOrStdout().Write(res.Data)
		return err
	}
	if path == "" {
		path = res.Filename
	}
	if err := os.WriteFile(path, res.Data, 0o644); err != nil { // #nosec G306 - palette output is not sensitive
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}

// writeBundle packs every result into a single archive at path.
func writeBundle(path string, results []*export.Result, modTime time.Time) error {
	kind, err := bundle.KindFromFilename(path)
	if err != nil {
		return err
	}

	files := make([]bundle.File, 0, len(results))
	for _, res := range results {
		files = append(files, bundle.File{Name: res.Filename, Data: res.Data})
	}

	var buf bytes.Buffer
	if err := bundle.Write(&buf, files, kind, modTime); err != nil {
		return fmt.Errorf("failed to create %s bundle: %w", kind, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	return nil
}

// readColoursFile reads colours from a JSON document, or from the
// palette.json entry of a bundle written by "export --all --bundle". Both the
// export layout ({"colors": ["#RRGGBB", ...]}) and the extract layout
// ({"colors": [{"hex": "#RRGGBB", ...}, ...]}) are accepted.
func readColoursFile(path string) ([]string, error) {
	if kind, err := bundle.KindFromFilename(path); err == nil {
		data, err := readBundleEntry(path, kind, export.FormatJSON.Filename())
		if err != nil {
			return nil, err
		}
		return parseColours(data, path)
	}

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - User-specified palette file, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read colours file: %w", err)
	}
	return parseColours(data, path)
}

// readBundleEntry returns the contents of the named entry in a bundle.
func readBundleEntry(path string, kind bundle.Kind, name string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path)) // #nosec G304 - User-specified bundle, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	files, err := bundle.Read(f, kind, bundle.DefaultMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read bundle %s: %w", colour.ErrInvalidArgument, path, err)
	}
	for _, file := range files {
		if file.Name == name {
			return file.Data, nil
		}
	}
	return nil, fmt.Errorf("%w: bundle %s has no %s entry", colour.ErrInvalidArgument, path, name)
}

func parseColours(data []byte, path string) ([]string, error) {
	var doc struct {
		Colors json.RawMessage `json:"colors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid colours file %s: %w", colour.ErrInvalidArgument, path, err)
	}
	if len(doc.Colors) == 0 {
		return nil, fmt.Errorf("%w: colours file %s has no \"colors\" field", colour.ErrInvalidArgument, path)
	}

	var plain []string
	if err := json.Unmarshal(doc.Colors, &plain); err == nil {
		return plain, nil
	}

	var detailed []colour.ColorJSON
	if err := json.Unmarshal(doc.Colors, &detailed); err != nil {
		return nil, fmt.Errorf("%w: colours file %s: \"colors\" must be a list of hex strings or objects with a \"hex\" field", colour.ErrInvalidArgument, path)
	}
	colors := make([]string, len(detailed))
	for i, c := range detailed {
		colors[i] = c.Hex
	}
	return colors, nil
}

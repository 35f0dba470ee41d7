package export

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/paleta/internal/colour"
)

// Result is an encoded palette ready to be delivered to a client.
type Result struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Encoder turns a list of hex colours into export formats.
// It holds only configuration and is safe for concurrent use.
type Encoder struct {
	now    func() time.Time
	layout Layout
	logger hclog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock sets the clock used for the JSON generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		e.now = now
	}
}

// WithLayout overrides the PNG preview geometry.
func WithLayout(layout Layout) Option {
	return func(e *Encoder) {
		e.layout = layout
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger hclog.Logger) Option {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// NewEncoder creates an Encoder with the given options applied.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		now:    time.Now,
		layout: DefaultLayout(),
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("export")
	return e
}

// Encode serialises colors in the requested format. Colours must be
// non-empty and each must be a "#RRGGBB" string; text formats keep the
// strings exactly as given.
func (e *Encoder) Encode(colors []string, format Format) (*Result, error) {
	if err := colour.ValidateHexList(colors); err != nil {
		return nil, err
	}

	rgbs := make([]colour.RGB, len(colors))
	for i, c := range colors {
		rgb, err := colour.ParseHex(c)
		if err != nil {
			return nil, err
		}
		rgbs[i] = rgb
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = encodeJSON(colors, e.now())
	case FormatGPL:
		data = encodeGPL(rgbs)
	case FormatASE:
		data = encodeASE(rgbs)
	case FormatCSV:
		data = encodeCSV(colors)
	case FormatACO:
		data = encodeACO(rgbs)
	case FormatPNG:
		data, err = renderPNG(rgbs, e.layout)
	default:
		return nil, fmt.Errorf("%w: %q", colour.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s palette: %w", format, err)
	}

	e.logger.Debug("encoded palette", "format", format, "colours", len(colors), "bytes", len(data))

	return &Result{
		Format:      format,
		Filename:    format.Filename(),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// EncodeAll encodes colors in every supported format, in Formats() order.
func (e *Encoder) EncodeAll(colors []string) ([]*Result, error) {
	results := make([]*Result, 0, len(Formats()))
	for _, f := range Formats() {
		res, err := e.Encode(colors, f)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

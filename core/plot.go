package core

import (
	"context"
	"time"

	"github.com/Skryldev/plotting/config"
	apperrors "github.com/Skryldev/plotting/errors"
)

// Plot is the uncached image source: figure production, encoding and
// post-processing for one configured format.  It is safe for concurrent use
// as long as its render, data and options functions are.
type Plot struct {
	cfg      config.Plot
	producer *FigureProducer
	encoder  Encoder
	runner   PipelineRunner
	logger   Logger
	metrics  MetricsCollector
}

// NewPlot assembles a plot.  runner may be nil, meaning no post-processing.
func NewPlot(cfg config.Plot, producer *FigureProducer, encoder Encoder, runner PipelineRunner) *Plot {
	return &Plot{
		cfg:      cfg,
		producer: producer,
		encoder:  encoder,
		runner:   runner,
		logger:   NopLogger,
		metrics:  NopMetrics,
	}
}

// SetLogger attaches a structured logger.
func (p *Plot) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// SetMetrics attaches a metrics collector.
func (p *Plot) SetMetrics(m MetricsCollector) {
	if m != nil {
		p.metrics = m
	}
}

// Config returns the plot's value configuration.
func (p *Plot) Config() config.Plot { return p.cfg }

// Format returns the format of the images Image produces: the configured
// filetype as transformed by any format-changing post-processor.
func (p *Plot) Format() Format {
	f := p.inputFormat()
	if fc, ok := p.runner.(FormatChanger); ok {
		return fc.OutputFormat(f)
	}
	return f
}

func (p *Plot) inputFormat() Format { return Format(p.cfg.Filetype).Normalize() }

// Image renders, encodes and post-processes a fresh image.
func (p *Plot) Image(ctx context.Context) (*EncodedImage, error) {
	format := p.inputFormat()
	start := time.Now()

	var img *EncodedImage
	err := p.producer.WithFigure(ctx, func(fig Figure) error {
		if p.encoder == nil {
			return apperrors.New(apperrors.CategoryConfig, "plot.encode", apperrors.ErrMustOverride)
		}
		var encErr error
		img, encErr = p.encoder.Encode(ctx, fig, format)
		return encErr
	})
	p.metrics.RecordProcessingTime("render", time.Since(start))
	if err != nil {
		p.metrics.RecordError("render", categoryOf(err))
		return nil, err
	}

	if p.runner != nil {
		img, _, err = p.runner.Run(ctx, img)
		if err != nil {
			return nil, err
		}
	}

	p.metrics.RecordThroughput(int64(img.Len()))
	p.logger.Debug("plot.rendered",
		"format", img.Format,
		"bytes", img.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return img, nil
}

func categoryOf(err error) string {
	var pe *apperrors.ProcessingError
	if apperrors.As(err, &pe) {
		return string(pe.Category)
	}
	return "unknown"
}

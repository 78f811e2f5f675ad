package core

import (
	"context"
	"fmt"

	apperrors "github.com/Skryldev/plotting/errors"
)

// FigureProducer calls a render function and scopes the lifetime of the
// figure it returns.
type FigureProducer struct {
	render  RenderFunc
	data    DataFunc
	options OptionsFunc
}

// NewFigureProducer binds the render function and its input suppliers.  Nil
// suppliers yield an empty data map and empty options.
func NewFigureProducer(render RenderFunc, data DataFunc, options OptionsFunc) *FigureProducer {
	return &FigureProducer{render: render, data: data, options: options}
}

// WithFigure renders one figure, hands it to fn and closes it on every exit
// path, including a panic inside fn.  A Close error is returned only when fn
// itself succeeded.
func (p *FigureProducer) WithFigure(ctx context.Context, fn func(Figure) error) (err error) {
	if p == nil || p.render == nil {
		return apperrors.New(apperrors.CategoryConfig, "figure.produce", apperrors.ErrMissingRenderer)
	}

	data, opts, err := p.inputs(ctx)
	if err != nil {
		return err
	}

	fig, err := p.render(data, opts)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryRender, "figure.render", err)
	}
	if fig == nil {
		return apperrors.New(apperrors.CategoryRender, "figure.render",
			fmt.Errorf("%w: render function returned no figure", apperrors.ErrEmptyInput))
	}

	defer func() {
		if cerr := fig.Close(); cerr != nil && err == nil {
			err = apperrors.Wrap(apperrors.CategoryRender, "figure.close", cerr)
		}
	}()

	return fn(fig)
}

func (p *FigureProducer) inputs(ctx context.Context) (any, Options, error) {
	var data any = map[string]any{}
	if p.data != nil {
		d, err := p.data(ctx)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.CategoryInput, "figure.data", err)
		}
		data = d
	}

	opts := Options{}
	if p.options != nil {
		o, err := p.options(ctx)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.CategoryInput, "figure.options", err)
		}
		if o != nil {
			opts = o.Clone()
		}
	}
	return data, opts, nil
}

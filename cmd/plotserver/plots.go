package main

import (
	"context"
	"hash/fnv"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	plotting "github.com/Skryldev/plotting"
	"github.com/Skryldev/plotting/adapters/response"
	"github.com/Skryldev/plotting/adapters/vips"
	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	"github.com/Skryldev/plotting/figure"
	"github.com/Skryldev/plotting/figure/ggfig"
	"github.com/Skryldev/plotting/figure/svgfig"
	"github.com/Skryldev/plotting/hooks"
	"github.com/Skryldev/plotting/pipeline"
)

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

// regionSeries derives a stable series from the region name so that equal
// cache keys always describe equal plots.
func regionSeries(ctx context.Context) (any, error) {
	region := regionOf(ctx)
	h := fnv.New32a()
	h.Write([]byte(region))
	seed := h.Sum32()

	s := figure.Series{Title: "Orders: " + region, Labels: months, Values: make([]float64, len(months))}
	for i := range s.Values {
		seed = seed*1664525 + 1013904223
		s.Values[i] = float64(10 + seed%90)
	}
	return s, nil
}

type regionCtxKey struct{}

func withRegion(ctx context.Context, region string) context.Context {
	return context.WithValue(ctx, regionCtxKey{}, region)
}

func regionOf(ctx context.Context) string {
	if r, ok := ctx.Value(regionCtxKey{}).(string); ok && r != "" {
		return r
	}
	if r := response.Param(ctx, "region"); r != "" {
		return r
	}
	return "north"
}

func regionKey(prefix string) core.KeyFunc {
	return func(ctx context.Context) (any, error) { return prefix + ":" + regionOf(ctx), nil }
}

type demo struct {
	bars      *plotting.Plot
	barsJPEG  *plotting.Plot
	barsSmall *plotting.Plot
	barsWebP  *plotting.Plot
	line      *plotting.Plot
	lineZ     *plotting.Plot
	linePNG   *plotting.Plot
	page      *template.Template
}

func newPlots(cfg config.Config, caches *core.Registry[core.CacheBackend], log *hooks.ZapLogger, metrics *hooks.LatencyMetrics, backend *vips.Backend) *demo {
	common := []plotting.Option{
		plotting.WithCache(caches),
		plotting.WithLogger(log),
		plotting.WithMetrics(metrics),
		plotting.WithHooks(hooks.NewLoggingHook(log), hooks.NewMetricsHook(metrics)),
	}
	opts := func(extra ...plotting.Option) []plotting.Option {
		return append(append([]plotting.Option{}, common...), extra...)
	}
	plot := func(filetype, prefix string, mutate func(*config.Plot)) config.Plot {
		p := cfg.Plot
		p.Filetype = filetype
		p.CacheKeyPrefix = prefix
		if mutate != nil {
			mutate(&p)
		}
		return p
	}

	barDef := plotting.Definition{
		Render:   ggfig.BarChart,
		Data:     regionSeries,
		Options:  func(context.Context) (core.Options, error) { return core.Options{"width": 640, "height": 360}, nil },
		CacheKey: regionKey("bars"),
	}
	lineDef := plotting.Definition{
		Render:   svgfig.LineChart,
		Data:     regionSeries,
		Options:  func(context.Context) (core.Options, error) { return core.Options{"hue": 20}, nil },
		CacheKey: regionKey("line"),
	}

	d := &demo{
		bars: plotting.New(barDef, plot("png", "png.", func(p *config.Plot) {
			p.Disposition = "inline"
			p.Filename = "orders"
		}), opts()...),
		barsJPEG: plotting.New(barDef, plot("jpeg", "jpeg.", func(p *config.Plot) {
			p.Disposition = "attachment"
			p.Filename = "orders.jpeg"
		}), opts()...),
		barsSmall: plotting.New(barDef, plot("png", "small.", func(p *config.Plot) { p.Disposition = "inline" }),
			opts(plotting.WithSteps(&pipeline.ScaleStep{Width: 160}))...),
		line: plotting.New(lineDef, plot("svg", "svg.", func(p *config.Plot) { p.Disposition = "inline" }), opts()...),
		lineZ: plotting.New(lineDef, plot("svgz", "svgz.", func(p *config.Plot) { p.Disposition = "inline" }),
			opts()...),
		linePNG: plotting.New(lineDef, plot("svg", "raster.", func(p *config.Plot) { p.Disposition = "inline" }),
			opts(plotting.WithSteps(&pipeline.RasterizeStep{Width: 640}))...),
		page: template.Must(template.New("page").Parse(pageTemplate)),
	}
	if backend != nil {
		d.barsWebP = plotting.New(barDef, plot("png", "webp.", func(p *config.Plot) { p.Disposition = "inline" }),
			opts(plotting.WithSteps(backend.Reencode(plotting.WebP)))...)
	}
	return d
}

// warm lists the plots rendered before the server starts accepting traffic.
func (d *demo) warm() []core.ImageSource {
	return []core.ImageSource{d.bars, d.line, d.lineZ}
}

func (d *demo) routes(router *gin.Engine, storages *core.Registry[core.StorageAdapter]) {
	d.bars.Handler().Register(router, "/plots/:region/bars.png")
	d.barsJPEG.Handler().Register(router, "/plots/:region/bars.jpeg")
	d.barsSmall.Handler().Register(router, "/plots/:region/bars.small.png")
	d.line.Handler().Register(router, "/plots/:region/line.svg")
	d.lineZ.Handler().Register(router, "/plots/:region/line.svgz")
	d.linePNG.Handler().Register(router, "/plots/:region/line.png")
	if d.barsWebP != nil {
		d.barsWebP.Handler().Register(router, "/plots/:region/bars.webp")
	}

	router.GET("/", d.index)
	router.GET("/regions/:region", d.index)
	router.POST("/plots/:region/snapshot", func(c *gin.Context) {
		region := c.Param("region")
		ctx := withRegion(c.Request.Context(), region)
		if err := d.bars.Saver("orders-"+region, storages).Save(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "stored", "name": "orders-" + region + ".png"})
	})
}

func (d *demo) index(c *gin.Context) {
	ctx := withRegion(c.Request.Context(), c.Param("region"))

	svg, err := d.line.Value().GetValue(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	png, err := d.bars.Base64Value().GetValue(ctx)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := d.page.Execute(c.Writer, gin.H{"Region": regionOf(ctx), "Line": svg.HTML(), "Bars": png.DataURI()}); err != nil {
		_ = c.Error(err)
	}
}

// Package response serves rendered plots over HTTP.
package response

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	"github.com/Skryldev/plotting/utils"
)

const allowedMethods = "GET, HEAD, OPTIONS"

// Response is the framework-neutral result of handling one request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Handler answers GET and HEAD with the image produced by its source.  Every
// request renders (or hits the cache) afresh, HEAD included, so that
// Content-Length reflects a real render.
type Handler struct {
	source core.ImageSource
	cfg    config.Plot
	logger core.Logger
}

// NewHandler wires src to HTTP.  Disposition, filename, mimetype and
// encoding come from cfg.
func NewHandler(src core.ImageSource, cfg config.Plot, logger core.Logger) *Handler {
	if logger == nil {
		logger = core.NopLogger
	}
	return &Handler{source: src, cfg: cfg, logger: logger}
}

// Respond produces the response for method.  Errors from rendering, caching
// or configuration are returned untouched; mapping them to a status is the
// caller's concern.
func (h *Handler) Respond(ctx context.Context, method string) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodHead:
	case http.MethodOptions:
		return &Response{Status: http.StatusNoContent, Header: http.Header{"Allow": {allowedMethods}}}, nil
	default:
		return &Response{Status: http.StatusMethodNotAllowed, Header: http.Header{"Allow": {allowedMethods}}}, nil
	}

	img, err := h.source.Image(ctx)
	if err != nil {
		return nil, err
	}
	resp := &Response{Status: http.StatusOK, Header: h.Headers(img)}
	if method == http.MethodGet {
		resp.Body = img.Data
	}
	return resp, nil
}

// Headers builds Content-Type, Content-Disposition, Content-Encoding and
// Content-Length for img.
func (h *Handler) Headers(img *core.EncodedImage) http.Header {
	hdr := http.Header{}
	hdr.Set("Content-Type", h.mimetype(img))

	switch d := h.cfg.Disposition; {
	case d == "inline":
		hdr.Set("Content-Disposition", "inline")
	case d != "":
		hdr.Set("Content-Disposition", `attachment; filename="`+h.cfg.Filename+`"`)
	}

	encoding := h.cfg.Encoding
	if encoding == "" {
		encoding = core.LookupFormat(img.Format).Encoding
	}
	if encoding != "" {
		hdr.Set("Content-Encoding", encoding)
	}

	hdr.Set("Content-Length", strconv.Itoa(img.Len()))
	return hdr
}

func (h *Handler) mimetype(img *core.EncodedImage) string {
	if h.cfg.Mimetype != "" {
		return h.cfg.Mimetype
	}
	if m := core.LookupFormat(img.Format).MimeType; m != "" {
		return m
	}
	if m := utils.DetectMime(img.Data); m != "" {
		return m
	}
	return "application/octet-stream"
}

// ServeHTTP is the framework boundary: failures become a logged 500.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequest(r.Context(), r)
	resp, err := h.Respond(ctx, r.Method)
	if err != nil {
		h.logger.Error("response.render_failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	for k, vs := range resp.Header {
		w.Header()[k] = vs
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			h.logger.Warn("response.write_failed", "path", r.URL.Path, "error", err)
		}
	}
}

// Register mounts the handler on a gin router for GET, HEAD and OPTIONS.
// Path parameters are available to suppliers through Param.
func (h *Handler) Register(routes gin.IRoutes, path string) {
	serve := func(c *gin.Context) {
		ctx := withParams(c.Request.Context(), c.Params)
		h.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	}
	routes.GET(path, serve)
	routes.HEAD(path, serve)
	routes.OPTIONS(path, serve)
}

// ── Request context ───────────────────────────────────────────────────────────

type requestKey struct{}
type paramsKey struct{}

// WithRequest exposes r to data, options and cache key suppliers.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the request being served, if any.
func RequestFromContext(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok
}

func withParams(ctx context.Context, params gin.Params) context.Context {
	return context.WithValue(ctx, paramsKey{}, params)
}

// Param returns a route parameter registered through Register, falling back
// to the query string of the request.
func Param(ctx context.Context, name string) string {
	if params, ok := ctx.Value(paramsKey{}).(gin.Params); ok {
		if v, ok := params.Get(name); ok {
			return v
		}
	}
	if r, ok := RequestFromContext(ctx); ok {
		return strings.TrimSpace(r.URL.Query().Get(name))
	}
	return ""
}

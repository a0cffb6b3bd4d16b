// Package serve exposes macro expansion over HTTP.
package serve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ardnew/eager/lang"
	"github.com/ardnew/eager/log"
)

// Server answers expansion requests with a shared registry. Macros declared
// by a request source are visible to that request only.
type Server struct {
	registry *lang.Registry
	logger   log.Logger
	opts     []lang.Option
}

// New returns a server resolving invocations with reg.
func New(reg *lang.Registry, logger log.Logger, opts ...lang.Option) *Server {
	return &Server{
		registry: reg,
		logger:   logger,
		opts:     append([]lang.Option{lang.WithLogger(logger)}, opts...),
	}
}

// ExpandRequest is the body of POST /v1/expand.
type ExpandRequest struct {
	Source string `binding:"required"                          json:"source"`
	Format string `binding:"omitempty,oneof=native json yaml" json:"format"`
}

// EvalRequest is the body of POST /v1/eval.
type EvalRequest struct {
	Source string            `binding:"required" json:"source"`
	Env    map[string]string `json:"env"`
}

// Router returns the HTTP routes of s.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	v1 := r.Group("/v1")
	v1.POST("/expand", s.handleExpand)
	v1.POST("/eval", s.handleEval)
	v1.GET("/macros", s.handleMacros)

	return r
}

func (s *Server) handleExpand(c *gin.Context) {
	var req ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)

		return
	}

	tokens, err := s.expand(c.Request.Context(), req.Source)
	if err != nil {
		abort(c, statusOf(err), err)

		return
	}

	switch req.Format {
	case "json":
		c.JSON(http.StatusOK, gin.H{"tokens": lang.ToTree(tokens)})

	case "yaml":
		var b strings.Builder
		if err := lang.FormatYAML(c.Request.Context(), &b, tokens, 2); err != nil {
			abort(c, http.StatusInternalServerError, err)

			return
		}

		c.Data(http.StatusOK, "application/yaml", []byte(b.String()))

	default:
		c.JSON(http.StatusOK, gin.H{"output": lang.String(tokens)})
	}
}

func (s *Server) handleEval(c *gin.Context) {
	var req EvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)

		return
	}

	ctx := c.Request.Context()

	tokens, err := s.expand(ctx, req.Source)
	if err != nil {
		abort(c, statusOf(err), err)

		return
	}

	env := make(map[string]any, len(req.Env))
	for k, v := range req.Env {
		env[k] = lang.ParseValue(v)
	}

	result, err := lang.Evaluate(ctx, tokens, env)
	if err != nil {
		abort(c, statusOf(err), err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expansion": lang.String(tokens),
		"result":    lang.FormatResult(result),
	})
}

// handleMacros lists the registered macros as JSON, or as a YAML rules
// document with ?format=yaml.
func (s *Server) handleMacros(c *gin.Context) {
	names := s.registry.Names()
	macros := make([]*lang.Macro, 0, len(names))

	for _, name := range names {
		if m, ok := s.registry.Macro(name); ok {
			macros = append(macros, m)
		}
	}

	if c.Query("format") == "yaml" {
		sentinel := lang.DefaultSentinel
		if len(macros) > 0 {
			sentinel = macros[0].Sentinel()
		}

		data, err := lang.Document(sentinel, macros).Marshal(c.Request.Context(), 2)
		if err != nil {
			abort(c, http.StatusInternalServerError, err)

			return
		}

		c.Data(http.StatusOK, "application/yaml", data)

		return
	}

	type entry struct {
		Name  string   `json:"name"`
		Doc   []string `json:"doc,omitempty"`
		Rules int      `json:"rules"`
		Eager bool     `json:"eager"`
	}

	out := make([]entry, len(macros))
	for i, m := range macros {
		out[i] = entry{Name: m.Name(), Doc: m.Doc(), Rules: len(m.Rules()), Eager: m.Eager()}
	}

	c.JSON(http.StatusOK, gin.H{"macros": out})
}

// expand declares the macros of source for this request only and expands
// the rest of source.
func (s *Server) expand(ctx context.Context, source string) ([]lang.Token, error) {
	set, err := lang.ParseRules(ctx, strings.NewReader(source), s.opts...)
	if err != nil {
		return nil, err
	}

	macros, err := set.Macros(s.opts...)
	if err != nil {
		return nil, err
	}

	var r lang.Resolver = s.registry
	if len(macros) > 0 {
		r = overlay{local: lang.NewRegistry(macros...), base: s.registry}
	}

	return lang.NewHost(r, s.opts...).Expand(ctx, set.Program)
}

// overlay resolves names in local before base.
type overlay struct {
	local, base lang.Resolver
}

func (o overlay) Lookup(name string) (lang.Expander, bool) {
	if e, ok := o.local.Lookup(name); ok {
		return e, true
	}

	return o.base.Lookup(name)
}

// statusOf maps an expansion error to a response status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	case errors.Is(err, lang.ErrParse),
		errors.Is(err, lang.ErrReadInput),
		errors.Is(err, lang.ErrDeclaration),
		errors.Is(err, lang.ErrPattern),
		errors.Is(err, lang.ErrSentinelCollision),
		errors.Is(err, lang.ErrAmbiguousRule),
		errors.Is(err, lang.ErrExprCompile):
		return http.StatusBadRequest
	}

	return http.StatusUnprocessableEntity
}

func abort(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// requestLogger logs one line per request with its latency and any handler
// errors.
func requestLogger(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.Last().Error()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request", attrs...)

			return
		}

		logger.DebugContext(c.Request.Context(), "request", attrs...)
	}
}

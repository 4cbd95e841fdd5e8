// Package server exposes a converter over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
	"github.com/porticus-lab/go-native-html-pdf/engine"
)

// Converter runs conversion requests.
type Converter interface {
	Convert(ctx context.Context, req htmlpdf.Request) (*htmlpdf.Result, error)
	InFlight() bool
	Capabilities() engine.Capabilities
}

// Options configures a Server.
type Options struct {
	Logger       *zap.Logger
	Metrics      http.Handler // served on /metrics when set
	MaxBodyBytes int64
}

// Server is the HTTP front end of a converter.
type Server struct {
	conv    Converter
	log     *zap.Logger
	maxBody int64
	router  *gin.Engine
}

type pageSizeBody struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (p *pageSizeBody) pageSize() *htmlpdf.PageSize {
	if p == nil {
		return nil
	}
	return &htmlpdf.PageSize{Width: p.Width, Height: p.Height}
}

type fileRequest struct {
	HTMLFilePath string        `json:"htmlFilePath" binding:"required"`
	PageSize     *pageSizeBody `json:"pageSize"`
}

type bytesRequest struct {
	HTML     string        `json:"html"`
	PageSize *pageSizeBody `json:"pageSize"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// New builds the router.
func New(conv Converter, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}

	s := &Server{conv: conv, log: opts.Logger, maxBody: opts.MaxBodyBytes}

	r := gin.New()
	r.Use(RequestID(), Logger(s.log), Recovery(s.log))
	r.GET("/healthz", s.health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	v1 := r.Group("/v1/convert")
	v1.POST("/file", s.convertFile)
	v1.POST("/bytes", s.convertBytes)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"inFlight": s.conv.InFlight(),
		"engine":   s.conv.Capabilities().Product,
	})
}

func (s *Server) convertFile(c *gin.Context) {
	var body fileRequest
	if !s.bind(c, &body) {
		return
	}
	res, err := s.conv.Convert(c.Request.Context(), htmlpdf.FileRequest(body.HTMLFilePath, body.PageSize.pageSize()))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": res.Path(), "pages": res.Pages()})
}

func (s *Server) convertBytes(c *gin.Context) {
	var body bytesRequest
	if !s.bind(c, &body) {
		return
	}
	res, err := s.conv.Convert(c.Request.Context(), htmlpdf.BytesRequest(body.HTML, body.PageSize.pageSize()))
	if err != nil {
		s.fail(c, err)
		return
	}
	if c.Query("encoding") == "base64" {
		c.JSON(http.StatusOK, gin.H{"data": res.Base64(), "pages": res.Pages()})
		return
	}
	c.Data(http.StatusOK, "application/pdf", res.Bytes())
}

func (s *Server) bind(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	if err := c.ShouldBindJSON(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.AbortWithStatusJSON(status, errorBody{Code: "BAD_REQUEST", Message: err.Error()})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	code := htmlpdf.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		loggerFrom(c).Error("conversion failed", zap.String("code", code), zap.Error(err))
	}
	_ = c.Error(err)
	if code == "BUSY" {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, errorBody{Code: code, Message: err.Error()})
}

// StatusFor maps a conversion error code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case "BUSY":
		return http.StatusTooManyRequests
	case "NAVIGATION_ERROR":
		return http.StatusUnprocessableEntity
	case "WEBVIEW_ERROR":
		return http.StatusBadGateway
	case "NO_VIEW_CONTROLLER", "CLOSED":
		return http.StatusServiceUnavailable
	case "UNSUPPORTED_PLATFORM":
		return http.StatusNotImplemented
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

package webserver

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/openkiosk/catalogd/config"
)

//go:embed index.html
var landingPage []byte

// WebServer wraps the echo instance serving the catalog API, the
// landing page and stored upload files.
type WebServer struct {
	cfg  *config.AppConfig
	root *echo.Echo
}

func NewWebServer(cfg *config.AppConfig) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	// generous transport cap; the 5 MiB image policy is enforced by the
	// media store so oversized uploads get a proper envelope, not a 413
	e.Use(middleware.BodyLimit("16M"))
	e.Use(requestLogger())

	e.GET("/", func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, landingPage)
	})
	e.Static("/uploads", cfg.Web.UploadDir)

	s := &WebServer{cfg: cfg, root: e}
	e.HTTPErrorHandler = s.errorHandler
	return s
}

// Echo exposes the underlying echo instance (used in tests).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// APIGroup returns the /api route group handlers register against.
func (s *WebServer) APIGroup() *echo.Group {
	return s.root.Group("/api")
}

// Start runs the HTTP server until the context is cancelled, then
// shuts it down gracefully.
func (s *WebServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.root.Start(addr)
	}()
	zap.S().Infof("http server listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.root.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// errorHandler renders uncaught errors in the standard response
// envelope. Anything that is not an echo.HTTPError collapses to a
// generic 500; the underlying error is only logged.
func (s *WebServer) errorHandler(err error, c echo.Context) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else if status < http.StatusInternalServerError {
			message = http.StatusText(status)
		}
	}
	if status >= http.StatusInternalServerError {
		message = "internal server error"
		zap.L().Error("unhandled server error",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}

	if c.Response().Committed {
		return
	}
	_ = c.JSON(status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	})
}

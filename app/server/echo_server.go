package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/time/rate"
)

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}

	var uve *common.UserVisibleError
	if errors.As(err, &uve) {
		code = uve.HttpCode
		msg = uve.Error()
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	if c.Response().Committed {
		return
	}

	var renderErr error
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		renderErr = c.JSON(code, map[string]any{"code": code, "error": msg})
	} else {
		renderErr = c.Render(code, "error", msg)
	}
	if renderErr != nil {
		c.Logger().Error(renderErr)
	}
}

// NewEcho builds the HTTP server with every middleware and route.
func NewEcho(controller *WasteVizController, conf *config.WasteVizConfig, serverConf config.ServerRuntimeConfig) (*echo.Echo, error) {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler
	e.HideBanner = true
	if serverConf.CertDir != "" {
		e.Pre(middleware.HTTPSRedirect())
	}
	e.Pre(middleware.RemoveTrailingSlash())
	if serverConf.AcmeEnabled && len(conf.Hostnames) > 0 {
		canonical := conf.Hostnames[0]
		e.Pre(echo.MiddlewareFunc(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				req := c.Request()
				if req.Host != canonical {
					url := *req.URL
					url.Host = canonical
					url.Scheme = "https"
					slog.Info("redirect to canonical hostname", "original_hostname", req.Host)
					return c.Redirect(http.StatusPermanentRedirect, url.String())
				}
				return next(c)
			}
		}))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	identifierExtractor := func(ctx echo.Context) (string, error) {
		return ctx.Request().RemoteAddr, nil
	}
	if serverConf.BehindLoadBalancer {
		identifierExtractor = func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		}
	}

	if serverConf.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Path(), "/static/")
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(serverConf.RateLimit),
					Burst:     3 * serverConf.RateLimit,
					ExpiresIn: 3 * time.Minute,
				},
			),
			IdentifierExtractor: identifierExtractor,
			ErrorHandler: func(context echo.Context, err error) error {
				return context.String(http.StatusForbidden, "Forbidden")
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.String(http.StatusTooManyRequests, "Too Many Requests")
			},
		}))
	}

	if serverConf.GzipLevel != 0 {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: serverConf.GzipLevel, MinLength: 512}))
	}

	if conf.TimeoutSeconds != 0 {
		e.Use(middleware.ContextTimeout(time.Duration(conf.TimeoutSeconds) * time.Second))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogRemoteIP: true,
		LogLatency:  conf.LogLatency,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				logger.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
					slog.String("remote_ip", v.RemoteIP),
				)
			} else {
				logger.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
					slog.String("remote_ip", v.RemoteIP),
					slog.Int64("latency_ms", v.Latency.Milliseconds()),
				)
			}
			return nil
		},
	}))

	staticDir, err := fs.Sub(staticFs, "static")
	if err != nil {
		return nil, err
	}
	assets, err := NewHashFS(staticDir)
	if err != nil {
		return nil, fmt.Errorf("hashing static assets: %w", err)
	}
	e.Renderer = NewTemplateRenderer(conf, assets)

	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", assets)))

	e.GET("/", controller.GetHome)
	e.GET("/map.svg", controller.GetMapSVG)
	e.GET("/bars/:file", controller.GetBarsSVG)

	api := e.Group("/api")
	api.GET("/years", controller.GetYears)
	api.GET("/states", controller.GetStates)
	api.GET("/states/top", controller.GetTopStates)
	api.GET("/categories/top", controller.GetTopCategories)
	api.GET("/trend", controller.GetTrend)
	api.GET("/summary", controller.GetSummary)
	api.GET("/search", controller.Search)
	api.GET("/topology/unresolved", controller.GetUnresolved)
	api.GET("/view", controller.GetView)
	api.POST("/actions", controller.PostAction)

	return e, nil
}

// StartServer serves until ctx is done, then shuts down gracefully.
func StartServer(ctx context.Context, controller *WasteVizController, conf *config.WasteVizConfig, serverConf config.ServerRuntimeConfig) error {
	e, err := NewEcho(controller, conf, serverConf)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", serverConf.Addr, serverConf.Port)
	certDir := serverConf.CertDir

	errCh := make(chan error, 1)
	go func() {
		switch {
		case certDir != "" && serverConf.AcmeEnabled:
			slog.Info("using TLS with ACME", "dir", certDir)
			e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(conf.Hostnames...)
			e.AutoTLSManager.Cache = autocert.DirCache(certDir)
			errCh <- e.StartAutoTLS(addr)
		case certDir != "":
			slog.Info("using TLS with certDir", "dir", certDir)
			errCh <- e.StartTLS(addr, path.Join(certDir, "fullchain.pem"), path.Join(certDir, "privkey.pem"))
		default:
			errCh <- e.Start(addr)
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}

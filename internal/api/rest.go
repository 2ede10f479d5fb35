package api

import (
	"context"
	"sync"

	"github.com/hbomb79/Snag/internal/api/downloads"
	"github.com/hbomb79/Snag/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router.
	// Its sole responsibility is to create the routes Snag exposes
	// and to translate pipeline failures in to the error body the
	// API contract promises.
	RestGateway struct {
		config              *RestConfig
		ec                  *echo.Echo
		downloadsController controller
	}
)

func NewRestGateway(config *RestConfig, downloadService downloads.Service) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true
	ec.HTTPErrorHandler = GetHTTPErrorHandler(ec.DefaultHTTPErrorHandler)

	gateway := &RestGateway{
		config:              config,
		ec:                  ec,
		downloadsController: downloads.New(downloadService),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())

	ec.GET("/", func(ec echo.Context) error {
		return ec.String(200, "Snag is healthy and running!")
	})

	apiGroup := ec.Group("/api")
	gateway.downloadsController.SetRoutes(apiGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

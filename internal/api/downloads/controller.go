package downloads

import (
	"context"
	"strings"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/labstack/echo/v4"
)

type (
	// Service is the download pipeline as this controller sees it.
	Service interface {
		Download(ctx context.Context, request download.Request) (*download.Deliverable, error)
	}

	Controller struct {
		service Service
	}
)

func New(service Service) *Controller {
	return &Controller{service: service}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/download", controller.download)
}

// download validates the query parameters, runs the pipeline and
// streams the resulting artifact as an attachment. Validation happens
// before the service is invoked so that malformed requests never
// trigger retrieval. All failures are surfaced as errors for the
// gateway's error handler to render.
func (controller *Controller) download(ec echo.Context) error {
	format, err := download.ParseFormat(strings.ToLower(ec.QueryParam("format")))
	if err != nil {
		return err
	}

	action, err := download.ParseAction(ec.QueryParam("ig_action"))
	if err != nil {
		return err
	}

	request := download.Request{
		URL:      ec.QueryParam("url"),
		Username: ec.QueryParam("username"),
		Format:   format,
		Action:   action,
	}
	if err := request.Validate(); err != nil {
		return err
	}

	deliverable, err := controller.service.Download(ec.Request().Context(), request)
	if err != nil {
		return err
	}
	defer deliverable.Release()

	// Attachment defers to ServeContent, which respects a content
	// type that is already set.
	ec.Response().Header().Set(echo.HeaderContentType, deliverable.ContentType)
	return ec.Attachment(deliverable.Path, deliverable.Filename)
}

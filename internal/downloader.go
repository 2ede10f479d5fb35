package internal

import (
	"context"
	"time"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/credentials"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/media"
	"github.com/hbomb79/Snag/internal/packager"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("Downloader")

const youtubeCookieFilename = "youtube_cookies.txt"

type (
	// GenericRetriever wraps the external extraction tool for video
	// platform URLs.
	GenericRetriever interface {
		Fetch(ctx context.Context, platform string, url string, ws *workspace.Workspace, format download.Format, cookieFilePath string) ([]media.Item, error)
	}

	// SocialRetriever collects media batches from the social network.
	// The returned string is the base name for a bundled archive.
	SocialRetriever interface {
		Fetch(ctx context.Context, ws *workspace.Workspace, rawURL string, username string, action download.Action) ([]media.Item, string, error)
	}

	// Pipeline transforms a retrieved batch to satisfy the requested
	// output format.
	Pipeline interface {
		Process(ctx context.Context, items []media.Item, ws *workspace.Workspace, format download.Format) ([]media.Item, error)
	}

	// downloadService orchestrates one request end-to-end: workspace
	// allocation, credential materialization, strategy dispatch,
	// post-processing and packaging. Stages run strictly in sequence;
	// each request owns its workspace exclusively.
	downloadService struct {
		workspaces     *workspace.Manager
		generic        GenericRetriever
		social         SocialRetriever
		pipeline       Pipeline
		youtubeCookies credentials.Secret
		requestTimeout time.Duration
	}
)

func newDownloadService(
	workspaces *workspace.Manager,
	generic GenericRetriever,
	social SocialRetriever,
	pipeline Pipeline,
	youtubeCookies credentials.Secret,
	requestTimeout time.Duration,
) *downloadService {
	return &downloadService{
		workspaces:     workspaces,
		generic:        generic,
		social:         social,
		pipeline:       pipeline,
		youtubeCookies: youtubeCookies,
		requestTimeout: requestTimeout,
	}
}

// Download services a validated request and returns the deliverable
// artifact. On success the workspace outlives this call so the file
// can be streamed; ownership transfers to the deliverable, whose
// Release the caller must invoke. On every other outcome, including
// panics from deeper stages, the workspace is torn down here.
func (service *downloadService) Download(ctx context.Context, request download.Request) (*download.Deliverable, error) {
	strategy, err := download.SelectStrategy(request)
	if err != nil {
		return nil, err
	}

	ws, err := service.workspaces.Allocate()
	if err != nil {
		return nil, err
	}

	handedOff := false
	defer func() {
		if !handedOff {
			ws.Release()
		}
	}()

	if service.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, service.requestTimeout)
		defer cancel()
	}

	baseName := request.BaseName()
	var items []media.Item
	switch strategy.Kind {
	case download.StrategyGenericMedia:
		cookieFilePath := ""
		if strategy.NeedsCookies {
			if cookieFilePath, err = credentials.Materialize(service.youtubeCookies, youtubeCookieFilename, ws); err != nil {
				return nil, err
			}
		}

		items, err = service.generic.Fetch(ctx, strategy.Platform, request.URL, ws, request.Format, cookieFilePath)
	case download.StrategySocial:
		var socialBase string
		items, socialBase, err = service.social.Fetch(ctx, ws, request.URL, request.Username, request.Action)
		if socialBase != "" {
			baseName = socialBase
		}
	}
	if err != nil {
		return nil, err
	}

	processed, err := service.pipeline.Process(ctx, items, ws, request.Format)
	if err != nil {
		return nil, err
	}

	artifact, err := packager.Package(processed, baseName, ws)
	if err != nil {
		return nil, err
	}

	log.Emit(logger.SUCCESS, "Request complete, delivering '%s'\n", artifact)

	handedOff = true
	return download.NewDeliverable(artifact, ws.Release), nil
}

// Package postprocess transforms a batch of retrieved items to match
// the requested output format: filtering by media kind, or extracting
// audio tracks from videos via ffmpeg.
package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/media"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("PostProcess")

// AudioExtractor strips the video stream from a file and writes an
// audio-only output. Implemented by the ffmpeg-backed extractor;
// substituted in tests.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string, audioPath string) error
}

type Pipeline struct {
	extractor AudioExtractor
}

func NewPipeline(extractor AudioExtractor) *Pipeline {
	return &Pipeline{extractor: extractor}
}

// Process filters or converts the batch for the requested format.
// Output preserves the insertion order of surviving items and is
// never empty: an emptied batch is always a terminal failure.
func (pipeline *Pipeline) Process(ctx context.Context, items []media.Item, ws *workspace.Workspace, format download.Format) ([]media.Item, error) {
	switch format {
	case download.FormatAudio:
		return pipeline.extractAudio(ctx, items, ws)
	case download.FormatImage:
		return filterKind(items, media.KindImage)
	default:
		return filterKind(items, media.KindVideo)
	}
}

// extractAudio converts every video in the batch to mp3, removing the
// source video once its audio exists. A failed conversion drops that
// item only; the batch fails if nothing survives.
func (pipeline *Pipeline) extractAudio(ctx context.Context, items []media.Item, ws *workspace.Workspace) ([]media.Item, error) {
	survivors := make([]media.Item, 0, len(items))
	for _, item := range items {
		if item.Kind == media.KindAudio {
			survivors = append(survivors, item)
			continue
		}
		if item.Kind != media.KindVideo {
			continue
		}

		baseName := strings.TrimSuffix(filepath.Base(item.Path), filepath.Ext(item.Path))
		audioPath := ws.Join(baseName + ".mp3")

		log.Emit(logger.INFO, "Extracting audio from '%s'\n", item.Path)
		if err := pipeline.extractor.Extract(ctx, item.Path, audioPath); err != nil {
			log.Emit(logger.WARNING, "Audio extraction for '%s' failed, dropping item: %v\n", item.Path, err)
			continue
		}

		os.Remove(item.Path)
		survivors = append(survivors, media.NewItem(audioPath))
	}

	if len(survivors) == 0 {
		return nil, download.NewErrorf(download.ConversionFailed, "no items could be converted to audio")
	}

	return survivors, nil
}

func filterKind(items []media.Item, kind media.Kind) ([]media.Item, error) {
	survivors := make([]media.Item, 0, len(items))
	for _, item := range items {
		if item.Kind == kind {
			survivors = append(survivors, item)
		}
	}

	if len(survivors) == 0 {
		return nil, download.NewErrorf(download.FormatMismatch, "no %s media in retrieved batch", kind)
	}

	return survivors, nil
}

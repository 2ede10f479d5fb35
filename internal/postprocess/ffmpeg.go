package postprocess

import (
	"context"

	"github.com/floostack/transcoder/ffmpeg"
	"github.com/hbomb79/Snag/pkg/logger"
)

type FfmpegConfig struct {
	FfmpegBinPath  string
	FfprobeBinPath string
}

// ffmpegExtractor implements AudioExtractor by driving the ffmpeg
// binary through the transcoder wrapper: skip the video stream and
// encode the audio track as mp3 at a fixed 192k bitrate.
type ffmpegExtractor struct {
	config FfmpegConfig
}

func NewFfmpegExtractor(config FfmpegConfig) AudioExtractor {
	return &ffmpegExtractor{config: config}
}

func (extractor *ffmpegExtractor) Extract(ctx context.Context, videoPath string, audioPath string) error {
	audioCodec := "libmp3lame"
	audioBitrate := "192k"
	outputFormat := "mp3"
	skipVideo := true
	overwrite := true

	opts := ffmpeg.Options{
		AudioCodec:   &audioCodec,
		AudioBitrate: &audioBitrate,
		OutputFormat: &outputFormat,
		SkipVideo:    &skipVideo,
		Overwrite:    &overwrite,
	}

	progress, err := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   extractor.config.FfmpegBinPath,
			FfprobeBinPath:  extractor.config.FfprobeBinPath,
		}).
		Input(videoPath).
		Output(audioPath).
		WithContext(&ctx).
		Start(opts)
	if err != nil {
		return err
	}

	for update := range progress {
		log.Emit(logger.VERBOSE, "Extraction progress for '%s': %v\n", videoPath, update)
	}

	return nil
}

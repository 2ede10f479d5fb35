// Package ytdlp wraps the external yt-dlp binary for generic video
// platform retrieval (YouTube, TikTok). The binary is an opaque
// collaborator: this package builds its invocation, classifies its
// failures, and locates the artifact it produced.
package ytdlp

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/media"
	"github.com/hbomb79/Snag/pkg/logger"
)

var log = logger.Get("YtDlp")

// The avc1+m4a in mp4 pairing is the most broadly playable output;
// fall through progressively looser selections when unavailable.
const videoFormatExpression = "bestvideo[ext=mp4][vcodec^=avc1]+bestaudio[ext=m4a]" +
	"/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/bestvideo+bestaudio/best"

const browserUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/132.0.6792.57 Safari/537.36"

type Config struct {
	BinaryPath string `yaml:"binary_path" env:"YTDLP_PATH" env-default:"yt-dlp"`
	FfmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH" env-default:"/usr/bin/ffmpeg"`
}

// runner executes the external binary, returning its stdout and
// stderr. Indirected so tests can substitute the subprocess.
type runner func(ctx context.Context, binary string, args []string) (stdout []byte, stderr []byte, err error)

type Retriever struct {
	config Config
	run    runner
}

func New(config Config) *Retriever {
	return &Retriever{config: config, run: runCommand}
}

// Fetch invokes yt-dlp for the given URL, downloading in to the
// workspace root, and returns the produced artifact. The returned
// slice contains exactly one item; playlist expansion is disabled.
func (retriever *Retriever) Fetch(ctx context.Context, platform string, url string, ws *workspace.Workspace, format download.Format, cookieFilePath string) ([]media.Item, error) {
	log.Emit(logger.INFO, "%s: retrieving '%s' as %s (cookies=%v)\n", platform, url, format, cookieFilePath != "")

	outputTemplate := ws.Join("%(id)s.%(ext)s")
	if platform == "YouTube" {
		outputTemplate = ws.Join("%(title)s.%(ext)s")
	}

	args := []string{
		"--no-playlist", "--no-warnings", "--no-progress",
		"--retries", "2", "--fragment-retries", "2",
		"--ffmpeg-location", retriever.config.FfmpegPath,
		"--user-agent", browserUserAgent,
		"--add-header", "Accept-Language:en-US,en;q=0.9",
		"--print-json",
		"-o", outputTemplate,
	}

	if cookieFilePath != "" {
		args = append(args, "--cookies", cookieFilePath)
	}

	if format == download.FormatAudio {
		args = append(args,
			"-f", "bestaudio/best",
			"--extract-audio", "--audio-format", "mp3", "--audio-quality", "192K",
		)
	} else {
		args = append(args,
			"-f", videoFormatExpression,
			"--merge-output-format", "mp4",
		)
	}

	args = append(args, url)

	stdout, stderr, err := retriever.run(ctx, retriever.config.BinaryPath, args)
	if err != nil {
		return nil, classifyFailure(platform, string(stderr), err)
	}

	artifact, err := retriever.locateArtifact(platform, stdout, ws, format)
	if err != nil {
		return nil, err
	}

	log.Emit(logger.SUCCESS, "%s: retrieved '%s'\n", platform, artifact)
	return []media.Item{media.NewItem(artifact)}, nil
}

func runCommand(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// classifyFailure maps known yt-dlp failure text to the error
// taxonomy. The raw output is retained as the error cause for
// server-side logging; callers only ever see the kind's message.
func classifyFailure(platform string, stderr string, cause error) error {
	combined := stderr + " " + cause.Error()
	lowered := strings.ToLower(combined)

	log.Emit(logger.ERROR, "%s: yt-dlp failed: %s\n", platform, strings.TrimSpace(combined))

	switch {
	case strings.Contains(combined, "Sign in to confirm") || strings.Contains(combined, "login is required"):
		return download.NewErrorf(download.AuthenticationRequired, "%s requires login/cookies (bot detection or restriction)", platform)
	case strings.Contains(combined, "Private video") || strings.Contains(combined, "Video unavailable"):
		return download.NewErrorf(download.NoContent, "%s content is private or unavailable", platform)
	case strings.Contains(combined, "Unsupported URL"):
		return download.NewErrorf(download.UnsupportedInput, "URL not supported by the %s extractor", platform)
	case strings.Contains(lowered, "ffmpeg") && (strings.Contains(lowered, "not found") || strings.Contains(lowered, "failed")):
		return download.NewErrorf(download.ConversionFailed, "%s retrieval failed inside ffmpeg post-processing", platform)
	default:
		return download.NewErrorf(download.RetrievalFailure, "%s download failed: %s", platform, strings.TrimSpace(combined))
	}
}

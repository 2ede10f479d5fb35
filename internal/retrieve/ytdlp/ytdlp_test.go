package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.FATAL.Level())
}

func newTestRetriever(t *testing.T, run runner) (*Retriever, *workspace.Workspace) {
	t.Helper()

	ws, err := workspace.NewManager(t.TempDir()).Allocate()
	require.NoError(t, err)
	t.Cleanup(ws.Release)

	retriever := New(Config{BinaryPath: "yt-dlp", FfmpegPath: "/usr/bin/ffmpeg"})
	retriever.run = run

	return retriever, ws
}

func reportFor(t *testing.T, id string, title string, filepaths ...string) []byte {
	t.Helper()

	downloads := make([]map[string]string, 0, len(filepaths))
	for _, path := range filepaths {
		downloads = append(downloads, map[string]string{"filepath": path})
	}

	encoded, err := json.Marshal(map[string]interface{}{
		"id": id, "title": title, "requested_downloads": downloads,
	})
	require.NoError(t, err)

	return encoded
}

func Test_Fetch_ResolvesArtifactFromStructuredReport(t *testing.T) {
	var retriever *Retriever
	var ws *workspace.Workspace
	retriever, ws = newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		path := ws.Join("123.mp4")
		require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
		return reportFor(t, "123", "Some Clip", path), nil, nil
	})

	items, err := retriever.Fetch(context.Background(), "TikTok", "https://tiktok.com/@x/video/123", ws, download.FormatVideo, "")
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ws.Join("123.mp4"), items[0].Path)
}

func Test_Fetch_FallsBackToSanitizedTitle(t *testing.T) {
	var retriever *Retriever
	var ws *workspace.Workspace
	retriever, ws = newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		// Report declares no filepaths; the file on disk carries the
		// sanitized form of the title.
		require.NoError(t, os.WriteFile(ws.Join("What_ A Clip.mp4"), []byte("video"), 0o644))
		return reportFor(t, "123", `What? A Clip`), nil, nil
	})

	items, err := retriever.Fetch(context.Background(), "YouTube", "https://youtu.be/123", ws, download.FormatVideo, "")
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ws.Join("What_ A Clip.mp4"), items[0].Path)
}

func Test_Fetch_FallsBackToExtensionScan(t *testing.T) {
	var retriever *Retriever
	var ws *workspace.Workspace
	retriever, ws = newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		require.NoError(t, os.WriteFile(ws.Join("unpredictable-name.mp3"), []byte("audio"), 0o644))
		return []byte("not json at all"), nil, nil
	})

	items, err := retriever.Fetch(context.Background(), "YouTube", "https://youtu.be/123", ws, download.FormatAudio, "")
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, ws.Join("unpredictable-name.mp3"), items[0].Path)
}

func Test_Fetch_NoArtifactIsFatal(t *testing.T) {
	retriever, ws := newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		return []byte("{}"), nil, nil
	})

	_, err := retriever.Fetch(context.Background(), "TikTok", "https://tiktok.com/@x/video/123", ws, download.FormatVideo, "")

	require.Error(t, err)
	assert.Equal(t, download.ArtifactNotFound, download.KindOf(err))
}

func Test_Fetch_AudioRequestsExtractionFromTool(t *testing.T) {
	var captured []string
	retriever, ws := newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		captured = args
		return nil, nil, errors.New("exit status 1")
	})

	retriever.Fetch(context.Background(), "YouTube", "https://youtu.be/123", ws, download.FormatAudio, "")

	assert.Contains(t, captured, "--extract-audio")
	assert.Contains(t, captured, "192K")
	assert.Contains(t, captured, "bestaudio/best")
	assert.NotContains(t, captured, "--merge-output-format")
}

func Test_Fetch_VideoRequestsCompatibleContainer(t *testing.T) {
	var captured []string
	retriever, ws := newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		captured = args
		return nil, nil, errors.New("exit status 1")
	})

	retriever.Fetch(context.Background(), "TikTok", "https://tiktok.com/@x/video/123", ws, download.FormatVideo, "")

	assert.Contains(t, captured, "--merge-output-format")
	assert.Contains(t, captured, videoFormatExpression)
}

func Test_Fetch_CookieFileIsForwarded(t *testing.T) {
	var captured []string
	retriever, ws := newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
		captured = args
		return nil, nil, errors.New("exit status 1")
	})

	retriever.Fetch(context.Background(), "YouTube", "https://youtu.be/123", ws, download.FormatVideo, "/tmp/ws/cookies.txt")

	assert.Contains(t, captured, "--cookies")
	assert.Contains(t, captured, "/tmp/ws/cookies.txt")
}

func Test_Fetch_ClassifiesKnownFailures(t *testing.T) {
	tests := []struct {
		summary  string
		stderr   string
		expected download.ErrorKind
	}{
		{
			summary:  "bot detection requires authentication",
			stderr:   "ERROR: Sign in to confirm you're not a bot",
			expected: download.AuthenticationRequired,
		},
		{
			summary:  "login requirement requires authentication",
			stderr:   "ERROR: This video is only available for users; login is required",
			expected: download.AuthenticationRequired,
		},
		{
			summary:  "private video yields no content",
			stderr:   "ERROR: Private video. Sign in if you've been granted access",
			expected: download.NoContent,
		},
		{
			summary:  "removed video yields no content",
			stderr:   "ERROR: Video unavailable",
			expected: download.NoContent,
		},
		{
			summary:  "unsupported url is rejected",
			stderr:   "ERROR: Unsupported URL: https://example.com",
			expected: download.UnsupportedInput,
		},
		{
			summary:  "missing transcoder is a conversion failure",
			stderr:   "ERROR: ffmpeg not found. Please install or provide the path",
			expected: download.ConversionFailed,
		},
		{
			summary:  "anything else is a generic retrieval failure",
			stderr:   "ERROR: something exploded",
			expected: download.RetrievalFailure,
		},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			stderr := test.stderr
			retriever, ws := newTestRetriever(t, func(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
				return nil, []byte(stderr), fmt.Errorf("exit status 1")
			})

			_, err := retriever.Fetch(context.Background(), "YouTube", "https://youtu.be/123", ws, download.FormatVideo, "")

			require.Error(t, err)
			assert.Equal(t, test.expected, download.KindOf(err))
		})
	}
}

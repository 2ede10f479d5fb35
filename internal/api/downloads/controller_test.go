package downloads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbomb79/Snag/internal/api"
	"github.com/hbomb79/Snag/internal/api/downloads"
	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.FATAL.Level())
}

type stubService struct {
	deliverable *download.Deliverable
	err         error

	request *download.Request
}

func (stub *stubService) Download(ctx context.Context, request download.Request) (*download.Deliverable, error) {
	stub.request = &request
	return stub.deliverable, stub.err
}

// performRequest runs a GET /api/download with the given query through
// a gateway-equivalent echo instance.
func performRequest(t *testing.T, service downloads.Service, query url.Values) *httptest.ResponseRecorder {
	t.Helper()

	server := echo.New()
	server.HTTPErrorHandler = api.GetHTTPErrorHandler(server.DefaultHTTPErrorHandler)
	downloads.New(service).SetRoutes(server.Group("/api"))

	req := httptest.NewRequest(http.MethodGet, "/api/download?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body["error"]
}

func Test_Download_MissingParametersRejectedBeforeService(t *testing.T) {
	service := &stubService{}

	rec := performRequest(t, service, url.Values{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, download.InvalidParameter.Message(), errorBody(t, rec))
	assert.Nil(t, service.request, "service must not run for an invalid request")
}

func Test_Download_UnknownFormatRejectedBeforeService(t *testing.T) {
	service := &stubService{}

	rec := performRequest(t, service, url.Values{"url": {"https://youtu.be/abc"}, "format": {"bogus"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, service.request)
}

func Test_Download_UnknownActionRejectedBeforeService(t *testing.T) {
	service := &stubService{}

	rec := performRequest(t, service, url.Values{"username": {"alice"}, "ig_action": {"dance"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, service.request)
}

func Test_Download_FormatIsCaseInsensitive(t *testing.T) {
	service := &stubService{err: download.NewErrorf(download.NoContent, "nothing there")}

	rec := performRequest(t, service, url.Values{"url": {"https://youtu.be/abc"}, "format": {"AUDIO"}})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, service.request)
	assert.Equal(t, download.FormatAudio, service.request.Format)
}

func Test_Download_TaxonomyErrorsMapToStatusAndOpaqueBody(t *testing.T) {
	tests := []struct {
		kind   download.ErrorKind
		status int
	}{
		{download.AuthenticationRequired, http.StatusForbidden},
		{download.ProfileNotFound, http.StatusNotFound},
		{download.NoContent, http.StatusNotFound},
		{download.FormatMismatch, http.StatusNotFound},
		{download.ConversionFailed, http.StatusInternalServerError},
		{download.RetrievalFailure, http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.kind.String(), func(t *testing.T) {
			service := &stubService{err: download.NewErrorf(test.kind, "raw tool output: ERROR blah")}

			rec := performRequest(t, service, url.Values{"url": {"https://youtu.be/abc"}})

			assert.Equal(t, test.status, rec.Code)
			assert.Equal(t, test.kind.Message(), errorBody(t, rec))
			assert.NotContains(t, rec.Body.String(), "raw tool output", "collaborator text must never reach the caller")
		})
	}
}

func Test_Download_SuccessStreamsAttachment(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(artifact, []byte("video-bytes"), 0o644))

	released := false
	service := &stubService{deliverable: download.NewDeliverable(artifact, func() { released = true })}

	rec := performRequest(t, service, url.Values{"url": {"https://www.tiktok.com/@someone/video/1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video-bytes", rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `filename="clip.mp4"`)
	assert.True(t, released, "deliverable must be released once the response is written")
}

func Test_Download_RequestParametersAreForwarded(t *testing.T) {
	service := &stubService{err: download.NewErrorf(download.NoContent, "empty")}

	performRequest(t, service, url.Values{
		"username":  {"alice"},
		"ig_action": {"stories"},
		"format":    {"mp3"},
	})

	require.NotNil(t, service.request)
	assert.Equal(t, "alice", service.request.Username)
	assert.Equal(t, download.ActionStories, service.request.Action)
	assert.Equal(t, download.FormatAudio, service.request.Format)
}

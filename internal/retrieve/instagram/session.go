package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/credentials"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/pkg/logger"
)

const sessionFilename = "instagram_session.tmp"

var sessionLog = logger.Get("IGSession")

// ClientFactory yields a ready-to-use Client for a request. Session
// acquisition happens here so the retriever itself never performs
// authentication.
type ClientFactory interface {
	Establish(ctx context.Context, ws *workspace.Workspace) (Client, error)
}

// SessionSource establishes sessions in priority order: a
// pre-established session blob, then direct credential login, then
// anonymous access. The session blob is a base64-encoded JSON object
// of cookie name/value pairs, materialized in to the request
// workspace before use so it shares the workspace's lifecycle.
type SessionSource struct {
	session  credentials.Secret
	username string
	password string
}

func NewSessionSource(session credentials.Secret, username string, password string) *SessionSource {
	return &SessionSource{session: session, username: username, password: password}
}

func (source *SessionSource) Establish(ctx context.Context, ws *workspace.Workspace) (Client, error) {
	if source.session.IsPresent() {
		if cookies, err := source.loadSessionCookies(ws); err == nil {
			sessionLog.Emit(logger.SUCCESS, "Session loaded from pre-established session material\n")
			return newWebClient(cookies), nil
		} else {
			sessionLog.Emit(logger.WARNING, "Pre-established session could not be loaded (%v), trying credential login\n", err)
		}
	}

	if source.username != "" && source.password != "" {
		cookies, err := login(ctx, source.username, source.password)
		if err != nil {
			sessionLog.Emit(logger.ERROR, "Credential login for '%s' failed: %v\n", source.username, err)
			return nil, download.NewErrorf(download.AuthenticationRequired, "credential login failed: %w", err)
		}

		sessionLog.Emit(logger.SUCCESS, "Credential login succeeded for '%s'\n", source.username)
		return newWebClient(cookies), nil
	}

	sessionLog.Emit(logger.WARNING, "No session material or credentials supplied; retrieval will be anonymous and may be limited\n")
	return newWebClient(nil), nil
}

func (source *SessionSource) loadSessionCookies(ws *workspace.Workspace) (map[string]string, error) {
	sessionPath, err := credentials.Materialize(source.session, sessionFilename, ws)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(sessionPath)
	if err != nil {
		return nil, err
	}

	var cookies map[string]string
	if err := json.Unmarshal(content, &cookies); err != nil {
		return nil, fmt.Errorf("session material is not a valid cookie map: %w", err)
	}
	if _, ok := cookies["sessionid"]; !ok {
		return nil, fmt.Errorf("session material is missing the 'sessionid' cookie")
	}

	return cookies, nil
}

// login performs the web login flow: fetch a csrf token, then submit
// the browser-style enc_password form. Returns the session cookies.
func login(ctx context.Context, username string, password string) (map[string]string, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	csrfToken, err := fetchCsrfToken(ctx, httpClient)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://www.instagram.com/accounts/login/ajax/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", clientUserAgent)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("X-CSRFToken", csrfToken)
	request.AddCookie(&http.Cookie{Name: "csrftoken", Value: csrfToken})

	response, err := httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.Unmarshal(body, &result); err != nil || !result.Authenticated {
		return nil, fmt.Errorf("authentication rejected for user '%s'", username)
	}

	cookies := map[string]string{"csrftoken": csrfToken}
	for _, cookie := range response.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}
	if _, ok := cookies["sessionid"]; !ok {
		return nil, fmt.Errorf("login response carried no session cookie")
	}

	return cookies, nil
}

func fetchCsrfToken(ctx context.Context, httpClient *http.Client) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.instagram.com/accounts/login/", nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("User-Agent", clientUserAgent)

	response, err := httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	for _, cookie := range response.Cookies() {
		if cookie.Name == "csrftoken" {
			return cookie.Value, nil
		}
	}

	return "", fmt.Errorf("no csrf token issued")
}

package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hbomb79/Snag/pkg/logger"
)

const (
	apiBaseURL = "https://www.instagram.com/api/v1"

	// Application identifier the web frontend sends with API calls;
	// requests without it are rejected outright.
	webAppID = "936619743392459"

	clientUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/132.0.6792.57 Safari/537.36"
)

var clientLog = logger.Get("Instagram")

// shortcodeAlphabet is the base64-style alphabet used by post
// shortcodes; decoding one yields the numeric media ID the API wants.
const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

type (
	mediaVersion struct {
		URL string `json:"url"`
	}

	apiMedia struct {
		ID            string         `json:"id"`
		Pk            json.Number    `json:"pk"`
		TakenAt       int64          `json:"taken_at"`
		MediaType     int            `json:"media_type"`
		VideoVersions []mediaVersion `json:"video_versions"`
		ImageVersions struct {
			Candidates []mediaVersion `json:"candidates"`
		} `json:"image_versions2"`
		CarouselMedia []apiMedia `json:"carousel_media"`
		User          struct {
			Username string `json:"username"`
		} `json:"user"`
	}

	profileInfoResponse struct {
		Data struct {
			User *struct {
				ID            string `json:"id"`
				Username      string `json:"username"`
				ProfilePicURL string `json:"profile_pic_url_hd"`
			} `json:"user"`
		} `json:"data"`
		Status string `json:"status"`
	}

	mediaInfoResponse struct {
		Items []apiMedia `json:"items"`
	}

	storyFeedResponse struct {
		Reel *struct {
			Items []apiMedia `json:"items"`
		} `json:"reel"`
	}

	highlightsTrayResponse struct {
		Tray []struct {
			ID string `json:"id"`
		} `json:"tray"`
	}

	reelsMediaResponse struct {
		ReelsMedia []struct {
			Items []apiMedia `json:"items"`
		} `json:"reels_media"`
	}

	userFeedResponse struct {
		Items []apiMedia `json:"items"`
	}
)

// webClient implements Client against the web API, optionally
// authenticated by session cookies.
type webClient struct {
	http    *http.Client
	cookies map[string]string
}

func newWebClient(cookies map[string]string) *webClient {
	return &webClient{
		http:    &http.Client{Timeout: 30 * time.Second},
		cookies: cookies,
	}
}

func (client *webClient) ResolveProfile(ctx context.Context, username string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/users/web_profile_info/?username=%s", apiBaseURL, url.QueryEscape(username))

	var response profileInfoResponse
	if err := client.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Data.User == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrProfileNotFound, username)
	}

	return &Profile{
		Username:   response.Data.User.Username,
		ID:         response.Data.User.ID,
		PictureURL: response.Data.User.ProfilePicURL,
	}, nil
}

func (client *webClient) Post(ctx context.Context, shortcode string) (string, []MediaItem, error) {
	mediaID, err := mediaIDFromShortcode(shortcode)
	if err != nil {
		return "", nil, err
	}

	endpoint := fmt.Sprintf("%s/media/%d/info/", apiBaseURL, mediaID)

	var response mediaInfoResponse
	if err := client.getJSON(ctx, endpoint, &response); err != nil {
		return "", nil, err
	}
	if len(response.Items) == 0 {
		return "", nil, nil
	}

	post := response.Items[0]
	items := make([]MediaItem, 0)
	if len(post.CarouselMedia) > 0 {
		for _, entry := range post.CarouselMedia {
			if item, ok := itemFromMedia(entry); ok {
				items = append(items, item)
			}
		}
	} else if item, ok := itemFromMedia(post); ok {
		items = append(items, item)
	}

	return post.User.Username, items, nil
}

func (client *webClient) Stories(ctx context.Context, profile *Profile) ([]MediaItem, error) {
	endpoint := fmt.Sprintf("%s/feed/user/%s/story/", apiBaseURL, profile.ID)

	var response storyFeedResponse
	if err := client.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}
	if response.Reel == nil {
		return nil, nil
	}

	return itemsFromMedia(response.Reel.Items), nil
}

func (client *webClient) Highlights(ctx context.Context, profile *Profile) ([]MediaItem, error) {
	trayEndpoint := fmt.Sprintf("%s/highlights/%s/highlights_tray/", apiBaseURL, profile.ID)

	var tray highlightsTrayResponse
	if err := client.getJSON(ctx, trayEndpoint, &tray); err != nil {
		return nil, err
	}

	// Album contents are only available through the reels media feed,
	// one tray entry at a time.
	items := make([]MediaItem, 0)
	for _, album := range tray.Tray {
		reelsEndpoint := fmt.Sprintf("%s/feed/reels_media/?reel_ids=%s", apiBaseURL, url.QueryEscape(album.ID))

		var reels reelsMediaResponse
		if err := client.getJSON(ctx, reelsEndpoint, &reels); err != nil {
			clientLog.Emit(logger.WARNING, "Highlight album %s could not be fetched: %v\n", album.ID, err)
			continue
		}

		for _, reel := range reels.ReelsMedia {
			items = append(items, itemsFromMedia(reel.Items)...)
		}
	}

	return items, nil
}

func (client *webClient) ProfilePosts(ctx context.Context, profile *Profile) ([]MediaItem, error) {
	endpoint := fmt.Sprintf("%s/feed/user/%s/?count=33", apiBaseURL, profile.ID)

	var response userFeedResponse
	if err := client.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	items := make([]MediaItem, 0)
	for _, post := range response.Items {
		if len(post.CarouselMedia) > 0 {
			items = append(items, itemsFromMedia(post.CarouselMedia)...)
		} else if item, ok := itemFromMedia(post); ok {
			items = append(items, item)
		}
	}

	return items, nil
}

func (client *webClient) ProfilePicture(_ context.Context, profile *Profile) (MediaItem, error) {
	if profile.PictureURL == "" {
		return MediaItem{}, fmt.Errorf("profile '%s' has no picture", profile.Username)
	}

	return MediaItem{
		ID:      fmt.Sprintf("%s_profile_pic", profile.Username),
		URL:     profile.PictureURL,
		TakenAt: time.Now().UTC(),
	}, nil
}

func (client *webClient) Download(ctx context.Context, item MediaItem, destDir string) (string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", err
	}
	request.Header.Set("User-Agent", clientUserAgent)

	response, err := client.http.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media fetch returned status %d", response.StatusCode)
	}

	destPath := filepath.Join(destDir, fmt.Sprintf("%s__%s%s", item.TakenAt.UTC().Format("2006-01-02_15-04-05"), item.ID, extensionForItem(item)))
	file, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, response.Body); err != nil {
		os.Remove(destPath)
		return "", err
	}

	return destPath, nil
}

// getJSON performs an authenticated API GET, translating the
// network's rejection modes in to the package's typed errors.
func (client *webClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	request.Header.Set("User-Agent", clientUserAgent)
	request.Header.Set("X-IG-App-ID", webAppID)
	request.Header.Set("Accept", "application/json")
	for name, value := range client.cookies {
		request.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	response, err := client.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	switch {
	case response.StatusCode == http.StatusNotFound:
		return ErrProfileNotFound
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return ErrLoginRequired
	case strings.Contains(string(body), `"login_required"`) || strings.Contains(string(body), `"checkpoint_required"`):
		return ErrLoginRequired
	case response.StatusCode != http.StatusOK:
		return fmt.Errorf("api returned status %d", response.StatusCode)
	}

	return json.Unmarshal(body, out)
}

func itemsFromMedia(entries []apiMedia) []MediaItem {
	items := make([]MediaItem, 0, len(entries))
	for _, entry := range entries {
		if item, ok := itemFromMedia(entry); ok {
			items = append(items, item)
		}
	}

	return items
}

func itemFromMedia(entry apiMedia) (MediaItem, bool) {
	item := MediaItem{
		ID:      entry.Pk.String(),
		TakenAt: time.Unix(entry.TakenAt, 0).UTC(),
	}
	if item.ID == "" {
		item.ID = entry.ID
	}

	if len(entry.VideoVersions) > 0 {
		item.URL = entry.VideoVersions[0].URL
		item.IsVideo = true
	} else if len(entry.ImageVersions.Candidates) > 0 {
		item.URL = entry.ImageVersions.Candidates[0].URL
	}

	return item, item.URL != ""
}

// extensionForItem derives the filename extension, preferring the one
// present in the media URL's path.
func extensionForItem(item MediaItem) string {
	if parsed, err := url.Parse(item.URL); err == nil {
		if ext := strings.ToLower(path.Ext(parsed.Path)); ext != "" {
			return ext
		}
	}

	if item.IsVideo {
		return ".mp4"
	}

	return ".jpg"
}

// mediaIDFromShortcode decodes a post shortcode in to the numeric
// media ID used by the API.
func mediaIDFromShortcode(shortcode string) (int64, error) {
	var id int64
	for _, char := range shortcode {
		index := strings.IndexRune(shortcodeAlphabet, char)
		if index < 0 {
			return 0, fmt.Errorf("invalid character '%c' in post shortcode", char)
		}

		id = id*64 + int64(index)
	}

	return id, nil
}

package instagram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/hbomb79/Snag/internal/download"
	"github.com/hbomb79/Snag/internal/download/workspace"
	"github.com/hbomb79/Snag/internal/media"
	"github.com/hbomb79/Snag/pkg/logger"
)

// mediaSubdir is the retriever-specific subdirectory, inside the
// workspace, that collected files are downloaded in to. The packager
// is responsible for flattening it away.
const mediaSubdir = "ig_media"

var log = logger.Get("IGRetriever")

type targetKind int

const (
	targetPost targetKind = iota
	targetStories
	targetHighlights
	targetProfilePicture
	targetProfile
)

func (kind targetKind) String() string {
	return []string{"post", "stories", "highlights", "profile_pic", "profile"}[kind]
}

// target is the resolved download target: either a post by shortcode,
// or a profile-scoped action by username.
type target struct {
	kind      targetKind
	username  string
	shortcode string
}

var (
	storyURLPattern = regexp.MustCompile(`/(?:stories|s)/([a-zA-Z0-9_.-]+)`)
	postURLPattern  = regexp.MustCompile(`/(?:p|reel)/([A-Za-z0-9-_]+)`)
	profileURLredir = regexp.MustCompile(`instagram\.com/([A-Za-z0-9_.]+)`)
)

// resolveTarget implements the target state machine: an explicit
// action wins, then the URL's shape decides between story, post and
// whole-profile downloads.
func resolveTarget(rawURL string, username string, action download.Action) (target, error) {
	input := rawURL
	if input == "" {
		input = username
	}

	switch action {
	case download.ActionProfilePicture:
		return target{kind: targetProfilePicture, username: input}, nil
	case download.ActionStories:
		return target{kind: targetStories, username: input}, nil
	case download.ActionHighlights:
		return target{kind: targetHighlights, username: input}, nil
	}

	if match := storyURLPattern.FindStringSubmatch(rawURL); match != nil {
		return target{kind: targetStories, username: match[1]}, nil
	}

	if match := postURLPattern.FindStringSubmatch(rawURL); match != nil {
		return target{kind: targetPost, shortcode: match[1]}, nil
	}

	// Not a story or post URL; treat the remaining path segment as a
	// profile to download in full.
	if match := profileURLredir.FindStringSubmatch(rawURL); match != nil {
		return target{kind: targetProfile, username: match[1]}, nil
	}
	if username != "" {
		return target{kind: targetProfile, username: username}, nil
	}

	return target{}, download.NewErrorf(download.UnsupportedInput, "input '%s' is not a recognized target", input)
}

// Retriever downloads social content batches. Item failures inside a
// batch are tolerated; the batch only fails if it ends empty.
type Retriever struct {
	clients ClientFactory
}

func NewRetriever(clients ClientFactory) *Retriever {
	return &Retriever{clients: clients}
}

// Fetch resolves the request's target, enumerates its media items and
// downloads each in to the workspace. Returns the collected items and
// the base name to use should the batch need archiving.
func (retriever *Retriever) Fetch(ctx context.Context, ws *workspace.Workspace, rawURL string, username string, action download.Action) ([]media.Item, string, error) {
	resolved, err := resolveTarget(rawURL, username, action)
	if err != nil {
		return nil, "", err
	}

	log.Emit(logger.INFO, "Resolved input to %s target (user='%s', shortcode='%s')\n", resolved.kind, resolved.username, resolved.shortcode)

	client, err := retriever.clients.Establish(ctx, ws)
	if err != nil {
		return nil, "", err
	}

	owner, entries, err := retriever.enumerate(ctx, client, resolved)
	if err != nil {
		return nil, "", translateClientError(err, resolved)
	}

	destDir := ws.Join(mediaSubdir, owner)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("could not create media directory: %w", err)
	}

	items := make([]media.Item, 0, len(entries))
	for _, entry := range entries {
		path, err := client.Download(ctx, entry, destDir)
		if err != nil {
			// A deleted or restricted item must not abort the rest of
			// the batch.
			log.Emit(logger.WARNING, "Item %s failed to download, skipping: %v\n", entry.ID, err)
			continue
		}

		items = append(items, media.NewItem(path))
	}

	if len(items) == 0 {
		return nil, "", download.NewErrorf(download.NoContent, "no items could be collected for %s target '%s'", resolved.kind, owner)
	}

	log.Emit(logger.SUCCESS, "Collected %d/%d items for %s target '%s'\n", len(items), len(entries), resolved.kind, owner)
	return items, fmt.Sprintf("%s_%s", owner, resolved.kind), nil
}

// enumerate yields the owner username and the media entries for the
// resolved target.
func (retriever *Retriever) enumerate(ctx context.Context, client Client, resolved target) (string, []MediaItem, error) {
	if resolved.kind == targetPost {
		owner, entries, err := client.Post(ctx, resolved.shortcode)
		if err != nil {
			return "", nil, err
		}
		if owner == "" {
			owner = "post_" + resolved.shortcode
		}

		return owner, entries, nil
	}

	profile, err := client.ResolveProfile(ctx, resolved.username)
	if err != nil {
		return "", nil, err
	}

	var entries []MediaItem
	switch resolved.kind {
	case targetStories:
		entries, err = client.Stories(ctx, profile)
	case targetHighlights:
		entries, err = client.Highlights(ctx, profile)
	case targetProfile:
		entries, err = client.ProfilePosts(ctx, profile)
	case targetProfilePicture:
		var item MediaItem
		if item, err = client.ProfilePicture(ctx, profile); err == nil {
			entries = []MediaItem{item}
		}
	}

	return profile.Username, entries, err
}

func translateClientError(err error, resolved target) error {
	var downloadErr *download.Error
	if errors.As(err, &downloadErr) {
		return err
	}

	switch {
	case errors.Is(err, ErrProfileNotFound):
		return download.NewErrorf(download.ProfileNotFound, "profile '%s' not found: %v", resolved.username, err)
	case errors.Is(err, ErrLoginRequired):
		return download.NewError(download.AuthenticationRequired, err)
	default:
		return download.NewError(download.RetrievalFailure, err)
	}
}

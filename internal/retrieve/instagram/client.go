// Package instagram retrieves media from the social network via its
// web API. The Client interface is the narrow contract the retriever
// depends on; the network/session protocol behind it is treated as an
// opaque collaborator.
package instagram

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProfileNotFound is raised when a username does not resolve
	// to an existing account.
	ErrProfileNotFound = errors.New("profile does not exist")

	// ErrLoginRequired is raised when the network demands an
	// authenticated session or checkpoint for the requested content.
	ErrLoginRequired = errors.New("login required")
)

// Profile identifies a resolved account.
type Profile struct {
	Username   string
	ID         string
	PictureURL string
}

// MediaItem is a single downloadable media entry (one image or one
// video). A carousel post yields several.
type MediaItem struct {
	ID      string
	URL     string
	IsVideo bool
	TakenAt time.Time
}

// Client exposes the operations the retriever needs. Every call is
// blocking and honours context cancellation.
type Client interface {
	// ResolveProfile looks up an account by username.
	ResolveProfile(ctx context.Context, username string) (*Profile, error)

	// Post resolves a single post by shortcode, returning the owner's
	// username and each media entry (several for a carousel).
	Post(ctx context.Context, shortcode string) (string, []MediaItem, error)

	// Stories returns the profile's currently-active story items.
	Stories(ctx context.Context, profile *Profile) ([]MediaItem, error)

	// Highlights returns every item of every highlight album on the profile.
	Highlights(ctx context.Context, profile *Profile) ([]MediaItem, error)

	// ProfilePosts returns the media of the profile's recent posts.
	ProfilePosts(ctx context.Context, profile *Profile) ([]MediaItem, error)

	// ProfilePicture returns the profile's picture as a single item.
	ProfilePicture(ctx context.Context, profile *Profile) (MediaItem, error)

	// Download fetches one media item in to destDir and returns the
	// path of the written file.
	Download(ctx context.Context, item MediaItem, destDir string) (string, error)
}

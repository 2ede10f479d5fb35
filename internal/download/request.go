package download

import "fmt"

// Format enumerates the output formats a caller may request.
type Format int

const (
	FormatVideo Format = iota
	FormatImage
	FormatAudio
)

func (format Format) String() string {
	return []string{"video", "image", "audio"}[format]
}

// ParseFormat maps the HTTP 'format' parameter to a Format. The
// legacy 'mp3' spelling is accepted as an alias for audio as existing
// callers of the original API used it.
func ParseFormat(raw string) (Format, error) {
	switch raw {
	case "", "video":
		return FormatVideo, nil
	case "image":
		return FormatImage, nil
	case "audio", "mp3":
		return FormatAudio, nil
	default:
		return FormatVideo, NewErrorf(InvalidParameter, "unknown format '%s'", raw)
	}
}

// Action enumerates the explicit Instagram actions a caller may
// request alongside a username.
type Action int

const (
	ActionNone Action = iota
	ActionProfilePicture
	ActionStories
	ActionHighlights
	ActionPost

	// ActionProfile is never supplied explicitly; it is inferred by the
	// social retriever from a bare profile URL and downloads every post.
	ActionProfile
)

func (action Action) String() string {
	return []string{"none", "profile_pic", "stories", "highlights", "post", "profile"}[action]
}

func ParseAction(raw string) (Action, error) {
	switch raw {
	case "":
		return ActionNone, nil
	case "profile_pic":
		return ActionProfilePicture, nil
	case "stories":
		return ActionStories, nil
	case "highlights":
		return ActionHighlights, nil
	default:
		return ActionNone, NewErrorf(InvalidParameter, "unknown ig_action '%s'", raw)
	}
}

// Request is the immutable per-request context assembled at the HTTP
// boundary. Exactly one of URL or (Username and Action) must be set.
type Request struct {
	URL      string
	Username string
	Format   Format
	Action   Action
}

// Validate enforces the presence rule before any retrieval begins.
// The format/action enums are validated during parsing.
func (request Request) Validate() error {
	if request.URL == "" && !(request.Username != "" && request.Action != ActionNone) {
		return NewErrorf(InvalidParameter, "'url' (or 'username' and 'ig_action') is required")
	}

	return nil
}

// BaseName derives the name used for a bundled archive, e.g.
// 'alice_stories' for username=alice&ig_action=stories.
func (request Request) BaseName() string {
	if request.Username != "" && request.Action != ActionNone {
		return fmt.Sprintf("%s_%s", request.Username, request.Action)
	}

	return "download"
}

package download

import "strings"

// StrategyKind identifies which retriever a request is routed to.
type StrategyKind int

const (
	// StrategyGenericMedia routes to the yt-dlp backed retriever.
	StrategyGenericMedia StrategyKind = iota

	// StrategySocial routes to the Instagram retriever.
	StrategySocial
)

// Strategy is the outcome of the retrieval decision table.
type Strategy struct {
	Kind StrategyKind

	// Platform tags generic-media requests for logging and error
	// messages (e.g. "YouTube", "TikTok").
	Platform string

	// NeedsCookies marks platforms whose retrieval should be given
	// the materialized cookie credential when one is configured.
	NeedsCookies bool
}

// SelectStrategy maps a validated request to a retrieval strategy.
// The table is evaluated in precedence order: known video platforms
// first, then the social network (by URL or by username+action),
// otherwise the input is unsupported.
func SelectStrategy(request Request) (Strategy, error) {
	switch {
	case containsHost(request.URL, "youtube.com", "youtu.be"):
		return Strategy{Kind: StrategyGenericMedia, Platform: "YouTube", NeedsCookies: true}, nil
	case containsHost(request.URL, "tiktok.com"):
		return Strategy{Kind: StrategyGenericMedia, Platform: "TikTok"}, nil
	case containsHost(request.URL, "instagram.com"):
		return Strategy{Kind: StrategySocial}, nil
	case request.Username != "" && request.Action != ActionNone:
		return Strategy{Kind: StrategySocial}, nil
	default:
		return Strategy{}, NewErrorf(UnsupportedInput, "no retrieval strategy for url='%s'", request.URL)
	}
}

func containsHost(url string, hosts ...string) bool {
	for _, host := range hosts {
		if strings.Contains(url, host) {
			return true
		}
	}

	return false
}

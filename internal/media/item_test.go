package media_test

import (
	"testing"

	"github.com/hbomb79/Snag/internal/media"
	"github.com/stretchr/testify/assert"
)

func Test_KindOf_InfersFromExtension(t *testing.T) {
	tests := map[string]media.Kind{
		"/tmp/ws/clip.mp4":      media.KindVideo,
		"/tmp/ws/clip.webm":     media.KindVideo,
		"/tmp/ws/clip.mkv":      media.KindVideo,
		"/tmp/ws/photo.jpg":     media.KindImage,
		"/tmp/ws/photo.png":     media.KindImage,
		"/tmp/ws/track.mp3":     media.KindAudio,
		"/tmp/ws/track.m4a":     media.KindAudio,
		"/tmp/ws/manifest.json": media.KindUnknown,
		"/tmp/ws/noextension":   media.KindUnknown,
	}

	for path, expected := range tests {
		assert.Equal(t, expected, media.KindOf(path), "kind of %s", path)
	}
}

func Test_NewItem_CarriesInferredKind(t *testing.T) {
	item := media.NewItem("/tmp/ws/clip.mp4")

	assert.Equal(t, "/tmp/ws/clip.mp4", item.Path)
	assert.Equal(t, media.KindVideo, item.Kind)
}

func Test_Paths_PreservesOrder(t *testing.T) {
	items := []media.Item{
		media.NewItem("/a/1.mp4"),
		media.NewItem("/a/2.jpg"),
		media.NewItem("/a/3.mp3"),
	}

	assert.Equal(t, []string{"/a/1.mp4", "/a/2.jpg", "/a/3.mp3"}, media.Paths(items))
}

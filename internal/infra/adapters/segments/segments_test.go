package segments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.Discard())
}

func mediaPlaylist(segments ...string) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-MEDIA-SEQUENCE:0\n")
	for _, s := range segments {
		fmt.Fprintf(&b, "#EXTINF:10.000,\n%s\n", s)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

func segmentServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		if strings.HasPrefix(name, "missing") {
			http.NotFound(w, r)
			return
		}
		// Later segments answer first to shake out ordering bugs.
		if name == "seg0.ts" {
			time.Sleep(20 * time.Millisecond)
		}
		fmt.Fprintf(w, "[%s]", name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadInOrder(t *testing.T) {
	srv := segmentServer(t)
	out := filepath.Join(t.TempDir(), "ep.video.ts")
	d := New(Options{Workers: 2, Client: srv.Client(), Progress: io.Discard})
	err := d.Download(testContext(), &ports.SegmentDownloadRequest{
		PlaylistURL: srv.URL + "/show/ep/chunklist.m3u8",
		Playlist:    []byte(mediaPlaylist("seg0.ts", "seg1.ts", "sub/seg2.ts", srv.URL+"/abs/seg3.ts", "seg4.ts")),
		Output:      out,
	})
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[seg0.ts][seg1.ts][seg2.ts][seg3.ts][seg4.ts]", string(b))
}

func TestFailedSegmentLeavesNoFile(t *testing.T) {
	srv := segmentServer(t)
	out := filepath.Join(t.TempDir(), "ep.video.ts")
	d := New(Options{Workers: 3, Client: srv.Client(), Progress: io.Discard})
	err := d.Download(testContext(), &ports.SegmentDownloadRequest{
		PlaylistURL: srv.URL + "/chunklist.m3u8",
		Playlist:    []byte(mediaPlaylist("seg0.ts", "missing1.ts", "seg2.ts", "seg3.ts")),
		Output:      out,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment 2 of 4")
	assert.NoFileExists(t, out)
	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSegmentURLs(t *testing.T) {
	uris, err := SegmentURLs("https://cdn.example.com/a/b/index.m3u8?token=1", []byte(mediaPlaylist("s0.ts", "../c/s1.ts", "https://other.example.com/s2.ts")))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example.com/a/b/s0.ts",
		"https://cdn.example.com/a/c/s1.ts",
		"https://other.example.com/s2.ts",
	}, uris)
}

func TestSegmentURLsRejects(t *testing.T) {
	encrypted := "#EXTM3U\n#EXT-X-TARGETDURATION:10\n" +
		"#EXT-X-KEY:METHOD=AES-128,URI=\"https://keys.example.com/k\"\n" +
		"#EXTINF:10.000,\nseg0.ts\n#EXT-X-ENDLIST\n"
	_, err := SegmentURLs("https://cdn.example.com/index.m3u8", []byte(encrypted))
	assert.ErrorIs(t, err, ErrEncrypted)

	master := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1000,RESOLUTION=640x360\nlow.m3u8\n"
	_, err = SegmentURLs("https://cdn.example.com/index.m3u8", []byte(master))
	assert.ErrorIs(t, err, ErrNotMedia)

	empty := "#EXTM3U\n#EXT-X-TARGETDURATION:10\n#EXT-X-ENDLIST\n"
	_, err = SegmentURLs("https://cdn.example.com/index.m3u8", []byte(empty))
	assert.Error(t, err)
}

package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ytget/streamres/client"
)

const masterPlaylist = `#EXTM3U
#EXT-X-INDEPENDENT-SEGMENTS
#EXT-X-STREAM-INF:BANDWIDTH=380000,CODECS="mp4a.40.5,avc1.42c00b",RESOLUTION=256x144,FRAME-RATE=30
https://manifest.example.com/hls_playlist/itag/91/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1200000,CODECS="mp4a.40.2,avc1.4d401f",RESOLUTION=1280x720,FRAME-RATE=30
/hls_playlist/itag/95/playlist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2900000,CODECS="mp4a.40.2,avc1.640028",RESOLUTION=1920x1080,FRAME-RATE=29.97
playlist_1080.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=99000,RESOLUTION=333x777
odd_resolution.m3u8
`

func TestParseMaster(t *testing.T) {
	variants := ParseMaster(masterPlaylist)
	if len(variants) != 4 {
		t.Fatalf("variants = %d, want 4", len(variants))
	}

	first := variants[0]
	if first.Itag != 91 || first.Width != 256 || first.Height != 144 {
		t.Errorf("first = %+v", first)
	}
	if first.Bandwidth != 380000 || first.FrameRate != 30 {
		t.Errorf("first = %+v", first)
	}
	if first.Codecs != "mp4a.40.5,avc1.42c00b" {
		t.Errorf("quoted codecs mishandled: %q", first.Codecs)
	}

	if variants[1].Itag != 95 {
		t.Errorf("720p itag = %d, want 95", variants[1].Itag)
	}
	if variants[2].Itag != 96 || variants[2].FrameRate != 30 {
		t.Errorf("1080p = %+v", variants[2])
	}
	// Unmapped resolution keeps a zero itag for the fetcher to drop.
	if variants[3].Itag != 0 {
		t.Errorf("odd resolution itag = %d, want 0", variants[3].Itag)
	}
}

func TestParseMaster_Empty(t *testing.T) {
	if got := ParseMaster("#EXTM3U\n"); len(got) != 0 {
		t.Errorf("variants = %d, want 0", len(got))
	}
}

func TestMaster_ResolvesRelativeURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(masterPlaylist))
	}))
	defer srv.Close()

	f := NewFetcher(client.NewWith(client.Config{Retries: 1}))
	variants, err := f.Master(context.Background(), srv.URL+"/api/manifest/hls_variant/master.m3u8")
	if err != nil {
		t.Fatalf("Master: %v", err)
	}
	// The unmapped variant is dropped.
	if len(variants) != 3 {
		t.Fatalf("variants = %d, want 3", len(variants))
	}
	if variants[0].URL != "https://manifest.example.com/hls_playlist/itag/91/playlist.m3u8" {
		t.Errorf("absolute url rewritten: %q", variants[0].URL)
	}
	if variants[1].URL != srv.URL+"/hls_playlist/itag/95/playlist.m3u8" {
		t.Errorf("root-relative url = %q", variants[1].URL)
	}
	if variants[2].URL != srv.URL+"/api/manifest/hls_variant/playlist_1080.m3u8" {
		t.Errorf("relative url = %q", variants[2].URL)
	}
}

func TestMaster_RetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(masterPlaylist))
	}))
	defer srv.Close()

	f := NewFetcher(client.NewWith(client.Config{Retries: 3}))
	if _, err := f.Master(context.Background(), srv.URL); err != nil {
		t.Fatalf("Master: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestMaster_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(client.NewWith(client.Config{Retries: 1}))
	if _, err := f.Master(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}

package streamres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ytget/streamres/errs"
	"github.com/ytget/streamres/types"
	"github.com/ytget/streamres/youtube/innertube"
	"github.com/ytget/streamres/youtube/itags"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

const testPlayerScript = `var Wx={rv:function(a){a.reverse()},sp:function(a,b){a.splice(0,b)},sw:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}};
var dz=function(a){a=a.split("");Wx.sw(a,3);Wx.rv(a);Wx.sp(a,2);return a.join("")};
var kq=[nz];
nz=function(a){var b=a.split("");b.reverse();return b.join("")+"_n"};
g.D&&(c&&d.set("signature",encodeURIComponent(dz(decodeURIComponent(c)))));
e.j&&(b=e.get("n"))&&(b=kq[0](b),e.set("n",b))||fz;`

func playerJSON(t *testing.T, status, reason string, formats, adaptive []map[string]any, extra map[string]any) string {
	t.Helper()
	body := map[string]any{
		"playabilityStatus": map[string]any{"status": status, "reason": reason},
		"videoDetails":      map[string]any{"videoId": "vid", "title": "Test Video"},
	}
	if formats != nil || adaptive != nil {
		sd := map[string]any{}
		if formats != nil {
			sd["formats"] = formats
		}
		if adaptive != nil {
			sd["adaptiveFormats"] = adaptive
		}
		body["streamingData"] = sd
	}
	for k, v := range extra {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func muxed22() map[string]any {
	return map[string]any{
		"itag": 22, "url": "https://media.example.com/videoplayback?itag=22",
		"mimeType": `video/mp4; codecs="avc1.64001F, mp4a.40.2"`,
		"width":    1280, "height": 720, "fps": 30,
	}
}

func video136() map[string]any {
	return map[string]any{
		"itag": 136, "url": "https://media.example.com/videoplayback?itag=136",
		"mimeType": `video/mp4; codecs="avc1.64001F"`,
		"width":    1280, "height": 720, "fps": 30, "bitrate": 1500000,
		"initRange":  map[string]any{"start": "0", "end": "739"},
		"indexRange": map[string]any{"start": "740", "end": "1255"},
	}
}

func audio140() map[string]any {
	return map[string]any{
		"itag": 140, "url": "https://media.example.com/videoplayback?itag=140",
		"mimeType": `audio/mp4; codecs="mp4a.40.2"`,
		"bitrate":  130000,
		"initRange":  map[string]any{"start": "0", "end": "631"},
		"indexRange": map[string]any{"start": "632", "end": "871"},
	}
}

// scriptedTransport answers /player calls from the queue in order and serves
// watch pages, player scripts and playlists from fixed fixtures.
func scriptedTransport(t *testing.T, playerBodies []string, calls *int32) http.RoundTripper {
	t.Helper()
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Path, "/youtubei/v1/player"):
			n := atomic.AddInt32(calls, 1)
			if int(n) > len(playerBodies) {
				t.Errorf("unexpected player call %d", n)
				return textResponse(500, ""), nil
			}
			return textResponse(200, playerBodies[n-1]), nil
		case strings.HasPrefix(req.URL.Path, "/watch"):
			return textResponse(200, `{"jsUrl":"\/s\/player\/abc123\/base.js"}`), nil
		case strings.Contains(req.URL.Path, "base.js"):
			return textResponse(200, testPlayerScript), nil
		default:
			return textResponse(200, ""), nil
		}
	})
}

func singleGroup() []innertube.PersonaGroup {
	return []innertube.PersonaGroup{{
		Name:     "default",
		Profiles: []innertube.ClientProfile{innertube.AndroidClient, innertube.IOSClient, innertube.AndroidVRClient},
	}}
}

func TestResolve_ThreePersonaScenario(t *testing.T) {
	var calls int32
	unplayable := playerJSON(t, "UNPLAYABLE", "This video is not available on this app", nil, nil, nil)
	ok := playerJSON(t, "OK", "", []map[string]any{muxed22()},
		[]map[string]any{video136(), audio140()}, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{unplayable, unplayable, ok}, &calls)}).
		WithPersonaGroups(singleGroup()).
		WithLoopback("http://127.0.0.1:8090/streamres", t.TempDir())

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("player calls = %d, want 3", got)
	}
	if len(candidates) != 4 {
		t.Fatalf("candidates = %d, want 4 (manifest, progressive, video, audio)", len(candidates))
	}
	if candidates[0].Itag != itags.ItagDASHManifest {
		t.Errorf("first candidate itag = %d, want manifest", candidates[0].Itag)
	}
	if !strings.HasPrefix(candidates[0].URL, "http://127.0.0.1:8090/streamres/") {
		t.Errorf("manifest url = %q", candidates[0].URL)
	}

	seen := map[int]int{}
	for _, c := range candidates {
		seen[c.Itag]++
	}
	for _, itag := range []int{itags.ItagDASHManifest, 22, 136, 140} {
		if seen[itag] != 1 {
			t.Errorf("itag %d count = %d, want 1", itag, seen[itag])
		}
	}
	// The progressive candidate outranks the equally sized video-only
	// fallback through its audio score.
	pos := map[int]int{}
	for i, c := range candidates {
		pos[c.Itag] = i
	}
	if pos[22] > pos[136] {
		t.Error("progressive candidate must rank above the video-only fallback")
	}
}

func TestResolve_FatalGeoBlockAborts(t *testing.T) {
	var calls int32
	geo := playerJSON(t, "ERROR", "The uploader has not made this video available in your country", nil, nil, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{geo}, &calls)}).
		WithPersonaGroups(singleGroup())

	_, err := r.Resolve(context.Background(), "vid")
	if !errors.Is(err, errs.ErrGeoBlocked) {
		t.Fatalf("err = %v, want ErrGeoBlocked", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("player calls = %d, want 1 (fatal aborts immediately)", got)
	}
}

func TestResolve_ExhaustedPersonasCarriesLastReason(t *testing.T) {
	var calls int32
	unplayable := playerJSON(t, "UNPLAYABLE", "This video is not available on this app", nil, nil, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{unplayable, unplayable, unplayable}, &calls)}).
		WithPersonaGroups(singleGroup())

	_, err := r.Resolve(context.Background(), "vid")
	var up *errs.Unplayable
	if !errors.As(err, &up) {
		t.Fatalf("err = %T (%v), want *errs.Unplayable", err, err)
	}
	if up.Reason != "This video is not available on this app" {
		t.Errorf("reason = %q", up.Reason)
	}
	if errors.Is(err, errs.ErrNoStreams) {
		t.Error("exhausted personas must be distinct from the empty-result condition")
	}
}

func TestResolve_EmptyAfterFilteringIsNoStreams(t *testing.T) {
	var calls int32
	ok := playerJSON(t, "OK", "", nil, []map[string]any{{
		"itag": 99999, "url": "https://media.example.com/videoplayback?itag=99999",
		"mimeType": `video/mp4; codecs="avc1.64001F"`,
	}}, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{ok}, &calls)}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}})

	_, err := r.Resolve(context.Background(), "vid")
	if !errors.Is(err, errs.ErrNoStreams) {
		t.Fatalf("err = %v, want ErrNoStreams", err)
	}
	if errors.Is(err, errs.ErrVideoUnavailable) {
		t.Error("empty-after-filtering must not look like content unavailability")
	}
}

func TestResolve_Aborted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, nil, &calls)}).
		WithPersonaGroups(singleGroup())

	_, err := r.Resolve(ctx, "vid")
	if !errors.Is(err, errs.ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("player calls = %d, want 0", got)
	}
}

func TestResolve_CrossGroupMergeAndDedup(t *testing.T) {
	var calls int32
	first := playerJSON(t, "OK", "", []map[string]any{muxed22()}, nil, nil)
	second := playerJSON(t, "OK", "", []map[string]any{
		muxed22(),
		{
			"itag": 18, "url": "https://media.example.com/videoplayback?itag=18",
			"mimeType": `video/mp4; codecs="avc1.42001E, mp4a.40.2"`,
			"width":    640, "height": 360, "fps": 30,
		},
	}, nil, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{first, second}, &calls)}).
		WithPersonaGroups([]innertube.PersonaGroup{
			{Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient}},
			{Name: "progressive", Profiles: []innertube.ClientProfile{innertube.AndroidVRClient}},
		})

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("player calls = %d, want 2 (both groups run)", got)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2 (22 de-duplicated, 18 merged)", len(candidates))
	}
	if candidates[0].Itag != 22 || candidates[1].Itag != 18 {
		t.Errorf("order = %d,%d", candidates[0].Itag, candidates[1].Itag)
	}
}

func TestResolve_SignatureCipherAndThrottle(t *testing.T) {
	var calls int32
	mediaURL := "https://media.example.com/videoplayback?itag=140&n=qtoken"
	blob := "s=abcdefgh&sp=sig&url=" + url.QueryEscape(mediaURL)
	ok := playerJSON(t, "OK", "", nil, []map[string]any{{
		"itag":            140,
		"signatureCipher": blob,
		"mimeType":        `audio/mp4; codecs="mp4a.40.2"`,
		"bitrate":         130000,
	}}, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{ok}, &calls)}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}})

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}

	u, err := url.Parse(candidates[0].URL)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("sig") != "feacbd" {
		t.Errorf("sig = %q, want deciphered feacbd", q.Get("sig"))
	}
	if q.Get("n") != "nekotq_n" {
		t.Errorf("n = %q, want transformed nekotq_n", q.Get("n"))
	}
}

func TestResolve_LiveUsesHLSVariants(t *testing.T) {
	var calls int32
	master := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=380000,RESOLUTION=256x144,FRAME-RATE=30\n" +
		"https://manifest.example.com/itag/91/playlist.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=1200000,RESOLUTION=1280x720,FRAME-RATE=30\n" +
		"https://manifest.example.com/itag/95/playlist.m3u8\n"

	live := playerJSON(t, "OK", "", nil, nil, map[string]any{
		"videoDetails": map[string]any{"videoId": "vid", "title": "Live", "isLive": true},
		"streamingData": map[string]any{
			"hlsManifestUrl": "https://manifest.example.com/master.m3u8",
		},
	})

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Path, "/youtubei/v1/player"):
			atomic.AddInt32(&calls, 1)
			return textResponse(200, live), nil
		case strings.Contains(req.URL.Path, "master.m3u8"):
			return textResponse(200, master), nil
		default:
			return textResponse(200, ""), nil
		}
	})

	r := New().
		WithHTTPClient(&http.Client{Transport: transport}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}}).
		WithLoopback("http://127.0.0.1:8090/streamres", t.TempDir())

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("candidates = %d, want master plus 2 variants", len(candidates))
	}
	for _, c := range candidates {
		if !c.Live {
			t.Errorf("itag %d not flagged live", c.Itag)
		}
		if c.Itag == itags.ItagDASHManifest {
			t.Error("live resolution must not synthesize a DASH manifest")
		}
	}
	masterCand := candidates[0]
	if masterCand.Itag != itags.ItagHLSMaster {
		t.Fatalf("first candidate itag = %d, want the master playlist", masterCand.Itag)
	}
	if masterCand.URL != "https://manifest.example.com/master.m3u8" {
		t.Errorf("master url = %q", masterCand.URL)
	}
	if masterCand.Title != "Live HLS" {
		t.Errorf("master title = %q", masterCand.Title)
	}
	if candidates[1].Itag != 95 || candidates[2].Itag != 91 {
		t.Errorf("variant order = %d,%d, want 95,91", candidates[1].Itag, candidates[2].Itag)
	}
}

func TestResolve_SubtitlesReachManifest(t *testing.T) {
	var calls int32
	ok := playerJSON(t, "OK", "", nil,
		[]map[string]any{video136(), audio140()},
		map[string]any{
			"captions": map[string]any{
				"playerCaptionsTracklistRenderer": map[string]any{
					"captionTracks": []map[string]any{
						{
							"baseUrl":      "https://www.youtube.com/api/timedtext?v=vid&lang=en",
							"languageCode": "en",
							"name":         map[string]any{"simpleText": "English"},
						},
						{
							"baseUrl":      "https://www.youtube.com/api/timedtext?v=vid&lang=en&kind=asr",
							"languageCode": "en",
							"kind":         "asr",
							"name":         map[string]any{"simpleText": "English (auto-generated)"},
						},
						{
							"baseUrl":      "https://www.youtube.com/api/timedtext?v=vid&lang=de",
							"languageCode": "de",
							"name":         map[string]any{"simpleText": "Deutsch"},
						},
					},
				},
			},
		})

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Path, "/youtubei/v1/player"):
			atomic.AddInt32(&calls, 1)
			return textResponse(200, ok), nil
		case strings.Contains(req.URL.Path, "/api/timedtext"):
			if req.URL.Query().Get("fmt") != "vtt" {
				t.Errorf("caption fetch without fmt=vtt: %s", req.URL)
			}
			return textResponse(200, "WEBVTT\n\n00:00.000 --> 00:01.000\nhello\n"), nil
		default:
			return textResponse(200, ""), nil
		}
	})

	dir := t.TempDir()
	r := New().
		WithHTTPClient(&http.Client{Transport: transport}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}}).
		WithLoopback("http://127.0.0.1:8090/streamres", dir)

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidates[0].Itag != itags.ItagDASHManifest {
		t.Fatalf("first candidate itag = %d, want manifest", candidates[0].Itag)
	}

	// One file per (video id, language); the duplicate-language ASR track is
	// not mirrored twice.
	for _, name := range []string{"vid.en.vtt", "vid.de.vtt"} {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("subtitle file %s: %v", name, err)
		}
		if !strings.HasPrefix(string(body), "WEBVTT") {
			t.Errorf("%s is not a WebVTT body: %q", name, body)
		}
	}

	manifest, err := os.ReadFile(filepath.Join(dir, "vid.mpd"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	doc := string(manifest)
	if got := strings.Count(doc, `mimeType="text/vtt"`); got != 2 {
		t.Errorf("subtitle AdaptationSets = %d, want 2", got)
	}
	if !strings.Contains(doc, `lang="de"`) {
		t.Error("German subtitle set missing from manifest")
	}
	if !strings.Contains(doc, "http://127.0.0.1:8090/streamres/vid.en.vtt") {
		t.Error("manifest does not reference the served English subtitle file")
	}
}

func TestResolve_CipherFailureSurfaces(t *testing.T) {
	var calls int32
	mediaURL := "https://media.example.com/videoplayback?itag=140"
	blob := "s=abcdefgh&sp=sig&url=" + url.QueryEscape(mediaURL)
	ok := playerJSON(t, "OK", "", nil, []map[string]any{{
		"itag":            140,
		"signatureCipher": blob,
		"mimeType":        `audio/mp4; codecs="mp4a.40.2"`,
		"bitrate":         130000,
	}}, nil)

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(req.URL.Path, "/youtubei/v1/player"):
			atomic.AddInt32(&calls, 1)
			return textResponse(200, ok), nil
		case strings.HasPrefix(req.URL.Path, "/watch"):
			return textResponse(200, `{"jsUrl":"\/s\/player\/abc123\/base.js"}`), nil
		case strings.Contains(req.URL.Path, "base.js"):
			// A player build the transform discovery cannot handle.
			return textResponse(200, `var x=function(a){return a};console.log(x("y"));`), nil
		default:
			return textResponse(200, ""), nil
		}
	})

	r := New().
		WithHTTPClient(&http.Client{Transport: transport}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}})

	_, err := r.Resolve(context.Background(), "vid")
	if !errors.Is(err, errs.ErrCipherFailed) {
		t.Fatalf("err = %v, want ErrCipherFailed", err)
	}
	if errors.Is(err, errs.ErrNoStreams) {
		t.Error("a cipher failure must not masquerade as an empty format list")
	}
}

func TestResolve_ConstraintsReachClassifier(t *testing.T) {
	var calls int32
	ok := playerJSON(t, "OK", "", []map[string]any{muxed22()}, []map[string]any{{
		"itag": 137, "url": "https://media.example.com/videoplayback?itag=137",
		"mimeType": `video/mp4; codecs="avc1.640028"`,
		"width":    1920, "height": 1080, "fps": 30,
	}}, nil)

	r := New().
		WithHTTPClient(&http.Client{Transport: scriptedTransport(t, []string{ok}, &calls)}).
		WithPersonaGroups([]innertube.PersonaGroup{{
			Name: "default", Profiles: []innertube.ClientProfile{innertube.AndroidClient},
		}}).
		WithConstraints(types.Constraints{MaxHeight: 720})

	candidates, err := r.Resolve(context.Background(), "vid")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, c := range candidates {
		if c.Itag == 137 {
			t.Error("1080p candidate must be filtered by a 720p bound")
		}
	}
}

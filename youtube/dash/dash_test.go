package dash

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ytget/streamres/types"
	"github.com/ytget/streamres/youtube/itags"
)

func videoCandidate(itag int, codec, mime string, w, h, fps int, hdr bool, score float64) types.StreamCandidate {
	return types.StreamCandidate{
		Itag: itag, URL: "https://example.com/v/" + codec, Container: types.ContainerMP4,
		VideoCodec: codec, MimeType: mime, Width: w, Height: h, FPS: fps, HDR: hdr,
		BitrateBps: 2_000_000, VideoOnly: true, Adaptive: true, DurationMs: 212_000,
		InitRange:  &types.ByteRange{Start: 0, End: 739},
		IndexRange: &types.ByteRange{Start: 740, End: 1255},
		Key:        types.SortKey{VideoScore: score},
	}
}

func audioCandidate(itag int, codec, mime, lang string, role types.AudioRole, score float64) types.StreamCandidate {
	c := types.StreamCandidate{
		Itag: itag, URL: "https://example.com/a/" + codec, Container: types.ContainerWebM,
		AudioCodec: codec, MimeType: mime, AudioBitrateBps: 160_000, AudioChannels: 2,
		AudioOnly: true, Adaptive: true,
		Key: types.SortKey{AudioScore: score},
	}
	if lang != "" {
		c.AudioTrack = &types.AudioTrack{LanguageCode: lang, Role: role}
	}
	return c
}

func readManifest(t *testing.T, dir, videoID string) MPD {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, videoID+".mpd"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var doc MPD
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("manifest is not well-formed XML: %v", err)
	}
	return doc
}

func countVideoSets(doc MPD) int {
	n := 0
	for _, set := range doc.Periods[0].AdaptationSets {
		if strings.HasPrefix(set.MimeType, "video/") {
			n++
		}
	}
	return n
}

func TestBuild_RequiresVideoAndAudio(t *testing.T) {
	b := NewBuilder(t.TempDir(), "http://127.0.0.1:8090/streamres")
	if _, _, err := b.Build("vid", nil, []types.StreamCandidate{audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160)}, nil, ""); err == nil {
		t.Error("expected error without video representations")
	}
	if _, _, err := b.Build("vid", []types.StreamCandidate{videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)}, nil, nil, ""); err == nil {
		t.Error("expected error without audio representations")
	}
}

func TestBuild_DeDupKeepsOneVideoSet(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres")

	// Two codec groups whose best members are indistinguishable
	// (1080p30 SDR stereo-less video): only the better-scoring one may
	// survive.
	video := []types.StreamCandidate{
		videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972),
		videoCandidate(137, "h.264", `video/mp4; codecs="avc1.640028"`, 1920, 1080, 30, false, 918),
	}
	audio := []types.StreamCandidate{
		audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160),
	}

	served, rep, err := b.Build("dQw4w9WgXcQ", video, audio, nil, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if served != "http://127.0.0.1:8090/streamres/dQw4w9WgXcQ.mpd" {
		t.Errorf("served = %q", served)
	}
	if rep.Itag != itags.ItagDASHManifest {
		t.Errorf("representative itag = %d", rep.Itag)
	}

	doc := readManifest(t, dir, "dQw4w9WgXcQ")
	if got := countVideoSets(doc); got != 1 {
		t.Fatalf("video AdaptationSets = %d, want exactly 1", got)
	}
	for _, set := range doc.Periods[0].AdaptationSets {
		if len(set.Representations) == 0 {
			t.Error("AdaptationSet with zero Representations emitted")
		}
	}
	// The retained group is the vp9 one (higher score).
	for _, set := range doc.Periods[0].AdaptationSets {
		if strings.HasPrefix(set.MimeType, "video/") {
			if set.Representations[0].ID != "248" {
				t.Errorf("retained representation = %s, want 248", set.Representations[0].ID)
			}
			if set.Representations[0].SegmentBase == nil ||
				set.Representations[0].SegmentBase.IndexRange != "740-1255" {
				t.Error("segment base ranges missing")
			}
		}
	}
}

func TestBuild_DistinctTiersBothKept(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres")

	video := []types.StreamCandidate{
		videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972),
		videoCandidate(247, "vp9", `video/webm; codecs="vp9"`, 1280, 720, 30, false, 648),
	}
	audio := []types.StreamCandidate{
		audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160),
	}
	if _, _, err := b.Build("vid2", video, audio, nil, ""); err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc := readManifest(t, dir, "vid2")
	if got := countVideoSets(doc); got != 2 {
		t.Errorf("video AdaptationSets = %d, want 2 for distinct tiers", got)
	}
}

func TestBuild_ListModeKeepsLadder(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres").WithMode(ModeList)

	// Same codec and tier, different frame rates: one group, two rungs.
	v60 := videoCandidate(303, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 60, false, 1030)
	v30 := videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)
	audio := []types.StreamCandidate{
		audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160),
	}
	if _, _, err := b.Build("vid3", []types.StreamCandidate{v30, v60}, audio, nil, ""); err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc := readManifest(t, dir, "vid3")
	for _, set := range doc.Periods[0].AdaptationSets {
		if strings.HasPrefix(set.MimeType, "video/") {
			if len(set.Representations) != 2 {
				t.Fatalf("representations = %d, want full ladder of 2", len(set.Representations))
			}
			if set.Representations[0].ID != "303" {
				t.Error("ladder not sorted best-first")
			}
		}
	}
}

func TestBuild_ContentProtection(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres")
	video := []types.StreamCandidate{videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)}
	audio := []types.StreamCandidate{audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160)}

	if _, _, err := b.Build("vid4", video, audio, nil, "https://license.example.com/wv"); err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc := readManifest(t, dir, "vid4")
	for _, set := range doc.Periods[0].AdaptationSets {
		if set.ContentProtection == nil {
			t.Error("ContentProtection missing with license URL set")
		} else if set.ContentProtection.LicenseURL != "https://license.example.com/wv" {
			t.Errorf("license = %q", set.ContentProtection.LicenseURL)
		}
	}
}

func TestBuild_Subtitles(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres")
	video := []types.StreamCandidate{videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)}
	audio := []types.StreamCandidate{audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160)}
	subs := []Subtitle{{URL: "http://127.0.0.1:8090/streamres/vid5.en.vtt", LanguageCode: "en", Label: "English"}}

	if _, _, err := b.Build("vid5", video, audio, subs, ""); err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc := readManifest(t, dir, "vid5")
	found := false
	for _, set := range doc.Periods[0].AdaptationSets {
		if set.MimeType == "text/vtt" {
			found = true
			if set.Lang != "en" || len(set.Representations) != 1 {
				t.Errorf("subtitle set = %+v", set)
			}
		}
	}
	if !found {
		t.Error("subtitle AdaptationSet missing")
	}
}

func TestBuild_MultiLanguageFlag(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(dir, "http://127.0.0.1:8090/streamres")
	video := []types.StreamCandidate{videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)}
	audio := []types.StreamCandidate{
		audioCandidate(140, "mp4a", `audio/mp4; codecs="mp4a.40.2"`, "en", types.RoleOriginal, 136),
		audioCandidate(140, "mp4a", `audio/mp4; codecs="mp4a.40.2"`, "de", types.RoleDubbed, 136),
	}
	_, rep, err := b.Build("vid6", video, audio, nil, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !rep.MultiLanguage || !rep.MultiAudio {
		t.Errorf("MultiLanguage=%v MultiAudio=%v, want both true", rep.MultiLanguage, rep.MultiAudio)
	}
	doc := readManifest(t, dir, "vid6")
	audioSets := 0
	for _, set := range doc.Periods[0].AdaptationSets {
		if strings.HasPrefix(set.MimeType, "audio/") {
			audioSets++
		}
	}
	if audioSets != 2 {
		t.Errorf("audio AdaptationSets = %d, want 2 (one per language)", audioSets)
	}
}

func TestBuild_WriteFailureReturnsError(t *testing.T) {
	b := NewBuilder(filepath.Join(t.TempDir(), "missing-subdir"), "http://127.0.0.1:8090/streamres")
	video := []types.StreamCandidate{videoCandidate(248, "vp9", `video/webm; codecs="vp9"`, 1920, 1080, 30, false, 972)}
	audio := []types.StreamCandidate{audioCandidate(251, "opus", `audio/webm; codecs="opus"`, "", "", 160)}
	served, rep, err := b.Build("vid7", video, audio, nil, "")
	if err == nil {
		t.Fatal("expected write failure")
	}
	if served != "" || rep.Itag != 0 {
		t.Error("failure must return empty url and zero representative")
	}
}

package sanitize

import "testing"

func TestToSafeFilename_Basics(t *testing.T) {
	got := ToSafeFilename("dQw4:/\\*?\"<>|w9WgXcQ", "mpd")
	if got != "dQw4_w9WgXcQ.mpd" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Defaults(t *testing.T) {
	got := ToSafeFilename("", "")
	if got != "manifest.mpd" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Long(t *testing.T) {
	base := "a"
	for len(base) < 200 {
		base += "a"
	}
	got := ToSafeFilename(base, "mpd")
	if len(got) > 125 { // name(120)+.ext
		t.Fatalf("too long: %d", len(got))
	}
}

func TestSubtitleFilename(t *testing.T) {
	if got := SubtitleFilename("dQw4w9WgXcQ", "en"); got != "dQw4w9WgXcQ.en.vtt" {
		t.Fatalf("got %q", got)
	}
}

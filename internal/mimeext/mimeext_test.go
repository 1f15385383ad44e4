package mimeext

import "testing"

func TestExtFromMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"video/mp4", "mp4"},
		{`video/mp4; codecs="avc1.64001F"`, "mp4"},
		{"audio/mp4", "m4a"},
		{"video/webm", "webm"},
		{"audio/webm", "webm"},
		{"application/dash+xml", "mpd"},
		{"text/vtt", "vtt"},
		{"video/3gpp", "3gpp"},
		{"", "mp4"},
	}
	for _, tt := range tests {
		if got := ExtFromMime(tt.mime); got != tt.want {
			t.Errorf("ExtFromMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestParseCodecs(t *testing.T) {
	got := ParseCodecs(`video/mp4; codecs="avc1.64001F, mp4a.40.2"`)
	if len(got) != 2 || got[0] != "avc1.64001F" || got[1] != "mp4a.40.2" {
		t.Errorf("ParseCodecs = %v", got)
	}
	if ParseCodecs("video/mp4") != nil {
		t.Error("expected nil for mime without codecs")
	}
}

func TestBaseType(t *testing.T) {
	if got := BaseType(`audio/webm; codecs="opus"`); got != "audio/webm" {
		t.Errorf("BaseType = %q", got)
	}
}

func TestCodecFamily(t *testing.T) {
	tests := []struct {
		codec string
		want  string
	}{
		{"avc1.64001F", "h.264"},
		{"av01.0.08M.08", "av01"},
		{"vp09.02.51.10.01.09.16.09.00", "vp9.2"},
		{"vp09.00.50.08", "vp9"},
		{"vp9", "vp9"},
		{"vp8", "vp8"},
		{"mp4a.40.2", "mp4a"},
		{"opus", "opus"},
		{"vorbis", "vorbis"},
		{"ec-3", "ec-3"},
		{"ac-3", "ac-3"},
		{"dtse", "dts"},
	}
	for _, tt := range tests {
		if got := CodecFamily(tt.codec); got != tt.want {
			t.Errorf("CodecFamily(%q) = %q, want %q", tt.codec, got, tt.want)
		}
	}
}

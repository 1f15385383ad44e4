// Package mimeext maps MIME types to file extensions and parses codec
// strings into the coarse families the capability gates work with.
package mimeext

import (
	"strings"
)

const (
	// DefaultExt is the extension used when MIME is unknown or empty.
	DefaultExt = "mp4"

	// ExtM4A is the file extension for MP4 audio.
	ExtM4A = "m4a"
	// ExtWebM is the file extension for WebM media.
	ExtWebM = "webm"
	// ExtMPD is the file extension for DASH manifests.
	ExtMPD = "mpd"
	// ExtVTT is the file extension for WebVTT subtitles.
	ExtVTT = "vtt"

	// MimeVideoMP4 is the MIME type for MP4 video.
	MimeVideoMP4 = "video/mp4"
	// MimeAudioMP4 is the MIME type for MP4 audio.
	MimeAudioMP4 = "audio/mp4"
	// MimeVideoWebM is the MIME type for WebM video.
	MimeVideoWebM = "video/webm"
	// MimeAudioWebM is the MIME type for WebM audio.
	MimeAudioWebM = "audio/webm"
	// MimeMPD is the MIME type for DASH manifests.
	MimeMPD = "application/dash+xml"
	// MimeVTT is the MIME type for WebVTT subtitles.
	MimeVTT = "text/vtt"
)

// ExtFromMime returns file extension (without dot) for given mime type.
// Falls back to subtype or mp4 if unknown.
func ExtFromMime(mime string) string {
	mime = strings.TrimSpace(mime)
	if mime == "" {
		return DefaultExt
	}
	base := mime
	if i := strings.Index(mime, ";"); i >= 0 {
		base = strings.TrimSpace(mime[:i])
	}
	switch base {
	case MimeVideoMP4:
		return DefaultExt
	case MimeAudioMP4:
		return ExtM4A
	case MimeVideoWebM, MimeAudioWebM:
		return ExtWebM
	case MimeMPD:
		return ExtMPD
	case MimeVTT:
		return ExtVTT
	}
	// Try subtype
	parts := strings.Split(base, "/")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return DefaultExt
}

// BaseType strips parameters, returning e.g. "video/mp4" from
// `video/mp4; codecs="avc1.64001F"`.
func BaseType(mime string) string {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

// ParseCodecs extracts the codecs parameter of a mime string, split and
// trimmed. Returns nil when no codecs parameter is present.
func ParseCodecs(mime string) []string {
	_, rest, found := strings.Cut(mime, "codecs=")
	if !found {
		return nil
	}
	rest = strings.Trim(rest, `" `)
	if i := strings.IndexByte(rest, '"'); i >= 0 {
		rest = rest[:i]
	}
	parts := strings.Split(rest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CodecFamily collapses a full codec string to the family name the
// capability set and quality-factor tables are keyed by. Unknown codecs
// return their lowercase leading token unchanged.
func CodecFamily(codec string) string {
	c := strings.ToLower(strings.TrimSpace(codec))
	switch {
	case strings.HasPrefix(c, "avc1"), strings.HasPrefix(c, "avc3"), strings.HasPrefix(c, "h264"):
		return "h.264"
	case strings.HasPrefix(c, "av01"):
		return "av01"
	case strings.HasPrefix(c, "vp09.02"), c == "vp9.2":
		return "vp9.2"
	case strings.HasPrefix(c, "vp09"), strings.HasPrefix(c, "vp9"):
		return "vp9"
	case strings.HasPrefix(c, "vp8"), strings.HasPrefix(c, "vp08"):
		return "vp8"
	case strings.HasPrefix(c, "mp4a"):
		return "mp4a"
	case strings.HasPrefix(c, "opus"):
		return "opus"
	case strings.HasPrefix(c, "vorbis"):
		return "vorbis"
	case strings.HasPrefix(c, "ec-3"), strings.HasPrefix(c, "eac3"):
		return "ec-3"
	case strings.HasPrefix(c, "ac-3"), strings.HasPrefix(c, "ac3"):
		return "ac-3"
	case strings.HasPrefix(c, "dts"):
		return "dts"
	}
	if i := strings.IndexByte(c, '.'); i > 0 {
		return c[:i]
	}
	return c
}

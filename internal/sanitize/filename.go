package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength is the maximum allowed length for the filename base.
	MaxFilenameLength = 120
	// DefaultExt is the default extension used when none is provided.
	DefaultExt = "mpd"
	// DefaultName is the replacement name when the base is empty.
	DefaultName = "manifest"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// ToSafeFilename builds a cross-platform safe filename from a base name and
// extension (without dot). Manifest and subtitle files written to the served
// temp directory go through this so a hostile video title cannot escape it.
func ToSafeFilename(base, ext string) string {
	name := strings.TrimSpace(base)
	if name == "" {
		name = DefaultName
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if len(name) > MaxFilenameLength {
		name = name[:MaxFilenameLength]
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Clean(name + "." + ext)
}

// SubtitleFilename names a subtitle file for one (video id, language) pair.
func SubtitleFilename(videoID, languageCode string) string {
	return ToSafeFilename(videoID+"."+languageCode, "vtt")
}

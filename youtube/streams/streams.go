// Package streams turns raw format entries into ranked stream candidates.
//
// Classification merges the static format table entry with the live fields
// reported by the player endpoint, applies the user's feature gates and
// quality bound, and computes the composite sort key. Entries that fail a
// gate are skipped with ErrSkip, never silently fabricated.
package streams

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ytget/streamres/internal/logger"
	"github.com/ytget/streamres/internal/mimeext"
	"github.com/ytget/streamres/types"
	"github.com/ytget/streamres/youtube/innertube"
	"github.com/ytget/streamres/youtube/itags"
)

// ErrSkip signals that a format entry must be dropped from the output list.
// Callers match with errors.Is; the wrapping message carries the reason.
var ErrSkip = errors.New("stream skipped")

// qualityTiers are the nominal quality rungs. The compared dimension is the
// larger of width/height, so it is matched against the tier width; portrait
// video then lands on the same rung as its landscape equivalent.
var qualityTiers = []struct{ width, height int }{
	{256, 144}, {426, 240}, {640, 360}, {854, 480}, {1280, 720},
	{1920, 1080}, {2560, 1440}, {3840, 2160}, {7680, 4320},
}

// videoFactors scale dimension into a quality score, reflecting relative
// compression efficiency per codec family.
var videoFactors = map[string]float64{
	"av01":  1.0,
	"vp9.2": 0.95,
	"vp9":   0.9,
	"h.264": 0.85,
	"vp8":   0.7,
	"h.263": 0.65,
	"mp4v":  0.6,
}

var audioFactors = map[string]float64{
	"opus":   1.0,
	"ec-3":   0.95,
	"ac-3":   0.9,
	"dts":    0.9,
	"mp4a":   0.85,
	"vorbis": 0.8,
	"mp3":    0.6,
}

// hdrBonus lifts HDR variants above any equal-tier SDR alternative.
const hdrBonus = 1.1

// Classifier applies one constraint set to raw format entries.
type Classifier struct {
	constraints types.Constraints
	log         *logger.ComponentLogger
}

// New creates a classifier for the given constraints.
func New(constraints types.Constraints) *Classifier {
	return &Classifier{
		constraints: constraints,
		log:         logger.Nop().WithComponent(logger.ComponentStreams),
	}
}

// WithLogger routes skip diagnostics through the given logger.
func (c *Classifier) WithLogger(log *logger.Logger) *Classifier {
	if log != nil {
		c.log = log.WithComponent(logger.ComponentStreams)
	}
	return c
}

func (c *Classifier) skip(itag int, reason string) error {
	c.log.Debug("format skipped", map[string]interface{}{"itag": itag, "reason": reason})
	return fmt.Errorf("%w: itag %d: %s", ErrSkip, itag, reason)
}

// Classify builds one candidate from a raw format entry. The entry's URL is
// expected to be fully resolved (signature and n-param applied) by the
// caller before classification.
func (c *Classifier) Classify(f innertube.Format) (types.StreamCandidate, error) {
	var zero types.StreamCandidate

	d, ok := itags.Lookup(f.Itag)
	if !ok {
		return zero, c.skip(f.Itag, "unknown format code")
	}
	if d.Discontinued {
		return zero, c.skip(f.Itag, "discontinued format")
	}
	if d.Unsupported {
		return zero, c.skip(f.Itag, "unsupported format")
	}

	cand := merge(d, f)

	if cand.VideoCodec != "" && !c.constraints.SupportsCodec(cand.VideoCodec) {
		return zero, c.skip(f.Itag, "video codec not in capability set: "+cand.VideoCodec)
	}
	if cand.AudioCodec != "" && !c.constraints.SupportsCodec(cand.AudioCodec) {
		return zero, c.skip(f.Itag, "audio codec not in capability set: "+cand.AudioCodec)
	}
	if cand.HDR && !c.constraints.AllowHDR {
		return zero, c.skip(f.Itag, "hdr gated")
	}
	if cand.FPS > 30 && !c.constraints.AllowHFR {
		return zero, c.skip(f.Itag, "high frame rate gated")
	}
	if cand.AudioChannels > 2 && !c.constraints.AllowSurround {
		return zero, c.skip(f.Itag, "surround audio gated")
	}

	if !cand.AudioOnly && c.constraints.MaxHeight > 0 {
		dim := cand.Height
		if cand.Width > dim {
			dim = cand.Width
		}
		tier := tierOf(dim)
		maxTier := tierAtOrBelow(c.constraints.MaxHeight)
		if tier > maxTier {
			return zero, c.skip(f.Itag, fmt.Sprintf("above quality bound: %dp > %dp", tier, maxTier))
		}
		if c.constraints.NoHFRAtMax && tier == maxTier && cand.FPS > 30 {
			return zero, c.skip(f.Itag, "high frame rate excluded at top tier")
		}
	}

	cand.Key = sortKey(d, cand)
	cand.Title = label(cand)
	// Synthesized container-level codes carry their own display title.
	if d.Title != "" {
		cand.Title = d.Title
	}
	return cand, nil
}

// merge overlays live response fields onto the static descriptor.
func merge(d itags.Descriptor, f innertube.Format) types.StreamCandidate {
	cand := types.StreamCandidate{
		Itag:            d.Itag,
		URL:             f.URL,
		Container:       d.Container,
		VideoCodec:      d.VideoCodec,
		AudioCodec:      d.AudioCodec,
		Width:           d.Width,
		Height:          d.Height,
		FPS:             d.FPS,
		HDR:             d.HDR,
		AudioBitrateBps: d.AudioBitrateKbps * 1000,
		AudioChannels:   d.AudioChannels,
		VideoOnly:       d.VideoOnly,
		AudioOnly:       d.AudioOnly,
		Adaptive:        d.Adaptive,
		Live:            d.Live,
		MimeType:        f.MimeType,
	}

	if f.Width > 0 {
		cand.Width = f.Width
	}
	if f.Height > 0 {
		cand.Height = f.Height
	}
	if f.FPS > 0 {
		cand.FPS = f.FPS
	}
	if f.Bitrate > 0 {
		cand.BitrateBps = f.Bitrate
	}
	if f.AverageBitrate > 0 {
		cand.BitrateBps = f.AverageBitrate
	}
	if f.AudioChannels > 0 {
		cand.AudioChannels = f.AudioChannels
	}
	if cand.AudioOnly && cand.BitrateBps > 0 {
		cand.AudioBitrateBps = cand.BitrateBps
	}

	for _, codec := range mimeext.ParseCodecs(f.MimeType) {
		family := mimeext.CodecFamily(codec)
		switch family {
		case "h.264", "av01", "vp9.2", "vp9", "vp8", "h.263", "mp4v":
			cand.VideoCodec = family
		case "mp4a", "opus", "vorbis", "ec-3", "ac-3", "dts", "mp3":
			cand.AudioCodec = family
		}
	}
	if cand.AudioOnly {
		cand.VideoCodec = ""
	}
	if cand.VideoOnly {
		cand.AudioCodec = ""
	}

	if f.ColorInfo != nil {
		switch f.ColorInfo.TransferCharacteristics {
		case "COLOR_TRANSFER_CHARACTERISTICS_SMPTEST2084", "COLOR_TRANSFER_CHARACTERISTICS_ARIB_STD_B67":
			cand.HDR = true
		}
	}
	if strings.Contains(f.QualityLabel, "HDR") {
		cand.HDR = true
	}
	if cand.HDR && cand.VideoCodec == "vp9" {
		cand.VideoCodec = "vp9.2"
	}

	if n, err := strconv.ParseInt(f.ContentLength, 10, 64); err == nil {
		cand.ContentLength = n
	}
	if n, err := strconv.ParseInt(f.ApproxDurationMs, 10, 64); err == nil {
		cand.DurationMs = n
	}
	if f.InitRange != nil {
		cand.InitRange = parseRange(f.InitRange)
	}
	if f.IndexRange != nil {
		cand.IndexRange = parseRange(f.IndexRange)
	}
	if f.AudioTrack != nil {
		cand.AudioTrack = parseAudioTrack(f.AudioTrack)
	}
	return cand
}

func parseRange(r *innertube.RangeInfo) *types.ByteRange {
	start, err1 := strconv.ParseInt(r.Start, 10, 64)
	end, err2 := strconv.ParseInt(r.End, 10, 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &types.ByteRange{Start: start, End: end}
}

// parseAudioTrack decodes the language and role of a multi-audio track. The
// track id is "<lang>.<role code>"; the numeric role codes are external
// constants observed in live responses.
func parseAudioTrack(t *innertube.AudioTrack) *types.AudioTrack {
	out := &types.AudioTrack{
		ID:           t.ID,
		LanguageName: t.DisplayName,
		IsDefault:    t.AudioIsDefault,
		Role:         types.RoleAlternate,
	}
	lang, roleCode, found := strings.Cut(t.ID, ".")
	if found {
		out.LanguageCode = lang
		switch roleCode {
		case "4":
			out.Role = types.RoleOriginal
		case "3":
			out.Role = types.RoleDubbed
		case "2":
			out.Role = types.RoleDescriptive
		case "6":
			out.Role = types.RoleSecondary
		}
	} else {
		out.LanguageCode = t.ID
	}
	lower := strings.ToLower(t.DisplayName)
	switch {
	case strings.Contains(lower, "original"):
		out.Role = types.RoleOriginal
	case strings.Contains(lower, "descriptive"):
		out.Role = types.RoleDescriptive
	case strings.Contains(lower, "dub"):
		out.Role = types.RoleDubbed
	}
	return out
}

// tierOf returns the nominal tier height for a compared dimension: the
// closest rung whose width is at or above it, so 1080-class encodes reported
// as 1918 wide still rank as 1080p.
func tierOf(dim int) int {
	if dim <= 0 {
		return 0
	}
	for _, t := range qualityTiers {
		if dim <= t.width {
			return t.height
		}
	}
	return qualityTiers[len(qualityTiers)-1].height
}

// tierAtOrBelow snaps a configured height bound down to the nearest rung.
func tierAtOrBelow(maxHeight int) int {
	best := qualityTiers[0].height
	for _, t := range qualityTiers {
		if t.height <= maxHeight {
			best = t.height
		}
	}
	return best
}

func sortKey(d itags.Descriptor, cand types.StreamCandidate) types.SortKey {
	key := types.SortKey{Weight: d.SortWeight}

	if !cand.AudioOnly {
		dim := cand.Height
		if cand.Width > dim {
			dim = cand.Width
		}
		factor, ok := videoFactors[cand.VideoCodec]
		if !ok {
			factor = 0.5
		}
		key.VideoScore = float64(dim) * factor
		if cand.HDR {
			key.VideoScore *= hdrBonus
		}
	}
	if cand.AudioCodec != "" {
		factor, ok := audioFactors[cand.AudioCodec]
		if !ok {
			factor = 0.5
		}
		key.AudioScore = float64(cand.AudioBitrateBps) / 1000 * factor
	}
	return key
}

// Package dash synthesizes an MPEG-DASH manifest from adaptive stream
// candidates and writes it where the loopback file server can reach it.
//
// Candidates are grouped by a typed key (codec family, resolution tier,
// language, role); a de-duplication pass drops groups whose best member adds
// no new information over what was already emitted. "auto" mode keeps the
// best rung per retained group, "list" mode keeps the full ladder.
package dash

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ytget/streamres/internal/logger"
	"github.com/ytget/streamres/internal/mimeext"
	"github.com/ytget/streamres/internal/sanitize"
	"github.com/ytget/streamres/types"
	"github.com/ytget/streamres/youtube/itags"
)

const (
	// ModeAuto keeps the best representation per retained group.
	ModeAuto = "auto"
	// ModeList keeps the full quality ladder per retained group.
	ModeList = "list"
)

// GroupKey identifies one adaptation group. Tier is the nominal height for
// video groups and zero for audio; Language/Role are empty for video.
type GroupKey struct {
	Codec    string
	Tier     int
	Language string
	Role     types.AudioRole
}

// Subtitle is one caption track to expose as its own AdaptationSet.
type Subtitle struct {
	URL          string
	LanguageCode string
	Label        string
	MimeType     string
}

// Builder writes one manifest per video id into a served directory.
type Builder struct {
	dir      string
	loopback string
	mode     string
	log      *logger.ComponentLogger
}

// NewBuilder creates a builder. dir is the directory the loopback server
// serves; loopback is its base URL (scheme://host:port/path).
func NewBuilder(dir, loopback string) *Builder {
	return &Builder{
		dir:      dir,
		loopback: strings.TrimRight(loopback, "/"),
		mode:     ModeAuto,
		log:      logger.Nop().WithComponent(logger.ComponentDash),
	}
}

// WithMode selects auto or list composition; unknown values fall back to
// auto.
func (b *Builder) WithMode(mode string) *Builder {
	if mode == ModeList {
		b.mode = ModeList
	} else {
		b.mode = ModeAuto
	}
	return b
}

// WithLogger routes diagnostics through the given logger.
func (b *Builder) WithLogger(log *logger.Logger) *Builder {
	if log != nil {
		b.log = log.WithComponent(logger.ComponentDash)
	}
	return b
}

// Build assembles the manifest for one video and returns the served URL plus
// a representative merged candidate (best video + best audio) used for the
// final title. Muxed-only sources must bypass this component: both lists are
// required to be non-empty.
func (b *Builder) Build(videoID string, video, audio []types.StreamCandidate, subtitles []Subtitle, licenseURL string) (string, types.StreamCandidate, error) {
	var zero types.StreamCandidate
	if len(video) == 0 || len(audio) == 0 {
		return "", zero, errors.New("dash: need at least one video and one audio representation")
	}

	videoGroups := b.retain(group(video, videoKey))
	audioGroups := b.retain(group(audio, audioKey))
	if len(videoGroups) == 0 || len(audioGroups) == 0 {
		return "", zero, errors.New("dash: no representations survived de-duplication")
	}

	doc := b.document(videoGroups, audioGroups, subtitles, licenseURL)
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", zero, fmt.Errorf("dash: marshal manifest: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	name := sanitize.ToSafeFilename(videoID, mimeext.ExtMPD)
	if err := b.writeAtomic(name, data); err != nil {
		return "", zero, err
	}

	rep := representative(videoGroups, audioGroups)
	served := b.loopback + "/" + name
	b.log.Info("manifest written", map[string]interface{}{
		"videoId": videoID, "url": served,
		"videoGroups": len(videoGroups), "audioGroups": len(audioGroups),
	})
	return served, rep, nil
}

// writeAtomic stages the document in a temp file and renames it into place
// so a concurrent resolution for the same video id never observes a partial
// file.
func (b *Builder) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, name+".*")
	if err != nil {
		return fmt.Errorf("dash: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("dash: write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("dash: close manifest: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(b.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("dash: publish manifest: %w", err)
	}
	return nil
}

type grouped struct {
	key     GroupKey
	members []types.StreamCandidate
}

func videoKey(c types.StreamCandidate) GroupKey {
	dim := c.Height
	if c.Width > dim {
		dim = c.Width
	}
	return GroupKey{Codec: c.VideoCodec, Tier: tierBucket(dim)}
}

func audioKey(c types.StreamCandidate) GroupKey {
	key := GroupKey{Codec: c.AudioCodec}
	if c.AudioTrack != nil {
		key.Language = c.AudioTrack.LanguageCode
		key.Role = c.AudioTrack.Role
	}
	return key
}

var tierWidths = []struct{ width, height int }{
	{256, 144}, {426, 240}, {640, 360}, {854, 480}, {1280, 720},
	{1920, 1080}, {2560, 1440}, {3840, 2160}, {7680, 4320},
}

func tierBucket(dim int) int {
	for _, t := range tierWidths {
		if dim <= t.width {
			return t.height
		}
	}
	return tierWidths[len(tierWidths)-1].height
}

// group collects candidates under their typed key, each group's members
// sorted best-first, and orders groups by their best member.
func group(candidates []types.StreamCandidate, keyOf func(types.StreamCandidate) GroupKey) []grouped {
	byKey := map[GroupKey]*grouped{}
	var order []GroupKey
	for _, c := range candidates {
		key := keyOf(c)
		g, ok := byKey[key]
		if !ok {
			g = &grouped{key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.members = append(g.members, c)
	}
	out := make([]grouped, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.SliceStable(g.members, func(i, j int) bool {
			return g.members[j].Key.Less(g.members[i].Key)
		})
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].members[0].Key.Less(out[i].members[0].Key)
	})
	return out
}

// retain applies the de-duplication filter and the mode: a group survives
// only when its best member adds information (resolution, fps, hdr, channel
// count, language or role) not already covered by an emitted group.
func (b *Builder) retain(groups []grouped) []grouped {
	var out []grouped
	for _, g := range groups {
		if b.covered(out, g.members[0]) {
			b.log.Debug("group dropped as duplicate", map[string]interface{}{
				"codec": g.key.Codec, "tier": g.key.Tier,
			})
			continue
		}
		if b.mode == ModeAuto {
			g.members = g.members[:1]
		}
		out = append(out, g)
	}
	return out
}

func (b *Builder) covered(emitted []grouped, best types.StreamCandidate) bool {
	for _, g := range emitted {
		e := g.members[0]
		if e.Height == best.Height && e.FPS == best.FPS && e.HDR == best.HDR &&
			e.AudioChannels == best.AudioChannels && sameTrack(e.AudioTrack, best.AudioTrack) {
			return true
		}
	}
	return false
}

func sameTrack(a, b *types.AudioTrack) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.LanguageCode == b.LanguageCode && a.Role == b.Role
}

func (b *Builder) document(videoGroups, audioGroups []grouped, subtitles []Subtitle, licenseURL string) MPD {
	var sets []AdaptationSet
	id := 0
	var protection *ContentProtection
	if licenseURL != "" {
		protection = &ContentProtection{SchemeIDURI: widevineSchemeURI, LicenseURL: licenseURL}
	}

	for _, g := range videoGroups {
		set := AdaptationSet{
			ID:                  id,
			MimeType:            mimeext.BaseType(g.members[0].MimeType),
			SubsegmentAlignment: true,
			ContentProtection:   protection,
		}
		for _, m := range g.members {
			set.Representations = append(set.Representations, videoRepresentation(m))
		}
		sets = append(sets, set)
		id++
	}
	for _, g := range audioGroups {
		set := AdaptationSet{
			ID:                  id,
			MimeType:            mimeext.BaseType(g.members[0].MimeType),
			Lang:                g.key.Language,
			SubsegmentAlignment: true,
			ContentProtection:   protection,
		}
		if g.key.Role != "" {
			set.Role = &Role{SchemeIDURI: roleSchemeURI, Value: roleValue(g.key.Role)}
		}
		for _, m := range g.members {
			set.Representations = append(set.Representations, audioRepresentation(m))
		}
		sets = append(sets, set)
		id++
	}
	for _, s := range subtitles {
		if s.URL == "" {
			continue
		}
		mime := s.MimeType
		if mime == "" {
			mime = mimeext.MimeVTT
		}
		sets = append(sets, AdaptationSet{
			ID:       id,
			MimeType: mime,
			Lang:     s.LanguageCode,
			Role:     &Role{SchemeIDURI: roleSchemeURI, Value: "subtitle"},
			Representations: []Representation{{
				ID:       "caption-" + s.LanguageCode,
				BaseURLs: []string{s.URL},
			}},
		})
		id++
	}

	duration := durationISO(longestDuration(videoGroups))
	return MPD{
		Xmlns:                     mpdNamespace,
		Profiles:                  mpdProfiles,
		Type:                      "static",
		MinBufferTime:             "PT1.5S",
		MediaPresentationDuration: duration,
		Periods:                   []Period{{Duration: duration, AdaptationSets: sets}},
	}
}

func videoRepresentation(c types.StreamCandidate) Representation {
	rep := Representation{
		ID:        fmt.Sprintf("%d", c.Itag),
		Codecs:    codecString(c.MimeType, c.VideoCodec),
		Bandwidth: c.BitrateBps,
		Width:     c.Width,
		Height:    c.Height,
		FrameRate: c.FPS,
		BaseURLs:  []string{c.URL},
	}
	rep.SegmentBase = segmentBase(c)
	return rep
}

func audioRepresentation(c types.StreamCandidate) Representation {
	rep := Representation{
		ID:        fmt.Sprintf("%d", c.Itag),
		Codecs:    codecString(c.MimeType, c.AudioCodec),
		Bandwidth: c.AudioBitrateBps,
		BaseURLs:  []string{c.URL},
	}
	if c.AudioChannels > 0 {
		rep.AudioChannelConfiguration = &AudioChannelConfiguration{
			SchemeIDURI: "urn:mpeg:dash:23003:3:audio_channel_configuration:2011",
			Value:       c.AudioChannels,
		}
	}
	rep.SegmentBase = segmentBase(c)
	return rep
}

func segmentBase(c types.StreamCandidate) *SegmentBase {
	if c.InitRange == nil && c.IndexRange == nil {
		return nil
	}
	sb := &SegmentBase{}
	if c.IndexRange != nil {
		sb.IndexRange = fmt.Sprintf("%d-%d", c.IndexRange.Start, c.IndexRange.End)
	}
	if c.InitRange != nil {
		sb.Initialization = &Initialization{
			Range: fmt.Sprintf("%d-%d", c.InitRange.Start, c.InitRange.End),
		}
	}
	return sb
}

// codecString prefers the exact codec parameter from the mime string over
// the coarse family name.
func codecString(mime, family string) string {
	if codecs := mimeext.ParseCodecs(mime); len(codecs) > 0 {
		return codecs[0]
	}
	return family
}

func roleValue(r types.AudioRole) string {
	switch r {
	case types.RoleOriginal:
		return "main"
	case types.RoleDubbed:
		return "dub"
	case types.RoleDescriptive:
		return "description"
	default:
		return "alternate"
	}
}

func longestDuration(groups []grouped) int64 {
	var max int64
	for _, g := range groups {
		for _, m := range g.members {
			if m.DurationMs > max {
				max = m.DurationMs
			}
		}
	}
	return max
}

func durationISO(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return fmt.Sprintf("PT%.3fS", float64(ms)/1000)
}

// representative merges the best video and best audio into the candidate the
// orchestrator surfaces for the manifest entry. MultiLanguage/MultiAudio are
// set when more than one language or non-default role survived filtering.
func representative(videoGroups, audioGroups []grouped) types.StreamCandidate {
	best := videoGroups[0].members[0]
	bestAudio := audioGroups[0].members[0]

	d, _ := itags.Lookup(itags.ItagDASHManifest)
	rep := types.StreamCandidate{
		Itag:            itags.ItagDASHManifest,
		Container:       types.ContainerMPD,
		Title:           d.Title,
		VideoCodec:      best.VideoCodec,
		AudioCodec:      bestAudio.AudioCodec,
		Width:           best.Width,
		Height:          best.Height,
		FPS:             best.FPS,
		HDR:             best.HDR,
		BitrateBps:      best.BitrateBps,
		AudioBitrateBps: bestAudio.AudioBitrateBps,
		AudioChannels:   bestAudio.AudioChannels,
		AudioTrack:      bestAudio.AudioTrack,
		Adaptive:        true,
		DurationMs:      best.DurationMs,
		Key:             types.SortKey{Weight: d.SortWeight, VideoScore: best.Key.VideoScore, AudioScore: bestAudio.Key.AudioScore},
	}

	languages := map[string]bool{}
	roles := map[types.AudioRole]bool{}
	for _, g := range audioGroups {
		languages[g.key.Language] = true
		roles[g.key.Role] = true
	}
	rep.MultiLanguage = len(languages) > 1
	rep.MultiAudio = len(roles) > 1
	return rep
}

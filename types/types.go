package types

// Container identifies a media container family.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	Container3GP  Container = "3gp"
	ContainerFLV  Container = "flv"
	ContainerTS   Container = "ts"
	ContainerHLS  Container = "hls"
	ContainerMPD  Container = "mpd"
)

// AudioRole distinguishes audio tracks of a multi-audio video.
type AudioRole string

const (
	RoleOriginal    AudioRole = "original"
	RoleDubbed      AudioRole = "dub"
	RoleDescriptive AudioRole = "descriptive"
	RoleAlternate   AudioRole = "alternate"
	RoleSecondary   AudioRole = "secondary"
)

// SortKey orders candidates best-first. Compared lexicographically:
// manual weight, then video quality score, then audio score.
type SortKey struct {
	Weight     int
	VideoScore float64
	AudioScore float64
}

// Less reports whether k sorts after other, i.e. k is the worse candidate.
func (k SortKey) Less(other SortKey) bool {
	if k.Weight != other.Weight {
		return k.Weight < other.Weight
	}
	if k.VideoScore != other.VideoScore {
		return k.VideoScore < other.VideoScore
	}
	return k.AudioScore < other.AudioScore
}

// ByteRange is an inclusive byte span inside a media resource.
type ByteRange struct {
	Start int64
	End   int64
}

// AudioTrack carries language and role metadata for one audio rendition.
type AudioTrack struct {
	ID           string
	LanguageCode string
	LanguageName string
	Role         AudioRole
	IsDefault    bool
}

// StreamCandidate is one concrete playable option produced by a resolution
// pass. It merges the static format descriptor with live data reported by
// the player endpoint. Candidates are owned by the resolution call that
// built them and discarded once the caller picks one.
type StreamCandidate struct {
	Itag      int
	URL       string
	Container Container
	Title     string

	VideoCodec string
	AudioCodec string
	Width      int
	Height     int
	FPS        int
	HDR        bool

	BitrateBps      int
	AudioBitrateBps int
	AudioChannels   int
	AudioTrack      *AudioTrack

	VideoOnly bool
	AudioOnly bool
	Adaptive  bool
	Live      bool

	// InitRange/IndexRange are present for adaptive representations only.
	InitRange  *ByteRange
	IndexRange *ByteRange

	MimeType      string
	ContentLength int64
	DurationMs    int64

	// MultiLanguage/MultiAudio flag manifest-backed candidates whose audio
	// set retained more than one language or role after filtering.
	MultiLanguage bool
	MultiAudio    bool

	Key SortKey
}

// Constraints are the user-configured quality gates applied during
// classification. The zero value rejects nothing except what the
// capability set excludes.
type Constraints struct {
	// MaxHeight bounds video by nominal quality tier; 0 means unbounded.
	// The larger of width/height is compared so portrait video behaves.
	MaxHeight int
	// AllowHFR admits tracks above 30 fps.
	AllowHFR bool
	// NoHFRAtMax excludes high-frame-rate variants of the top retained tier.
	NoHFRAtMax bool
	// AllowHDR admits high-dynamic-range tracks.
	AllowHDR bool
	// AllowSurround admits audio with more than two channels.
	AllowSurround bool
	// Capabilities is the host's decode capability set, keyed by codec
	// family ("h.264", "vp9", "av01", "mp4a", "opus", "vorbis", "ac-3",
	// "ec-3", "dts"). Empty means every codec is accepted.
	Capabilities map[string]bool
	// StreamSelect picks manifest composition: "auto" keeps the best rung
	// per group, "list" keeps the full ladder. Empty means "auto".
	StreamSelect string
}

// SupportsCodec reports whether the capability set admits the codec family.
func (c Constraints) SupportsCodec(family string) bool {
	if len(c.Capabilities) == 0 {
		return true
	}
	return c.Capabilities[family]
}

// Package itags holds the static table of YouTube numeric format codes.
//
// The entries are reverse-engineered external constants with no derivable
// pattern: each maps one itag to a container, codec pair, nominal resolution
// and role flags. Codes missing from the table must be treated as unknown by
// callers, never guessed.
package itags

import "github.com/ytget/streamres/types"

// Descriptor is the immutable template for one format code. Defined at
// process start, never mutated.
type Descriptor struct {
	Itag      int
	Container types.Container
	Title     string

	VideoCodec string
	AudioCodec string
	Height     int
	Width      int
	FPS        int

	AudioBitrateKbps int
	AudioChannels    int

	HDR    bool
	ThreeD bool

	VideoOnly bool
	AudioOnly bool
	Adaptive  bool
	Live      bool

	Discontinued bool
	Unsupported  bool

	// SortWeight is a manual override applied before any quality score.
	SortWeight int
}

// Synthetic codes for container-level candidates assembled by this engine
// rather than reported by the player endpoint.
const (
	ItagDASHManifest = 9999
	ItagHLSMaster    = 9998
)

// Lookup returns the descriptor for a format code. The second return is
// false for unknown codes.
func Lookup(itag int) (Descriptor, bool) {
	d, ok := table[itag]
	return d, ok
}

// All returns every known format code. Intended for consistency sweeps in
// tests and for diagnostics output.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(table))
	for _, d := range table {
		out = append(out, d)
	}
	return out
}

func muxed(itag int, c types.Container, v, a string, w, h, fps, akbps int) Descriptor {
	return Descriptor{Itag: itag, Container: c, VideoCodec: v, AudioCodec: a,
		Width: w, Height: h, FPS: fps, AudioBitrateKbps: akbps, AudioChannels: 2}
}

func dashVideo(itag int, c types.Container, v string, w, h, fps int) Descriptor {
	return Descriptor{Itag: itag, Container: c, VideoCodec: v,
		Width: w, Height: h, FPS: fps, VideoOnly: true, Adaptive: true}
}

func dashAudio(itag int, c types.Container, a string, kbps, channels int) Descriptor {
	return Descriptor{Itag: itag, Container: c, AudioCodec: a,
		AudioBitrateKbps: kbps, AudioChannels: channels, AudioOnly: true, Adaptive: true}
}

func hlsLive(itag, w, h, fps int) Descriptor {
	return Descriptor{Itag: itag, Container: types.ContainerHLS,
		VideoCodec: "h.264", AudioCodec: "mp4a", Width: w, Height: h, FPS: fps,
		AudioChannels: 2, Live: true}
}

func discontinued(d Descriptor) Descriptor {
	d.Discontinued = true
	return d
}

func threeD(d Descriptor) Descriptor {
	d.ThreeD = true
	return d
}

func hdr(d Descriptor) Descriptor {
	d.HDR = true
	return d
}

var table = map[int]Descriptor{
	// Progressive muxed.
	5:  discontinued(muxed(5, types.ContainerFLV, "h.263", "mp3", 400, 240, 30, 64)),
	6:  discontinued(muxed(6, types.ContainerFLV, "h.263", "mp3", 480, 270, 30, 64)),
	17: muxed(17, types.Container3GP, "mp4v", "mp4a", 176, 144, 12, 24),
	18: muxed(18, types.ContainerMP4, "h.264", "mp4a", 640, 360, 30, 96),
	22: muxed(22, types.ContainerMP4, "h.264", "mp4a", 1280, 720, 30, 192),
	34: discontinued(muxed(34, types.ContainerFLV, "h.264", "mp4a", 640, 360, 30, 128)),
	35: discontinued(muxed(35, types.ContainerFLV, "h.264", "mp4a", 854, 480, 30, 128)),
	36: muxed(36, types.Container3GP, "mp4v", "mp4a", 320, 240, 24, 32),
	37: discontinued(muxed(37, types.ContainerMP4, "h.264", "mp4a", 1920, 1080, 30, 192)),
	38: discontinued(muxed(38, types.ContainerMP4, "h.264", "mp4a", 4096, 3072, 30, 192)),
	43: muxed(43, types.ContainerWebM, "vp8", "vorbis", 640, 360, 30, 128),
	44: discontinued(muxed(44, types.ContainerWebM, "vp8", "vorbis", 854, 480, 30, 128)),
	45: discontinued(muxed(45, types.ContainerWebM, "vp8", "vorbis", 1280, 720, 30, 192)),
	46: discontinued(muxed(46, types.ContainerWebM, "vp8", "vorbis", 1920, 1080, 30, 192)),
	59: muxed(59, types.ContainerMP4, "h.264", "mp4a", 854, 480, 30, 128),
	78: muxed(78, types.ContainerMP4, "h.264", "mp4a", 854, 480, 30, 128),

	// Stereoscopic 3D muxed.
	82:  threeD(muxed(82, types.ContainerMP4, "h.264", "mp4a", 640, 360, 30, 96)),
	83:  threeD(muxed(83, types.ContainerMP4, "h.264", "mp4a", 854, 480, 30, 96)),
	84:  threeD(muxed(84, types.ContainerMP4, "h.264", "mp4a", 1280, 720, 30, 152)),
	85:  threeD(muxed(85, types.ContainerMP4, "h.264", "mp4a", 1920, 1080, 30, 152)),
	100: threeD(muxed(100, types.ContainerWebM, "vp8", "vorbis", 640, 360, 30, 128)),
	101: discontinued(threeD(muxed(101, types.ContainerWebM, "vp8", "vorbis", 854, 480, 30, 192))),
	102: discontinued(threeD(muxed(102, types.ContainerWebM, "vp8", "vorbis", 1280, 720, 30, 192))),

	// HLS live ladder.
	91:  hlsLive(91, 256, 144, 30),
	92:  hlsLive(92, 426, 240, 30),
	93:  hlsLive(93, 640, 360, 30),
	94:  hlsLive(94, 854, 480, 30),
	95:  hlsLive(95, 1280, 720, 30),
	96:  hlsLive(96, 1920, 1080, 30),
	132: hlsLive(132, 426, 240, 30),
	151: hlsLive(151, 128, 72, 30),

	// DASH video, H.264.
	133: dashVideo(133, types.ContainerMP4, "h.264", 426, 240, 30),
	134: dashVideo(134, types.ContainerMP4, "h.264", 640, 360, 30),
	135: dashVideo(135, types.ContainerMP4, "h.264", 854, 480, 30),
	136: dashVideo(136, types.ContainerMP4, "h.264", 1280, 720, 30),
	137: dashVideo(137, types.ContainerMP4, "h.264", 1920, 1080, 30),
	138: dashVideo(138, types.ContainerMP4, "h.264", 7680, 4320, 30),
	160: dashVideo(160, types.ContainerMP4, "h.264", 256, 144, 30),
	212: dashVideo(212, types.ContainerMP4, "h.264", 854, 480, 30),
	264: dashVideo(264, types.ContainerMP4, "h.264", 2560, 1440, 30),
	266: dashVideo(266, types.ContainerMP4, "h.264", 3840, 2160, 30),
	298: dashVideo(298, types.ContainerMP4, "h.264", 1280, 720, 60),
	299: dashVideo(299, types.ContainerMP4, "h.264", 1920, 1080, 60),

	// DASH video, VP8 (retired ladder).
	167: discontinued(dashVideo(167, types.ContainerWebM, "vp8", 640, 360, 30)),
	168: discontinued(dashVideo(168, types.ContainerWebM, "vp8", 854, 480, 30)),
	169: discontinued(dashVideo(169, types.ContainerWebM, "vp8", 1280, 720, 30)),
	170: discontinued(dashVideo(170, types.ContainerWebM, "vp8", 1920, 1080, 30)),
	218: discontinued(dashVideo(218, types.ContainerWebM, "vp8", 854, 480, 30)),
	219: discontinued(dashVideo(219, types.ContainerWebM, "vp8", 854, 480, 30)),

	// DASH video, VP9.
	242: dashVideo(242, types.ContainerWebM, "vp9", 426, 240, 30),
	243: dashVideo(243, types.ContainerWebM, "vp9", 640, 360, 30),
	244: dashVideo(244, types.ContainerWebM, "vp9", 854, 480, 30),
	245: dashVideo(245, types.ContainerWebM, "vp9", 854, 480, 30),
	246: dashVideo(246, types.ContainerWebM, "vp9", 854, 480, 30),
	247: dashVideo(247, types.ContainerWebM, "vp9", 1280, 720, 30),
	248: dashVideo(248, types.ContainerWebM, "vp9", 1920, 1080, 30),
	271: dashVideo(271, types.ContainerWebM, "vp9", 2560, 1440, 30),
	272: dashVideo(272, types.ContainerWebM, "vp9", 7680, 4320, 30),
	278: dashVideo(278, types.ContainerWebM, "vp9", 256, 144, 30),
	302: dashVideo(302, types.ContainerWebM, "vp9", 1280, 720, 60),
	303: dashVideo(303, types.ContainerWebM, "vp9", 1920, 1080, 60),
	308: dashVideo(308, types.ContainerWebM, "vp9", 2560, 1440, 60),
	313: dashVideo(313, types.ContainerWebM, "vp9", 3840, 2160, 30),
	315: dashVideo(315, types.ContainerWebM, "vp9", 3840, 2160, 60),

	// DASH video, VP9.2 HDR.
	330: hdr(dashVideo(330, types.ContainerWebM, "vp9.2", 256, 144, 60)),
	331: hdr(dashVideo(331, types.ContainerWebM, "vp9.2", 426, 240, 60)),
	332: hdr(dashVideo(332, types.ContainerWebM, "vp9.2", 640, 360, 60)),
	333: hdr(dashVideo(333, types.ContainerWebM, "vp9.2", 854, 480, 60)),
	334: hdr(dashVideo(334, types.ContainerWebM, "vp9.2", 1280, 720, 60)),
	335: hdr(dashVideo(335, types.ContainerWebM, "vp9.2", 1920, 1080, 60)),
	336: hdr(dashVideo(336, types.ContainerWebM, "vp9.2", 2560, 1440, 60)),
	337: hdr(dashVideo(337, types.ContainerWebM, "vp9.2", 3840, 2160, 60)),

	// DASH video, AV1.
	394: dashVideo(394, types.ContainerMP4, "av01", 256, 144, 30),
	395: dashVideo(395, types.ContainerMP4, "av01", 426, 240, 30),
	396: dashVideo(396, types.ContainerMP4, "av01", 640, 360, 30),
	397: dashVideo(397, types.ContainerMP4, "av01", 854, 480, 30),
	398: dashVideo(398, types.ContainerMP4, "av01", 1280, 720, 30),
	399: dashVideo(399, types.ContainerMP4, "av01", 1920, 1080, 30),
	400: dashVideo(400, types.ContainerMP4, "av01", 2560, 1440, 30),
	401: dashVideo(401, types.ContainerMP4, "av01", 3840, 2160, 30),
	402: dashVideo(402, types.ContainerMP4, "av01", 7680, 4320, 30),
	403: dashVideo(403, types.ContainerMP4, "av01", 2560, 1440, 60),
	404: dashVideo(404, types.ContainerMP4, "av01", 3840, 2160, 60),
	405: dashVideo(405, types.ContainerMP4, "av01", 7680, 4320, 60),
	571: dashVideo(571, types.ContainerMP4, "av01", 7680, 4320, 30),
	694: hdr(dashVideo(694, types.ContainerMP4, "av01", 256, 144, 60)),
	695: hdr(dashVideo(695, types.ContainerMP4, "av01", 426, 240, 60)),
	696: hdr(dashVideo(696, types.ContainerMP4, "av01", 640, 360, 60)),
	697: hdr(dashVideo(697, types.ContainerMP4, "av01", 854, 480, 60)),
	698: hdr(dashVideo(698, types.ContainerMP4, "av01", 1280, 720, 60)),
	699: hdr(dashVideo(699, types.ContainerMP4, "av01", 1920, 1080, 60)),
	700: hdr(dashVideo(700, types.ContainerMP4, "av01", 2560, 1440, 60)),
	701: hdr(dashVideo(701, types.ContainerMP4, "av01", 3840, 2160, 60)),
	702: hdr(dashVideo(702, types.ContainerMP4, "av01", 7680, 4320, 60)),

	// DASH audio.
	139: dashAudio(139, types.ContainerMP4, "mp4a", 48, 2),
	140: dashAudio(140, types.ContainerMP4, "mp4a", 128, 2),
	141: dashAudio(141, types.ContainerMP4, "mp4a", 256, 2),
	171: discontinued(dashAudio(171, types.ContainerWebM, "vorbis", 128, 2)),
	172: discontinued(dashAudio(172, types.ContainerWebM, "vorbis", 192, 2)),
	249: dashAudio(249, types.ContainerWebM, "opus", 50, 2),
	250: dashAudio(250, types.ContainerWebM, "opus", 70, 2),
	251: dashAudio(251, types.ContainerWebM, "opus", 160, 2),
	256: dashAudio(256, types.ContainerMP4, "mp4a", 192, 6),
	258: dashAudio(258, types.ContainerMP4, "mp4a", 384, 6),
	325: dashAudio(325, types.ContainerMP4, "dts", 384, 6),
	327: dashAudio(327, types.ContainerMP4, "mp4a", 256, 6),
	328: dashAudio(328, types.ContainerMP4, "ec-3", 384, 6),
	338: dashAudio(338, types.ContainerWebM, "opus", 480, 4),
	380: dashAudio(380, types.ContainerMP4, "ac-3", 384, 6),
	774: dashAudio(774, types.ContainerWebM, "opus", 256, 2),

	// Synthesized container-level candidates.
	ItagHLSMaster: {Itag: ItagHLSMaster, Container: types.ContainerHLS,
		Title: "Live HLS", VideoCodec: "h.264", AudioCodec: "mp4a",
		AudioChannels: 2, Live: true, SortWeight: 1},
	ItagDASHManifest: {Itag: ItagDASHManifest, Container: types.ContainerMPD,
		Title: "MPEG-DASH", Adaptive: true, SortWeight: 1},
}

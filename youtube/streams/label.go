package streams

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ytget/streamres/types"
)

// label builds the human-readable candidate title: container, codec(s),
// resolution or bitrate, and the language/role suffix for multi-audio
// tracks.
func label(cand types.StreamCandidate) string {
	parts := []string{string(cand.Container)}

	switch {
	case cand.AudioOnly:
		parts = append(parts, fmt.Sprintf("%s@%dk", cand.AudioCodec, cand.AudioBitrateBps/1000))
	case cand.VideoOnly:
		parts = append(parts, cand.VideoCodec, resolutionLabel(cand))
	default:
		parts = append(parts, cand.VideoCodec+"+"+cand.AudioCodec, resolutionLabel(cand))
	}

	if cand.AudioTrack != nil {
		name := cand.AudioTrack.LanguageName
		if name == "" {
			name = cand.AudioTrack.LanguageCode
		}
		if cand.AudioTrack.Role != "" && cand.AudioTrack.Role != types.RoleOriginal {
			name += " (" + string(cand.AudioTrack.Role) + ")"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " | ")
}

func resolutionLabel(cand types.StreamCandidate) string {
	dim := cand.Height
	if cand.Width > dim {
		dim = cand.Width
	}
	s := fmt.Sprintf("%dp", tierOf(dim))
	if cand.FPS > 30 {
		s += fmt.Sprintf("%d", cand.FPS)
	}
	if cand.HDR {
		s += " HDR"
	}
	return s
}

// Sort orders candidates best-first. The sort is stable so entries with
// equal keys keep their insertion order.
func Sort(candidates []types.StreamCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[j].Key.Less(candidates[i].Key)
	})
}

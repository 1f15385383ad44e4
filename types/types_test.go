package types

import "testing"

func TestSortKeyLess(t *testing.T) {
	tests := []struct {
		name string
		a, b SortKey
		less bool
	}{
		{
			name: "weight dominates",
			a:    SortKey{Weight: 0, VideoScore: 9999},
			b:    SortKey{Weight: 1, VideoScore: 1},
			less: true,
		},
		{
			name: "video score breaks weight tie",
			a:    SortKey{Weight: 1, VideoScore: 720},
			b:    SortKey{Weight: 1, VideoScore: 1080},
			less: true,
		},
		{
			name: "audio score breaks full tie",
			a:    SortKey{Weight: 1, VideoScore: 1080, AudioScore: 128},
			b:    SortKey{Weight: 1, VideoScore: 1080, AudioScore: 256},
			less: true,
		},
		{
			name: "equal keys are not less",
			a:    SortKey{Weight: 1, VideoScore: 1080, AudioScore: 128},
			b:    SortKey{Weight: 1, VideoScore: 1080, AudioScore: 128},
			less: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.less {
				t.Errorf("Less() = %v, want %v", got, tt.less)
			}
		})
	}
}

func TestSupportsCodec(t *testing.T) {
	open := Constraints{}
	if !open.SupportsCodec("av01") {
		t.Error("empty capability set should accept every codec")
	}

	limited := Constraints{Capabilities: map[string]bool{"h.264": true, "mp4a": true}}
	if !limited.SupportsCodec("h.264") {
		t.Error("h.264 should be supported")
	}
	if limited.SupportsCodec("vp9") {
		t.Error("vp9 should be rejected")
	}
}

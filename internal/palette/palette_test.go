package palette

import "testing"

func TestForTrackDeterministic(t *testing.T) {
	a := ForTrack(4, "Community", "")
	b := ForTrack(4, "Community", "")
	if a != b {
		t.Errorf("same track produced different colors: %q vs %q", a, b)
	}
	if a == "" {
		t.Error("empty color for track without explicit color")
	}
}

func TestForTrackExplicitColorWins(t *testing.T) {
	if got := ForTrack(4, "Community", " #112233 "); got != "#112233" {
		t.Errorf("explicit color = %q, want trimmed #112233", got)
	}
}

func TestForTrackInPalette(t *testing.T) {
	got := ForTrack(4, "Community", "")
	for _, c := range colors800 {
		if c == got {
			return
		}
	}
	t.Errorf("color %q not from the fallback palette", got)
}

func TestForUnknownStable(t *testing.T) {
	if ForUnknown() != ForUnknown() {
		t.Error("unknown color not stable")
	}
}

package collision

import "testing"

func TestOverlaps(t *testing.T) {
	existing := []Placement{
		{SessionID: 1, MicrolocationID: 10, Top: 0, Height: 96},
		{SessionID: 2, MicrolocationID: 10, Top: 192, Height: 96},
		{SessionID: 3, MicrolocationID: 20, Top: 0, Height: 480},
	}

	tests := []struct {
		name      string
		candidate Placement
		exclude   uint64
		want      bool
	}{
		{
			name:      "clear slot",
			candidate: Placement{SessionID: 9, MicrolocationID: 10, Top: 96, Height: 96},
			want:      false,
		},
		{
			name:      "full overlap",
			candidate: Placement{SessionID: 9, MicrolocationID: 10, Top: 0, Height: 96},
			want:      true,
		},
		{
			name:      "partial overlap",
			candidate: Placement{SessionID: 9, MicrolocationID: 10, Top: 48, Height: 96},
			want:      true,
		},
		{
			name:      "adjacency is legal",
			candidate: Placement{SessionID: 9, MicrolocationID: 10, Top: 96, Height: 96},
			want:      false,
		},
		{
			name:      "touching end to start is legal",
			candidate: Placement{SessionID: 9, MicrolocationID: 10, Top: 288, Height: 48},
			want:      false,
		},
		{
			name:      "other column never collides",
			candidate: Placement{SessionID: 9, MicrolocationID: 30, Top: 0, Height: 480},
			want:      false,
		},
		{
			name:      "own prior placement excluded",
			candidate: Placement{SessionID: 2, MicrolocationID: 10, Top: 192, Height: 144},
			exclude:   2,
			want:      false,
		},
		{
			name:      "exclude does not hide siblings",
			candidate: Placement{SessionID: 2, MicrolocationID: 10, Top: 48, Height: 96},
			exclude:   2,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.candidate, existing, tt.exclude); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindAllOverlaps(t *testing.T) {
	placements := []Placement{
		{SessionID: 1, MicrolocationID: 10, Top: 0, Height: 96},
		{SessionID: 2, MicrolocationID: 10, Top: 48, Height: 96}, // overlaps 1
		{SessionID: 3, MicrolocationID: 10, Top: 144, Height: 48},
		{SessionID: 4, MicrolocationID: 20, Top: 48, Height: 96}, // same interval, other column
	}

	got := FindAllOverlaps(placements)
	want := []uint64{1, 2}
	if len(got) != len(want) {
		t.Fatalf("FindAllOverlaps() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAllOverlaps() = %v, want %v", got, want)
		}
	}
}

func TestFindAllOverlapsEmpty(t *testing.T) {
	if got := FindAllOverlaps(nil); got != nil {
		t.Errorf("FindAllOverlaps(nil) = %v, want nil", got)
	}
}

package navigation

import (
	"testing"

	"github.com/desertthunder/lark/internal/models"
)

func tracks(ids ...int64) []models.Track {
	out := make([]models.Track, len(ids))
	for i, id := range ids {
		out[i] = models.Track{TrackID: id, Name: string(rune('A' + i))}
	}
	return out
}

func TestNextPrevious(t *testing.T) {
	abc := tracks(1, 2, 3)

	tc := []struct {
		name     string
		current  int64
		list     []models.Track
		wantNext int64
		wantPrev int64
		wantOK   bool
	}{
		{name: "middle", current: 2, list: abc, wantNext: 3, wantPrev: 1, wantOK: true},
		{name: "last wraps to first", current: 3, list: abc, wantNext: 1, wantPrev: 2, wantOK: true},
		{name: "first wraps to last", current: 1, list: abc, wantNext: 2, wantPrev: 3, wantOK: true},
		{name: "single element self-wraps", current: 7, list: tracks(7), wantNext: 7, wantPrev: 7, wantOK: true},
		{name: "empty list", current: 1, list: nil, wantOK: false},
		{name: "missing track", current: 9, list: abc, wantOK: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			current := models.Track{TrackID: tt.current}

			next, ok := Next(current, tt.list)
			if ok != tt.wantOK {
				t.Fatalf("Next ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && next.TrackID != tt.wantNext {
				t.Errorf("Next = %d, want %d", next.TrackID, tt.wantNext)
			}

			prev, ok := Previous(current, tt.list)
			if ok != tt.wantOK {
				t.Fatalf("Previous ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && prev.TrackID != tt.wantPrev {
				t.Errorf("Previous = %d, want %d", prev.TrackID, tt.wantPrev)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for n := 2; n <= 6; n++ {
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(10 + i)
		}
		list := tracks(ids...)

		for _, cur := range list {
			prev, _ := Previous(cur, list)
			if back, _ := Next(prev, list); back.TrackID != cur.TrackID {
				t.Errorf("n=%d: Next(Previous(%d)) = %d", n, cur.TrackID, back.TrackID)
			}
			next, _ := Next(cur, list)
			if back, _ := Previous(next, list); back.TrackID != cur.TrackID {
				t.Errorf("n=%d: Previous(Next(%d)) = %d", n, cur.TrackID, back.TrackID)
			}
		}
	}
}

func TestDuplicatesUseFirstIndex(t *testing.T) {
	list := tracks(1, 2, 1, 3)
	next, _ := Next(models.Track{TrackID: 1}, list)
	if next.TrackID != 2 {
		t.Errorf("expected lookup to use first occurrence, got %d", next.TrackID)
	}
}

func TestIndexMatchesByKey(t *testing.T) {
	list := tracks(4, 5)
	stale := models.Track{TrackID: 5, Name: "renamed"}
	if got := Index(stale, list); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
}

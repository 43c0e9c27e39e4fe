package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_BabyBoom(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: i * 100, Alive: 100, Births: 10, Red: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Alive: 100, Births: 40, Red: 100})
	if !hasBookmark(bookmarks, BookmarkBabyBoom) {
		t.Error("expected baby_boom bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: i * 100, Alive: 100, Red: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 500, Alive: 50, Red: 50})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}

	// The peak resets, so holding steady does not re-trigger.
	bookmarks = bd.Check(WindowStats{WindowEndTick: 600, Alive: 50, Red: 50})
	if hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("crash bookmark repeated without a new drop")
	}
}

func TestBookmarkDetector_FactionExtinct(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{Alive: 30, Red: 20, Blue: 10}); len(got) != 0 {
		t.Fatalf("unexpected bookmarks %v", got)
	}
	got := bd.Check(WindowStats{WindowEndTick: 100, Alive: 20, Red: 20})
	if !hasBookmark(got, BookmarkFactionExtinct) {
		t.Fatal("expected faction_extinct bookmark")
	}
	// Green was never present and blue is already reported.
	if got := bd.Check(WindowStats{WindowEndTick: 200, Alive: 20, Red: 20}); hasBookmark(got, BookmarkFactionExtinct) {
		t.Error("extinction reported twice")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: i * 100, Alive: 100, Red: 100})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			if fired >= 0 {
				t.Fatalf("stable ecosystem fired at windows %d and %d", fired, i)
			}
			fired = i
		}
	}
	if fired != 8 {
		t.Errorf("stable ecosystem fired at window %d, want 8", fired)
	}
}

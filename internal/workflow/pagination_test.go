package workflow

import (
	"fmt"
	"testing"

	"github.com/pkazmirchuk/workbot/internal/store"
)

func makeProjects(n int) []store.Project {
	out := make([]store.Project, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, store.Project{
			ID:   fmt.Sprintf("p%d", i),
			Name: fmt.Sprintf("Project %02d", i),
		})
	}
	return out
}

func TestPaginateCoversListExactlyOnce(t *testing.T) {
	for n := 0; n <= 10; n++ {
		projects := makeProjects(n)
		first := Paginate(projects, 0)

		wantPages := (n + PageSize - 1) / PageSize
		if first.TotalPages != wantPages {
			t.Fatalf("n=%d TotalPages = %d, want %d", n, first.TotalPages, wantPages)
		}

		seen := make([]store.Project, 0, n)
		for p := 0; p < first.TotalPages; p++ {
			page := Paginate(projects, p)
			if page.Page != p {
				t.Fatalf("n=%d page index = %d, want %d", n, page.Page, p)
			}
			if len(page.Items) == 0 {
				t.Fatalf("n=%d page %d is empty", n, p)
			}
			if len(page.Items) > PageSize {
				t.Fatalf("n=%d page %d has %d items, cap is %d", n, p, len(page.Items), PageSize)
			}
			if got, want := page.HasPrev, p > 0; got != want {
				t.Fatalf("n=%d page %d HasPrev = %v, want %v", n, p, got, want)
			}
			if got, want := page.HasNext, p < first.TotalPages-1; got != want {
				t.Fatalf("n=%d page %d HasNext = %v, want %v", n, p, got, want)
			}
			seen = append(seen, page.Items...)
		}

		if len(seen) != n {
			t.Fatalf("n=%d pages cover %d items", n, len(seen))
		}
		for i, p := range seen {
			if p.ID != projects[i].ID {
				t.Fatalf("n=%d item %d = %q, order not preserved", n, i, p.ID)
			}
		}
	}
}

func TestPaginateClampsOutOfRange(t *testing.T) {
	projects := makeProjects(9) // three pages

	if got := Paginate(projects, -3).Page; got != 0 {
		t.Fatalf("negative page clamped to %d, want 0", got)
	}
	last := Paginate(projects, 99)
	if last.Page != 2 {
		t.Fatalf("oversized page clamped to %d, want 2", last.Page)
	}
	if last.HasNext {
		t.Fatalf("clamped last page still reports HasNext")
	}
	if len(last.Items) != 1 {
		t.Fatalf("last page items = %d, want 1", len(last.Items))
	}
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate(nil, 3)
	if page.TotalPages != 0 || page.Page != 0 || len(page.Items) != 0 {
		t.Fatalf("empty list page = %+v", page)
	}
	if page.HasPrev || page.HasNext {
		t.Fatalf("empty list reports navigation: %+v", page)
	}
}

package workflow

import "github.com/pkazmirchuk/workbot/internal/store"

// PageSize is the fixed number of selectable projects per page.
const PageSize = 4

// ProjectPage is one bounded window over the project list plus its
// navigation affordances.
type ProjectPage struct {
	Items      []store.Project
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate slices the ordered project list into the requested page. An
// out-of-range page index (a stale button after the list changed) clamps to
// the nearest valid page instead of failing.
func Paginate(projects []store.Project, page int) ProjectPage {
	total := len(projects)
	if total == 0 {
		return ProjectPage{Items: nil, Page: 0, TotalPages: 0}
	}

	totalPages := (total + PageSize - 1) / PageSize
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * PageSize
	end := start + PageSize
	if end > total {
		end = total
	}

	return ProjectPage{
		Items:      projects[start:end],
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 0,
		HasNext:    page < totalPages-1,
	}
}

package infrastructure

import (
	"context"
	"net/http"
	"regexp"

	"openproject-mcp-server/internal/domain"
)

const timeEntriesPath = "time_entries"

var spentOnPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ListTimeEntries lists time entries, optionally of one work package
// and/or one user.
func (c *OpenProjectClient) ListTimeEntries(ctx context.Context, workPackageID, userID int, page domain.Page) (*domain.Collection[domain.TimeEntry], error) {
	filter := domain.NewFilter().
		EqualsIf(workPackageID != 0, "work_package", workPackageID).
		EqualsIf(userID != 0, "user", userID)
	return listInto[domain.TimeEntry](ctx, c, "/"+timeEntriesPath, "time entry", filter, page)
}

// CreateTimeEntry logs time on a work package.
func (c *OpenProjectClient) CreateTimeEntry(ctx context.Context, create domain.TimeEntryCreate) (*domain.TimeEntry, error) {
	if create.WorkPackageID == 0 {
		return nil, domain.NewPreconditionError("work_package_id is required")
	}
	if create.Hours <= 0 {
		return nil, domain.NewPreconditionError("hours must be positive, got %v", create.Hours)
	}
	if !spentOnPattern.MatchString(create.SpentOn) {
		return nil, domain.NewPreconditionError("spent_on must be a YYYY-MM-DD date, got %q", create.SpentOn)
	}
	return sendInto[domain.TimeEntry](ctx, c, http.MethodPost, "/"+timeEntriesPath, "time entry", create.Body())
}

// UpdateTimeEntry applies a partial update.
func (c *OpenProjectClient) UpdateTimeEntry(ctx context.Context, id int, patch domain.TimeEntryPatch) (*domain.TimeEntry, error) {
	return sendInto[domain.TimeEntry](ctx, c, http.MethodPatch, idPath(timeEntriesPath, id), "time entry", patch.Body())
}

// DeleteTimeEntry deletes a time entry.
func (c *OpenProjectClient) DeleteTimeEntry(ctx context.Context, id int) error {
	return c.remove(ctx, idPath(timeEntriesPath, id))
}

// ListTimeEntryActivities lists the activities time can be booked against.
func (c *OpenProjectClient) ListTimeEntryActivities(ctx context.Context) (*domain.Collection[domain.TimeEntryActivity], error) {
	return listInto[domain.TimeEntryActivity](ctx, c, "/"+timeEntriesPath+"/activities", "time entry activity", nil, domain.Page{})
}

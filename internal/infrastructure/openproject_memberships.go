package infrastructure

import (
	"context"
	"log/slog"
	"net/http"

	"openproject-mcp-server/internal/domain"
)

const membershipsPath = "memberships"

// ListMemberships lists memberships, optionally of one project and/or one
// principal.
func (c *OpenProjectClient) ListMemberships(ctx context.Context, projectID, userID int, page domain.Page) (*domain.Collection[domain.Membership], error) {
	filter := domain.NewFilter().
		EqualsIf(projectID != 0, "project", projectID).
		EqualsIf(userID != 0, "principal", userID)
	return listInto[domain.Membership](ctx, c, "/"+membershipsPath, "membership", filter, page)
}

// GetMembership retrieves a membership by id.
func (c *OpenProjectClient) GetMembership(ctx context.Context, id int) (*domain.Membership, error) {
	return getInto[domain.Membership](ctx, c, idPath(membershipsPath, id), "membership")
}

// CreateMembership creates a membership. The principal checks run before
// any request is sent.
func (c *OpenProjectClient) CreateMembership(ctx context.Context, create domain.MembershipCreate) (*domain.Membership, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	if create.UserID != 0 && create.GroupID != 0 {
		c.logger.Warn("both user_id and group_id supplied, using user_id",
			slog.Int("user_id", create.UserID),
			slog.Int("group_id", create.GroupID))
	}
	return sendInto[domain.Membership](ctx, c, http.MethodPost, "/"+membershipsPath, "membership", create.Body())
}

// UpdateMembership replaces the roles of a membership.
func (c *OpenProjectClient) UpdateMembership(ctx context.Context, id int, patch domain.MembershipPatch) (*domain.Membership, error) {
	return sendInto[domain.Membership](ctx, c, http.MethodPatch, idPath(membershipsPath, id), "membership", patch.Body())
}

// DeleteMembership deletes a membership.
func (c *OpenProjectClient) DeleteMembership(ctx context.Context, id int) error {
	return c.remove(ctx, idPath(membershipsPath, id))
}

package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"openproject-mcp-server/internal/domain"
)

// maxLevelFetches bounds concurrent child fetches within one tree level.
const maxLevelFetches = 4

// SetParent makes parentID the parent of the work package id.
func (c *OpenProjectClient) SetParent(ctx context.Context, id, parentID int) (*domain.WorkPackage, error) {
	if id == 0 || parentID == 0 {
		return nil, domain.NewPreconditionError("work_package_id and parent_id are required")
	}
	if id == parentID {
		return nil, domain.NewPreconditionError("work package %d cannot be its own parent", id)
	}
	return c.patchWorkPackage(ctx, id, domain.ParentBody(parentID), nil)
}

// RemoveParent makes the work package id top-level.
func (c *OpenProjectClient) RemoveParent(ctx context.Context, id int) (*domain.WorkPackage, error) {
	return c.patchWorkPackage(ctx, id, domain.ParentBody(0), nil)
}

// Children returns the direct children of parentID or, with
// includeDescendants, every work package below it.
//
// The result holds each id once and never contains parentID itself. Direct
// children precede their own descendants. Any failed fetch fails the whole
// call with no partial result.
func (c *OpenProjectClient) Children(ctx context.Context, parentID int, includeDescendants bool) ([]domain.WorkPackage, error) {
	if !includeDescendants {
		return c.directChildren(ctx, parentID)
	}

	visited := map[int]bool{parentID: true}
	frontier := []int{parentID}
	var result []domain.WorkPackage

	for depth := 0; len(frontier) > 0; depth++ {
		levels, err := c.fetchLevel(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []int
		for _, children := range levels {
			for _, child := range children {
				if visited[child.ID] {
					c.logger.Debug("skipping revisited work package",
						slog.Int("id", child.ID),
						slog.Int("depth", depth))
					continue
				}
				visited[child.ID] = true
				result = append(result, child)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}

	if result == nil {
		result = []domain.WorkPackage{}
	}
	return result, nil
}

// fetchLevel fetches the direct children of every id concurrently. The
// returned slices are in the order of ids.
func (c *OpenProjectClient) fetchLevel(ctx context.Context, ids []int) ([][]domain.WorkPackage, error) {
	levels := make([][]domain.WorkPackage, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLevelFetches)
	for i, id := range ids {
		g.Go(func() error {
			children, err := c.directChildren(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to fetch children of work package %d: %w", id, err)
			}
			levels[i] = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return levels, nil
}

// directChildren pages through the parent = id listing in full windows
// until the reported total is reached. Statuses are not filtered.
func (c *OpenProjectClient) directChildren(ctx context.Context, id int) ([]domain.WorkPackage, error) {
	children := []domain.WorkPackage{}
	for page := 1; ; page++ {
		coll, err := c.ListWorkPackages(ctx, WorkPackageQuery{
			ParentID: id,
			Status:   domain.StatusAll,
			Page:     domain.NewPage(page, domain.MaxPageSize),
		})
		if err != nil {
			return nil, err
		}
		children = append(children, coll.Elements...)
		if len(coll.Elements) == 0 || len(children) >= coll.Total {
			return children, nil
		}
	}
}

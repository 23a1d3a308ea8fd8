package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryTimelineRepo struct {
	entries []Entry
}

func newMemoryTimelineRepo(n int) *memoryTimelineRepo {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &memoryTimelineRepo{}
	for i := 0; i < n; i++ {
		repo.entries = append(repo.entries, Entry{
			ID:         fmt.Sprintf("entry-%03d", i),
			ActionType: ActionGrant,
			Details:    fmt.Sprintf("Role assigned to admin ID: admin-%d", i),
			At:         base.Add(-time.Duration(i) * time.Minute),
			ActorID:    "actor-1",
		})
	}
	return repo
}

func (r *memoryTimelineRepo) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	if offset >= len(r.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.entries) {
		end = len(r.entries)
	}
	return r.entries[offset:end], nil
}

func TestTimelineFirstPage(t *testing.T) {
	svc := NewService(newMemoryTimelineRepo(45))

	res, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 20)
	require.Equal(t, 1, res.Paging.Page)
	require.True(t, res.Paging.HasNext)
	require.Equal(t, 2, res.Paging.NextPage)
	require.Zero(t, res.Paging.PrevPage)
	require.Equal(t, "entry-000", res.Entries[0].ID)
}

func TestTimelineLastPage(t *testing.T) {
	svc := NewService(newMemoryTimelineRepo(45))

	res, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3})
	require.NoError(t, err)
	require.Len(t, res.Entries, 5)
	require.False(t, res.Paging.HasNext)
	require.Equal(t, 2, res.Paging.PrevPage)
}

func TestTimelinePageSizeClamped(t *testing.T) {
	svc := NewService(newMemoryTimelineRepo(120))

	res, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Len(t, res.Entries, 50)
	require.Equal(t, 50, res.Paging.PageSize)

	res, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: -3, Page: -1})
	require.NoError(t, err)
	require.Len(t, res.Entries, 20)
	require.Equal(t, 1, res.Paging.Page)
}

func TestTimelineEmpty(t *testing.T) {
	svc := NewService(newMemoryTimelineRepo(0))

	res, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Empty(t, res.Entries)
	require.False(t, res.Paging.HasNext)
}

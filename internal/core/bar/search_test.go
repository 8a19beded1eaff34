package bar

import (
	"context"
	"testing"

	"bar-inventory/internal/core/matching"
	"bar-inventory/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRegistry_Lifecycle(t *testing.T) {
	r := NewSearchRegistry()

	ctx, h, err := r.Start(context.Background(), "", "sample", "Aperol")
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID())

	h.Report(matching.Progress{State: matching.StateSearchingByTags, Term: "aperitivo", Found: 2})

	status, err := r.Status(h.ID())
	require.NoError(t, err)
	assert.Equal(t, matching.StateSearchingByTags, status.State)
	assert.Equal(t, "aperitivo", status.Term)
	assert.Equal(t, 2, status.Found)
	assert.Len(t, r.Active(), 1)

	h.Done()
	assert.Error(t, ctx.Err())
	_, err = r.Status(h.ID())
	assert.ErrorIs(t, err, common.ErrSearchNotFound)
	assert.Empty(t, r.Active())
}

func TestSearchRegistry_Stop(t *testing.T) {
	r := NewSearchRegistry()

	ctx, h, err := r.Start(context.Background(), "search-1", "sample", "Aperol")
	require.NoError(t, err)
	defer h.Done()

	status, err := r.Stop("search-1")
	require.NoError(t, err)
	assert.True(t, status.StopRequested)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	_, err = r.Stop("missing")
	assert.ErrorIs(t, err, common.ErrSearchNotFound)
}

func TestSearchRegistry_DuplicateID(t *testing.T) {
	r := NewSearchRegistry()

	_, h, err := r.Start(context.Background(), "search-1", "sample", "Aperol")
	require.NoError(t, err)

	_, _, err = r.Start(context.Background(), "search-1", "sample", "Campari")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	h.Done()
	_, h, err = r.Start(context.Background(), "search-1", "sample", "Campari")
	require.NoError(t, err)
	h.Done()
}

func TestSearchRegistry_DoneTwice(t *testing.T) {
	r := NewSearchRegistry()
	_, h, err := r.Start(context.Background(), "", "sample", "Aperol")
	require.NoError(t, err)

	h.Done()
	assert.NotPanics(t, h.Done)
}

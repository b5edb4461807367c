package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/hedgebot/internal/domain"
)

var t0 = time.Date(2026, 8, 25, 7, 0, 0, 0, time.UTC)

func TestOpenDebitsCashAndAverages(t *testing.T) {
	l := New(1000)

	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.40, t0))
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.50, t0.Add(time.Minute)))

	pos, ok := l.Position("mkt-1", domain.SideYes)
	require.True(t, ok)
	assert.Equal(t, 200.0, pos.Size)
	assert.InDelta(t, 0.45, pos.AvgPrice, 1e-9)
	assert.Equal(t, t0, pos.OpenedAt)
	assert.InDelta(t, 1000-40-50, l.Cash(), 1e-9)
}

func TestCloseBooksRealizedAndRemovesFlat(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideNo, 50, 0.40, t0))

	require.NoError(t, l.ApplyFill(domain.FillActionClose, "mkt-1", domain.SideNo, 50, 0.55, t0.Add(time.Hour)))

	_, ok := l.Position("mkt-1", domain.SideNo)
	assert.False(t, ok)
	assert.InDelta(t, (0.55-0.40)*50, l.RealizedPnL(), 1e-9)
	assert.InDelta(t, 1000-0.40*50+0.55*50, l.Cash(), 1e-9)
}

func TestCloseClampsToPositionSize(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 30, 0.50, t0))

	// Request more than held: only 30 closes.
	require.NoError(t, l.ApplyFill(domain.FillActionClose, "mkt-1", domain.SideYes, 100, 0.60, t0))

	_, ok := l.Position("mkt-1", domain.SideYes)
	assert.False(t, ok)
	assert.InDelta(t, (0.60-0.50)*30, l.RealizedPnL(), 1e-9)
	assert.InDelta(t, 1000-15+18, l.Cash(), 1e-9)
}

func TestPartialCloseKeepsRemainder(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.50, t0))
	require.NoError(t, l.ApplyFill(domain.FillActionClose, "mkt-1", domain.SideYes, 40, 0.70, t0))

	pos, ok := l.Position("mkt-1", domain.SideYes)
	require.True(t, ok)
	assert.Equal(t, 60.0, pos.Size)
	assert.InDelta(t, 0.50, pos.AvgPrice, 1e-9)
}

func TestCloseWithoutPositionFails(t *testing.T) {
	l := New(1000)
	err := l.ApplyFill(domain.FillActionClose, "mkt-1", domain.SideYes, 10, 0.50, t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRejectsNonPositiveSizeAndPrice(t *testing.T) {
	l := New(1000)
	assert.ErrorIs(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 0, 0.50, t0), domain.ErrInvalidOrder)
	assert.ErrorIs(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 10, -0.1, t0), domain.ErrInvalidOrder)
}

func TestLegsTrackedIndependently(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.45, t0))
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideNo, 100, 0.50, t0))

	yes, ok := l.Position("mkt-1", domain.SideYes)
	require.True(t, ok)
	no, ok := l.Position("mkt-1", domain.SideNo)
	require.True(t, ok)
	assert.InDelta(t, 0.45, yes.AvgPrice, 1e-9)
	assert.InDelta(t, 0.50, no.AvgPrice, 1e-9)
	assert.Len(t, l.Positions(), 2)
}

func TestMarkAndUnrealized(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.40, t0))

	l.Mark("mkt-1", 0.55, 0.45)

	v := l.View(t0)
	assert.InDelta(t, (0.55-0.40)*100, v.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 1000-40, v.Cash, 1e-9)
	assert.InDelta(t, v.Cash+40+v.UnrealizedPnL, v.Equity(), 1e-9)
}

func TestMarkDropsStaleAfterClose(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 100, 0.40, t0))
	l.Mark("mkt-1", 0.55, 0.45)
	require.NoError(t, l.ApplyFill(domain.FillActionClose, "mkt-1", domain.SideYes, 100, 0.55, t0))

	// Marking any market prunes marks with no surviving position.
	l.Mark("mkt-2", 0.50, 0.50)

	v := l.View(t0)
	assert.Zero(t, v.UnrealizedPnL)
}

func TestBootstrapReplacesState(t *testing.T) {
	l := New(1000)
	require.NoError(t, l.ApplyFill(domain.FillActionOpen, "mkt-1", domain.SideYes, 10, 0.50, t0))

	l.Bootstrap(domain.AccountSnapshot{
		Cash: 250,
		Positions: []domain.Position{
			{MarketID: "mkt-9", Side: domain.SideNo, Size: 20, AvgPrice: 0.30, OpenedAt: t0},
		},
		AsOf: t0,
	})

	assert.Equal(t, 250.0, l.Cash())
	assert.Zero(t, l.RealizedPnL())
	_, ok := l.Position("mkt-1", domain.SideYes)
	assert.False(t, ok)
	pos, ok := l.Position("mkt-9", domain.SideNo)
	require.True(t, ok)
	assert.Equal(t, 20.0, pos.Size)
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/HIMANADH789/careworkers/internal/geo"
	"github.com/HIMANADH789/careworkers/internal/identity"
	"github.com/HIMANADH789/careworkers/internal/models"
	"github.com/HIMANADH789/careworkers/internal/perimeter"
	"github.com/HIMANADH789/careworkers/internal/repos"
	"github.com/HIMANADH789/careworkers/internal/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	ward   = perimeter.Perimeter{Name: "Ward", Center: geo.Point{Lat: 17.554356, Lon: 80.619736}, RadiusMeters: 10000}
	inside = &geo.Point{Lat: 17.554400, Lon: 80.619800}
	origin = &geo.Point{Lat: 0, Lon: 0}
)

type env struct {
	workers *repos.WorkersRepo
	events  *repos.ClockEventsRepo
	perims  *repos.PerimeterRepo
	cache   *perimeter.Store

	clock     *ClockService
	staff     *StaffService
	dashboard *DashboardService
	perimeter *PerimeterService

	now time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := storagetest.Open(t)
	lg := zap.NewNop()

	e := &env{
		workers: repos.NewWorkersRepo(db, lg),
		events:  repos.NewClockEventsRepo(db, lg),
		perims:  repos.NewPerimeterRepo(db, lg),
		cache:   perimeter.NewFixed(ward),
		now:     time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}
	e.clock = NewClockService(e.events, e.cache, lg)
	e.clock.Now = func() time.Time { return e.now }
	e.staff = NewStaffService(e.workers, e.events, lg)
	e.dashboard = NewDashboardService(e.workers, e.events, time.UTC, lg)
	e.dashboard.Now = func() time.Time { return e.now }
	e.perimeter = NewPerimeterService(e.perims, e.cache, lg)
	return e
}

func (e *env) worker(t *testing.T, subject, name string, role models.Role) identity.Identity {
	t.Helper()
	w, _, err := e.workers.FirstOrCreateBySubject(context.Background(), models.Worker{
		AuthSubject: subject, Name: name, Email: subject + "@example.com", Role: role,
	})
	require.NoError(t, err)
	return identity.FromWorker(w)
}

func strPtr(s string) *string { return &s }

func TestClockService_StatusTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	st, err := e.clock.Status(ctx, asha, inside)
	require.NoError(t, err)
	assert.Equal(t, ClockStatus{Status: StatusCanClockIn}, st)

	ev, err := e.clock.ClockIn(ctx, asha, inside, strPtr("  morning round "))
	require.NoError(t, err)
	assert.Equal(t, "morning round", *ev.ClockInNote)

	st, err = e.clock.Status(ctx, asha, inside)
	require.NoError(t, err)
	assert.Equal(t, StatusCanClockOut, st.Status)
	require.NotNil(t, st.LastShiftID)
	assert.Equal(t, ev.ID, *st.LastShiftID)
	assert.True(t, st.ClockInAt.Equal(e.now))
	assert.Nil(t, st.ClockOutAt)

	e.now = e.now.Add(8 * time.Hour)
	closed, err := e.clock.ClockOut(ctx, asha, inside, strPtr(""))
	require.NoError(t, err)
	assert.Equal(t, ev.ID, closed.ID)
	assert.Equal(t, 8*time.Hour, closed.Duration())
	assert.Nil(t, closed.ClockOutNote, "blank note is dropped")

	st, err = e.clock.Status(ctx, asha, inside)
	require.NoError(t, err)
	assert.Equal(t, StatusCanClockIn, st.Status)
	require.NotNil(t, st.ClockOutAt)
	assert.True(t, st.ClockOutAt.Equal(e.now))
}

func TestClockService_OutsidePerimeterOverridesHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	st, err := e.clock.Status(ctx, asha, origin)
	require.NoError(t, err)
	assert.Equal(t, ClockStatus{Status: StatusNotInPerimeter}, st)

	_, err = e.clock.ClockIn(ctx, asha, inside, nil)
	require.NoError(t, err)

	st, err = e.clock.Status(ctx, asha, origin)
	require.NoError(t, err)
	assert.Equal(t, ClockStatus{Status: StatusNotInPerimeter}, st)

	_, err = e.clock.ClockOut(ctx, asha, origin, nil)
	assert.ErrorIs(t, err, models.ErrOutsidePerimeter, "standing inside at clock-in grants nothing")

	_, err = e.clock.ClockIn(ctx, e.worker(t, "bala", "Bala", models.RoleCareworker), origin, nil)
	assert.ErrorIs(t, err, models.ErrOutsidePerimeter)
}

func TestClockService_Preconditions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	_, err := e.clock.Status(ctx, identity.Identity{}, inside)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = e.clock.Status(ctx, asha, nil)
	assert.ErrorIs(t, err, models.ErrLocationMissing)

	_, err = e.clock.ClockIn(ctx, asha, nil, nil)
	assert.ErrorIs(t, err, models.ErrLocationMissing)

	_, err = e.clock.ClockOut(ctx, asha, inside, nil)
	assert.ErrorIs(t, err, models.ErrNoActiveShift)

	long := make([]byte, maxNoteLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = e.clock.ClockIn(ctx, asha, inside, strPtr(string(long)))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestClockService_UnconfiguredPerimeterFailsClosed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	svc := NewClockService(e.events, perimeter.NewStore(e.perims, time.Minute, zap.NewNop()), zap.NewNop())

	_, err := svc.Status(ctx, asha, inside)
	assert.ErrorIs(t, err, models.ErrPerimeterUnconfigured)
	_, err = svc.ClockIn(ctx, asha, inside, nil)
	assert.ErrorIs(t, err, models.ErrPerimeterUnconfigured)
	_, err = svc.ClockOut(ctx, asha, inside, nil)
	assert.ErrorIs(t, err, models.ErrPerimeterUnconfigured)
}

func TestClockService_SecondClockInConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	_, err := e.clock.ClockIn(ctx, asha, inside, nil)
	require.NoError(t, err)
	_, err = e.clock.ClockIn(ctx, asha, inside, nil)
	assert.ErrorIs(t, err, models.ErrWriteConflict)
}

func TestClockService_ConcurrentClockInsKeepOneOpenShift(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	const n = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.clock.ClockIn(ctx, asha, inside, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrWriteConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)

	history, err := e.clock.History(ctx, asha, 0)
	require.NoError(t, err)
	open := 0
	for _, ev := range history {
		if ev.Open() {
			open++
		}
	}
	assert.Equal(t, 1, open)
}

func TestClockService_HistoryLimits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	for i := 0; i < 12; i++ {
		_, err := e.clock.ClockIn(ctx, asha, inside, nil)
		require.NoError(t, err)
		e.now = e.now.Add(time.Hour)
		_, err = e.clock.ClockOut(ctx, asha, inside, nil)
		require.NoError(t, err)
		e.now = e.now.Add(time.Hour)
	}

	rows, err := e.clock.History(ctx, asha, 0)
	require.NoError(t, err)
	assert.Len(t, rows, DefaultHistoryLimit)
	assert.True(t, rows[0].ClockInAt.After(rows[1].ClockInAt), "newest first")

	rows, err = e.clock.History(ctx, asha, 1000)
	require.NoError(t, err)
	assert.Len(t, rows, 12)
}

func TestStaffService_Views(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	boss := e.worker(t, "boss", "Boss", models.RoleManager)
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)
	bala := e.worker(t, "bala", "Bala", models.RoleCareworker)
	e.worker(t, "chitra", "Chitra", models.RoleCareworker)

	_, err := e.clock.ClockIn(ctx, asha, inside, nil)
	require.NoError(t, err)
	_, err = e.clock.ClockIn(ctx, bala, inside, nil)
	require.NoError(t, err)
	e.now = e.now.Add(time.Hour)
	_, err = e.clock.ClockOut(ctx, bala, inside, nil)
	require.NoError(t, err)

	clockedIn, err := e.staff.CurrentlyClockedIn(ctx, boss)
	require.NoError(t, err)
	require.Len(t, clockedIn, 1)
	assert.Equal(t, "Asha", clockedIn[0].Name)
	assert.Equal(t, "asha@example.com", clockedIn[0].Email)

	all, err := e.staff.WithLastClock(ctx, boss)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Asha", all[0].Name)
	require.NotNil(t, all[0].LastClock)
	assert.True(t, all[0].LastClock.Open())
	require.NotNil(t, all[1].LastClock)
	assert.False(t, all[1].LastClock.Open())
	assert.Nil(t, all[2].LastClock)

	hist, err := e.staff.HistoryByWorker(ctx, boss, bala.WorkerID)
	require.NoError(t, err)
	assert.Equal(t, "Bala", hist.Name)
	assert.Len(t, hist.Records, 1)

	_, err = e.staff.HistoryByWorker(ctx, boss, 9999)
	assert.ErrorIs(t, err, models.ErrWorkerNotFound)

	_, err = e.staff.CurrentlyClockedIn(ctx, asha)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = e.staff.WithLastClock(ctx, identity.Identity{})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestStaffService_MeAndRename(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)

	me, err := e.staff.Me(ctx, asha)
	require.NoError(t, err)
	assert.Equal(t, "Asha", me.Name)

	renamed, err := e.staff.UpdateName(ctx, asha, "  Asha K ")
	require.NoError(t, err)
	assert.Equal(t, "Asha K", renamed.Name)
	assert.Equal(t, asha.WorkerID, renamed.ID)

	_, err = e.staff.UpdateName(ctx, asha, "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDashboardService_Snapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	boss := e.worker(t, "boss", "Boss", models.RoleManager)
	asha := e.worker(t, "asha", "Asha", models.RoleCareworker)
	bala := e.worker(t, "bala", "Bala", models.RoleCareworker)

	start := e.now
	e.now = start.AddDate(0, 0, -1)
	_, err := e.clock.ClockIn(ctx, asha, inside, nil)
	require.NoError(t, err)
	e.now = e.now.Add(8 * time.Hour)
	_, err = e.clock.ClockOut(ctx, asha, inside, nil)
	require.NoError(t, err)

	e.now = start
	_, err = e.clock.ClockIn(ctx, bala, inside, nil)
	require.NoError(t, err)
	_, err = e.clock.ClockIn(ctx, boss, inside, nil)
	require.NoError(t, err)

	e.now = start.Add(time.Hour)
	snap, err := e.dashboard.Dashboard(ctx, boss)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.ActiveStaffCount)
	assert.Equal(t, 1, snap.TotalManagersCount)
	assert.Equal(t, 2, snap.TotalShifts, "manager shifts are not counted")
	assert.Equal(t, 1, snap.ShiftDurationDistribution[2].Count, "8h shift lands in 8-12")
	require.Len(t, snap.AvgHoursPerDay, 1)
	assert.Equal(t, 8.0, snap.AvgHoursPerDay[0].AvgHours)
	assert.Equal(t, 1, snap.CurrentDayStatus.CurrentlyActive)
	assert.Equal(t, "Asha", snap.TopPerformers[0].Name)

	_, err = e.dashboard.Dashboard(ctx, asha)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

type failingEvents struct{ EventWindow }

func (failingEvents) WindowedEvents(context.Context, models.Role, time.Time) ([]models.WindowedEvent, error) {
	return nil, errors.New("connection reset")
}

func (failingEvents) CountByRole(context.Context, models.Role) (int64, error) { return 0, nil }

func TestDashboardService_ReadFailureFailsWhole(t *testing.T) {
	e := newEnv(t)
	boss := e.worker(t, "boss", "Boss", models.RoleManager)

	svc := NewDashboardService(e.workers, failingEvents{}, time.UTC, zap.NewNop())
	snap, err := svc.Dashboard(context.Background(), boss)
	assert.ErrorIs(t, err, models.ErrAggregationFailed)
	assert.Nil(t, snap)
}

func TestPerimeterService_SetWritesThrough(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	boss := e.worker(t, "boss", "Boss", models.RoleManager)

	got, err := e.perimeter.Get(ctx, boss)
	require.NoError(t, err)
	assert.Nil(t, got)

	saved, err := e.perimeter.Set(ctx, boss, PerimeterInput{Name: " Clinic ", CenterLat: 0, CenterLng: 0, RadiusKm: 1})
	require.NoError(t, err)
	assert.Equal(t, "Clinic", saved.Name)
	assert.Equal(t, boss.WorkerID, saved.CreatedByID)

	cur, ok := e.cache.Current()
	require.True(t, ok)
	assert.Equal(t, 1000.0, cur.RadiusMeters)

	st, err := e.clock.Status(ctx, boss, origin)
	require.NoError(t, err)
	assert.Equal(t, StatusCanClockIn, st.Status, "origin is inside the new perimeter")

	_, err = e.perimeter.Set(ctx, boss, PerimeterInput{Name: "Clinic", CenterLat: 10, CenterLng: 10, RadiusKm: 2})
	require.NoError(t, err)
	got, err = e.perimeter.Get(ctx, boss)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.RadiusKm)
}

func TestPerimeterService_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	boss := e.worker(t, "boss", "Boss", models.RoleManager)

	bad := []PerimeterInput{
		{Name: "", RadiusKm: 1},
		{Name: "x", CenterLat: 91, RadiusKm: 1},
		{Name: "x", CenterLng: -181, RadiusKm: 1},
		{Name: "x", RadiusKm: 0},
	}
	for _, in := range bad {
		_, err := e.perimeter.Set(ctx, boss, in)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "%+v", in)
	}

	_, err := e.perimeter.Set(ctx, identity.Identity{}, PerimeterInput{Name: "x", RadiusKm: 1})
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

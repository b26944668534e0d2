package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chapelku_backend/internals/features/chapel/attendance/dto"
	regmodel "chapelku_backend/internals/features/chapel/registry/model"
)

type aggregatorFixture struct {
	svc       *AbsenteeAggregatorService
	docs      *memDocStore
	reg       *fakeRegistry
	serviceID uuid.UUID
	date      time.Time
}

func newAggregatorFixture(t *testing.T) *aggregatorFixture {
	t.Helper()
	docs := newMemDocStore()
	reg := newFakeRegistry()
	serviceID := uuid.New()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	reg.services[serviceID] = &regmodel.ChapelServiceModel{
		ChapelServiceId:     serviceID,
		ChapelServiceName:   "Evening Service",
		ChapelServiceDate:   date,
		ChapelServiceLevels: []int{100, 200, 300, 400, 500},
	}
	return &aggregatorFixture{
		svc:       NewAbsenteeAggregatorService(docs, reg),
		docs:      docs,
		reg:       reg,
		serviceID: serviceID,
		date:      date,
	}
}

func (f *aggregatorFixture) seedLevel(t *testing.T, level, n int) []dto.AbsenteeRecord {
	t.Helper()
	entries := make([]dto.AbsenteeRecord, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New()
		entries = append(entries, dto.AbsenteeRecord{
			StudentID:    id,
			MatricNumber: fmt.Sprintf("L%d/%03d", level, i),
			StudentName:  fmt.Sprintf("Student %d-%d", level, i),
			Level:        level,
			Gender:       "F",
			UniqueID:     id.String(),
		})
	}
	dir := DocDir(f.date, f.serviceID, level)
	require.NoError(t, f.docs.PutJSON(context.Background(), AbsenteesKey(dir), entries))
	return entries
}

func TestListAbsentees_MissingDocumentsMeanZero(t *testing.T) {
	f := newAggregatorFixture(t)

	res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, int64(0), res.Pagination.Total)
	require.Len(t, res.Summary, 5)
	for _, lc := range res.Summary {
		assert.Zero(t, lc.Absentees)
		assert.Empty(t, lc.Error)
	}
}

func TestListAbsentees_MergesAndSortsAcrossLevels(t *testing.T) {
	f := newAggregatorFixture(t)
	f.seedLevel(t, 300, 2)
	f.seedLevel(t, 100, 3)

	res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	require.NoError(t, err)
	require.Len(t, res.Data, 5)

	// sorted by level first, matric second
	prev := res.Data[0]
	for _, cur := range res.Data[1:] {
		if cur.Level == prev.Level {
			assert.LessOrEqual(t, prev.MatricNumber, cur.MatricNumber)
		} else {
			assert.Less(t, prev.Level, cur.Level)
		}
		prev = cur
	}
	assert.Equal(t, 100, res.Data[0].SourceLevel)
}

func TestListAbsentees_MalformedLevelIsIsolated(t *testing.T) {
	f := newAggregatorFixture(t)
	f.seedLevel(t, 100, 2)
	dir := DocDir(f.date, f.serviceID, 400)
	f.docs.putRaw(AbsenteesKey(dir), []byte("{not json"))

	res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)

	var reported bool
	for _, lc := range res.Summary {
		if lc.Level == 400 {
			reported = lc.Error != ""
		} else {
			assert.Empty(t, lc.Error)
		}
	}
	assert.True(t, reported, "malformed level should carry its error in the summary")
}

func TestListAbsentees_IdenticalDuplicateCollapses(t *testing.T) {
	f := newAggregatorFixture(t)
	entries := f.seedLevel(t, 200, 1)

	// the same record also appears in the 300 document
	dir := DocDir(f.date, f.serviceID, 300)
	require.NoError(t, f.docs.PutJSON(context.Background(), AbsenteesKey(dir), entries))

	res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, res.Data, 1)
	assert.Equal(t, int64(1), res.Pagination.Total)
}

func TestListAbsentees_ConflictingIdentityFailsLoudly(t *testing.T) {
	f := newAggregatorFixture(t)
	entries := f.seedLevel(t, 200, 1)

	conflicting := entries[0]
	conflicting.MatricNumber = "OTHER/999"
	dir := DocDir(f.date, f.serviceID, 300)
	require.NoError(t, f.docs.PutJSON(context.Background(), AbsenteesKey(dir), []dto.AbsenteeRecord{conflicting}))

	_, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	assert.ErrorIs(t, err, ErrIdentityConflict)
}

func TestListAbsentees_PaginationCoversWholeList(t *testing.T) {
	f := newAggregatorFixture(t)
	f.seedLevel(t, 100, 7)
	f.seedLevel(t, 200, 6)

	const perPage = 5
	full, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 1, 50)
	require.NoError(t, err)
	require.Len(t, full.Data, 13)

	var pieced []dto.TaggedAbsentee
	for page := 1; page <= 3; page++ {
		res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, page, perPage)
		require.NoError(t, err)
		assert.Equal(t, int64(13), res.Pagination.Total)
		assert.Equal(t, 3, res.Pagination.TotalPages)
		assert.Equal(t, page, res.Pagination.Page)
		assert.Equal(t, page < 3, res.Pagination.HasNext)
		assert.Equal(t, page > 1, res.Pagination.HasPrev)
		pieced = append(pieced, res.Data...)
	}
	assert.Equal(t, full.Data, pieced)

	// past the end: empty page, same totals
	res, err := f.svc.ListAbsentees(context.Background(), f.serviceID, 9, perPage)
	require.NoError(t, err)
	assert.Empty(t, res.Data)
	assert.Equal(t, int64(13), res.Pagination.Total)
}

func TestListAbsentees_UnknownServiceIsNotFound(t *testing.T) {
	f := newAggregatorFixture(t)
	_, err := f.svc.ListAbsentees(context.Background(), uuid.New(), 1, 20)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestServicesWithCounts_SummarizesEachService(t *testing.T) {
	f := newAggregatorFixture(t)
	f.seedLevel(t, 100, 4)
	f.seedLevel(t, 500, 2)

	// second service on the same date, no documents yet
	otherID := uuid.New()
	f.reg.services[otherID] = &regmodel.ChapelServiceModel{
		ChapelServiceId:     otherID,
		ChapelServiceName:   "Night Vigil",
		ChapelServiceDate:   f.date,
		ChapelServiceLevels: []int{100, 200, 300, 400, 500},
	}

	out, err := f.svc.ServicesWithCounts(context.Background(), f.date)
	require.NoError(t, err)
	require.Len(t, out, 2)

	byName := map[string]dto.ServiceWithCounts{}
	for _, s := range out {
		byName[s.ServiceName] = s
	}
	assert.Equal(t, 6, byName["Evening Service"].Total)
	assert.Equal(t, 0, byName["Night Vigil"].Total)
	assert.Len(t, byName["Evening Service"].Levels, 5)
}

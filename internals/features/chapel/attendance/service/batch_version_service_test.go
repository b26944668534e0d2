package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chapelku_backend/internals/features/chapel/attendance/dto"
)

func TestBatchVersionCommit_NumbersAreSequential(t *testing.T) {
	repo := &fakeVersionRepo{}
	svc := NewBatchVersionService(repo)
	serviceID := uuid.New()
	ctx := context.Background()

	for want := 1; want <= 4; want++ {
		v, err := svc.Commit(ctx, serviceID, 200, nil, nil, nil, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, want, v.AttendanceBatchVersionNumber)
	}

	// exactly one row has no superseded_by pointer
	live := 0
	for _, m := range repo.rows {
		if m.AttendanceBatchVersionSupersededBy == nil {
			live++
			assert.Equal(t, 4, m.AttendanceBatchVersionNumber)
		}
	}
	assert.Equal(t, 1, live)
}

func TestBatchVersionCommit_ChainLinksPreviousToNext(t *testing.T) {
	repo := &fakeVersionRepo{}
	svc := NewBatchVersionService(repo)
	serviceID := uuid.New()
	ctx := context.Background()

	v1, err := svc.Commit(ctx, serviceID, 300, nil, nil, nil, uuid.New())
	require.NoError(t, err)
	v2, err := svc.Commit(ctx, serviceID, 300, nil, nil, nil, uuid.New())
	require.NoError(t, err)

	for _, m := range repo.rows {
		if m.AttendanceBatchVersionId == v1.AttendanceBatchVersionId {
			require.NotNil(t, m.AttendanceBatchVersionSupersededBy)
			assert.Equal(t, v2.AttendanceBatchVersionId, *m.AttendanceBatchVersionSupersededBy)
		}
	}
}

func TestBatchVersionCommit_PairsAreIndependent(t *testing.T) {
	repo := &fakeVersionRepo{}
	svc := NewBatchVersionService(repo)
	ctx := context.Background()
	serviceID := uuid.New()

	_, err := svc.Commit(ctx, serviceID, 100, nil, nil, nil, uuid.New())
	require.NoError(t, err)
	v, err := svc.Commit(ctx, serviceID, 400, nil, nil, nil, uuid.New())
	require.NoError(t, err)

	// a different level starts its own chain at 1
	assert.Equal(t, 1, v.AttendanceBatchVersionNumber)
}

func TestBatchVersionCommit_SupersedeFailureIsTolerated(t *testing.T) {
	repo := &fakeVersionRepo{}
	svc := NewBatchVersionService(repo)
	serviceID := uuid.New()
	ctx := context.Background()

	_, err := svc.Commit(ctx, serviceID, 200, nil, nil, nil, uuid.New())
	require.NoError(t, err)

	repo.supersedeErr = errors.New("connection reset")
	v2, err := svc.Commit(ctx, serviceID, 200, nil, nil, nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, v2.AttendanceBatchVersionNumber)

	// both rows now have NULL pointers; Current still resolves to the
	// highest number
	repo.supersedeErr = nil
	cur, err := svc.CurrentFor(ctx, serviceID, 200)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, 2, cur.AttendanceBatchVersionNumber)

	v3, err := svc.Commit(ctx, serviceID, 200, nil, nil, nil, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, v3.AttendanceBatchVersionNumber)
}

func TestBatchVersionCommit_InsertFailureBubbles(t *testing.T) {
	repo := &fakeVersionRepo{insertErr: errors.New("out of disk")}
	svc := NewBatchVersionService(repo)

	_, err := svc.Commit(context.Background(), uuid.New(), 200, nil, nil, nil, uuid.New())
	require.Error(t, err)
	assert.Empty(t, repo.rows)
}

func TestBatchVersionCommit_PayloadRoundTrips(t *testing.T) {
	repo := &fakeVersionRepo{}
	svc := NewBatchVersionService(repo)

	absent := []dto.AbsenteeRecord{{MatricNumber: "CS/2021/002", StudentName: "Bisi Ojo", Level: 200}}
	unmatched := []dto.UnmatchedRow{{Row: map[string]string{"matric_number": "zz"}, Reason: "no_roster_entry"}}

	v, err := svc.Commit(context.Background(), uuid.New(), 200, nil, absent, unmatched, uuid.New())
	require.NoError(t, err)
	assert.Contains(t, string(v.AttendanceBatchVersionAbsentees), "CS/2021/002")
	assert.Contains(t, string(v.AttendanceBatchVersionUnmatched), "no_roster_entry")
	assert.Equal(t, "null", string(v.AttendanceBatchVersionAttendees))
}

func TestCurrentFor_EmptyPairIsNil(t *testing.T) {
	svc := NewBatchVersionService(&fakeVersionRepo{})
	cur, err := svc.CurrentFor(context.Background(), uuid.New(), 100)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

package service

import (
	"testing"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func progressFixture() (*ProgressService, *fakeProgressStore) {
	catalog := &fakeCatalog{lessons: map[uint]*model.Lesson{
		1: lesson(1, 10, 0),
		2: lesson(2, 10, 1),
	}}
	store := newFakeProgressStore(catalog)
	return NewProgressService(store, catalog), store
}

func TestProgress_RecordCompletionIdempotent(t *testing.T) {
	svc, store := progressFixture()

	require.NoError(t, svc.RecordCompletion(5, 1))
	require.Len(t, store.records, 1)
	first := store.records[[2]uint{5, 1}]

	// 重复提交静默返回，记录不变
	require.NoError(t, svc.RecordCompletion(5, 1))
	assert.Len(t, store.records, 1)
	assert.Same(t, first, store.records[[2]uint{5, 1}])
}

func TestProgress_RecordCompletionUnknownLesson(t *testing.T) {
	svc, _ := progressFixture()
	assert.ErrorIs(t, svc.RecordCompletion(5, 99), util.ErrLessonNotFound)
}

func TestProgress_GetProgress(t *testing.T) {
	svc, _ := progressFixture()

	summary, err := svc.GetProgress(5, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Completed)
	assert.Equal(t, 2, summary.Total)

	require.NoError(t, svc.RecordCompletion(5, 1))
	summary, err = svc.GetProgress(5, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 2, summary.Total)
}

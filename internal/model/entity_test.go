package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntity(t *testing.T) {
	e, err := ParseEntity("К20-1")
	require.NoError(t, err)
	assert.Equal(t, EntityGroup, e.Kind)
	assert.Equal(t, "К20-1_offset0", e.WeekID(0))

	e, err = ParseEntity("И21-3")
	require.NoError(t, err)
	assert.Equal(t, EntityGroup, e.Kind)

	e, err = ParseEntity(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, EntityTeacher, e.Kind)
	assert.Equal(t, "42", e.ID)
	assert.Equal(t, "teacher_42_offset1", e.WeekID(1))

	_, err = ParseEntity("  ")
	assert.ErrorIs(t, err, ErrEmptyEntity)
}

func TestEntity_WeekIDNegativeOffset(t *testing.T) {
	assert.Equal(t, "teacher_7_offset-1", TeacherEntity("7").WeekID(-1))
}

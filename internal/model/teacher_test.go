package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonUnmarshal_TeachersObject(t *testing.T) {
	payload := `{
		"date": "20.10.2026",
		"discipline": "Алгебра",
		"numberPair": 1,
		"teachers": {
			"b": {"id": "b", "fio": "Второй Б.Б."},
			"a": {"id": "a", "fio": "Первый А.А."},
			"s": "Строкович",
			"n": null,
			"broken": {"id": 12}
		}
	}`

	var l Lesson
	require.NoError(t, json.Unmarshal([]byte(payload), &l))

	require.Len(t, l.Teachers, 3)
	assert.Equal(t, "b", l.Teachers[0].Key)
	assert.Equal(t, "Второй Б.Б.", l.Teachers.First().FIO)

	placeholder, ok := l.Teachers.Get("s")
	require.True(t, ok)
	assert.Equal(t, "s", placeholder.ID)
	assert.Equal(t, "Строкович", placeholder.LastName)
	assert.Equal(t, PlaceholderFirstName, placeholder.FirstName)
	assert.Equal(t, "Строкович", placeholder.FIO)

	_, ok = l.Teachers.Get("broken")
	assert.False(t, ok)
}

func TestLessonUnmarshal_TeachersStringOrNull(t *testing.T) {
	for _, raw := range []string{`"просто строка"`, `null`, `42`, `[1,2]`} {
		var l Lesson
		err := json.Unmarshal([]byte(`{"discipline":"X","teachers":`+raw+`}`), &l)
		require.NoError(t, err, raw)
		assert.Nil(t, l.Teachers, raw)
		assert.Equal(t, "X", l.Discipline)
	}
}

func TestTeacherMap_MarshalKeepsOrder(t *testing.T) {
	m := TeacherMap{
		{Key: "z", Teacher: Teacher{ID: "z"}},
		{Key: "a", Teacher: Teacher{ID: "a"}},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"id":"z"},"a":{"id":"a"}}`, string(data))

	var back TeacherMap
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestTeacherInfosFromMap(t *testing.T) {
	list := TeacherInfosFromMap(map[string]string{"2": "Яковлев", "1": "Алексеев"})
	require.Len(t, list, 2)
	assert.Equal(t, "Алексеев", list[0].Name)
	assert.Equal(t, "1", list[0].ID)
}

func TestTeacherDisplayName(t *testing.T) {
	assert.Equal(t, "Иванов Иван", (&Teacher{LastName: "Иванов", FirstName: "Иван"}).DisplayName())
	assert.Equal(t, "Петров", (&Teacher{LastName: "Петров", FirstName: PlaceholderFirstName}).DisplayName())
	assert.Equal(t, "", (*Teacher)(nil).DisplayName())
}

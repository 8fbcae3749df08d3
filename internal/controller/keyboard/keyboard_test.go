package keyboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

func TestScheduleNavigation(t *testing.T) {
	kb := ScheduleNavigation()
	require.Len(t, kb.InlineKeyboard, 2)

	assert.Equal(t, DayPrev, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, DayNext, kb.InlineKeyboard[0][2].CallbackData)
	assert.Equal(t, WeekImage, kb.InlineKeyboard[1][1].CallbackData)
}

func TestTeacherChoices_Limited(t *testing.T) {
	var list []model.TeacherInfo
	for i := 0; i < 15; i++ {
		list = append(list, model.TeacherInfo{ID: fmt.Sprint(i), Name: fmt.Sprintf("Иванов %d", i)})
	}

	kb := TeacherChoices(list)
	require.Len(t, kb.InlineKeyboard, maxPickButtons)
	assert.Equal(t, "teacher:3", kb.InlineKeyboard[3][0].CallbackData)
}

func TestGroupChoices_TwoPerRow(t *testing.T) {
	kb := GroupChoices([]model.GroupInfo{{Name: "К1"}, {Name: "К2"}, {Name: "И3"}})

	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, "group:И3", kb.InlineKeyboard[1][0].CallbackData)
}

func TestLayout_SkipsEmptyRows(t *testing.T) {
	var l layout
	l.row()
	l.row(button("a", "b"))
	assert.Len(t, l.markup().InlineKeyboard, 1)

	var empty layout
	assert.NotNil(t, empty.markup().InlineKeyboard)
}

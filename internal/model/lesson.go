package model

// Lesson одно занятие из расписания (одна строка кеша)
type Lesson struct {
	LocalID    int64  `json:"-"`
	Date       string `json:"date"` // dd.MM.yyyy
	DayWeek    string `json:"dayWeek"`
	StartTime  string `json:"startTime"` // HH:mm
	EndTime    string `json:"endTime"`
	Discipline string `json:"discipline"`
	GroupType  string `json:"groupType"` // лекция, практика, экзамен...
	Address    string `json:"address,omitempty"`
	Classroom  string `json:"classroom,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Place      string `json:"place,omitempty"`

	Teachers       TeacherMap `json:"teachers,omitempty"`
	TeacherDetails *Teacher   `json:"teacherDetails,omitempty"` // первый преподаватель из Teachers

	URLOnline  string `json:"urlOnline,omitempty"`
	Group      string `json:"group"`
	NumberPair int    `json:"numberPair"`
	Color      string `json:"color"`
	Code       string `json:"code,omitempty"`

	WeekIdentifier string `json:"weekIdentifier,omitempty"`
}

// DefaultLessonColor цвет занятия, если API его не прислал
const DefaultLessonColor = "#FFFFFF"

// Location возвращает аудиторию, а если её нет - место проведения
func (l *Lesson) Location() string {
	if l.Classroom != "" {
		return l.Classroom
	}
	return l.Place
}

// DedupKey ключ для схлопывания дублей при отображении
func (l *Lesson) DedupKey() string {
	return l.Date + "|" + l.StartTime + "|" + l.Discipline + "|" + l.Classroom
}

// PrimaryTeacher возвращает денормализованного преподавателя
// или первого из карты, если денормализация ещё не выполнена
func (l *Lesson) PrimaryTeacher() *Teacher {
	if l.TeacherDetails != nil {
		return l.TeacherDetails
	}
	return l.Teachers.First()
}

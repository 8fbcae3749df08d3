package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// PlaceholderFirstName подставляется, когда вместо объекта преподавателя пришла строка
const PlaceholderFirstName = "(нет данных)"

type Teacher struct {
	ID            string `json:"id,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	MiddleName    string `json:"middleName,omitempty"`
	FIO           string `json:"fio,omitempty"`
	DepartmentFIO string `json:"departmentFio,omitempty"`
	Department    string `json:"department,omitempty"`
}

// DisplayName возвращает ФИО для отображения
func (t *Teacher) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.FIO != "" {
		return t.FIO
	}
	name := t.LastName
	if t.FirstName != "" && t.FirstName != PlaceholderFirstName {
		name += " " + t.FirstName
	}
	if t.MiddleName != "" {
		name += " " + t.MiddleName
	}
	return name
}

// TeacherEntry пара ключ-преподаватель с сохранением порядка из ответа API
type TeacherEntry struct {
	Key     string
	Teacher Teacher
}

// TeacherMap карта преподавателей занятия. Порядок ключей сохраняется,
// потому что "основной" преподаватель - это первая запись.
type TeacherMap []TeacherEntry

// First возвращает первого преподавателя или nil
func (m TeacherMap) First() *Teacher {
	if len(m) == 0 {
		return nil
	}
	t := m[0].Teacher
	return &t
}

// Get ищет преподавателя по ключу
func (m TeacherMap) Get(key string) (*Teacher, bool) {
	for i := range m {
		if m[i].Key == key {
			t := m[i].Teacher
			return &t, true
		}
	}
	return nil, false
}

// MarshalJSON пишет карту как JSON-объект в исходном порядке
func (m TeacherMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Teacher)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON терпимо разбирает поле teachers: объект, строку, null или мусор.
// Некорректные значения не ломают разбор всего занятия.
func (m *TeacherMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		// строка, null, число, массив - преподавателей нет
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		*m = nil
		return nil
	}

	result := make(TeacherMap, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		key, ok := tok.(string)
		if !ok {
			break
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			break
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		switch raw[0] {
		case '{':
			var t Teacher
			if err := json.Unmarshal(raw, &t); err != nil {
				// битая запись преподавателя - пропускаем только её
				continue
			}
			result = append(result, TeacherEntry{Key: key, Teacher: t})
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			result = append(result, TeacherEntry{Key: key, Teacher: Teacher{
				ID:        key,
				LastName:  s,
				FirstName: PlaceholderFirstName,
				FIO:       s,
			}})
		default:
			// null и прочие токены пропускаем
		}
	}

	*m = result
	return nil
}

// TeacherInfo элемент справочника преподавателей (/api/teachers)
type TeacherInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeacherInfosFromMap превращает ответ id -> ФИО в отсортированный по имени список
func TeacherInfosFromMap(m map[string]string) []TeacherInfo {
	list := make([]TeacherInfo, 0, len(m))
	for id, name := range m {
		list = append(list, TeacherInfo{ID: id, Name: name})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name == list[j].Name {
			return list[i].ID < list[j].ID
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// GroupInfo элемент справочника групп (/api/groups)
type GroupInfo struct {
	Name string `json:"name"`
}

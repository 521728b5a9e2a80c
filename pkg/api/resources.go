package api

// Прикладные payload'ы ресурсов. Для движка синхронизации они непрозрачны
// (передаются как JSON); типы здесь — контракт между UI-обвязкой и бэкендом.

// Subject — учебный предмет, сохраненный пользователем.
type Subject struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Area  string `json:"area,omitempty"` // предметная область
	Notes string `json:"notes,omitempty"`
}

// Career — карьерное направление, сохраненное пользователем.
type Career struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Field string `json:"field,omitempty"`
}

// Preference — одна пользовательская настройка.
type Preference struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// QuizState — состояние профориентационного теста.
type QuizState struct {
	Answers map[string]string `json:"answers"`
	QuizID  string            `json:"quiz_id"`
	Step    int               `json:"step"`
	Done    bool              `json:"done"`
}

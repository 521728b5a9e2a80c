package models

import "fmt"

// ResourceType определяет тип синхронизируемого ресурса.
// Закрытый набор: движок отвергает неизвестные типы на границе мутаций.
type ResourceType string

// Known resource types tracked by the engine
const (
	ResourceSubjects    ResourceType = "subjects"    // каталог учебных предметов
	ResourceCareers     ResourceType = "careers"     // карьерные направления
	ResourcePreferences ResourceType = "preferences" // пользовательские настройки
	ResourceQuiz        ResourceType = "quiz"        // состояние профориентационного теста
)

// KnownResourceType reports whether t belongs to the closed resource type set.
func KnownResourceType(t ResourceType) bool {
	switch t {
	case ResourceSubjects, ResourceCareers, ResourcePreferences, ResourceQuiz:
		return true
	}
	return false
}

// Key is the stable compound identity of a tracked resource:
// a resource type plus an opaque ID unique within that type.
type Key struct {
	Type ResourceType `json:"type"`
	ID   string       `json:"id"`
}

// NewKey creates a resource key.
func NewKey(t ResourceType, id string) Key {
	return Key{Type: t, ID: id}
}

// String returns the canonical "type/id" form, e.g. "careers/42".
// Используется как ключ в кэше, очереди и для in-flight учета.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Type, k.ID)
}

package resolver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/pathwise/syncengine/internal/models"
)

// Result — решение resolver'а по конфликту.
//
// Resubmit = true означает, что локальная (или объединенная) запись должна
// быть переотправлена с BaseVersion = FinalVersion, превосходя удаленное
// изменение; Resubmit = false — очередь освобождается от операции, а кэш
// принимает FinalValue/FinalVersion как чистое состояние.
type Result struct {
	FinalValue   json.RawMessage
	Action       models.Resolution
	FinalVersion int64
	Resubmit     bool
}

// Resolver сравнивает локальную запись из очереди с конкурентно измененным
// удаленным значением и решает accept/reject/merge по настроенной политике.
type Resolver struct {
	policies map[models.ResourceType]models.Policy
	logger   *slog.Logger
}

// DefaultPolicies — политики по умолчанию для типов ресурсов:
// пользовательские настройки и состояние теста пишет только локальный
// пользователь (local wins); сохраненные предметы и карьеры — объектные
// ресурсы, объединяемые по полям.
func DefaultPolicies() map[models.ResourceType]models.Policy {
	return map[models.ResourceType]models.Policy{
		models.ResourcePreferences: models.PolicyReject,
		models.ResourceQuiz:        models.PolicyReject,
		models.ResourceSubjects:    models.PolicyMerge,
		models.ResourceCareers:     models.PolicyMerge,
	}
}

// New creates a resolver with per-resource-type policies.
// Для типов без явной политики применяется accept (remote wins) —
// безопасный выбор для внешне-авторитетных ресурсов.
func New(policies map[models.ResourceType]models.Policy, logger *slog.Logger) *Resolver {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Resolver{policies: policies, logger: logger}
}

// PolicyFor returns the configured policy for a resource type.
func (r *Resolver) PolicyFor(t models.ResourceType) models.Policy {
	if p, ok := r.policies[t]; ok {
		return p
	}
	return models.PolicyAccept
}

// Resolve применяет политику к конфликту и возвращает решение.
// Детерминирован: одинаковые входы всегда дают одинаковый исход,
// чтобы разрешение было воспроизводимым в тестах.
func (r *Resolver) Resolve(c *models.ConflictRecord, policy models.Policy) (*Result, error) {
	if !models.KnownPolicy(policy) {
		return nil, fmt.Errorf("unknown resolution policy %q", policy)
	}

	switch policy {
	case models.PolicyAccept:
		return r.accept(c), nil

	case models.PolicyReject:
		return r.reject(c), nil

	case models.PolicyMerge:
		return r.merge(c), nil

	case models.PolicyLWW:
		// Побеждает более поздняя запись; при равных timestamps —
		// лексикографическое сравнение идентификаторов (детерминизм)
		if c.LocalIsNewer() {
			return r.reject(c), nil
		}
		return r.accept(c), nil
	}

	return nil, fmt.Errorf("unhandled resolution policy %q", policy)
}

// accept: remote wins — локальная запись отбрасывается, принимается
// удаленное значение и версия.
func (r *Resolver) accept(c *models.ConflictRecord) *Result {
	return &Result{
		Action:       models.ResolutionAccept,
		FinalValue:   c.RemoteValue,
		FinalVersion: c.RemoteVersion,
	}
}

// reject: local wins — локальная запись переотправляется с base version,
// поднятой до удаленной.
func (r *Resolver) reject(c *models.ConflictRecord) *Result {
	return &Result{
		Action:       models.ResolutionReject,
		FinalValue:   c.LocalValue,
		FinalVersion: c.RemoteVersion,
		Resubmit:     true,
	}
}

// merge: field-level union объектных значений относительно общего предка.
// Каждое поле берется у той стороны, которая его изменила; поля, измененные
// обеими сторонами, получает локальная. Если значения не являются JSON
// объектами и измененные поля определить нельзя — деградируем до reject.
func (r *Resolver) merge(c *models.ConflictRecord) *Result {
	merged, ok := mergeObjects(c.BaseValue, c.LocalValue, c.RemoteValue)
	if !ok {
		r.logger.Debug("Merge not applicable, degrading to reject",
			"key", c.Key.String(), "conflict_id", c.ID)
		return r.reject(c)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		// Merge построен из валидных JSON объектов; сюда попадать не должны
		r.logger.Warn("Failed to marshal merged value, degrading to reject",
			"key", c.Key.String(), "error", err)
		return r.reject(c)
	}

	return &Result{
		Action:       models.ResolutionMerge,
		FinalValue:   data,
		FinalVersion: c.RemoteVersion,
		Resubmit:     true,
	}
}

// mergeObjects строит объединение local и remote относительно предка base.
// ok=false, если хотя бы одна сторона — не JSON объект.
func mergeObjects(base, local, remote json.RawMessage) (map[string]any, bool) {
	localObj, ok := asObject(local)
	if !ok {
		return nil, false
	}
	remoteObj, ok := asObject(remote)
	if !ok {
		return nil, false
	}
	baseObj, ok := asObject(base)
	if !ok {
		// Без предка считаем базой пустой объект: каждое присутствующее
		// поле трактуется как измененное своей стороной
		baseObj = map[string]any{}
	}

	merged := make(map[string]any, len(remoteObj)+len(localObj))

	// Начинаем с удаленного состояния: оно несет чужие изменения
	for field, value := range remoteObj {
		merged[field] = value
	}

	// Поля, измененные локально относительно предка, получают приоритет
	for field, localValue := range localObj {
		baseValue, inBase := baseObj[field]
		if !inBase || !reflect.DeepEqual(baseValue, localValue) {
			merged[field] = localValue
		}
	}

	// Поля, удаленные локально (есть у предка, нет в local), убираем,
	// если удаленная сторона их не меняла
	for field, baseValue := range baseObj {
		if _, inLocal := localObj[field]; inLocal {
			continue
		}
		if remoteValue, inRemote := remoteObj[field]; !inRemote || reflect.DeepEqual(remoteValue, baseValue) {
			delete(merged, field)
		}
	}

	return merged, true
}

func asObject(raw json.RawMessage) (map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pathwise/syncengine/internal/models"
	"github.com/pathwise/syncengine/pkg/api"
)

//go:generate moq -out syncer_mock.go . Syncer

// Syncer — срез публичного API движка, нужный ресурсным оберткам.
// Реализуется engine.Engine.
type Syncer interface {
	// Create ставит в очередь создание ресурса
	Create(ctx context.Context, key models.Key, payload any) (string, error)

	// Update ставит в очередь изменение ресурса
	Update(ctx context.Context, key models.Key, payload any) (string, error)

	// Delete ставит в очередь удаление ресурса
	Delete(ctx context.Context, key models.Key) (string, error)

	// Entry возвращает запись кэша для ключа
	Entry(key models.Key) (*models.CachedEntry, bool)

	// EntriesByType возвращает неудаленные записи кэша данного типа
	EntriesByType(t models.ResourceType) []*models.CachedEntry
}

// Service — типизированный фасад над движком для ресурсов приложения.
// UI-обвязка работает с ним, не собирая ключи и payload'ы вручную.
type Service struct {
	syncer Syncer
	logger *slog.Logger
}

// NewService creates a resource facade over the sync engine.
func NewService(syncer Syncer, logger *slog.Logger) *Service {
	return &Service{syncer: syncer, logger: logger}
}

// SaveSubject сохраняет предмет в список пользователя.
func (s *Service) SaveSubject(ctx context.Context, subject api.Subject) error {
	if subject.ID == "" {
		return fmt.Errorf("subject id is required")
	}
	return s.upsert(ctx, models.NewKey(models.ResourceSubjects, subject.ID), subject)
}

// RemoveSavedSubject убирает предмет из списка пользователя.
func (s *Service) RemoveSavedSubject(ctx context.Context, subjectID string) error {
	_, err := s.syncer.Delete(ctx, models.NewKey(models.ResourceSubjects, subjectID))
	return err
}

// SavedSubjects возвращает сохраненные предметы из локального кэша.
func (s *Service) SavedSubjects() ([]api.Subject, error) {
	entries := s.syncer.EntriesByType(models.ResourceSubjects)
	subjects := make([]api.Subject, 0, len(entries))
	for _, entry := range entries {
		var subject api.Subject
		if err := json.Unmarshal(entry.Value, &subject); err != nil {
			return nil, fmt.Errorf("failed to decode subject %s: %w", entry.Key.ID, err)
		}
		subjects = append(subjects, subject)
	}
	return subjects, nil
}

// SaveCareer сохраняет карьерное направление в список пользователя.
func (s *Service) SaveCareer(ctx context.Context, career api.Career) error {
	if career.ID == "" {
		return fmt.Errorf("career id is required")
	}
	return s.upsert(ctx, models.NewKey(models.ResourceCareers, career.ID), career)
}

// RemoveSavedCareer убирает карьерное направление из списка пользователя.
func (s *Service) RemoveSavedCareer(ctx context.Context, careerID string) error {
	_, err := s.syncer.Delete(ctx, models.NewKey(models.ResourceCareers, careerID))
	return err
}

// SavedCareers возвращает сохраненные карьеры из локального кэша.
func (s *Service) SavedCareers() ([]api.Career, error) {
	entries := s.syncer.EntriesByType(models.ResourceCareers)
	careers := make([]api.Career, 0, len(entries))
	for _, entry := range entries {
		var career api.Career
		if err := json.Unmarshal(entry.Value, &career); err != nil {
			return nil, fmt.Errorf("failed to decode career %s: %w", entry.Key.ID, err)
		}
		careers = append(careers, career)
	}
	return careers, nil
}

// SetPreference записывает пользовательскую настройку.
func (s *Service) SetPreference(ctx context.Context, name string, value any) error {
	if name == "" {
		return fmt.Errorf("preference name is required")
	}
	pref := api.Preference{Name: name, Value: value}
	return s.upsert(ctx, models.NewKey(models.ResourcePreferences, name), pref)
}

// Preference читает настройку из локального кэша.
func (s *Service) Preference(name string) (*api.Preference, error) {
	entry, ok := s.syncer.Entry(models.NewKey(models.ResourcePreferences, name))
	if !ok || entry.Deleted {
		return nil, nil
	}
	var pref api.Preference
	if err := json.Unmarshal(entry.Value, &pref); err != nil {
		return nil, fmt.Errorf("failed to decode preference %s: %w", name, err)
	}
	return &pref, nil
}

// SaveQuizState записывает состояние профориентационного теста.
func (s *Service) SaveQuizState(ctx context.Context, state api.QuizState) error {
	if state.QuizID == "" {
		return fmt.Errorf("quiz id is required")
	}
	return s.upsert(ctx, models.NewKey(models.ResourceQuiz, state.QuizID), state)
}

// QuizState читает состояние теста из локального кэша.
func (s *Service) QuizState(quizID string) (*api.QuizState, error) {
	entry, ok := s.syncer.Entry(models.NewKey(models.ResourceQuiz, quizID))
	if !ok || entry.Deleted {
		return nil, nil
	}
	var state api.QuizState
	if err := json.Unmarshal(entry.Value, &state); err != nil {
		return nil, fmt.Errorf("failed to decode quiz state %s: %w", quizID, err)
	}
	return &state, nil
}

// upsert выбирает create или update по наличию записи в кэше.
func (s *Service) upsert(ctx context.Context, key models.Key, payload any) error {
	var err error
	if entry, ok := s.syncer.Entry(key); ok && !entry.Deleted {
		_, err = s.syncer.Update(ctx, key, payload)
	} else {
		_, err = s.syncer.Create(ctx, key, payload)
	}
	if err != nil {
		return fmt.Errorf("failed to queue local write for %s: %w", key.String(), err)
	}

	s.logger.Debug("Queued local write", "key", key.String())
	return nil
}

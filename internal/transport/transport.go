package transport

import (
	"context"
	"encoding/json"

	"github.com/pathwise/syncengine/internal/models"
)

//go:generate moq -out transport_mock.go . Adapter

// Adapter выполняет сетевой вызов для операции синхронизации и
// классифицирует результат. Адаптер — чистая request/response граница:
// он не трогает кэш и очередь и не публикует события.
type Adapter interface {
	// Handshake проверяет доступность бэкенда при установке соединения.
	Handshake(ctx context.Context) error

	// Send отправляет операцию и классифицирует исход. Сетевые проблемы
	// не возвращаются ошибкой — они закодированы в Outcome.
	Send(ctx context.Context, op *models.QueuedOperation) Outcome
}

// Status — классификация исхода сетевого вызова.
type Status int

const (
	// StatusOK — запись принята сервером.
	StatusOK Status = iota
	// StatusConflict — base version операции не совпала с текущей версией
	// ресурса. Ожидаемое условие конкурентности, не ошибка.
	StatusConflict
	// StatusTransient — повторяемая ошибка: таймаут, потеря связи, 5xx.
	StatusTransient
	// StatusFatal — неповторяемая ошибка: валидация, авторизация, 4xx.
	StatusFatal
)

// String returns a readable status name for logs.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusConflict:
		return "conflict"
	case StatusTransient:
		return "transient_failure"
	case StatusFatal:
		return "fatal_failure"
	}
	return "unknown"
}

// Outcome — размеченный результат отправки операции.
//
// Для StatusOK заполнены Version и Value (каноническое значение после
// применения). Для StatusConflict — RemoteVersion, RemoteValue,
// RemoteTimestamp и RemoteWriterID. Для ошибок — Reason.
type Outcome struct {
	Value           json.RawMessage
	RemoteValue     json.RawMessage
	Reason          string
	RemoteWriterID  string
	Version         int64
	RemoteVersion   int64
	RemoteTimestamp int64
	Status          Status
}

// TokenProvider выдает bearer-токен для исходящих запросов.
// Движок не интерпретирует токен — только пересылает.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken — простейший TokenProvider с фиксированным токеном.
type StaticToken string

// AccessToken returns the fixed token.
func (t StaticToken) AccessToken(ctx context.Context) (string, error) {
	return string(t), nil
}

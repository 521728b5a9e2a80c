package api

// MutateRequest — запрос на запись ресурса. BaseVersion — версия, которую
// клиент считает текущей; сервер выполняет compare-and-swap по ней
// (optimistic concurrency check).
type MutateRequest struct {
	Kind        string `json:"kind"` // create | update | delete
	Payload     any    `json:"payload,omitempty"`
	BaseVersion int64  `json:"base_version"`
	ClientOpID  string `json:"client_op_id"` // для идемпотентности повторов на сервере
}

// MutateResponse — успешный ответ на запись: новая версия ресурса и его
// каноническое значение после применения.
type MutateResponse struct {
	Value   any   `json:"value,omitempty"`
	Version int64 `json:"version"`
}

// ConflictResponse возвращается со статусом 409, когда base version клиента
// не совпала с текущей версией ресурса на сервере.
type ConflictResponse struct {
	CurrentValue     any    `json:"current_value,omitempty"`
	WriterID         string `json:"writer_id,omitempty"` // узел, сделавший конкурирующую запись
	CurrentVersion   int64  `json:"current_version"`
	CurrentTimestamp int64  `json:"current_timestamp"` // unix-время конкурирующей записи
}

// HandshakeResponse — ответ на проверку связи при установке соединения.
type HandshakeResponse struct {
	ServerTime int64  `json:"server_time"`
	Message    string `json:"message,omitempty"`
}

// ErrorResponse — стандартный формат ошибки бэкенда.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

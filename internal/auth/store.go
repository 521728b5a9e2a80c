package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pathwise/syncengine/internal/crypto"
	"github.com/pathwise/syncengine/internal/storage"
)

// Storage record keys inside the credentials bucket
const (
	keyCredentials = "credentials"
	keySalt        = "salt"
)

// Credential errors
var (
	// ErrNotAuthenticated indicates that no credentials are stored
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrTokenExpired indicates that the stored access token has expired
	ErrTokenExpired = errors.New("access token has expired")
)

// Credentials — bearer-учетные данные пользователя. Движок синхронизации
// их не интерпретирует: токен пересылается бэкенду как есть.
//
// В памяти токены открытые; в хранилище — зашифрованные AES-GCM ключом,
// выведенным из passphrase (base64 ciphertext в тех же полях).
type Credentials struct {
	Username     string `json:"username"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"` // unix; 0 = срок неизвестен
}

// Store хранит учетные данные в durable KV-хранилище, шифруя токены
// перед записью.
type Store struct {
	kv  storage.KVStore
	key []byte // 32-байтовый ключ шифрования; nil = хранение отключено
}

// NewStore creates a credentials store over the given KV store.
func NewStore(kv storage.KVStore) *Store {
	return &Store{kv: kv}
}

// SetEncryptionKey задает ключ шифрования токенов (32 байта).
func (s *Store) SetEncryptionKey(key []byte) {
	s.key = key
}

// EnsureSalt возвращает соль для деривации ключа, создавая и сохраняя
// новую при первом обращении.
func (s *Store) EnsureSalt(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, storage.BucketCredentials, keySalt)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to load salt: %w", err)
	}

	salt, err := crypto.GenerateSaltBase64()
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, storage.BucketCredentials, keySalt, []byte(salt)); err != nil {
		return "", fmt.Errorf("failed to save salt: %w", err)
	}
	return salt, nil
}

// Save шифрует токены и durable-сохраняет учетные данные.
func (s *Store) Save(ctx context.Context, creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}
	if s.key == nil {
		return fmt.Errorf("encryption key is not set")
	}

	// Копируем структуру, чтобы не менять входящую
	stored := *creds

	encryptedAccess, err := crypto.Encrypt([]byte(creds.AccessToken), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	stored.AccessToken = base64.StdEncoding.EncodeToString(encryptedAccess)

	if creds.RefreshToken != "" {
		encryptedRefresh, err := crypto.Encrypt([]byte(creds.RefreshToken), s.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		stored.RefreshToken = base64.StdEncoding.EncodeToString(encryptedRefresh)
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := s.kv.Set(ctx, storage.BucketCredentials, keyCredentials, data); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// Load загружает учетные данные и расшифровывает токены.
// Возвращает ErrNotAuthenticated, если данных нет.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	if s.key == nil {
		return nil, fmt.Errorf("encryption key is not set")
	}

	data, err := s.kv.Get(ctx, storage.BucketCredentials, keyCredentials)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	accessBytes, err := base64.StdEncoding.DecodeString(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to base64 decode access token: %w", err)
	}
	access, err := crypto.Decrypt(accessBytes, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	creds.AccessToken = string(access)

	if creds.RefreshToken != "" {
		refreshBytes, err := base64.StdEncoding.DecodeString(creds.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to base64 decode refresh token: %w", err)
		}
		refresh, err := crypto.Decrypt(refreshBytes, s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
		creds.RefreshToken = string(refresh)
	}

	return &creds, nil
}

// Delete удаляет учетные данные (logout).
func (s *Store) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storage.BucketCredentials, keyCredentials); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

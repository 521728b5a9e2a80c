package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken реализует transport.TokenProvider: возвращает сохраненный
// bearer-токен, отказывая с ErrTokenExpired по истечении срока действия.
// Срок берется из claim exp (если токен — JWT) или из сохраненного
// ExpiresAt для непрозрачных токенов.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	creds, err := s.Load(ctx)
	if err != nil {
		return "", err
	}

	expiresAt := tokenExpiry(creds)
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return "", ErrTokenExpired
	}

	return creds.AccessToken, nil
}

// tokenExpiry извлекает срок действия токена. Подпись не проверяется:
// токен для движка непрозрачен, нам нужен только дедлайн, чтобы не слать
// заведомо протухшие запросы.
func tokenExpiry(creds *Credentials) time.Time {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(creds.AccessToken, jwt.MapClaims{})
	if err == nil {
		if exp, err := token.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	if creds.ExpiresAt > 0 {
		return time.Unix(creds.ExpiresAt, 0)
	}
	return time.Time{}
}

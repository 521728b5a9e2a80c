package validation

import (
	"fmt"
	"strings"

	"github.com/pathwise/syncengine/internal/models"
)

// MaxResourceIDLength ограничивает длину opaque-идентификатора ресурса.
const MaxResourceIDLength = 200

// ValidateKey проверяет ключ ресурса на границе мутаций движка:
// некорректный ключ становится фатальной ошибкой сразу, а не
// поврежденной записью в очереди.
func ValidateKey(key models.Key) error {
	if !models.KnownResourceType(key.Type) {
		return fmt.Errorf("unknown resource type %q", key.Type)
	}
	if key.ID == "" {
		return fmt.Errorf("resource id must not be empty")
	}
	if len(key.ID) > MaxResourceIDLength {
		return fmt.Errorf("resource id exceeds %d characters", MaxResourceIDLength)
	}
	if strings.ContainsAny(key.ID, "/\n\r\t ") {
		return fmt.Errorf("resource id contains forbidden characters")
	}
	return nil
}

package queue

import (
	"math/rand"
	"time"
)

// Backoff parameter defaults: экспонента с основанием 1s, фактор 2,
// потолок 30s, jitter ±20% чтобы избежать thundering herd при
// одновременном восстановлении связи у многих клиентов.
const (
	DefaultBackoffBase   = time.Second
	DefaultBackoffCap    = 30 * time.Second
	DefaultMaxAttempts   = 5
	backoffJitterPercent = 20
)

// backoffDelay возвращает задержку перед попыткой с номером attempt (1-based).
// Функция детерминированно зависит от persisted-счетчика попыток, поэтому
// расписание ретраев переживает рестарт процесса.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			delay = cap
			break
		}
	}
	if delay > cap {
		delay = cap
	}

	// Jitter: равномерно в пределах ±20% от расчетной задержки
	jitterRange := int64(delay) * backoffJitterPercent / 100
	if jitterRange > 0 {
		delay += time.Duration(rand.Int63n(2*jitterRange+1) - jitterRange)
	}

	return delay
}

package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_GrowsExponentially(t *testing.T) {
	base := time.Second
	cap := 30 * time.Second

	// С учетом jitter ±20% проверяем попадание в коридор
	tests := []struct {
		attempt int
		nominal time.Duration
	}{
		{attempt: 1, nominal: time.Second},
		{attempt: 2, nominal: 2 * time.Second},
		{attempt: 3, nominal: 4 * time.Second},
		{attempt: 4, nominal: 8 * time.Second},
		{attempt: 5, nominal: 16 * time.Second},
	}

	for _, tt := range tests {
		delay := backoffDelay(base, cap, tt.attempt)
		lo := tt.nominal * 80 / 100
		hi := tt.nominal * 120 / 100
		assert.GreaterOrEqual(t, delay, lo, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, delay, hi, "attempt %d", tt.attempt)
	}
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	cap := 30 * time.Second

	for _, attempt := range []int{6, 10, 100} {
		delay := backoffDelay(time.Second, cap, attempt)
		assert.LessOrEqual(t, delay, cap*120/100, "attempt %d", attempt)
		assert.GreaterOrEqual(t, delay, cap*80/100, "attempt %d", attempt)
	}
}

func TestBackoffDelay_InvalidAttemptTreatedAsFirst(t *testing.T) {
	delay := backoffDelay(time.Second, 30*time.Second, 0)
	assert.GreaterOrEqual(t, delay, 800*time.Millisecond)
	assert.LessOrEqual(t, delay, 1200*time.Millisecond)
}

package sources

import (
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func TestCategorizeAPIFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   engine.ErrorCategory
	}{
		{
			name:   "quota exhausted",
			status: 403,
			body:   `{"error": {"code": 403, "errors": [{"reason": "quotaExceeded"}]}}`,
			want:   engine.CategoryQuotaExhausted,
		},
		{
			name:   "daily limit variant",
			status: 403,
			body:   `{"error": {"code": 403, "errors": [{"reason": "dailyLimitExceeded"}]}}`,
			want:   engine.CategoryQuotaExhausted,
		},
		{
			name:   "bad key",
			status: 403,
			body:   `{"error": {"code": 403, "errors": [{"reason": "forbidden"}]}}`,
			want:   engine.CategoryAuth,
		},
		{
			name:   "unauthorized",
			status: 401,
			body:   `{"error": {"code": 401, "errors": [{"reason": "authError"}]}}`,
			want:   engine.CategoryAuth,
		},
		{
			name:   "rate limited",
			status: 429,
			body:   "",
			want:   engine.CategoryRateLimited,
		},
		{
			name:   "not found",
			status: 404,
			body:   "",
			want:   engine.CategoryUnavailable,
		},
		{
			name:   "server error",
			status: 500,
			body:   "internal error",
			want:   engine.CategoryNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := categorizeAPIFailure(tt.status, []byte(tt.body))
			if got := engine.Categorize(err); got != tt.want {
				t.Errorf("category = %s, want %s", got, tt.want)
			}
		})
	}
}

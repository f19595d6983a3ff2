package bureau

import (
	"context"
	"time"

	"cendeu-features-go/internal/types"
)

// Mock serves a fixed history relative to Now. Enabled with USE_MOCK_BUREAU=true.
type Mock struct {
	Now func() time.Time
}

func (m Mock) FetchDebts(_ context.Context, _ string) ([]types.RawDebt, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	start := time.Date(now().Year(), now().Month(), 1, 0, 0, 0, 0, time.UTC)
	return []types.RawDebt{
		{"information_date": start.Format("2006-01-02"), "situation": 1},
		{"information_date": start.AddDate(0, -14, 0).Format("2006-01-02"), "situation": 3},
	}, nil
}

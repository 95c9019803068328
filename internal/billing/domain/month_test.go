package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthRejectsMalformed(t *testing.T) {
	for _, value := range []string{"2024-13", "24-01", "2024/01", "2024-1", "2024-00", " 2024-01", "2024-01-01", ""} {
		_, err := ParseMonth(value)
		assert.ErrorIs(t, err, ErrInvalidMonth, value)
	}
}

func TestMonthDates(t *testing.T) {
	cases := []struct {
		month string
		days  int
	}{
		{"2024-01", 31},
		{"2024-02", 29},
		{"2023-02", 28},
		{"1900-02", 28},
		{"2000-02", 29},
		{"2024-04", 30},
		{"2024-12", 31},
	}
	for _, tc := range cases {
		t.Run(tc.month, func(t *testing.T) {
			m, err := ParseMonth(tc.month)
			require.NoError(t, err)

			dates := m.Dates()
			require.Len(t, dates, tc.days)
			assert.Equal(t, 1, dates[0].Day())
			assert.Equal(t, tc.days, dates[len(dates)-1].Day())
			assert.Equal(t, m.End(), dates[len(dates)-1])

			seen := map[string]bool{}
			for i, d := range dates {
				assert.True(t, m.Contains(d))
				assert.Equal(t, time.UTC, d.Location())
				if i > 0 {
					assert.Equal(t, 24*time.Hour, d.Sub(dates[i-1]))
				}
				key := DateKey(d)
				assert.False(t, seen[key], "duplicate %s", key)
				seen[key] = true
			}
		})
	}
}

func TestMonthPrevious(t *testing.T) {
	jan, _ := ParseMonth("2024-01")
	assert.Equal(t, "2023-12", jan.Previous().String())

	mar, _ := ParseMonth("2024-03")
	assert.Equal(t, "2024-02", mar.Previous().String())
}

func TestMonthContainsUsesUTC(t *testing.T) {
	m, _ := ParseMonth("2024-01")
	ist := time.FixedZone("IST", 5*3600+1800)

	assert.True(t, m.Contains(time.Date(2024, 2, 1, 3, 0, 0, 0, ist)))
	assert.False(t, m.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMonthJSON(t *testing.T) {
	var payload struct {
		Month Month `json:"month"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"month":"2024-02"}`), &payload))
	assert.Equal(t, Month{Year: 2024, Month: time.February}, payload.Month)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2024-02"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"month":"2024-2"}`), &payload))
}

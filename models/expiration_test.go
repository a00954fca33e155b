package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysUntilExpiration(t *testing.T) {
	today := date(2024, 6, 15)

	tests := []struct {
		name string
		exp  time.Time
		want int
	}{
		{"same day", today, 0},
		{"tomorrow", date(2024, 6, 16), 1},
		{"yesterday", date(2024, 6, 14), -1},
		{"thirty days", date(2024, 7, 15), 30},
		{"partial day rounds up", today.Add(6 * time.Hour), 1},
		{"partial day in past rounds toward zero", today.Add(-6 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilExpiration(tt.exp, today))
		})
	}
}

func TestExpirationBucketBoundaries(t *testing.T) {
	today := date(2024, 6, 15)

	tests := []struct {
		name   string
		offset int
		want   ExpirationBucket
	}{
		{"one day before today", -1, BucketExpired},
		{"long expired", -400, BucketExpired},
		{"exactly today", 0, BucketExpiringSoon},
		{"today plus 30 inclusive", 30, BucketExpiringSoon},
		{"today plus 31", 31, BucketCurrent},
		{"far future", 1000, BucketCurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := today.AddDate(0, 0, tt.offset)
			assert.Equal(t, tt.want, ExpirationBucketFor(DaysUntilExpiration(exp, today)))
		})
	}
}

func TestExpirationBucketProperty(t *testing.T) {
	today := date(2024, 2, 28)

	for offset := -90; offset <= 90; offset++ {
		exp := today.AddDate(0, 0, offset)
		got := ExpirationBucketFor(DaysUntilExpiration(exp, today))

		switch {
		case exp.Before(today):
			assert.Equal(t, BucketExpired, got, "offset %d", offset)
		case !exp.After(today.AddDate(0, 0, 30)):
			assert.Equal(t, BucketExpiringSoon, got, "offset %d", offset)
		default:
			assert.Equal(t, BucketCurrent, got, "offset %d", offset)
		}
	}
}

func TestMaintenanceDue(t *testing.T) {
	today := date(2025, 1, 2)

	assert.True(t, MaintenanceDue(nil, today), "no maintenance recorded")

	exactly365 := today.AddDate(0, 0, -365)
	assert.False(t, MaintenanceDue(&exactly365, today))

	exactly366 := today.AddDate(0, 0, -366)
	assert.True(t, MaintenanceDue(&exactly366, today))

	recharge := date(2024, 1, 1)
	assert.True(t, MaintenanceDue(&recharge, date(2025, 1, 2)))
	assert.False(t, MaintenanceDue(&recharge, date(2024, 12, 30)))
}

func TestBucketRangeMatchesCalculator(t *testing.T) {
	today := date(2024, 6, 15)
	buckets := []ExpirationBucket{BucketExpired, BucketExpiringSoon, BucketCurrent}

	for offset := -40; offset <= 40; offset++ {
		exp := today.AddDate(0, 0, offset)
		want := ExpirationBucketFor(DaysUntilExpiration(exp, today))

		for _, b := range buckets {
			gt, lte := BucketRange(b, today)
			in := (gt == nil || exp.After(*gt)) && (lte == nil || !exp.After(*lte))
			assert.Equal(t, b == want, in, "offset %d bucket %s", offset, b)
		}
	}
}

func TestMaintenanceCutoffMatchesCalculator(t *testing.T) {
	today := date(2025, 1, 2)
	cutoff := MaintenanceCutoff(today)

	for offset := 360; offset <= 370; offset++ {
		last := today.AddDate(0, 0, -offset)
		assert.Equal(t, MaintenanceDue(&last, today), last.Before(cutoff), "offset %d", offset)
	}
}

func TestEffectiveStatusAndDisplay(t *testing.T) {
	assert.Equal(t, StatusExpired, EffectiveStatus(StatusActive, BucketExpired))
	assert.Equal(t, StatusActive, EffectiveStatus(StatusActive, BucketExpiringSoon))
	assert.Equal(t, StatusRetired, EffectiveStatus(StatusRetired, BucketExpired))
	assert.Equal(t, StatusMaintenance, EffectiveStatus(StatusMaintenance, BucketExpired))

	assert.Equal(t, Display{Color: "#dc3545", Icon: "x-circle"}, BucketDisplay(BucketExpired))
	assert.Equal(t, Display{Color: "#ffc107", Icon: "alert-triangle"}, BucketDisplay(BucketExpiringSoon))
	assert.Equal(t, Display{Color: "#28a745", Icon: "check-circle"}, BucketDisplay(BucketCurrent))
}

func TestNewExtinguisherView(t *testing.T) {
	now := time.Date(2024, 6, 15, 17, 45, 0, 0, time.UTC)
	ext := Extinguisher{
		ID:             7,
		Status:         StatusActive,
		ExpirationDate: date(2024, 6, 10),
	}

	view := NewExtinguisherView(ext, now)
	assert.Equal(t, -5, view.DaysUntilExpiration)
	assert.Equal(t, BucketExpired, view.ExpirationStatus)
	assert.True(t, view.MaintenancePending)
	assert.Equal(t, StatusExpired, view.EffectiveStatus)
	assert.Equal(t, StatusActive, view.Status)
	assert.Equal(t, "#dc3545", view.StatusColor)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), d)

	d, err = ParseDate("2024-03-01T23:30:00Z")
	assert.NoError(t, err)
	assert.Equal(t, date(2024, 3, 1), d)

	for _, bad := range []string{"", "2024-13-01", "01/02/2024", "2023-02-29"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

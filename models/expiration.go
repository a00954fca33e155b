package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// ExpiringSoonDays граница (включительно) бакета "por_vencer"
	ExpiringSoonDays = 30
	// MaintenanceIntervalDays допустимый интервал между обслуживаниями
	MaintenanceIntervalDays = 365

	day = 24 * time.Hour
)

// ExpirationBucket категория срока годности
type ExpirationBucket string

const (
	BucketExpired      ExpirationBucket = "vencido"
	BucketExpiringSoon ExpirationBucket = "por_vencer"
	BucketCurrent      ExpirationBucket = "vigente"
)

// ValidBucket проверяет значение бакета
func ValidBucket(s string) bool {
	switch ExpirationBucket(s) {
	case BucketExpired, BucketExpiringSoon, BucketCurrent:
		return true
	}
	return false
}

// Display цвет и иконка для отображения статуса
type Display struct {
	Color string `json:"color"`
	Icon  string `json:"icono"`
}

// DateOnly возвращает календарную дату t как полночь UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает календарную дату YYYY-MM-DD или RFC3339
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q: use YYYY-MM-DD", s)
	}
	return DateOnly(t), nil
}

// DaysUntilExpiration количество дней до истечения срока, округленное вверх (может быть отрицательным)
func DaysUntilExpiration(expirationDate, today time.Time) int {
	return int(math.Ceil(expirationDate.Sub(today).Hours() / 24))
}

// ExpirationBucketFor относит количество дней к бакету
func ExpirationBucketFor(days int) ExpirationBucket {
	switch {
	case days < 0:
		return BucketExpired
	case days <= ExpiringSoonDays:
		return BucketExpiringSoon
	default:
		return BucketCurrent
	}
}

// MaintenanceDue true, если обслуживания не было или с него прошло больше 365 дней
func MaintenanceDue(lastMaintenance *time.Time, today time.Time) bool {
	if lastMaintenance == nil {
		return true
	}
	elapsed := int(math.Ceil(today.Sub(*lastMaintenance).Hours() / 24))
	return elapsed > MaintenanceIntervalDays
}

// BucketDisplay возвращает цвет и иконку бакета
func BucketDisplay(bucket ExpirationBucket) Display {
	switch bucket {
	case BucketExpired:
		return Display{Color: "#dc3545", Icon: "x-circle"}
	case BucketExpiringSoon:
		return Display{Color: "#ffc107", Icon: "alert-triangle"}
	default:
		return Display{Color: "#28a745", Icon: "check-circle"}
	}
}

// EffectiveStatus накладывает вычисляемый "vencido" поверх хранимого статуса activo
func EffectiveStatus(stored ExtinguisherStatus, bucket ExpirationBucket) ExtinguisherStatus {
	if stored == StatusActive && bucket == BucketExpired {
		return StatusExpired
	}
	return stored
}

// BucketRange переводит бакет в интервал дат истечения (gt, lte] для SQL-запросов.
// Для today в полночь условие эквивалентно ExpirationBucketFor(DaysUntilExpiration(...)).
func BucketRange(bucket ExpirationBucket, today time.Time) (gt, lte *time.Time) {
	today = DateOnly(today)
	yesterday := today.Add(-day)
	soonEnd := today.Add(ExpiringSoonDays * day)

	switch bucket {
	case BucketExpired:
		return nil, &yesterday
	case BucketExpiringSoon:
		return &yesterday, &soonEnd
	case BucketCurrent:
		return &soonEnd, nil
	}
	return nil, nil
}

// MaintenanceCutoff дата, раньше которой последнее обслуживание считается просроченным
func MaintenanceCutoff(today time.Time) time.Time {
	return DateOnly(today).Add(-MaintenanceIntervalDays * day)
}

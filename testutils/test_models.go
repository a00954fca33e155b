package testutils

import (
	"testing"
	"time"

	"backend_extintores/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword пароль всех тестовых пользователей
const TestPassword = "password123"

// CreateTestUser создает активного пользователя с паролем TestPassword
func CreateTestUser(t testing.TB, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:         "Usuario " + string(role),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestSite создает объект
func CreateTestSite(t testing.TB, db *gorm.DB, name string) *models.Site {
	t.Helper()
	site := &models.Site{Name: name, Address: "Av. Principal 123"}
	if err := db.Create(site).Error; err != nil {
		t.Fatalf("Failed to create test site: %v", err)
	}
	return site
}

// CreateTestLocation создает зону в объекте
func CreateTestLocation(t testing.TB, db *gorm.DB, siteID uint, area string) *models.Location {
	t.Helper()
	location := &models.Location{SiteID: siteID, AreaName: area}
	if err := db.Create(location).Error; err != nil {
		t.Fatalf("Failed to create test location: %v", err)
	}
	return location
}

// CreateTestType создает тип огнетушителя
func CreateTestType(t testing.TB, db *gorm.DB, id, name string) *models.ExtinguisherType {
	t.Helper()
	extinguisherType := &models.ExtinguisherType{
		ID:          id,
		Name:        name,
		ColorHex:    "#DC3545",
		FireClasses: []string{"A", "B", "C"},
	}
	if err := db.Create(extinguisherType).Error; err != nil {
		t.Fatalf("Failed to create test type: %v", err)
	}
	return extinguisherType
}

// Fixture минимальный набор справочников для огнетушителей
type Fixture struct {
	Site     *models.Site
	Location *models.Location
	Type     *models.ExtinguisherType
}

// CreateFixture создает объект, зону и тип
func CreateFixture(t testing.TB, db *gorm.DB) *Fixture {
	t.Helper()
	site := CreateTestSite(t, db, "Sede Central")
	return &Fixture{
		Site:     site,
		Location: CreateTestLocation(t, db, site.ID, "Recepción"),
		Type:     CreateTestType(t, db, "PQS", "Polvo químico seco"),
	}
}

// CreateTestExtinguisher создает огнетушитель в зоне фикстуры с заданными датами
func CreateTestExtinguisher(t testing.TB, db *gorm.DB, f *Fixture, expiration time.Time, lastMaintenance *time.Time) *models.Extinguisher {
	t.Helper()
	extinguisher := &models.Extinguisher{
		TypeID:          f.Type.ID,
		LocationID:      f.Location.ID,
		ExpirationDate:  models.DateOnly(expiration),
		LastMaintenance: lastMaintenance,
		Status:          models.StatusActive,
	}
	if err := db.Create(extinguisher).Error; err != nil {
		t.Fatalf("Failed to create test extinguisher: %v", err)
	}
	return extinguisher
}

// Date календарная дата в UTC
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr указатель на календарную дату
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backend_extintores/config"
	"backend_extintores/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Claims содержимое JWT: идентификатор, email и роль пользователя
type Claims struct {
	UserID uint        `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult ответ на успешный вход
type LoginResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"` // секунды
}

// AuthService хэширование паролей, выпуск и проверка токенов, вход
type AuthService struct {
	db        *gorm.DB
	logger    *logrus.Logger
	jwtSecret []byte
	tokenExp  time.Duration
	issuer    string

	BcryptCost int
	Now        func() time.Time
}

// NewAuthService создает сервис аутентификации
func NewAuthService(db *gorm.DB, cfg config.JWTConfig, logger *logrus.Logger) *AuthService {
	exp := cfg.ExpiresIn
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return &AuthService{
		db:         db,
		logger:     logger,
		jwtSecret:  []byte(cfg.Secret),
		tokenExp:   exp,
		issuer:     cfg.Issuer,
		BcryptCost: bcrypt.DefaultCost,
		Now:        time.Now,
	}
}

// HashPassword хэширует пароль с помощью bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword проверяет пароль по хэшу
func (s *AuthService) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken выпускает JWT для пользователя
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   EntityID(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken проверяет подпись, срок и издателя токена
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.Now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractTokenFromHeader извлекает токен из заголовка Authorization
func ExtractTokenFromHeader(authHeader string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// TokenTTL срок жизни токена
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenExp
}

// Login проверяет учетные данные, обновляет ultimo_acceso и выпускает токен
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError("Credenciales inválidas", ErrInvalidCredentials)
		}
		return nil, NewInternalError(err)
	}

	if !s.CheckPassword(password, user.PasswordHash) {
		return nil, NewUnauthorizedError("Credenciales inválidas", ErrInvalidCredentials)
	}

	if !user.Active {
		return nil, NewUnauthorizedError("Usuario inactivo", ErrInactiveUser)
	}

	now := s.Now().UTC()
	if err := s.db.Model(&user).UpdateColumn("ultimo_acceso", now).Error; err != nil {
		return nil, NewInternalError(err)
	}
	user.LastLogin = &now

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, NewInternalError(err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "rol": user.Role}).Info("Вход выполнен")

	return &LoginResult{
		User:      &user,
		Token:     token,
		ExpiresIn: int64(s.tokenExp.Seconds()),
	}, nil
}

// Authenticate проверяет токен и загружает активного пользователя
func (s *AuthService) Authenticate(tokenString string) (*models.User, *Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	if err := s.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, ErrInactiveUser
	}

	return &user, claims, nil
}

// ChangePassword меняет собственный пароль пользователя после проверки текущего
func (s *AuthService) ChangePassword(userID uint, current, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return translateDBError(err, "Usuario", "")
	}
	if !s.CheckPassword(current, user.PasswordHash) {
		return NewUnauthorizedError("La contraseña actual no es correcta", ErrInvalidCredentials)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return NewInternalError(err)
	}
	if err := s.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		return NewInternalError(err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return FieldError("password", "La contraseña debe tener al menos 8 caracteres")
	}
	if len(password) > 72 {
		return FieldError("password", "La contraseña no puede superar 72 caracteres")
	}
	return nil
}

package service

import (
	"errors"
	"time"

	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/logger"
	"github.com/sofahub/sofahub-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// StaffClaims is the JWT payload for back-office sessions.
type StaffClaims struct {
	StaffID  uint   `json:"staff_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResult pairs the token with its subject.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Staff     StaffBrief `json:"staff"`
}

// StaffBrief is the staff account without credentials.
type StaffBrief struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// AuthService authenticates back-office staff.
type AuthService struct {
	staffRepo   repository.StaffRepository
	secret      []byte
	expireHours int
}

// NewAuthService creates the auth service.
func NewAuthService(staffRepo repository.StaffRepository, cfg *config.JWTConfig) *AuthService {
	secret := "change-me-in-production"
	expireHours := 24
	if cfg != nil {
		if cfg.SecretKey != "" {
			secret = cfg.SecretKey
		}
		if cfg.ExpireHours > 0 {
			expireHours = cfg.ExpireHours
		}
	}
	return &AuthService{
		staffRepo:   staffRepo,
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// Login verifies credentials and issues a token. Wrong username and wrong
// password return the same error.
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	staff, err := s.staffRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrCredentialsInvalid
	}
	if !staff.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)); err != nil {
		return nil, ErrCredentialsInvalid
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.expireHours) * time.Hour)
	claims := StaffClaims{
		StaffID:  staff.ID,
		Username: staff.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	if err := s.staffRepo.TouchLastLogin(staff.ID, now); err != nil {
		logger.Warnw("staff_last_login_update_failed", "staff_id", staff.ID, "error", err)
	}
	logger.Infow("staff_login", "staff_id", staff.ID, "username", staff.Username)

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Staff:     StaffBrief{ID: staff.ID, Username: staff.Username},
	}, nil
}

// ParseToken validates a staff token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrCredentialsInvalid
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || claims.StaffID == 0 {
		return nil, ErrCredentialsInvalid
	}
	return claims, nil
}

// ChangePassword replaces a staff password after verifying the current one.
func (s *AuthService) ChangePassword(staffID uint, current, next string) error {
	if len(next) < 8 {
		return ErrCredentialsInvalid
	}
	staff, err := s.staffRepo.GetByID(staffID)
	if err != nil {
		return err
	}
	if staff == nil {
		return ErrCredentialsInvalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(current)); err != nil {
		return ErrCredentialsInvalid
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.staffRepo.UpdatePasswordHash(staff.ID, string(hash)); err != nil {
		return err
	}
	logger.Infow("staff_password_changed", "staff_id", staff.ID)
	return nil
}

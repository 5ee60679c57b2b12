package service

import (
	"errors"
	"testing"

	"github.com/sofahub/sofahub-api/internal/config"
	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedStaff(t *testing.T, db *gorm.DB, username, password string, active bool) *models.Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	staff := models.Staff{Username: username, PasswordHash: string(hash), IsActive: active}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	return &staff
}

func newAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(repository.NewStaffRepository(db), &config.JWTConfig{
		SecretKey:   "test-secret-key-0123456789abcdef",
		ExpireHours: 1,
	})
}

func TestLoginIssuesParsableToken(t *testing.T) {
	db := newServiceTestDB(t, "auth_login")
	staff := seedStaff(t, db, "admin", "correct-horse-battery", true)
	svc := newAuthService(db)

	result, err := svc.Login("admin", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Staff.ID != staff.ID || result.Staff.Username != "admin" {
		t.Fatalf("unexpected staff brief: %+v", result.Staff)
	}

	claims, err := svc.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.StaffID != staff.ID || claims.Username != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginWrongPasswordAndUnknownUserSameError(t *testing.T) {
	db := newServiceTestDB(t, "auth_wrong")
	seedStaff(t, db, "admin", "correct-horse-battery", true)
	svc := newAuthService(db)

	_, errWrongPass := svc.Login("admin", "nope")
	_, errNoUser := svc.Login("ghost", "nope")
	if !errors.Is(errWrongPass, ErrCredentialsInvalid) || !errors.Is(errNoUser, ErrCredentialsInvalid) {
		t.Fatalf("expected identical credential errors, got %v / %v", errWrongPass, errNoUser)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	db := newServiceTestDB(t, "auth_disabled")
	seedStaff(t, db, "admin", "correct-horse-battery", false)
	svc := newAuthService(db)

	if _, err := svc.Login("admin", "correct-horse-battery"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected account disabled, got: %v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	db := newServiceTestDB(t, "auth_foreign")
	seedStaff(t, db, "admin", "correct-horse-battery", true)

	issuer := newAuthService(db)
	result, err := issuer.Login("admin", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	verifier := NewAuthService(repository.NewStaffRepository(db), &config.JWTConfig{
		SecretKey:   "a-completely-different-secret-key",
		ExpireHours: 1,
	})
	if _, err := verifier.ParseToken(result.Token); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("expected credentials invalid for foreign secret, got: %v", err)
	}
	if _, err := issuer.ParseToken("not.a.token"); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("expected credentials invalid for garbage token, got: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := newServiceTestDB(t, "auth_change")
	staff := seedStaff(t, db, "admin", "correct-horse-battery", true)
	svc := newAuthService(db)

	if err := svc.ChangePassword(staff.ID, "wrong-current", "new-password-123"); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("expected credentials invalid for wrong current password, got: %v", err)
	}
	if err := svc.ChangePassword(staff.ID, "correct-horse-battery", "short"); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("expected credentials invalid for short new password, got: %v", err)
	}

	if err := svc.ChangePassword(staff.ID, "correct-horse-battery", "new-password-123"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := svc.Login("admin", "new-password-123"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login("admin", "correct-horse-battery"); !errors.Is(err, ErrCredentialsInvalid) {
		t.Fatalf("expected old password rejected, got: %v", err)
	}
}

package service

import (
	"strings"

	"github.com/sofahub/sofahub-api/internal/models"
	"github.com/sofahub/sofahub-api/internal/repository"
)

// RedirectService resolves retired paths and manages the redirect table.
type RedirectService struct {
	redirectRepo repository.RedirectRepository
}

// NewRedirectService creates the redirect service.
func NewRedirectService(redirectRepo repository.RedirectRepository) *RedirectService {
	return &RedirectService{redirectRepo: redirectRepo}
}

func normalizeRedirectPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// Resolve looks up the redirect for a retired path.
func (s *RedirectService) Resolve(path string) (*models.Redirect, error) {
	normalized := normalizeRedirectPath(path)
	if normalized == "" {
		return nil, ErrRedirectNotFound
	}
	redirect, err := s.redirectRepo.GetByOldPath(normalized)
	if err != nil {
		return nil, err
	}
	if redirect == nil {
		return nil, ErrRedirectNotFound
	}
	return redirect, nil
}

// List returns a redirect page for the back office.
func (s *RedirectService) List(page, pageSize int) ([]models.Redirect, int64, error) {
	return s.redirectRepo.List(page, pageSize)
}

// Upsert writes a manual redirect mapping.
func (s *RedirectService) Upsert(oldPath, newPath string, permanent bool) (*models.Redirect, error) {
	oldPath = normalizeRedirectPath(oldPath)
	newPath = normalizeRedirectPath(newPath)
	if oldPath == "" || newPath == "" || oldPath == newPath {
		return nil, ErrRedirectInvalid
	}
	redirect := &models.Redirect{
		OldPath:     oldPath,
		NewPath:     newPath,
		IsPermanent: permanent,
	}
	if err := s.redirectRepo.Upsert(redirect); err != nil {
		return nil, err
	}
	return redirect, nil
}

// Delete removes a redirect mapping.
func (s *RedirectService) Delete(id uint) error {
	return s.redirectRepo.Delete(id)
}

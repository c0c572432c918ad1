package services

import "github.com/tbourn/go-art-booking/internal/domain"

// IsAdministrator is the single capability check guarding every
// administrator-only operation: superuser privilege or the admin role.
func IsAdministrator(u *domain.User) bool {
	return u.IsAdministrator()
}

// requireAdmin maps the gate to service errors: no identity is
// ErrUnauthenticated, a non-administrator is ErrForbidden.
func requireAdmin(u *domain.User) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if !IsAdministrator(u) {
		return ErrForbidden
	}
	return nil
}

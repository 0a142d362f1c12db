package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/interleads/travelagency-system-sub001/models"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmailExists signals the distinct duplicate-email condition so handlers
// can answer 409 instead of a generic failure.
var ErrEmailExists = errors.New("email already registered")

// RegisterUser creates a user with the given role name. The role row is
// ensured first so the FK can be applied safely.
func RegisterUser(email, password, roleName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email required")
	}
	if len(password) < 6 { // basic password policy
		return nil, fmt.Errorf("password too short (min 6)")
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailExists
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role, err := ensureRole(roleName)
	if err != nil {
		return nil, err
	}
	rid := role.ID
	user := models.User{Email: email, HashedPassword: hashedPassword, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return &user, nil
}

// ensureRole finds the role by name, creating it when missing (idempotent).
func ensureRole(name string) (models.Role, error) {
	if name == "" {
		name = models.RoleVendedor
	}
	var role models.Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		role = models.Role{Name: name}
		if err2 := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err2 != nil {
			return models.Role{}, fmt.Errorf("failed to ensure role %s: %v", name, err2)
		}
	}
	return role, nil
}

// Authenticate checks credentials and that the profile is still active.
func Authenticate(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err == nil && !profile.Active {
		return models.User{}, fmt.Errorf("account disabled")
	}
	return user, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}

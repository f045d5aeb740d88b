package models

import (
	"fmt"
	"sort"
	"strings"
)

// Admin represents a console user
type Admin struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Position string   `json:"position"`
	Roles    []string `json:"roles"`
}

// RegisterAdminRequest represents the request body of POST /auth/register
type RegisterAdminRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Position string   `json:"position"`
	Roles    []string `json:"roles"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  *Admin `json:"user,omitempty"`
}

// Page is a dashboard section gated by role.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageInventory Page = "inventory"
	PageSales     Page = "sales"
	PageAdmin     Page = "admin"
)

// RolePages maps every role to the pages it opens. A user's access is
// the union over all of their roles.
var RolePages = map[string][]Page{
	"super_admin": {PageDashboard, PageInventory, PageSales, PageAdmin},
	"admin":       {PageDashboard, PageAdmin},
	"inventory":   {PageDashboard, PageInventory},
	"sales":       {PageDashboard, PageSales},
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	_, ok := RolePages[role]
	return ok
}

// ValidateRoles checks if all provided roles are valid
func ValidateRoles(roles []string) bool {
	for _, role := range roles {
		if !IsValidRole(role) {
			return false
		}
	}
	return len(roles) > 0
}

// AllowedPages returns the union of pages for roles, sorted.
func AllowedPages(roles []string) []Page {
	set := make(map[Page]bool)
	for _, role := range roles {
		for _, p := range RolePages[strings.TrimSpace(role)] {
			set[p] = true
		}
	}
	out := make([]Page, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanAccess reports whether any of roles opens page.
func CanAccess(roles []string, page Page) bool {
	for _, role := range roles {
		for _, p := range RolePages[strings.TrimSpace(role)] {
			if p == page {
				return true
			}
		}
	}
	return false
}

// HasRole checks if the admin has a specific role
func (a *Admin) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetDisplayName returns the admin's display name
func (a *Admin) GetDisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.Email
}

// Validate applies the register form checks.
func (r *RegisterAdminRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Position = strings.TrimSpace(r.Position)
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: name, email and password required", ErrValidation)
	}
	if !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, r.Email)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if !ValidateRoles(r.Roles) {
		return fmt.Errorf("%w: roles must be a non-empty subset of known roles", ErrValidation)
	}
	return nil
}

// Validate checks the login form.
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return fmt.Errorf("%w: email and password required", ErrValidation)
	}
	return nil
}

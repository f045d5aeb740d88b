package models

import (
	"fmt"
	"strings"
)

// Remarks classifies a sales account.
type Remarks string

const (
	RemarksPotential  Remarks = "Potential"
	RemarksActive     Remarks = "Active"
	RemarksOpen       Remarks = "Open"
	RemarksGovernment Remarks = "Government"
	RemarksInactive   Remarks = "Inactive"
)

// AllRemarks lists the remarks values in display order.
var AllRemarks = []Remarks{
	RemarksPotential,
	RemarksActive,
	RemarksOpen,
	RemarksGovernment,
	RemarksInactive,
}

func (r Remarks) Valid() bool {
	for _, v := range AllRemarks {
		if r == v {
			return true
		}
	}
	return false
}

// SalesAccount is one company in the sales database.
type SalesAccount struct {
	ID             string    `json:"id"`
	AccountManager string    `json:"account_manager"`
	CompanyName    string    `json:"company_name"`
	ContactPerson  string    `json:"contact_person"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	Remarks        Remarks   `json:"remarks"`
	CreatedAt      Timestamp `json:"created_at"`
}

func (a SalesAccount) Key() string { return a.ID }

// CreateSalesAccountRequest is the AddCompany form payload. Optional
// fields are always sent, as empty strings when blank.
type CreateSalesAccountRequest struct {
	AccountManager string  `json:"account_manager"`
	CompanyName    string  `json:"company_name"`
	ContactPerson  string  `json:"contact_person"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Address        string  `json:"address"`
	Remarks        Remarks `json:"remarks"`
}

// Validate trims the form, defaults remarks to Potential and enforces the
// required fields.
func (r *CreateSalesAccountRequest) Validate() error {
	r.AccountManager = strings.TrimSpace(r.AccountManager)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.ContactPerson = strings.TrimSpace(r.ContactPerson)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)

	var missing []string
	if r.CompanyName == "" {
		missing = append(missing, "company_name")
	}
	if r.Address == "" {
		missing = append(missing, "address")
	}
	if r.ContactPerson == "" {
		missing = append(missing, "contact_person")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	if r.Remarks == "" {
		r.Remarks = RemarksPotential
	}
	if !r.Remarks.Valid() {
		return fmt.Errorf("%w: unknown remarks %q", ErrValidation, r.Remarks)
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", ErrValidation, r.Email)
	}
	return nil
}

// UpdateSalesAccountRequest patches only the non-nil fields.
type UpdateSalesAccountRequest struct {
	AccountManager *string  `json:"account_manager,omitempty"`
	CompanyName    *string  `json:"company_name,omitempty"`
	ContactPerson  *string  `json:"contact_person,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Address        *string  `json:"address,omitempty"`
	Remarks        *Remarks `json:"remarks,omitempty"`
}

func (u UpdateSalesAccountRequest) Validate() error {
	if u.AccountManager == nil && u.CompanyName == nil && u.ContactPerson == nil &&
		u.Email == nil && u.Phone == nil && u.Address == nil && u.Remarks == nil {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if u.CompanyName != nil && strings.TrimSpace(*u.CompanyName) == "" {
		return fmt.Errorf("%w: company_name cannot be blank", ErrValidation)
	}
	if u.Remarks != nil && !u.Remarks.Valid() {
		return fmt.Errorf("%w: unknown remarks %q", ErrValidation, *u.Remarks)
	}
	return nil
}

// ApplyTo merges the changed fields into acc.
func (u UpdateSalesAccountRequest) ApplyTo(acc *SalesAccount) {
	if u.AccountManager != nil {
		acc.AccountManager = *u.AccountManager
	}
	if u.CompanyName != nil {
		acc.CompanyName = *u.CompanyName
	}
	if u.ContactPerson != nil {
		acc.ContactPerson = *u.ContactPerson
	}
	if u.Email != nil {
		acc.Email = *u.Email
	}
	if u.Phone != nil {
		acc.Phone = *u.Phone
	}
	if u.Address != nil {
		acc.Address = *u.Address
	}
	if u.Remarks != nil {
		acc.Remarks = *u.Remarks
	}
}

// AccountManager is an entry of GET /api/account-managers.
type AccountManager struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Supplier is an entry of GET /api/suppliers.
type Supplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchResult is one hit of GET /api/search.
type SearchResult struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Extra string `json:"extra,omitempty"`
}

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ItemStatus is the fulfillment stage of an inventory item.
type ItemStatus string

const (
	StatusPending     ItemStatus = "Pending"
	StatusForDelivery ItemStatus = "For Delivery"
	StatusDelivered   ItemStatus = "Delivered"
)

// SerialRemarks is the condition of one physical unit.
type SerialRemarks string

const (
	SerialGood      SerialRemarks = "Good"
	SerialDefective SerialRemarks = "Defective"
)

var (
	// ErrInvalidTransition is returned for status changes outside the
	// Pending -> For Delivery -> Delivered flow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation wraps client-side required-field failures.
	ErrValidation = errors.New("validation failed")
)

var statusTransitions = map[ItemStatus][]ItemStatus{
	StatusPending:     {StatusForDelivery, StatusDelivered},
	StatusForDelivery: {StatusDelivered},
}

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case StatusPending, StatusForDelivery, StatusDelivered:
		return true
	}
	return false
}

// CanTransition reports whether an item may move from s to next.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (r SerialRemarks) Valid() bool {
	return r == SerialGood || r == SerialDefective
}

// SerialNumber tracks one physical unit of an item.
type SerialNumber struct {
	SerialNumber string        `json:"serial_number"`
	Remarks      SerialRemarks `json:"remarks"`
	Notes        string        `json:"notes"`
}

// InventoryItem is one entry of the inventory log.
type InventoryItem struct {
	ID            string         `json:"id"`
	ItemName      string         `json:"item_name"`
	Quantity      int            `json:"quantity"`
	Distributor   string         `json:"distributor"`
	ClientName    string         `json:"client_name"`
	EntryDate     Date           `json:"entry_date"`
	ReceivedBy    []string       `json:"received_by"`
	CheckedBy     []string       `json:"checked_by"`
	DeliveredBy   []string       `json:"delivered_by"`
	Delivered     bool           `json:"delivered"`
	DeliveryDate  Date           `json:"delivery_date"`
	ItemStatus    ItemStatus     `json:"item_status"`
	Notes         string         `json:"notes"`
	CreatedBy     string         `json:"created_by,omitempty"`
	CreatedAt     Timestamp      `json:"created_at"`
	SerialNumbers []SerialNumber `json:"serial_numbers"`
}

// Key returns the item identifier.
func (it InventoryItem) Key() string { return it.ID }

// Clone returns a deep copy so optimistic patches never alias feed state.
func (it InventoryItem) Clone() InventoryItem {
	out := it
	out.ReceivedBy = append([]string(nil), it.ReceivedBy...)
	out.CheckedBy = append([]string(nil), it.CheckedBy...)
	out.DeliveredBy = append([]string(nil), it.DeliveredBy...)
	out.SerialNumbers = append([]SerialNumber(nil), it.SerialNumbers...)
	return out
}

// Transition moves the item to next, refusing anything but the forward flow.
// Moving to Delivered must go through MarkDelivered.
func (it *InventoryItem) Transition(next ItemStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if next == StatusDelivered {
		return fmt.Errorf("%w: use MarkDelivered to deliver %s", ErrInvalidTransition, it.ID)
	}
	if !it.ItemStatus.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.ItemStatus, next)
	}
	it.ItemStatus = next
	return nil
}

// MarkDelivered records the delivery and moves the item to Delivered.
func (it *InventoryItem) MarkDelivered(by []string, at Date) error {
	if !it.ItemStatus.CanTransition(StatusDelivered) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.ItemStatus, StatusDelivered)
	}
	names := cleanNames(by)
	if len(names) == 0 {
		return fmt.Errorf("%w: delivered_by is required", ErrValidation)
	}
	if at.IsZero() {
		return fmt.Errorf("%w: delivery_date is required", ErrValidation)
	}
	it.ItemStatus = StatusDelivered
	it.Delivered = true
	it.DeliveredBy = names
	it.DeliveryDate = at
	return nil
}

// CheckInvariants verifies the record-level rules of an item.
func (it InventoryItem) CheckInvariants() error {
	if !it.ItemStatus.Valid() {
		return fmt.Errorf("item %s: unknown status %q", it.ID, it.ItemStatus)
	}
	if it.Delivered {
		if it.DeliveryDate.IsZero() {
			return fmt.Errorf("item %s: delivered without delivery_date", it.ID)
		}
		if len(cleanNames(it.DeliveredBy)) == 0 {
			return fmt.Errorf("item %s: delivered without delivered_by", it.ID)
		}
	}
	seen := make(map[string]bool, len(it.SerialNumbers))
	for _, sn := range it.SerialNumbers {
		if seen[sn.SerialNumber] {
			return fmt.Errorf("item %s: duplicate serial number %q", it.ID, sn.SerialNumber)
		}
		seen[sn.SerialNumber] = true
	}
	return nil
}

// CreateInventoryRequest is the payload of POST /api/inventory.
type CreateInventoryRequest struct {
	ItemName      string         `json:"item_name"`
	Quantity      int            `json:"quantity"`
	Distributor   string         `json:"distributor"`
	ClientName    string         `json:"client_name"`
	EntryDate     Date           `json:"entry_date"`
	ReceivedBy    []string       `json:"received_by"`
	CheckedBy     []string       `json:"checked_by"`
	ItemStatus    ItemStatus     `json:"item_status"`
	Notes         string         `json:"notes"`
	SerialNumbers []SerialNumber `json:"serial_numbers"`
}

// Validate applies the required-field checks that block submission.
func (r *CreateInventoryRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ItemName) == "" {
		missing = append(missing, "item_name")
	}
	if r.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(r.Distributor) == "" {
		missing = append(missing, "distributor")
	}
	if r.EntryDate.IsZero() {
		missing = append(missing, "entry_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	if r.ItemStatus == "" {
		r.ItemStatus = StatusPending
	}
	if r.ItemStatus == StatusDelivered {
		return fmt.Errorf("%w: new items cannot start as %s", ErrValidation, StatusDelivered)
	}
	if !r.ItemStatus.Valid() {
		return fmt.Errorf("%w: unknown item_status %q", ErrValidation, r.ItemStatus)
	}
	if r.ReceivedBy == nil {
		r.ReceivedBy = []string{}
	}
	if r.CheckedBy == nil {
		r.CheckedBy = []string{}
	}
	if r.SerialNumbers == nil {
		r.SerialNumbers = []SerialNumber{}
	}
	seen := make(map[string]bool, len(r.SerialNumbers))
	for i, sn := range r.SerialNumbers {
		id := strings.TrimSpace(sn.SerialNumber)
		if id == "" {
			return fmt.Errorf("%w: serial_numbers[%d] has no id", ErrValidation, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate serial number %q", ErrValidation, id)
		}
		seen[id] = true
		if sn.Remarks == "" {
			r.SerialNumbers[i].Remarks = SerialGood
		} else if !sn.Remarks.Valid() {
			return fmt.Errorf("%w: serial %q has unknown remarks %q", ErrValidation, id, sn.Remarks)
		}
	}
	return nil
}

// UpdateInventoryRequest is a partial update: nil fields are left alone
// and are not sent to the server.
type UpdateInventoryRequest struct {
	ItemName      *string         `json:"item_name,omitempty"`
	Quantity      *int            `json:"quantity,omitempty"`
	Distributor   *string         `json:"distributor,omitempty"`
	ClientName    *string         `json:"client_name,omitempty"`
	EntryDate     *Date           `json:"entry_date,omitempty"`
	ReceivedBy    []string        `json:"received_by,omitempty"`
	CheckedBy     []string        `json:"checked_by,omitempty"`
	DeliveredBy   []string        `json:"delivered_by,omitempty"`
	Delivered     *bool           `json:"delivered,omitempty"`
	DeliveryDate  *Date           `json:"delivery_date,omitempty"`
	ItemStatus    *ItemStatus     `json:"item_status,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	SerialNumbers *[]SerialNumber `json:"serial_numbers,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UpdateInventoryRequest) Empty() bool {
	return u.ItemName == nil && u.Quantity == nil && u.Distributor == nil &&
		u.ClientName == nil && u.EntryDate == nil && u.ReceivedBy == nil &&
		u.CheckedBy == nil && u.DeliveredBy == nil && u.Delivered == nil &&
		u.DeliveryDate == nil && u.ItemStatus == nil && u.Notes == nil &&
		u.SerialNumbers == nil
}

// Validate checks the update against the current record so an invalid
// status change never leaves the client.
func (u UpdateInventoryRequest) Validate(current InventoryItem) error {
	if u.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if u.Quantity != nil && *u.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	next := current.Clone()
	u.ApplyTo(&next)
	if u.ItemStatus != nil && *u.ItemStatus != current.ItemStatus && !current.ItemStatus.CanTransition(*u.ItemStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.ItemStatus, *u.ItemStatus)
	}
	if err := next.CheckInvariants(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// ApplyTo merges the changed fields into item.
func (u UpdateInventoryRequest) ApplyTo(item *InventoryItem) {
	if u.ItemName != nil {
		item.ItemName = *u.ItemName
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.Distributor != nil {
		item.Distributor = *u.Distributor
	}
	if u.ClientName != nil {
		item.ClientName = *u.ClientName
	}
	if u.EntryDate != nil {
		item.EntryDate = *u.EntryDate
	}
	if u.ReceivedBy != nil {
		item.ReceivedBy = append([]string(nil), u.ReceivedBy...)
	}
	if u.CheckedBy != nil {
		item.CheckedBy = append([]string(nil), u.CheckedBy...)
	}
	if u.DeliveredBy != nil {
		item.DeliveredBy = append([]string(nil), u.DeliveredBy...)
	}
	if u.Delivered != nil {
		item.Delivered = *u.Delivered
	}
	if u.DeliveryDate != nil {
		item.DeliveryDate = *u.DeliveryDate
	}
	if u.ItemStatus != nil {
		item.ItemStatus = *u.ItemStatus
	}
	if u.Notes != nil {
		item.Notes = *u.Notes
	}
	if u.SerialNumbers != nil {
		item.SerialNumbers = append([]SerialNumber(nil), (*u.SerialNumbers)...)
	}
}

// DeliveryUpdate builds the partial update for "mark as delivered".
func DeliveryUpdate(by []string, at Date) UpdateInventoryRequest {
	status := StatusDelivered
	delivered := true
	return UpdateInventoryRequest{
		DeliveredBy:  cleanNames(by),
		Delivered:    &delivered,
		DeliveryDate: &at,
		ItemStatus:   &status,
	}
}

// FilterOptions is the payload of GET /api/inventory/filter-options.
type FilterOptions struct {
	Distributors []string `json:"distributors"`
	Clients      []string `json:"clients"`
	Staff        []string `json:"staff"`
	Years        []int    `json:"years"`
}

func cleanNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRoundTripKeepsCalendarDay(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+8", 8*3600),
		time.FixedZone("UTC-11", -11*3600),
		time.FixedZone("UTC+14", 14*3600),
	}
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			local := time.Date(2024, time.May, 1, 0, 30, 0, 0, loc)
			d := NewDate(local)

			b, err := json.Marshal(d)
			require.NoError(t, err)
			assert.Equal(t, `"2024-05-01"`, string(b))

			var back Date
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, d, back)

			// A full timestamp with its own offset keeps the written day.
			var fromStamp Date
			stamp, _ := json.Marshal(local.Format(time.RFC3339))
			require.NoError(t, json.Unmarshal(stamp, &fromStamp))
			assert.Equal(t, 2024, fromStamp.Year)
			assert.Equal(t, time.May, fromStamp.Month)
			assert.Equal(t, 1, fromStamp.Day)
		})
	}
}

func TestDateNullAndEmpty(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	b, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	assert.Error(t, json.Unmarshal([]byte(`"05/01/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestTimestampAcceptsNaiveLayouts(t *testing.T) {
	want := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		`"2024-05-01T10:00:00"`,
		`"2024-05-01 10:00:00"`,
		`"2024-05-01T10:00:00Z"`,
		`"2024-05-01T12:00:00+02:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, want.Equal(ts.Time), raw)
	}

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`""`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
	b, err = json.Marshal(NewTimestamp(want))
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-01T10:00:00Z"`, string(b))
}

func TestRecordsDecodeNaiveCreatedAt(t *testing.T) {
	var items []InventoryItem
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"ITM-1","entry_date":"2024-05-01T10:00:00","created_at":"2024-05-01T10:00:00"},{"id":"ITM-2","created_at":""}]`), &items))
	require.Len(t, items, 2)
	assert.Equal(t, 10, items[0].CreatedAt.Hour())
	assert.True(t, items[1].CreatedAt.IsZero())

	var accounts []SalesAccount
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"1","created_at":"2024-05-01 10:00:00"},{"id":"2","created_at":null}]`), &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, 2024, accounts[0].CreatedAt.Year())
	assert.True(t, accounts[1].CreatedAt.IsZero())
}

func TestItemStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to ItemStatus
		ok       bool
	}{
		{StatusPending, StatusForDelivery, true},
		{StatusPending, StatusDelivered, true},
		{StatusForDelivery, StatusDelivered, true},
		{StatusForDelivery, StatusPending, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusForDelivery, false},
		{StatusPending, StatusPending, false},
		{StatusPending, ItemStatus("Lost"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTransitionNeverLeavesEnum(t *testing.T) {
	it := InventoryItem{ID: "ITM-1", ItemStatus: StatusPending}

	err := it.Transition(ItemStatus("Shipped"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPending, it.ItemStatus)

	err = it.Transition(StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, it.Transition(StatusForDelivery))
	assert.Equal(t, StatusForDelivery, it.ItemStatus)

	err = it.Transition(StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, it.ItemStatus.Valid())
}

func TestMarkDelivered(t *testing.T) {
	day := Date{Year: 2024, Month: time.June, Day: 3}

	it := InventoryItem{ID: "ITM-2", ItemStatus: StatusPending}
	err := it.MarkDelivered([]string{"  "}, day)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, it.Delivered)

	err = it.MarkDelivered([]string{"Ana"}, Date{})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, it.MarkDelivered([]string{"Ana", ""}, day))
	assert.True(t, it.Delivered)
	assert.Equal(t, StatusDelivered, it.ItemStatus)
	assert.Equal(t, []string{"Ana"}, it.DeliveredBy)
	assert.Equal(t, day, it.DeliveryDate)
	assert.NoError(t, it.CheckInvariants())

	err = it.MarkDelivered([]string{"Ben"}, day)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckInvariants(t *testing.T) {
	base := InventoryItem{ID: "ITM-3", ItemStatus: StatusDelivered, Delivered: true,
		DeliveredBy: []string{"Ana"}, DeliveryDate: Date{Year: 2024, Month: 1, Day: 2}}
	assert.NoError(t, base.CheckInvariants())

	noDate := base.Clone()
	noDate.DeliveryDate = Date{}
	assert.Error(t, noDate.CheckInvariants())

	noBy := base.Clone()
	noBy.DeliveredBy = nil
	assert.Error(t, noBy.CheckInvariants())

	badStatus := base.Clone()
	badStatus.ItemStatus = "Returned"
	assert.Error(t, badStatus.CheckInvariants())

	dupSerial := base.Clone()
	dupSerial.SerialNumbers = []SerialNumber{{SerialNumber: "S1"}, {SerialNumber: "S1"}}
	assert.Error(t, dupSerial.CheckInvariants())
}

func TestUpdateInventoryRequest(t *testing.T) {
	current := InventoryItem{ID: "ITM-4", ItemName: "Router", Quantity: 2, ItemStatus: StatusForDelivery}

	assert.ErrorIs(t, UpdateInventoryRequest{}.Validate(current), ErrValidation)

	back := StatusPending
	assert.ErrorIs(t, UpdateInventoryRequest{ItemStatus: &back}.Validate(current), ErrInvalidTransition)

	half := UpdateInventoryRequest{Delivered: ptr(true)}
	assert.ErrorIs(t, half.Validate(current), ErrValidation)

	day := Date{Year: 2024, Month: 7, Day: 9}
	deliver := DeliveryUpdate([]string{"Ana"}, day)
	require.NoError(t, deliver.Validate(current))

	name := "Switch"
	upd := UpdateInventoryRequest{ItemName: &name}
	upd.ApplyTo(&current)
	assert.Equal(t, "Switch", current.ItemName)
	assert.Equal(t, 2, current.Quantity)

	b, err := json.Marshal(upd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"item_name":"Switch"}`, string(b))
}

func TestCreateInventoryRequestValidate(t *testing.T) {
	req := CreateInventoryRequest{}
	err := req.Validate()
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "item_name")

	req = CreateInventoryRequest{
		ItemName:      "Laptop",
		Quantity:      1,
		Distributor:   "Acme Supply",
		EntryDate:     Date{Year: 2024, Month: 3, Day: 1},
		SerialNumbers: []SerialNumber{{SerialNumber: "SN-1"}},
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, StatusPending, req.ItemStatus)
	assert.Equal(t, SerialGood, req.SerialNumbers[0].Remarks)
	assert.NotNil(t, req.ReceivedBy)

	req.SerialNumbers = append(req.SerialNumbers, SerialNumber{SerialNumber: "SN-1"})
	assert.ErrorIs(t, req.Validate(), ErrValidation)
}

func TestAddCompanyPayloadDefaults(t *testing.T) {
	req := CreateSalesAccountRequest{
		CompanyName:   "Acme",
		Address:       "123 Rd",
		ContactPerson: "Jane",
	}
	require.NoError(t, req.Validate())
	assert.Equal(t, RemarksPotential, req.Remarks)

	b, err := json.Marshal(req)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(b, &payload))
	assert.Equal(t, "Potential", payload["remarks"])
	for _, key := range []string{"account_manager", "email", "phone"} {
		v, ok := payload[key]
		require.True(t, ok, "%s must be present", key)
		assert.Equal(t, "", v)
	}
}

func TestCreateSalesAccountRequestRejects(t *testing.T) {
	req := CreateSalesAccountRequest{CompanyName: "Acme"}
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	req = CreateSalesAccountRequest{CompanyName: "Acme", Address: "1 Rd", ContactPerson: "Jo", Remarks: "Hot"}
	assert.ErrorIs(t, req.Validate(), ErrValidation)

	bad := Remarks("Closed")
	assert.Error(t, UpdateSalesAccountRequest{Remarks: &bad}.Validate())
	assert.Error(t, UpdateSalesAccountRequest{}.Validate())
}

func TestAllowedPagesIsRoleUnion(t *testing.T) {
	assert.Equal(t, []Page{PageDashboard, PageInventory}, AllowedPages([]string{"inventory"}))
	assert.Equal(t,
		[]Page{PageAdmin, PageDashboard, PageInventory, PageSales},
		AllowedPages([]string{"inventory", "sales", "admin"}))
	assert.Empty(t, AllowedPages([]string{"unknown"}))

	assert.True(t, CanAccess([]string{"sales", "inventory"}, PageInventory))
	assert.False(t, CanAccess([]string{"sales"}, PageAdmin))
}

func TestRegisterAdminRequestValidate(t *testing.T) {
	req := RegisterAdminRequest{Name: "Ana", Email: "ana@example.com", Password: "longenough", Roles: []string{"sales"}}
	require.NoError(t, req.Validate())

	req.Roles = []string{"root"}
	assert.True(t, errors.Is(req.Validate(), ErrValidation))

	req.Roles = []string{"sales"}
	req.Password = "short"
	assert.ErrorIs(t, req.Validate(), ErrValidation)
}

func ptr[T any](v T) *T { return &v }

package api

import (
	"context"
	"net/http"
	"net/url"

	"era-admin-console/internal/models"
)

// ListInventory fetches the whole inventory log.
func (c *Client) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	req, err := c.request(ctx, "/api/inventory/all")
	if err != nil {
		return nil, err
	}
	var items []models.InventoryItem
	if err := c.do(req.SetResult(&items), http.MethodGet, "/api/inventory/all", "list inventory"); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.InventoryItem{}
	}
	return items, nil
}

// CreateInventory submits a new item. The caller validates first.
func (c *Client) CreateInventory(ctx context.Context, in models.CreateInventoryRequest) (*models.InventoryItem, error) {
	req, err := c.request(ctx, "/api/inventory")
	if err != nil {
		return nil, err
	}
	out := new(models.InventoryItem)
	if err := c.do(req.SetBody(in).SetResult(out), http.MethodPost, "/api/inventory", "create inventory item"); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInventory sends a partial update carrying only the changed fields.
func (c *Client) UpdateInventory(ctx context.Context, id string, in models.UpdateInventoryRequest) error {
	req, err := c.request(ctx, "/api/inventory/{id}")
	if err != nil {
		return err
	}
	return c.do(req.SetBody(in), http.MethodPut, "/api/inventory/"+url.PathEscape(id), "update inventory item")
}

func (c *Client) DeleteInventory(ctx context.Context, id string) error {
	req, err := c.request(ctx, "/api/inventory/{id}")
	if err != nil {
		return err
	}
	return c.do(req, http.MethodDelete, "/api/inventory/"+url.PathEscape(id), "delete inventory item")
}

func (c *Client) InventoryFilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	req, err := c.request(ctx, "/api/inventory/filter-options")
	if err != nil {
		return nil, err
	}
	out := new(models.FilterOptions)
	if err := c.do(req.SetResult(out), http.MethodGet, "/api/inventory/filter-options", "inventory filter options"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Suppliers(ctx context.Context) ([]models.Supplier, error) {
	req, err := c.request(ctx, "/api/suppliers")
	if err != nil {
		return nil, err
	}
	out := []models.Supplier{}
	if err := c.do(req.SetResult(&out), http.MethodGet, "/api/suppliers", "list suppliers"); err != nil {
		return nil, err
	}
	return out, nil
}

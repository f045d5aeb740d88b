package api

import (
	"context"
	"net/http"
	"net/url"

	"era-admin-console/internal/models"
)

func (c *Client) ListSalesAccounts(ctx context.Context) ([]models.SalesAccount, error) {
	req, err := c.request(ctx, "/api/sales-accounts")
	if err != nil {
		return nil, err
	}
	var accounts []models.SalesAccount
	if err := c.do(req.SetResult(&accounts), http.MethodGet, "/api/sales-accounts", "list sales accounts"); err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.SalesAccount{}
	}
	return accounts, nil
}

// CreateSalesAccount posts the AddCompany form. A duplicate company name
// comes back as an *Error matching ErrConflict with the server's message.
func (c *Client) CreateSalesAccount(ctx context.Context, in models.CreateSalesAccountRequest) (*models.SalesAccount, error) {
	req, err := c.request(ctx, "/api/sales-accounts")
	if err != nil {
		return nil, err
	}
	out := new(models.SalesAccount)
	if err := c.do(req.SetBody(in).SetResult(out), http.MethodPost, "/api/sales-accounts", "create sales account"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateSalesAccount(ctx context.Context, id string, in models.UpdateSalesAccountRequest) error {
	req, err := c.request(ctx, "/api/sales-accounts/{id}")
	if err != nil {
		return err
	}
	return c.do(req.SetBody(in), http.MethodPut, "/api/sales-accounts/"+url.PathEscape(id), "update sales account")
}

func (c *Client) DeleteSalesAccount(ctx context.Context, id string) error {
	req, err := c.request(ctx, "/api/sales-accounts/{id}")
	if err != nil {
		return err
	}
	return c.do(req, http.MethodDelete, "/api/sales-accounts/"+url.PathEscape(id), "delete sales account")
}

func (c *Client) AccountManagers(ctx context.Context) ([]models.AccountManager, error) {
	req, err := c.request(ctx, "/api/account-managers")
	if err != nil {
		return nil, err
	}
	out := []models.AccountManager{}
	if err := c.do(req.SetResult(&out), http.MethodGet, "/api/account-managers", "list account managers"); err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs the global search box query.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	req, err := c.request(ctx, "/api/search")
	if err != nil {
		return nil, err
	}
	out := []models.SearchResult{}
	req.SetQueryParam("query", query).SetResult(&out)
	if err := c.do(req, http.MethodGet, "/api/search", "search"); err != nil {
		return nil, err
	}
	return out, nil
}

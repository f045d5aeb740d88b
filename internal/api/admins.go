package api

import (
	"context"
	"net/http"
	"net/url"

	"era-admin-console/internal/models"
)

// Login exchanges credentials for a JWT. It is the only call made without
// a bearer token.
func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error) {
	out := new(models.LoginResponse)
	req := c.anonymous(ctx, "/auth/login").SetBody(in).SetResult(out)
	if err := c.do(req, http.MethodPost, "/auth/login", "login"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegisterAdmin(ctx context.Context, in models.RegisterAdminRequest) (*models.Admin, error) {
	req, err := c.request(ctx, "/auth/register")
	if err != nil {
		return nil, err
	}
	out := new(models.Admin)
	if err := c.do(req.SetBody(in).SetResult(out), http.MethodPost, "/auth/register", "register admin"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	req, err := c.request(ctx, "/admins")
	if err != nil {
		return nil, err
	}
	out := []models.Admin{}
	if err := c.do(req.SetResult(&out), http.MethodGet, "/admins", "list admins"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	req, err := c.request(ctx, "/admins/{id}")
	if err != nil {
		return err
	}
	return c.do(req, http.MethodDelete, "/admins/"+url.PathEscape(id), "delete admin")
}

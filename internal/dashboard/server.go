// Package dashboard serves the console pages as a local JSON surface on
// top of the backend client and the live feeds.
package dashboard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"era-admin-console/internal/auth"
	"era-admin-console/internal/live"
	"era-admin-console/internal/metrics"
	"era-admin-console/internal/models"
)

// Backend is the subset of the API client the pages call directly. The
// list endpoints are reached through the feeds.
type Backend interface {
	CreateInventory(ctx context.Context, in models.CreateInventoryRequest) (*models.InventoryItem, error)
	UpdateInventory(ctx context.Context, id string, in models.UpdateInventoryRequest) error
	DeleteInventory(ctx context.Context, id string) error
	InventoryFilterOptions(ctx context.Context) (*models.FilterOptions, error)
	Suppliers(ctx context.Context) ([]models.Supplier, error)

	CreateSalesAccount(ctx context.Context, in models.CreateSalesAccountRequest) (*models.SalesAccount, error)
	UpdateSalesAccount(ctx context.Context, id string, in models.UpdateSalesAccountRequest) error
	DeleteSalesAccount(ctx context.Context, id string) error
	AccountManagers(ctx context.Context) ([]models.AccountManager, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)

	Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error)
	RegisterAdmin(ctx context.Context, in models.RegisterAdminRequest) (*models.Admin, error)
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	DeleteAdmin(ctx context.Context, id string) error
}

type (
	InventoryFeed = live.Feed[models.InventoryItem]
	SalesFeed     = live.Feed[models.SalesAccount]
)

// Options wires a Server.
type Options struct {
	Session *auth.Session
	Backend Backend

	// NewInventoryFeed and NewSalesFeed build an unstarted feed each time
	// a session is mounted.
	NewInventoryFeed func() *InventoryFeed
	NewSalesFeed     func() *SalesFeed

	// Metrics is optional; when set, requests are measured and /metrics
	// is served.
	Metrics *metrics.Metrics

	// ImportMapping is a YAML column mapping for uploads; empty uses the
	// built-in one.
	ImportMapping string

	Logger *zap.Logger
	Now    func() time.Time
}

type Server struct {
	Router *chi.Mux

	session *auth.Session
	backend Backend
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
	imports *ImportsHandler

	mu        sync.Mutex
	inventory *InventoryFeed
	sales     *SalesFeed
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		Router:  chi.NewRouter(),
		session: opts.Session,
		backend: opts.Backend,
		opts:    opts,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	s.imports = NewImportsHandler(opts.Backend, opts.Logger)
	s.imports.DefaultMap = opts.ImportMapping

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(requestLogger(s.logger))
	if opts.Metrics != nil {
		s.Router.Use(opts.Metrics.Middleware())
		s.Router.Get("/metrics", opts.Metrics.Handler().ServeHTTP)
	}

	// Public routes
	s.Router.Get("/health", s.health)
	s.Router.Post("/login", s.login)
	s.Router.Post("/logout", s.logout)

	s.Router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(s.session))
		s.mountProtectedRoutes(r)
	})

	return s
}

// mountProtectedRoutes mounts the page routes, each gated by its page.
func (s *Server) mountProtectedRoutes(r chi.Router) {
	r.Get("/session", s.getSession)
	r.Post("/overlay/place", s.placeOverlay)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage(models.PageDashboard))
		r.Get("/search", s.search)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage(models.PageInventory))
		r.Get("/inventory", s.listInventory)
		r.Get("/inventory/summary", s.inventorySummary)
		r.Get("/inventory/filter-options", s.inventoryFilterOptions)
		r.Post("/inventory", s.createInventory)
		r.Post("/inventory/reload", s.reloadInventory)
		r.Post("/inventory/import", s.imports.UploadExcel)
		r.Put("/inventory/{id}", s.updateInventory)
		r.Post("/inventory/{id}/deliver", s.deliverInventory)
		r.Delete("/inventory/{id}", s.deleteInventory)
		r.Get("/suppliers", s.listSuppliers)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage(models.PageSales))
		r.Get("/sales", s.listSales)
		r.Post("/sales", s.createSales)
		r.Post("/sales/reload", s.reloadSales)
		r.Put("/sales/{id}", s.updateSales)
		r.Delete("/sales/{id}", s.deleteSales)
		r.Get("/account-managers", s.listAccountManagers)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePage(models.PageAdmin))
		r.Get("/admins", s.listAdmins)
		r.Post("/admins", s.registerAdmin)
		r.Delete("/admins/{id}", s.deleteAdmin)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Mount starts the feeds the current session's roles can see, replacing
// any previous ones. Feeds outlive the request that mounts them.
func (s *Server) Mount() {
	roles := s.session.Roles()

	var inv *InventoryFeed
	var sales *SalesFeed
	if s.opts.NewInventoryFeed != nil && models.CanAccess(roles, models.PageInventory) {
		inv = s.opts.NewInventoryFeed()
	}
	if s.opts.NewSalesFeed != nil && models.CanAccess(roles, models.PageSales) {
		sales = s.opts.NewSalesFeed()
	}

	s.swapFeeds(inv, sales)

	if inv != nil {
		if err := inv.Start(context.Background()); err != nil {
			s.logger.Warn("inventory feed not started", zap.Error(err))
		}
	}
	if sales != nil {
		if err := sales.Start(context.Background()); err != nil {
			s.logger.Warn("sales feed not started", zap.Error(err))
		}
	}
}

// Unmount closes the feeds.
func (s *Server) Unmount() {
	s.swapFeeds(nil, nil)
}

func (s *Server) swapFeeds(inv *InventoryFeed, sales *SalesFeed) {
	s.mu.Lock()
	oldInv, oldSales := s.inventory, s.sales
	s.inventory, s.sales = inv, sales
	s.mu.Unlock()

	if oldInv != nil {
		_ = oldInv.Close()
	}
	if oldSales != nil {
		_ = oldSales.Close()
	}
}

func (s *Server) inventoryFeed() *InventoryFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventory
}

func (s *Server) salesFeed() *SalesFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sales
}

// Close properly shuts down the server's feeds
func (s *Server) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Unmount()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	categoryrepo "shopverse/internal/repository/category"
	productrepo "shopverse/internal/repository/product"
	userrepo "shopverse/internal/repository/user"
	authsvc "shopverse/internal/service/auth"
)

const (
	AdminEmail    = "admin@shopverse.test"
	CustomerEmail = "customer@shopverse.test"
)

// Options controls the demo accounts.
type Options struct {
	AdminPassword    string
	CustomerPassword string
	BcryptCost       int
	Logger           *log.Logger
}

type userSeed struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      domain.Role
}

type categorySeed struct {
	Name        string
	Description string
}

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       string
	Stock       int
	Category    string
	Featured    bool
}

var categories = []categorySeed{
	{Name: "Electronics", Description: "Gadgets, audio and accessories"},
	{Name: "Home & Garden", Description: "Everything for the house and the yard"},
	{Name: "Books", Description: "Paperbacks, hardcovers and guides"},
}

var products = []productSeed{
	{SKU: "SKU-DEMO-HEADPHONES", Name: "Wireless Headphones", Description: "Over-ear headphones with noise cancelling", Price: "129.99", Stock: 25, Category: "Electronics", Featured: true},
	{SKU: "SKU-DEMO-CHARGER", Name: "USB-C Charger", Description: "65W fast charger for laptops and phones", Price: "39.00", Stock: 60, Category: "Electronics"},
	{SKU: "SKU-DEMO-LAMP", Name: "Desk Lamp", Description: "Dimmable LED lamp with warm light", Price: "24.50", Stock: 40, Category: "Home & Garden", Featured: true},
	{SKU: "SKU-DEMO-PLANTER", Name: "Ceramic Planter", Description: "Glazed planter for small indoor plants", Price: "18.00", Stock: 15, Category: "Home & Garden"},
	{SKU: "SKU-DEMO-GO-BOOK", Name: "Learning Go", Description: "An idiomatic guide to the Go language", Price: "44.99", Stock: 10, Category: "Books"},
}

// Apply inserts demo data for manual testing. It is idempotent: accounts are
// created only when missing, categories upsert by name and products by SKU.
func Apply(ctx context.Context, pool *pgxpool.Pool, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = "admin123"
	}
	if opts.CustomerPassword == "" {
		opts.CustomerPassword = "customer123"
	}
	hasher := authsvc.NewHasher(opts.BcryptCost)

	users := userrepo.NewPostgres(pool, logger)
	seeds := []userSeed{
		{FirstName: "Admin", LastName: "User", Email: AdminEmail, Password: opts.AdminPassword, Role: domain.RoleAdmin},
		{FirstName: "Demo", LastName: "Customer", Email: CustomerEmail, Password: opts.CustomerPassword, Role: domain.RoleCustomer},
	}
	for _, u := range seeds {
		if err := ensureUser(ctx, users, hasher, u); err != nil {
			return fmt.Errorf("ensure user %s: %w", u.Email, err)
		}
	}

	categoryRepo := categoryrepo.NewPostgres(pool, logger)
	categoryIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		saved, err := categoryRepo.Upsert(ctx, domain.Category{
			Name:        c.Name,
			Slug:        domain.Slugify(c.Name),
			Description: c.Description,
			IsActive:    true,
		})
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Name, err)
		}
		categoryIDs[c.Name] = saved.ID
	}

	productRepo := productrepo.NewPostgres(pool, logger)
	for _, p := range products {
		categoryID, ok := categoryIDs[p.Category]
		if !ok {
			return fmt.Errorf("product %s: unknown category %s", p.SKU, p.Category)
		}
		if _, err := productRepo.UpsertBySKU(ctx, domain.Product{
			Name:        p.Name,
			Slug:        domain.Slugify(p.Name),
			Description: p.Description,
			Price:       decimal.RequireFromString(p.Price),
			SKU:         p.SKU,
			Stock:       p.Stock,
			CategoryID:  categoryID,
			IsActive:    true,
			IsFeatured:  p.Featured,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	logger.Printf("seeded users=%d categories=%d products=%d", len(seeds), len(categories), len(products))
	return nil
}

func ensureUser(ctx context.Context, repo userrepo.Repository, hasher authsvc.Hasher, u userSeed) error {
	_, err := repo.GetByEmail(ctx, u.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := hasher.Hash(u.Password)
	if err != nil {
		return err
	}
	_, err = repo.Create(ctx, domain.User{
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: hash,
		Role:         u.Role,
		IsActive:     true,
	})
	return err
}

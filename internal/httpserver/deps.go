package httpserver

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"shopverse/internal/domain"
	authsvc "shopverse/internal/service/auth"
	cartsvc "shopverse/internal/service/cart"
	categorysvc "shopverse/internal/service/category"
	engagementsvc "shopverse/internal/service/engagement"
	ordersvc "shopverse/internal/service/order"
	productsvc "shopverse/internal/service/product"
	usersvc "shopverse/internal/service/user"
)

// Deps holds the services and settings the router needs.
type Deps struct {
	AuthSvc       AuthService
	UserSvc       UserService
	CategorySvc   CategoryService
	ProductSvc    ProductService
	CartSvc       CartService
	OrderSvc      OrderService
	EngagementSvc EngagementService

	// Redis backs the rate limiter; nil disables it.
	Redis           *redis.Client
	RateLimitWindow time.Duration
	RateLimitMax    int

	CORSOrigin  string
	Environment string
}

func (d Deps) production() bool {
	return d.Environment == "production"
}

type AuthService interface {
	Register(ctx context.Context, in authsvc.RegisterInput) (*authsvc.Session, error)
	Login(ctx context.Context, in authsvc.LoginInput) (*authsvc.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type UserService interface {
	List(ctx context.Context, actor domain.User, in usersvc.ListInput) ([]domain.User, domain.Pagination, error)
	Get(ctx context.Context, actor domain.User, id int64) (*domain.User, error)
	Update(ctx context.Context, actor domain.User, id int64, in usersvc.UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.User, id int64) error
}

type CategoryService interface {
	List(ctx context.Context, in categorysvc.ListInput) ([]domain.Category, domain.Pagination, error)
	Get(ctx context.Context, id int64, page, limit int) (*categorysvc.Detail, error)
	Create(ctx context.Context, in categorysvc.CreateInput) (*domain.Category, error)
	Update(ctx context.Context, id int64, in categorysvc.UpdateInput) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}

type ProductService interface {
	List(ctx context.Context, in productsvc.ListInput) ([]domain.Product, domain.Pagination, error)
	Get(ctx context.Context, id int64, includeInactive bool) (*productsvc.Detail, error)
	Create(ctx context.Context, in productsvc.CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in productsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type CartService interface {
	Get(ctx context.Context, userID int64) (domain.CartSummary, error)
	AddItem(ctx context.Context, userID int64, in cartsvc.AddItemInput) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID int64, in cartsvc.UpdateItemInput) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type OrderService interface {
	Checkout(ctx context.Context, userID int64, in ordersvc.CheckoutInput) (*domain.Order, error)
	Get(ctx context.Context, actor domain.User, id int64) (*domain.Order, error)
	List(ctx context.Context, actor domain.User, in ordersvc.ListInput) ([]domain.Order, domain.Pagination, error)
	UpdateStatus(ctx context.Context, actor domain.User, id int64, in ordersvc.UpdateStatusInput) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, actor domain.User, id int64, in ordersvc.UpdatePaymentStatusInput) (*domain.Order, error)
}

type EngagementService interface {
	Like(ctx context.Context, userID, productID int64) (*domain.Like, error)
	Unlike(ctx context.Context, userID, productID int64) error
	IsLiked(ctx context.Context, userID, productID int64) (bool, error)
	Likes(ctx context.Context, userID int64, page, limit int) ([]domain.Like, domain.Pagination, error)
	CreateComment(ctx context.Context, userID, productID int64, in engagementsvc.CreateCommentInput) (*domain.Comment, error)
	UpdateComment(ctx context.Context, actor domain.User, id int64, in engagementsvc.UpdateCommentInput) (*domain.Comment, error)
	DeleteComment(ctx context.Context, actor domain.User, id int64) error
	ProductComments(ctx context.Context, productID int64, page, limit int) ([]domain.Comment, domain.Pagination, error)
	UserComments(ctx context.Context, userID int64, page, limit int) ([]domain.Comment, domain.Pagination, error)
}

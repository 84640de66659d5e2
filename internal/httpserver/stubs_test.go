package httpserver

import (
	"context"
	"io"
	"log"

	"shopverse/internal/domain"
	authsvc "shopverse/internal/service/auth"
	cartsvc "shopverse/internal/service/cart"
	categorysvc "shopverse/internal/service/category"
	engagementsvc "shopverse/internal/service/engagement"
	ordersvc "shopverse/internal/service/order"
	productsvc "shopverse/internal/service/product"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

var (
	testAdmin    = domain.User{ID: 1, Email: "admin@shopverse.test", Role: domain.RoleAdmin, IsActive: true}
	testCustomer = domain.User{ID: 2, Email: "jane@shopverse.test", Role: domain.RoleCustomer, IsActive: true}
)

// stubAuth resolves tokens by exact match.
type stubAuth struct {
	tokens   map[string]domain.User
	loginErr error
}

func newStubAuth() *stubAuth {
	return &stubAuth{tokens: map[string]domain.User{
		"admin-token":    testAdmin,
		"customer-token": testCustomer,
	}}
}

func (s *stubAuth) Register(_ context.Context, in authsvc.RegisterInput) (*authsvc.Session, error) {
	return &authsvc.Session{User: &domain.User{ID: 3, Email: in.Email, Role: domain.RoleCustomer}, Token: "new-token"}, nil
}

func (s *stubAuth) Login(_ context.Context, in authsvc.LoginInput) (*authsvc.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &authsvc.Session{User: &testCustomer, Token: "customer-token"}, nil
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Wrapf(domain.ErrUnauthorized, "Access denied. No token provided.")
	}
	u, ok := s.tokens[token]
	if !ok {
		return nil, domain.Wrapf(domain.ErrUnauthorized, "Invalid token")
	}
	return &u, nil
}

func (s *stubAuth) Profile(_ context.Context, userID int64) (*domain.User, error) {
	for _, u := range s.tokens {
		if u.ID == userID {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCategories struct {
	deleteErr error
}

func (s *stubCategories) List(_ context.Context, in categorysvc.ListInput) ([]domain.Category, domain.Pagination, error) {
	return nil, domain.NewPage(in.Page, in.Limit, 20).Paginate(0), nil
}

func (s *stubCategories) Get(_ context.Context, id int64, _, _ int) (*categorysvc.Detail, error) {
	return &categorysvc.Detail{Category: &domain.Category{ID: id, Name: "Books"}}, nil
}

func (s *stubCategories) Create(_ context.Context, in categorysvc.CreateInput) (*domain.Category, error) {
	return &domain.Category{ID: 10, Name: in.Name}, nil
}

func (s *stubCategories) Update(_ context.Context, id int64, _ categorysvc.UpdateInput) (*domain.Category, error) {
	return &domain.Category{ID: id}, nil
}

func (s *stubCategories) Delete(_ context.Context, _ int64) error {
	return s.deleteErr
}

type stubProducts struct {
	products        []domain.Product
	lastList        productsvc.ListInput
	includeInactive bool
	getErr          error
}

func (s *stubProducts) List(_ context.Context, in productsvc.ListInput) ([]domain.Product, domain.Pagination, error) {
	s.lastList = in
	return s.products, domain.NewPage(in.Page, in.Limit, 12).Paginate(len(s.products)), nil
}

func (s *stubProducts) Get(_ context.Context, id int64, includeInactive bool) (*productsvc.Detail, error) {
	s.includeInactive = includeInactive
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &productsvc.Detail{Product: domain.Product{ID: id, Name: "Lamp"}}, nil
}

func (s *stubProducts) Create(_ context.Context, in productsvc.CreateInput) (*domain.Product, error) {
	return &domain.Product{ID: 100, Name: in.Name}, nil
}

func (s *stubProducts) Update(_ context.Context, id int64, _ productsvc.UpdateInput) (*domain.Product, error) {
	return &domain.Product{ID: id}, nil
}

func (s *stubProducts) Delete(_ context.Context, _ int64) error {
	return nil
}

type stubCart struct {
	summary domain.CartSummary
	addErr  error
	added   cartsvc.AddItemInput
}

func (s *stubCart) Get(_ context.Context, _ int64) (domain.CartSummary, error) {
	return s.summary, nil
}

func (s *stubCart) AddItem(_ context.Context, _ int64, in cartsvc.AddItemInput) (*domain.CartItem, error) {
	s.added = in
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.CartItem{ID: 1, ProductID: in.ProductID, Quantity: 1}, nil
}

func (s *stubCart) UpdateItem(_ context.Context, _, itemID int64, in cartsvc.UpdateItemInput) (*domain.CartItem, error) {
	return &domain.CartItem{ID: itemID, Quantity: in.Quantity}, nil
}

func (s *stubCart) RemoveItem(_ context.Context, _, _ int64) error {
	return nil
}

func (s *stubCart) Clear(_ context.Context, _ int64) error {
	return nil
}

type stubOrders struct {
	checkoutErr error
	listActor   domain.User
}

func (s *stubOrders) Checkout(_ context.Context, userID int64, _ ordersvc.CheckoutInput) (*domain.Order, error) {
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return &domain.Order{ID: 1, UserID: userID, OrderNumber: "ORD-1-ABCDEFGHI"}, nil
}

func (s *stubOrders) Get(_ context.Context, actor domain.User, id int64) (*domain.Order, error) {
	if !actor.CanAccess(testCustomer.ID) {
		return nil, domain.Wrapf(domain.ErrForbidden, "Access denied")
	}
	return &domain.Order{ID: id, UserID: testCustomer.ID}, nil
}

func (s *stubOrders) List(_ context.Context, actor domain.User, in ordersvc.ListInput) ([]domain.Order, domain.Pagination, error) {
	s.listActor = actor
	return nil, domain.NewPage(in.Page, in.Limit, 10).Paginate(0), nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ domain.User, id int64, in ordersvc.UpdateStatusInput) (*domain.Order, error) {
	return &domain.Order{ID: id, Status: domain.OrderStatus(in.Status)}, nil
}

func (s *stubOrders) UpdatePaymentStatus(_ context.Context, _ domain.User, id int64, in ordersvc.UpdatePaymentStatusInput) (*domain.Order, error) {
	return &domain.Order{ID: id, PaymentStatus: domain.PaymentStatus(in.PaymentStatus)}, nil
}

type stubEngagement struct {
	likeErr error
	liked   bool
}

func (s *stubEngagement) Like(_ context.Context, userID, productID int64) (*domain.Like, error) {
	if s.likeErr != nil {
		return nil, s.likeErr
	}
	return &domain.Like{ID: 1, UserID: userID, ProductID: productID}, nil
}

func (s *stubEngagement) Unlike(_ context.Context, _, _ int64) error {
	return nil
}

func (s *stubEngagement) IsLiked(_ context.Context, _, _ int64) (bool, error) {
	return s.liked, nil
}

func (s *stubEngagement) Likes(_ context.Context, _ int64, page, limit int) ([]domain.Like, domain.Pagination, error) {
	return nil, domain.NewPage(page, limit, 12).Paginate(0), nil
}

func (s *stubEngagement) CreateComment(_ context.Context, userID, productID int64, in engagementsvc.CreateCommentInput) (*domain.Comment, error) {
	return &domain.Comment{ID: 1, UserID: userID, ProductID: productID, Content: in.Content, Rating: in.Rating}, nil
}

func (s *stubEngagement) UpdateComment(_ context.Context, actor domain.User, id int64, _ engagementsvc.UpdateCommentInput) (*domain.Comment, error) {
	return &domain.Comment{ID: id, UserID: actor.ID}, nil
}

func (s *stubEngagement) DeleteComment(_ context.Context, _ domain.User, _ int64) error {
	return nil
}

func (s *stubEngagement) ProductComments(_ context.Context, _ int64, page, limit int) ([]domain.Comment, domain.Pagination, error) {
	return nil, domain.NewPage(page, limit, 10).Paginate(0), nil
}

func (s *stubEngagement) UserComments(_ context.Context, _ int64, page, limit int) ([]domain.Comment, domain.Pagination, error) {
	return nil, domain.NewPage(page, limit, 10).Paginate(0), nil
}

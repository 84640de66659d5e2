// Package engagement implements likes and product comments. Comment
// mutations recompute the product's rating aggregate on a best-effort basis.
package engagement

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
	"shopverse/internal/validation"
)

const (
	defaultLikesLimit    = 12
	defaultCommentsLimit = 10
)

type productStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	UpdateRating(ctx context.Context, id int64, average decimal.Decimal, count int) error
}

type likeRepo interface {
	Create(ctx context.Context, userID, productID int64) (*domain.Like, error)
	Delete(ctx context.Context, userID, productID int64) error
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Like, int, error)
}

type commentRepo interface {
	Create(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	Update(ctx context.Context, c domain.Comment) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
	ListByProduct(ctx context.Context, productID int64, page domain.Page) ([]domain.Comment, int, error)
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Comment, int, error)
	RatingStats(ctx context.Context, productID int64) (decimal.Decimal, int, error)
}

type productInvalidator interface {
	Invalidate(ctx context.Context, ids ...int64)
}

type Service struct {
	products productStore
	likes    likeRepo
	comments commentRepo
	cache    productInvalidator
	logger   *log.Logger
	now      func() time.Time
}

func New(products productStore, likes likeRepo, comments commentRepo, cache productInvalidator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{products: products, likes: likes, comments: comments, cache: cache, logger: logger, now: time.Now}
}

func (s *Service) Like(ctx context.Context, userID, productID int64) (*domain.Like, error) {
	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	like, err := s.likes.Create(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	ref := p.Ref()
	like.Product = &ref
	return like, nil
}

func (s *Service) Unlike(ctx context.Context, userID, productID int64) error {
	return s.likes.Delete(ctx, userID, productID)
}

func (s *Service) IsLiked(ctx context.Context, userID, productID int64) (bool, error) {
	return s.likes.Exists(ctx, userID, productID)
}

func (s *Service) Likes(ctx context.Context, userID int64, page, limit int) ([]domain.Like, domain.Pagination, error) {
	p := domain.NewPage(page, limit, defaultLikesLimit)
	likes, total, err := s.likes.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return likes, p.Paginate(total), nil
}

type CreateCommentInput struct {
	Content string `json:"content" validate:"trimmed_len=10-1000"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
}

func (s *Service) CreateComment(ctx context.Context, userID, productID int64, in CreateCommentInput) (*domain.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return nil, err
	}
	c, err := s.comments.Create(ctx, domain.Comment{
		UserID:     userID,
		ProductID:  productID,
		Content:    strings.TrimSpace(in.Content),
		Rating:     in.Rating,
		IsApproved: true,
	})
	if err != nil {
		return nil, err
	}
	s.recomputeRating(ctx, productID)
	return c, nil
}

// UpdateCommentInput is a partial update. An omitted rating keeps the
// current one and skips the aggregate recomputation.
type UpdateCommentInput struct {
	Content *string `json:"content" validate:"omitempty,trimmed_len=10-1000"`
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

// UpdateComment is restricted to the author.
func (s *Service) UpdateComment(ctx context.Context, actor domain.User, id int64, in UpdateCommentInput) (*domain.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.comment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.ID {
		return nil, domain.Wrapf(domain.ErrForbidden, "You can only edit your own comments")
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content != c.Content {
			c.Content = content
			if !c.IsEdited {
				now := s.now().UTC()
				c.IsEdited = true
				c.EditedAt = &now
			}
		}
	}
	if in.Rating != nil {
		c.Rating = *in.Rating
	}
	updated, err := s.comments.Update(ctx, *c)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		s.recomputeRating(ctx, c.ProductID)
	}
	return updated, nil
}

// DeleteComment is allowed for the author and for admins.
func (s *Service) DeleteComment(ctx context.Context, actor domain.User, id int64) error {
	c, err := s.comment(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(c.UserID) {
		return domain.Wrapf(domain.ErrForbidden, "You can only delete your own comments")
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.recomputeRating(ctx, c.ProductID)
	return nil
}

// ProductComments lists approved comments of an existing product.
func (s *Service) ProductComments(ctx context.Context, productID int64, page, limit int) ([]domain.Comment, domain.Pagination, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Pagination{}, domain.Wrapf(domain.ErrNotFound, "Product not found")
		}
		return nil, domain.Pagination{}, err
	}
	p := domain.NewPage(page, limit, defaultCommentsLimit)
	comments, total, err := s.comments.ListByProduct(ctx, productID, p)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return comments, p.Paginate(total), nil
}

// UserComments lists every comment the user wrote, approved or not.
func (s *Service) UserComments(ctx context.Context, userID int64, page, limit int) ([]domain.Comment, domain.Pagination, error) {
	p := domain.NewPage(page, limit, defaultCommentsLimit)
	comments, total, err := s.comments.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, domain.Pagination{}, err
	}
	return comments, p.Paginate(total), nil
}

// recomputeRating refreshes averageRating and reviewCount. Failures are
// logged and never reach the caller.
func (s *Service) recomputeRating(ctx context.Context, productID int64) {
	avg, count, err := s.comments.RatingStats(ctx, productID)
	if err != nil {
		s.logger.Printf("engagement: rating stats product_id=%d error=%v", productID, err)
		return
	}
	if err := s.products.UpdateRating(ctx, productID, avg, count); err != nil {
		s.logger.Printf("engagement: update rating product_id=%d error=%v", productID, err)
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
}

func (s *Service) activeProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Product not found")
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.Wrapf(domain.ErrNotFound, "Product not found")
	}
	return p, nil
}

func (s *Service) comment(ctx context.Context, id int64) (*domain.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Wrapf(domain.ErrNotFound, "Comment not found")
		}
		return nil, err
	}
	return c, nil
}

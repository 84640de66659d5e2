package engagement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"shopverse/internal/domain"
)

type memoryProducts struct {
	byID       map[int64]domain.Product
	ratingErr  error
	ratingHits int
}

func (m *memoryProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *memoryProducts) UpdateRating(_ context.Context, id int64, average decimal.Decimal, count int) error {
	m.ratingHits++
	if m.ratingErr != nil {
		return m.ratingErr
	}
	p := m.byID[id]
	p.AverageRating = average
	p.ReviewCount = count
	m.byID[id] = p
	return nil
}

type likeKey struct{ user, product int64 }

type memoryLikes struct {
	pairs map[likeKey]domain.Like
}

func (m *memoryLikes) Create(_ context.Context, userID, productID int64) (*domain.Like, error) {
	k := likeKey{userID, productID}
	if _, ok := m.pairs[k]; ok {
		return nil, domain.Wrapf(domain.ErrAlreadyExists, "Product already liked")
	}
	l := domain.Like{ID: int64(len(m.pairs) + 1), UserID: userID, ProductID: productID}
	m.pairs[k] = l
	return &l, nil
}

func (m *memoryLikes) Delete(_ context.Context, userID, productID int64) error {
	k := likeKey{userID, productID}
	if _, ok := m.pairs[k]; !ok {
		return domain.Wrapf(domain.ErrNotFound, "Like not found")
	}
	delete(m.pairs, k)
	return nil
}

func (m *memoryLikes) Exists(_ context.Context, userID, productID int64) (bool, error) {
	_, ok := m.pairs[likeKey{userID, productID}]
	return ok, nil
}

func (m *memoryLikes) ListByUser(_ context.Context, userID int64, _ domain.Page) ([]domain.Like, int, error) {
	var out []domain.Like
	for k, l := range m.pairs {
		if k.user == userID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

type memoryComments struct {
	byID   map[int64]domain.Comment
	nextID int64
}

func (m *memoryComments) Create(_ context.Context, c domain.Comment) (*domain.Comment, error) {
	for _, existing := range m.byID {
		if existing.UserID == c.UserID && existing.ProductID == c.ProductID {
			return nil, domain.Wrapf(domain.ErrAlreadyExists, "You have already commented on this product")
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memoryComments) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *memoryComments) Update(_ context.Context, c domain.Comment) (*domain.Comment, error) {
	m.byID[c.ID] = c
	return &c, nil
}

func (m *memoryComments) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryComments) ListByProduct(_ context.Context, productID int64, _ domain.Page) ([]domain.Comment, int, error) {
	var out []domain.Comment
	for _, c := range m.byID {
		if c.ProductID == productID && c.IsApproved {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *memoryComments) ListByUser(_ context.Context, userID int64, _ domain.Page) ([]domain.Comment, int, error) {
	var out []domain.Comment
	for _, c := range m.byID {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *memoryComments) RatingStats(_ context.Context, productID int64) (decimal.Decimal, int, error) {
	sum, n := 0, 0
	for _, c := range m.byID {
		if c.ProductID == productID && c.IsApproved {
			sum += c.Rating
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, 0, nil
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2), n, nil
}

type countingInvalidator struct{ ids []int64 }

func (c *countingInvalidator) Invalidate(_ context.Context, ids ...int64) {
	c.ids = append(c.ids, ids...)
}

type fixture struct {
	svc      *Service
	products *memoryProducts
	likes    *memoryLikes
	comments *memoryComments
	cache    *countingInvalidator
}

func newFixture() fixture {
	f := fixture{
		products: &memoryProducts{byID: map[int64]domain.Product{
			1: {ID: 1, Name: "Kettle", Slug: "kettle", IsActive: true},
			2: {ID: 2, Name: "Retired", Slug: "retired", IsActive: false},
		}},
		likes:    &memoryLikes{pairs: make(map[likeKey]domain.Like)},
		comments: &memoryComments{byID: make(map[int64]domain.Comment)},
		cache:    &countingInvalidator{},
	}
	f.svc = New(f.products, f.likes, f.comments, f.cache, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	return f
}

func user(id int64) domain.User {
	return domain.User{ID: id, Role: domain.RoleCustomer, IsActive: true}
}

func TestLikeLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	like, err := f.svc.Like(ctx, 5, 1)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if like.Product == nil || like.Product.Slug != "kettle" {
		t.Fatalf("expected product reference, got %+v", like.Product)
	}
	if _, err := f.svc.Like(ctx, 5, 1); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected conflict on second like, got %v", err)
	}
	if _, err := f.svc.Like(ctx, 5, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
	if liked, _ := f.svc.IsLiked(ctx, 5, 1); !liked {
		t.Fatalf("expected liked")
	}
	likes, pagination, err := f.svc.Likes(ctx, 5, 0, 0)
	if err != nil || len(likes) != 1 || pagination.Limit != defaultLikesLimit {
		t.Fatalf("unexpected likes: %v %+v err=%v", likes, pagination, err)
	}
	if err := f.svc.Unlike(ctx, 5, 1); err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if err := f.svc.Unlike(ctx, 5, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on unlike of never-liked product, got %v", err)
	}
}

func TestRatingRecomputation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	content := "Works exactly as described"

	var third *domain.Comment
	for i, rating := range []int{5, 4, 3} {
		c, err := f.svc.CreateComment(ctx, int64(10+i), 1, CreateCommentInput{Content: content, Rating: rating})
		if err != nil {
			t.Fatalf("create comment: %v", err)
		}
		third = c
	}
	p := f.products.byID[1]
	if !p.AverageRating.Equal(decimal.RequireFromString("4.00")) || p.ReviewCount != 3 {
		t.Fatalf("expected 4.00/3, got %s/%d", p.AverageRating, p.ReviewCount)
	}

	if err := f.svc.DeleteComment(ctx, user(third.UserID), third.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	p = f.products.byID[1]
	if !p.AverageRating.Equal(decimal.RequireFromString("4.50")) || p.ReviewCount != 2 {
		t.Fatalf("expected 4.50/2, got %s/%d", p.AverageRating, p.ReviewCount)
	}
	if len(f.cache.ids) != 4 {
		t.Fatalf("expected a cache invalidation per recomputation, got %v", f.cache.ids)
	}
}

func TestCreateCommentRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "   too short   ", Rating: 4}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for short content, got %v", err)
	}
	if _, err := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: strings.Repeat("a", 1001), Rating: 4}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for long content, got %v", err)
	}
	if _, err := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "Perfectly adequate kettle", Rating: 6}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for rating, got %v", err)
	}
	if _, err := f.svc.CreateComment(ctx, 1, 2, CreateCommentInput{Content: "Perfectly adequate kettle", Rating: 4}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}
	c, err := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "  Perfectly adequate kettle  ", Rating: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Content != "Perfectly adequate kettle" || !c.IsApproved || c.IsEdited {
		t.Fatalf("unexpected comment: %+v", c)
	}
	if _, err := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "Changed my mind about it", Rating: 2}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateComment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, _ := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "Boils water quickly", Rating: 4})
	hits := f.products.ratingHits

	admin := domain.User{ID: 99, Role: domain.RoleAdmin, IsActive: true}
	newContent := "Boils water very quickly"
	if _, err := f.svc.UpdateComment(ctx, admin, c.ID, UpdateCommentInput{Content: &newContent}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}

	updated, err := f.svc.UpdateComment(ctx, user(1), c.ID, UpdateCommentInput{Content: &newContent})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsEdited || updated.EditedAt == nil || updated.Rating != 4 {
		t.Fatalf("expected edited stamp and kept rating, got %+v", updated)
	}
	if f.products.ratingHits != hits {
		t.Fatalf("omitted rating must skip recomputation")
	}
	firstEdit := *updated.EditedAt

	f.svc.now = func() time.Time { return firstEdit.Add(time.Hour) }
	again := "Boils water very very quickly"
	rating := 2
	updated, err = f.svc.UpdateComment(ctx, user(1), c.ID, UpdateCommentInput{Content: &again, Rating: &rating})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.EditedAt.Equal(firstEdit) {
		t.Fatalf("expected editedAt kept from the first edit, got %v", updated.EditedAt)
	}
	if f.products.ratingHits != hits+1 || !f.products.byID[1].AverageRating.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected recomputation after rating change")
	}
	if _, err := f.svc.UpdateComment(ctx, user(1), 999, UpdateCommentInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCommentPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c, _ := f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "Lid rattles a little", Rating: 3})

	if err := f.svc.DeleteComment(ctx, user(2), c.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	admin := domain.User{ID: 99, Role: domain.RoleAdmin, IsActive: true}
	if err := f.svc.DeleteComment(ctx, admin, c.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if p := f.products.byID[1]; p.ReviewCount != 0 || !p.AverageRating.IsZero() {
		t.Fatalf("expected cleared aggregate, got %s/%d", p.AverageRating, p.ReviewCount)
	}
}

func TestRatingFailureIsNotSurfaced(t *testing.T) {
	f := newFixture()
	f.products.ratingErr = errors.New("db down")
	if _, err := f.svc.CreateComment(context.Background(), 1, 1, CreateCommentInput{Content: "Still a nice kettle", Rating: 5}); err != nil {
		t.Fatalf("rating failure must not surface: %v", err)
	}
	if len(f.cache.ids) != 0 {
		t.Fatalf("no invalidation expected when the aggregate was not written")
	}
}

func TestCommentListings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.svc.CreateComment(ctx, 1, 1, CreateCommentInput{Content: "Solid build quality", Rating: 5})

	comments, pagination, err := f.svc.ProductComments(ctx, 1, 0, 0)
	if err != nil || len(comments) != 1 || pagination.Limit != defaultCommentsLimit {
		t.Fatalf("unexpected product comments: %v %+v err=%v", comments, pagination, err)
	}
	if _, _, err := f.svc.ProductComments(ctx, 42, 1, 10); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	mine, _, err := f.svc.UserComments(ctx, 1, 1, 10)
	if err != nil || len(mine) != 1 {
		t.Fatalf("unexpected user comments: %v err=%v", mine, err)
	}
}

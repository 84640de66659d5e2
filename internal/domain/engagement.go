package domain

import "time"

type Like struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	ProductID int64       `json:"productId"`
	CreatedAt time.Time   `json:"createdAt"`
	Product   *ProductRef `json:"product,omitempty"`
}

const (
	CommentMinLength = 10
	CommentMaxLength = 1000
)

type Comment struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"userId"`
	ProductID  int64       `json:"productId"`
	Content    string      `json:"content"`
	Rating     int         `json:"rating"`
	IsApproved bool        `json:"isApproved"`
	IsEdited   bool        `json:"isEdited"`
	EditedAt   *time.Time  `json:"editedAt,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	User       *UserRef    `json:"user,omitempty"`
	Product    *ProductRef `json:"product,omitempty"`
}

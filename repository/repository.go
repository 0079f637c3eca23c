package repository

import (
	"context"
	"errors"
	"fmt"

	"blogapi/models"
)

const RecentTagsLimit = 5

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// StoreError wraps any failure coming from the backing store. It is never
// retried here.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// UpdateResult mirrors the matched/modified counters of a document update.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

type PostRepository interface {
	// ListRecentTags flattens the tags of the limit newest posts, newest
	// first, and truncates the result to limit entries.
	ListRecentTags(ctx context.Context, limit int) ([]string, error)
	// ListAll returns every post with its author populated.
	ListAll(ctx context.Context) ([]models.Post, error)
	// GetOneAndIncrementViews bumps viewsCount by one and returns the post
	// as it is after the increment.
	GetOneAndIncrementViews(ctx context.Context, key models.PostKey) (*models.Post, error)
	Create(ctx context.Context, fields models.PostFields, authorID string) (*models.Post, error)
	Update(ctx context.Context, key models.PostKey, fields models.PostFields, authorID string) (UpdateResult, error)
	Delete(ctx context.Context, key models.PostKey) (string, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Posts PostRepository
	Users UserRepository
	Close func(ctx context.Context) error
}

func flattenTags(tagLists [][]string, limit int) []string {
	tags := make([]string, 0, limit)
	for _, list := range tagLists {
		for _, tag := range list {
			if len(tags) == limit {
				return tags
			}
			tags = append(tags, tag)
		}
	}
	return tags
}

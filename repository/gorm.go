package repository

import (
	"context"
	"errors"

	"blogapi/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) ListRecentTags(ctx context.Context, limit int) ([]string, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Select("tags").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, storeErr("list recent tags", err)
	}

	lists := make([][]string, 0, len(posts))
	for _, p := range posts {
		lists = append(lists, p.Tags)
	}
	return flattenTags(lists, limit), nil
}

func (r *GormPostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.db.WithContext(ctx).Preload("User").Find(&posts).Error; err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

func (r *GormPostRepository) GetOneAndIncrementViews(ctx context.Context, key models.PostKey) (*models.Post, error) {
	var post models.Post
	// single UPDATE ... RETURNING keeps the increment atomic
	result := r.db.WithContext(ctx).
		Model(&post).
		Clauses(clause.Returning{}).
		Where("id = ?", key.String()).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1))
	if result.Error != nil {
		return nil, storeErr("increment views", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var author models.User
	err := r.db.WithContext(ctx).Where("id = ?", post.UserID).First(&author).Error
	switch {
	case err == nil:
		post.User = &author
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storeErr("populate author", err)
	}
	return &post, nil
}

func (r *GormPostRepository) Create(ctx context.Context, fields models.PostFields, authorID string) (*models.Post, error) {
	post := &models.Post{
		Title:    fields.Title,
		Text:     fields.Text,
		ImageURL: fields.ImageURL,
		Tags:     pq.StringArray(fields.Tags),
		UserID:   authorID,
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, storeErr("create post", err)
	}
	return post, nil
}

// Update only touches the row when at least one column differs, so
// RowsAffected is the modified count, like a document store reports it.
func (r *GormPostRepository) Update(ctx context.Context, key models.PostKey, fields models.PostFields, authorID string) (UpdateResult, error) {
	tags := pq.StringArray(fields.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}

	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", key.String()).
		Where("title IS DISTINCT FROM ? OR text IS DISTINCT FROM ? OR image_url IS DISTINCT FROM ? OR tags IS DISTINCT FROM ? OR user_id IS DISTINCT FROM ?",
			fields.Title, fields.Text, fields.ImageURL, tags, authorID).
		Updates(map[string]interface{}{
			"title":     fields.Title,
			"text":      fields.Text,
			"image_url": fields.ImageURL,
			"tags":      tags,
			"user_id":   authorID,
		})
	if result.Error != nil {
		return UpdateResult{}, storeErr("update post", result.Error)
	}
	if result.RowsAffected > 0 {
		return UpdateResult{Matched: result.RowsAffected, Modified: result.RowsAffected}, nil
	}

	var matched int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", key.String()).Count(&matched).Error; err != nil {
		return UpdateResult{}, storeErr("count post", err)
	}
	return UpdateResult{Matched: matched}, nil
}

func (r *GormPostRepository) Delete(ctx context.Context, key models.PostKey) (string, error) {
	var post models.Post
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("id = ?", key.String()).
		Delete(&post)
	if result.Error != nil {
		return "", storeErr("delete post", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return post.ID, nil
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	// needs gorm.Config.TranslateError
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return storeErr("create user", err)
	}
	return nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return &user, nil
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Posts: NewGormPostRepository(db),
		Users: NewGormUserRepository(db),
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

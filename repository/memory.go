package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"blogapi/models"

	"github.com/lib/pq"
)

// MemoryStore keeps posts and users in process memory. Posts are kept in
// insertion order, which is the store order for ListAll.
type MemoryStore struct {
	mu    sync.RWMutex
	posts []*models.Post
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		now:   time.Now,
	}
}

func (s *MemoryStore) Posts() PostRepository { return memoryPosts{s} }

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

func (s *MemoryStore) Store() *Store {
	return &Store{
		Posts: s.Posts(),
		Users: s.Users(),
		Close: func(context.Context) error { return nil },
	}
}

type memoryPosts struct{ s *MemoryStore }

func (r memoryPosts) ListRecentTags(ctx context.Context, limit int) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lists := make([][]string, 0, limit)
	for i := len(r.s.posts) - 1; i >= 0 && len(lists) < limit; i-- {
		lists = append(lists, r.s.posts[i].Tags)
	}
	return flattenTags(lists, limit), nil
}

func (r memoryPosts) ListAll(ctx context.Context) ([]models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]models.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, r.s.populated(p))
	}
	return posts, nil
}

func (r memoryPosts) GetOneAndIncrementViews(ctx context.Context, key models.PostKey) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.s.find(key)
	if p == nil {
		return nil, ErrNotFound
	}
	p.ViewsCount++
	out := r.s.populated(p)
	return &out, nil
}

func (r memoryPosts) Create(ctx context.Context, fields models.PostFields, authorID string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	p := &models.Post{
		ID:        models.NewID(),
		Title:     fields.Title,
		Text:      fields.Text,
		ImageURL:  fields.ImageURL,
		Tags:      cloneTags(fields.Tags),
		UserID:    authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.posts = append(r.s.posts, p)

	out := *p
	out.Tags = cloneTags(p.Tags)
	return &out, nil
}

func (r memoryPosts) Update(ctx context.Context, key models.PostKey, fields models.PostFields, authorID string) (UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := r.s.find(key)
	if p == nil {
		return UpdateResult{}, nil
	}

	res := UpdateResult{Matched: 1}
	if p.Title == fields.Title && p.Text == fields.Text && p.ImageURL == fields.ImageURL &&
		p.UserID == authorID && slices.Equal([]string(p.Tags), fields.Tags) {
		return res, nil
	}

	p.Title = fields.Title
	p.Text = fields.Text
	p.ImageURL = fields.ImageURL
	p.Tags = cloneTags(fields.Tags)
	p.UserID = authorID
	p.UpdatedAt = r.s.now()
	res.Modified = 1
	return res, nil
}

func (r memoryPosts) Delete(ctx context.Context, key models.PostKey) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, p := range r.s.posts {
		if p.ID == key.String() {
			r.s.posts = slices.Delete(r.s.posts, i, i+1)
			return p.ID, nil
		}
	}
	return "", ErrNotFound
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = models.NewID()
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// find expects s.mu to be held.
func (s *MemoryStore) find(key models.PostKey) *models.Post {
	if key.IsLegacy() {
		return nil
	}
	for _, p := range s.posts {
		if p.ID == key.Hex() {
			return p
		}
	}
	return nil
}

// populated expects s.mu to be held.
func (s *MemoryStore) populated(p *models.Post) models.Post {
	out := *p
	out.Tags = cloneTags(p.Tags)
	if u, ok := s.users[p.UserID]; ok {
		user := *u
		out.User = &user
	}
	return out
}

func cloneTags(tags []string) pq.StringArray {
	out := make(pq.StringArray, len(tags))
	copy(out, tags)
	return out
}

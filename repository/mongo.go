package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	postsCollection = "posts"
	usersCollection = "users"
)

// postDocument.ID is an ObjectID for every post written here; imported
// legacy posts carry an integer _id.
type postDocument struct {
	ID         interface{}        `bson:"_id,omitempty"`
	Title      string             `bson:"title"`
	Text       string             `bson:"text"`
	ImageURL   string             `bson:"imageUrl"`
	Tags       []string           `bson:"tags"`
	ViewsCount int64              `bson:"viewsCount"`
	User       primitive.ObjectID `bson:"user"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (d *postDocument) toModel() models.Post {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Post{
		ID:         idString(d.ID),
		Title:      d.Title,
		Text:       d.Text,
		ImageURL:   d.ImageURL,
		Tags:       tags,
		ViewsCount: d.ViewsCount,
		UserID:     d.User.Hex(),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FullName     string             `bson:"fullName"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
	AvatarURL    string             `bson:"avatarUrl,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// keyFilter matches a post by _id. Legacy integer keys are queried as-is;
// they only hit documents imported with numeric ids.
func keyFilter(key models.PostKey) (bson.M, error) {
	if key.IsLegacy() {
		return bson.M{"_id": key.Legacy()}, nil
	}
	oid, err := primitive.ObjectIDFromHex(key.Hex())
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid}, nil
}

// changedFilter matches the keyed post only when some field differs from the
// new values. An empty imageUrl also equals a missing or null one, since
// older documents were stored without the field.
func changedFilter(key bson.M, title, text, imageURL string, tags []string, author primitive.ObjectID) bson.M {
	imageChanged := bson.M{"$ne": imageURL}
	if imageURL == "" {
		imageChanged = bson.M{"$nin": bson.A{"", nil}}
	}
	return bson.M{"_id": key["_id"], "$or": bson.A{
		bson.M{"title": bson.M{"$ne": title}},
		bson.M{"text": bson.M{"$ne": text}},
		bson.M{"imageUrl": imageChanged},
		bson.M{"tags": bson.M{"$ne": tags}},
		bson.M{"user": bson.M{"$ne": author}},
	}}
}

type MongoPostRepository struct {
	posts *mongo.Collection
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{
		posts: db.Collection(postsCollection),
		users: db.Collection(usersCollection),
		now:   time.Now,
	}
}

func (r *MongoPostRepository) ListRecentTags(ctx context.Context, limit int) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"tags": 1})

	cur, err := r.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("list recent tags", err)
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("list recent tags", err)
	}

	lists := make([][]string, 0, len(docs))
	for _, d := range docs {
		lists = append(lists, d.Tags)
	}
	return flattenTags(lists, limit), nil
}

func (r *MongoPostRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	cur, err := r.posts.Find(ctx, bson.M{})
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("list posts", err)
	}

	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toModel())
	}
	if err := r.populate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *MongoPostRepository) GetOneAndIncrementViews(ctx context.Context, key models.PostKey) (*models.Post, error) {
	filter, err := keyFilter(key)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc postDocument
	err = r.posts.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"viewsCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("increment views", err)
	}

	posts := []models.Post{doc.toModel()}
	if err := r.populate(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *MongoPostRepository) Create(ctx context.Context, fields models.PostFields, authorID string) (*models.Post, error) {
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return nil, storeErr("create post", fmt.Errorf("author id %q: %w", authorID, err))
	}

	now := r.now().UTC()
	doc := postDocument{
		ID:        primitive.NewObjectIDFromTimestamp(now),
		Title:     fields.Title,
		Text:      fields.Text,
		ImageURL:  fields.ImageURL,
		Tags:      fields.Tags,
		User:      author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		return nil, storeErr("create post", err)
	}

	post := doc.toModel()
	return &post, nil
}

// Update filters on "at least one field differs" so ModifiedCount is zero
// for a no-op update even though updatedAt is refreshed on real changes.
func (r *MongoPostRepository) Update(ctx context.Context, key models.PostKey, fields models.PostFields, authorID string) (UpdateResult, error) {
	filter, err := keyFilter(key)
	if err != nil {
		return UpdateResult{}, nil
	}
	author, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return UpdateResult{}, storeErr("update post", fmt.Errorf("author id %q: %w", authorID, err))
	}
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}

	changed := changedFilter(filter, fields.Title, fields.Text, fields.ImageURL, tags, author)
	set := bson.M{
		"title":     fields.Title,
		"text":      fields.Text,
		"imageUrl":  fields.ImageURL,
		"tags":      tags,
		"user":      author,
		"updatedAt": r.now().UTC(),
	}

	res, err := r.posts.UpdateOne(ctx, changed, bson.M{"$set": set})
	if err != nil {
		return UpdateResult{}, storeErr("update post", err)
	}
	if res.ModifiedCount > 0 {
		return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
	}

	matched, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return UpdateResult{}, storeErr("count post", err)
	}
	return UpdateResult{Matched: matched}, nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, key models.PostKey) (string, error) {
	filter, err := keyFilter(key)
	if err != nil {
		return "", ErrNotFound
	}

	var deleted struct {
		ID interface{} `bson:"_id"`
	}
	err = r.posts.FindOneAndDelete(ctx, filter,
		options.FindOneAndDelete().SetProjection(bson.M{"_id": 1}),
	).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storeErr("delete post", err)
	}

	return idString(deleted.ID), nil
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// populate replaces each post's author reference with the full user record.
func (r *MongoPostRepository) populate(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(posts))
	ids := make(bson.A, 0, len(posts))
	for _, p := range posts {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		if oid, err := primitive.ObjectIDFromHex(p.UserID); err == nil {
			ids = append(ids, oid)
		}
	}

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return storeErr("populate authors", err)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return storeErr("populate authors", err)
	}

	byID := make(map[string]*models.User, len(docs))
	for i := range docs {
		byID[docs[i].ID.Hex()] = docs[i].toModel()
	}
	for i := range posts {
		if u, ok := byID[posts[i].UserID]; ok {
			author := *u
			posts[i].User = &author
		}
	}
	return nil
}

type MongoUserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{users: db.Collection(usersCollection), now: time.Now}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := r.now().UTC()
	doc := userDocument{
		ID:           primitive.NewObjectIDFromTimestamp(now),
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		AvatarURL:    user.AvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return storeErr("create user", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return doc.toModel(), nil
}

// EnsureMongoIndexes creates the unique users.email index and the posts.user
// index. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = db.Collection(postsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create posts.user index: %w", err)
	}
	return nil
}

func NewMongoStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		Posts: NewMongoPostRepository(db),
		Users: NewMongoUserRepository(db),
		Close: client.Disconnect,
	}
}

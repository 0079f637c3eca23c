package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Post struct {
	ID         string         `json:"id" gorm:"primaryKey;size:24"`
	Title      string         `json:"title" gorm:"not null"`
	Text       string         `json:"text" gorm:"type:text;not null"`
	ImageURL   string         `json:"imageUrl,omitempty"`
	Tags       pq.StringArray `json:"tags" gorm:"type:text[]"`
	ViewsCount int64          `json:"viewsCount" gorm:"not null;default:0"`
	UserID     string         `json:"userId" gorm:"size:24;not null;index"`
	User       *User          `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt  time.Time      `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	return nil
}

// PostFields are the author-editable fields replaced by an update.
type PostFields struct {
	Title    string
	Text     string
	ImageURL string
	Tags     []string
}

type CreatePostRequest struct {
	Title    string  `json:"title" binding:"required,min=3"`
	Text     string  `json:"text" binding:"required,min=3"`
	Tags     TagList `json:"tags" binding:"required,min=1,dive,tag"`
	ImageURL string  `json:"imageUrl"`
}

type UpdatePostRequest struct {
	Title    string  `json:"title" binding:"required,min=3"`
	Text     string  `json:"text" binding:"required,min=3"`
	Tags     TagList `json:"tags" binding:"required,min=1,dive,tag"`
	ImageURL string  `json:"imageUrl"`
}

func (r *CreatePostRequest) Fields() PostFields {
	return PostFields{Title: r.Title, Text: r.Text, ImageURL: r.ImageURL, Tags: r.Tags}
}

func (r *UpdatePostRequest) Fields() PostFields {
	return PostFields{Title: r.Title, Text: r.Text, ImageURL: r.ImageURL, Tags: r.Tags}
}

type DeletePostResponse struct {
	Success   bool   `json:"success"`
	DeletedID string `json:"deletedId"`
}

type UpdatePostResponse struct {
	Success bool `json:"success"`
}

// TagList decodes either a comma-separated string ("a,b,c") or a JSON array
// of strings.
type TagList []string

var errTagListShape = errors.New("tags must be a comma-separated string or an array of strings")

func (t *TagList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*t = SplitTags(csv)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errTagListShape
	}
	if list == nil {
		list = []string{}
	}
	*t = list
	return nil
}

// SplitTags splits a comma-separated tag string, trimming the blanks around
// each tag. An empty input yields an empty list.
func SplitTags(csv string) TagList {
	if strings.TrimSpace(csv) == "" {
		return TagList{}
	}
	parts := strings.Split(csv, ",")
	tags := make(TagList, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

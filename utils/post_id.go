package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"blogapi/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMissingIdentifier = errors.New("post id is missing from the request path")
	ErrInvalidIdentifier = errors.New("post id must be a 24-char hex string or an integer")
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

type PostIDResolver struct {
	allowLegacy bool
}

func NewPostIDResolver(allowLegacy bool) *PostIDResolver {
	return &PostIDResolver{allowLegacy: allowLegacy}
}

// Resolve turns a raw path parameter into a store key. A single leading
// colon is dropped first, since some clients still call /posts/:<id>.
func (r *PostIDResolver) Resolve(raw string) (models.PostKey, error) {
	if raw == "" {
		return models.PostKey{}, ErrMissingIdentifier
	}

	clean := strings.TrimPrefix(raw, ":")
	if clean == "" {
		return models.PostKey{}, ErrMissingIdentifier
	}

	if objectIDPattern.MatchString(clean) {
		if !primitive.IsValidObjectID(clean) {
			return models.PostKey{}, ErrInvalidIdentifier
		}
		return models.HexPostKey(clean), nil
	}

	if !r.allowLegacy {
		return models.PostKey{}, ErrInvalidIdentifier
	}

	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return models.PostKey{}, ErrInvalidIdentifier
	}
	return models.LegacyPostKey(n), nil
}

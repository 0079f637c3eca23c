package models

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh ObjectID in its 24-char hex form. Every backend uses
// it so ids look the same no matter where a record is stored.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// PostKey is a resolved post identifier. It is either a canonical ObjectID
// hex string or a legacy integer id.
type PostKey struct {
	hex      string
	legacy   int64
	isLegacy bool
}

func HexPostKey(hex string) PostKey {
	return PostKey{hex: hex}
}

func LegacyPostKey(id int64) PostKey {
	return PostKey{legacy: id, isLegacy: true}
}

func (k PostKey) IsLegacy() bool { return k.isLegacy }

func (k PostKey) Legacy() int64 { return k.legacy }

func (k PostKey) Hex() string { return k.hex }

func (k PostKey) IsZero() bool { return !k.isLegacy && k.hex == "" }

func (k PostKey) String() string {
	if k.isLegacy {
		return strconv.FormatInt(k.legacy, 10)
	}
	return k.hex
}

package e621

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Rating represents a post's content-safety classification
type Rating string

const (
	// RatingSafe marks safe-for-work posts
	RatingSafe Rating = "s"
	// RatingQuestionable marks borderline posts
	RatingQuestionable Rating = "q"
	// RatingExplicit marks explicit posts
	RatingExplicit Rating = "e"
)

// ParseRating converts a wire value into a Rating. The enumeration is closed:
// anything but "s", "q" or "e" is an error.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(s); r {
	case RatingSafe, RatingQuestionable, RatingExplicit:
		return r, nil
	}
	return "", callerErrorf("unknown rating %q", s)
}

// String returns the human-readable name of the rating
func (r Rating) String() string {
	switch r {
	case RatingSafe:
		return "safe"
	case RatingQuestionable:
		return "questionable"
	case RatingExplicit:
		return "explicit"
	}
	return string(r)
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown wire values
func (r *Rating) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRating(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// TagCategory represents the numeric bucket a tag belongs to. The wire values
// skip 2; that gap is part of the service's contract.
type TagCategory int

const (
	// TagGeneral is the general tag category
	TagGeneral TagCategory = 0
	// TagArtist is the artist tag category
	TagArtist TagCategory = 1
	// TagCopyright is the copyright tag category
	TagCopyright TagCategory = 3
	// TagCharacter is the character tag category
	TagCharacter TagCategory = 4
	// TagSpecies is the species tag category
	TagSpecies TagCategory = 5
	// TagInvalid is the invalid tag category
	TagInvalid TagCategory = 6
	// TagMeta is the meta tag category
	TagMeta TagCategory = 7
	// TagLore is the lore tag category
	TagLore TagCategory = 8
)

// String returns the category name used in post tag listings
func (tc TagCategory) String() string {
	switch tc {
	case TagGeneral:
		return "general"
	case TagArtist:
		return "artist"
	case TagCopyright:
		return "copyright"
	case TagCharacter:
		return "character"
	case TagSpecies:
		return "species"
	case TagInvalid:
		return "invalid"
	case TagMeta:
		return "meta"
	case TagLore:
		return "lore"
	}
	return strconv.Itoa(int(tc))
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown wire values
func (tc *TagCategory) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	switch c := TagCategory(n); c {
	case TagGeneral, TagArtist, TagCopyright, TagCharacter, TagSpecies, TagInvalid, TagMeta, TagLore:
		*tc = c
		return nil
	}
	return fmt.Errorf("unknown tag category %d", n)
}

// tagCategoryOrder is the canonical presentation order of post tag groups.
var tagCategoryOrder = []string{
	"general", "species", "character", "copyright", "artist", "invalid", "lore", "meta",
}

// Category represents a pool category
type Category string

const (
	// CategorySeries marks pools with an inherent reading order
	CategorySeries Category = "series"
	// CategoryCollection marks unordered pools
	CategoryCollection Category = "collection"
)

// Order represents a pool search ordering
type Order string

const (
	// OrderName orders pools by name
	OrderName Order = "name"
	// OrderCreatedAt orders pools by creation time
	OrderCreatedAt Order = "created_at"
	// OrderUpdatedAt orders pools by last update
	OrderUpdatedAt Order = "updated_at"
	// OrderPostCount orders pools by post count
	OrderPostCount Order = "post_count"
)

var (
	validCategories = []Category{CategorySeries, CategoryCollection}
	validOrders     = []Order{OrderName, OrderCreatedAt, OrderUpdatedAt, OrderPostCount}
)

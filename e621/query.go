package e621

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultBaseURL is the production e621 endpoint.
const DefaultBaseURL = "https://e621.net"

// API paths. All JSON endpoints live at the service root.
const (
	postsPath     = "/posts.json"
	flagsPath     = "/post_flags.json"
	notesPath     = "/notes.json"
	poolsPath     = "/pools.json"
	tagsPath      = "/tags.json"
	favoritesPath = "/favorites.json"
	uploadsPath   = "/uploads.json"
)

func postPath(id int) string     { return fmt.Sprintf("/posts/%d.json", id) }
func votePath(id int) string     { return fmt.Sprintf("/posts/%d/votes.json", id) }
func poolPath(id int) string     { return fmt.Sprintf("/pools/%d.json", id) }
func notePath(id int) string     { return fmt.Sprintf("/notes/%d.json", id) }
func favoritePath(id int) string { return fmt.Sprintf("/favorites/%d.json", id) }

// searchKey wraps a parameter name in e621's bracketed search form. A
// trailing underscore is stripped so callers can avoid reserved words.
func searchKey(k string) string {
	k = strings.TrimSuffix(k, "_")
	return "search[" + k + "]"
}

// setNonEmpty records a query parameter, skipping empty values entirely.
func setNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// setPositive records an integer query parameter, skipping non-positive values.
func setPositive(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// setBool records a tri-state boolean as the service's "true"/"false" strings.
func setBool(q url.Values, key string, value *bool) {
	if value != nil {
		q.Set(key, strconv.FormatBool(*value))
	}
}

// joinIDs renders a multi-id lookup as the service's comma convention.
func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// PostsOptions are the search parameters for SearchPosts.
type PostsOptions struct {
	// Tags to search for. Joined with spaces per the service convention.
	Tags []string
	// Limit caps the number of returned posts.
	Limit int
	// Page selects the result page. Besides plain numbers the service
	// accepts cursors such as "b12345", so this is a string.
	Page string
}

func (o PostsOptions) query() url.Values {
	q := url.Values{}
	setNonEmpty(q, "tags", strings.Join(o.Tags, " "))
	setPositive(q, "limit", o.Limit)
	setNonEmpty(q, "page", o.Page)
	return q
}

// FlagsOptions are the search parameters for SearchFlags.
type FlagsOptions struct {
	PostID      int
	CreatorID   int
	CreatorName string
	Limit       int
}

func (o FlagsOptions) query() url.Values {
	q := url.Values{}
	setPositive(q, searchKey("post_id"), o.PostID)
	setPositive(q, searchKey("creator_id"), o.CreatorID)
	setNonEmpty(q, searchKey("creator_name"), o.CreatorName)
	setPositive(q, "limit", o.Limit)
	return q
}

// NotesOptions are the search parameters for SearchNotes.
type NotesOptions struct {
	BodyMatches   string
	PostID        int
	PostTagsMatch []string
	CreatorName   string
	CreatorID     string
	IsActive      *bool
	Limit         int
}

func (o NotesOptions) query() url.Values {
	q := url.Values{}
	setNonEmpty(q, searchKey("body_matches"), o.BodyMatches)
	setPositive(q, searchKey("post_id"), o.PostID)
	setNonEmpty(q, searchKey("post_tags_match"), strings.Join(o.PostTagsMatch, " "))
	setNonEmpty(q, searchKey("creator_name"), o.CreatorName)
	setNonEmpty(q, searchKey("creator_id"), o.CreatorID)
	setBool(q, searchKey("is_active"), o.IsActive)
	setPositive(q, "limit", o.Limit)
	return q
}

// PoolsOptions are the search parameters for SearchPools.
type PoolsOptions struct {
	NameMatches        string
	IDs                []int
	DescriptionMatches string
	CreatorName        string
	CreatorID          int
	IsActive           *bool
	IsDeleted          *bool
	Category           Category
	Order              Order
	Limit              int
}

// validate enforces the closed category and order enumerations before any
// network call is issued.
func (o PoolsOptions) validate() error {
	if o.Category != "" && !slices.Contains(validCategories, o.Category) {
		return callerErrorf("invalid category %q, valid categories are %v", o.Category, validCategories)
	}
	if o.Order != "" && !slices.Contains(validOrders, o.Order) {
		return callerErrorf("invalid order %q, valid orders are %v", o.Order, validOrders)
	}
	return nil
}

func (o PoolsOptions) query() url.Values {
	q := url.Values{}
	setNonEmpty(q, searchKey("name_matches"), o.NameMatches)
	// "id" collides with a reserved word upstream, hence the underscore.
	setNonEmpty(q, searchKey("id_"), joinIDs(o.IDs))
	setNonEmpty(q, searchKey("description_matches"), o.DescriptionMatches)
	setNonEmpty(q, searchKey("creator_name"), o.CreatorName)
	setPositive(q, searchKey("creator_id"), o.CreatorID)
	setBool(q, searchKey("is_active"), o.IsActive)
	setBool(q, searchKey("is_deleted"), o.IsDeleted)
	setNonEmpty(q, searchKey("category"), string(o.Category))
	setNonEmpty(q, searchKey("order"), string(o.Order))
	setPositive(q, "limit", o.Limit)
	return q
}

// TagsOptions are the search parameters for SearchTags.
type TagsOptions struct {
	NameMatches string
	Category    *TagCategory
	Order       Order
	HideEmpty   bool
	Limit       int
}

func (o TagsOptions) query() url.Values {
	q := url.Values{}
	setNonEmpty(q, searchKey("name_matches"), o.NameMatches)
	if o.Category != nil {
		q.Set(searchKey("category"), strconv.Itoa(int(*o.Category)))
	}
	setNonEmpty(q, searchKey("order"), string(o.Order))
	if o.HideEmpty {
		q.Set(searchKey("hide_empty"), "true")
	}
	setPositive(q, "limit", o.Limit)
	return q
}

package e621

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// File describes a post's primary asset
type File struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int    `json:"size"`
	MD5    string `json:"md5"`
	URL    string `json:"url"`
}

// Preview describes a post's thumbnail asset
type Preview struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Sample describes a post's downscaled sample asset
type Sample struct {
	Has    bool   `json:"has"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Score holds a post's vote tally
type Score struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Total int `json:"total"`
}

// PostFlags holds a post's moderation state booleans
type PostFlags struct {
	Pending      bool `json:"pending"`
	Flagged      bool `json:"flagged"`
	NoteLocked   bool `json:"note_locked"`
	StatusLocked bool `json:"status_locked"`
	RatingLocked bool `json:"rating_locked"`
	Deleted      bool `json:"deleted"`
}

// Relationships holds a post's parent/child links
type Relationships struct {
	ParentID          *int  `json:"parent_id"`
	HasChildren       bool  `json:"has_children"`
	HasActiveChildren bool  `json:"has_active_children"`
	Children          []int `json:"children"`
}

// Post represents an e621 post.
//
// Typed fields are the mutable working view; the raw server payload is kept
// unchanged from construction so local edits can later be diffed against it
// (see TagsDifference and Update).
type Post struct {
	ID            int                 `json:"id"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	File          File                `json:"file"`
	Preview       Preview             `json:"preview"`
	Sample        Sample              `json:"sample"`
	Score         Score               `json:"score"`
	Tags          map[string][]string `json:"tags"`
	LockedTags    []string            `json:"locked_tags"`
	ChangeSeq     int                 `json:"change_seq"`
	Flags         PostFlags           `json:"flags"`
	Rating        Rating              `json:"rating"`
	FavCount      int                 `json:"fav_count"`
	Sources       []string            `json:"sources"`
	Pools         []int               `json:"pools"`
	Relationships Relationships       `json:"relationships"`
	ApproverID    *int                `json:"approver_id"`
	UploaderID    int                 `json:"uploader_id"`
	Description   string              `json:"description"`
	CommentCount  int                 `json:"comment_count"`
	IsFavorited   bool                `json:"is_favorited"`

	raw    json.RawMessage
	client origin
}

// parsePost constructs a Post from a raw server payload. The payload bytes
// are copied and retained for the lifetime of the post.
func parsePost(raw json.RawMessage, o origin) (*Post, error) {
	p := &Post{raw: bytes.Clone(raw), client: o}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("failed to parse post: %w", err)
	}
	return p, nil
}

// OriginalData returns a copy of the raw payload the post was built from.
// It is empty for posts that did not come from the server.
func (p *Post) OriginalData() json.RawMessage {
	return bytes.Clone(p.raw)
}

// TagsDifference computes the e621 tag diff string between the post's tags as
// returned by the server and the current working view.
func (p *Post) TagsDifference() (string, error) {
	var snapshot struct {
		Tags map[string][]string `json:"tags"`
	}
	if err := p.snapshot(&snapshot); err != nil {
		return "", err
	}
	return GenerateDifference(snapshot.Tags, p.Tags)
}

// SourcesDifference computes the diff string between the post's sources as
// returned by the server and the current working view.
func (p *Post) SourcesDifference() (string, error) {
	var snapshot struct {
		Sources []string `json:"sources"`
	}
	if err := p.snapshot(&snapshot); err != nil {
		return "", err
	}
	return GenerateDifference(snapshot.Sources, p.Sources)
}

func (p *Post) snapshot(v any) error {
	if len(p.raw) == 0 {
		return callerErrorf("post has no server snapshot to diff against")
	}
	return json.Unmarshal(p.raw, v)
}

// Note represents a positioned text annotation on a post's image
type Note struct {
	ID          int       `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatorID   int       `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Version     int       `json:"version"`
	IsActive    bool      `json:"is_active"`
	PostID      int       `json:"post_id"`
	Body        string    `json:"body"`

	raw    json.RawMessage
	client origin
}

func parseNote(raw json.RawMessage, o origin) (*Note, error) {
	n := &Note{raw: bytes.Clone(raw), client: o}
	if err := json.Unmarshal(raw, n); err != nil {
		return nil, fmt.Errorf("failed to parse note: %w", err)
	}
	return n, nil
}

// OriginalData returns a copy of the raw payload the note was built from.
func (n *Note) OriginalData() json.RawMessage {
	return bytes.Clone(n.raw)
}

// Pool represents an ordered, curated collection of posts
type Pool struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatorID   int       `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	IsDeleted   bool      `json:"is_deleted"`
	Category    Category  `json:"category"`
	PostIDs     []int     `json:"post_ids"`
	PostCount   int       `json:"post_count"`

	raw    json.RawMessage
	client origin
}

func parsePool(raw json.RawMessage, o origin) (*Pool, error) {
	p := &Pool{raw: bytes.Clone(raw), client: o}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("failed to parse pool: %w", err)
	}
	return p, nil
}

// OriginalData returns a copy of the raw payload the pool was built from.
func (p *Pool) OriginalData() json.RawMessage {
	return bytes.Clone(p.raw)
}

// Flag represents a moderation flag raised against a post
type Flag struct {
	ID         int       `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	PostID     int       `json:"post_id"`
	Reason     string    `json:"reason"`
	IsResolved bool      `json:"is_resolved"`
	IsDeletion bool      `json:"is_deletion"`
	Category   string    `json:"category"`

	raw    json.RawMessage
	client origin
}

func parseFlag(raw json.RawMessage, o origin) (*Flag, error) {
	f := &Flag{raw: bytes.Clone(raw), client: o}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("failed to parse flag: %w", err)
	}
	return f, nil
}

// Tag represents a descriptive tag tracked by the service
type Tag struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	PostCount   int         `json:"post_count"`
	RelatedTags string      `json:"related_tags"`
	Category    TagCategory `json:"category"`
	IsLocked    bool        `json:"is_locked"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	raw json.RawMessage
}

func parseTag(raw json.RawMessage) (*Tag, error) {
	t := &Tag{raw: bytes.Clone(raw)}
	if err := json.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("failed to parse tag: %w", err)
	}
	return t, nil
}

// VoteResult is the tally returned after voting on a post
type VoteResult struct {
	Score    int `json:"score"`
	Up       int `json:"up"`
	Down     int `json:"down"`
	OurScore int `json:"our_score"`
}

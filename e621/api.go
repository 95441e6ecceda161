package e621

import (
	"context"
	"encoding/json"
	"net/url"
)

// API is the operation contract every client satisfies. Client implements it
// directly; AsyncClient mirrors every method with a Future-returning variant
// and satisfies the blocking contract through its internal worker.
type API interface {
	// SearchPosts searches for posts by tags.
	SearchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error)

	// GetPost fetches a single post by id.
	GetPost(ctx context.Context, id int) (*Post, error)

	// SearchFlags searches for moderation flags.
	SearchFlags(ctx context.Context, opts FlagsOptions) ([]*Flag, error)

	// SearchNotes searches for notes.
	SearchNotes(ctx context.Context, opts NotesOptions) ([]*Note, error)

	// SearchPools searches for pools. Category and Order are validated
	// against their closed enumerations before anything is dispatched.
	SearchPools(ctx context.Context, opts PoolsOptions) ([]*Pool, error)

	// GetPool fetches a single pool by id.
	GetPool(ctx context.Context, id int) (*Pool, error)

	// SearchTags searches for tags.
	SearchTags(ctx context.Context, opts TagsOptions) ([]*Tag, error)

	// PoolPosts resolves every post belonging to a pool, in the pool's
	// canonical order, with prev/next navigation threaded through.
	PoolPosts(ctx context.Context, pool *Pool) ([]*LinkedPost, error)
}

// origin is the non-owning handle an entity keeps on the client that created
// it, used for follow-up calls such as Vote and pool resolution.
type origin interface {
	dispatch(ctx context.Context, method, path string, form url.Values, query url.Values) (json.RawMessage, error)
	getPost(ctx context.Context, id int) (*Post, error)
	searchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error)
}

var (
	_ API    = (*Client)(nil)
	_ origin = (*Client)(nil)
	_ origin = (*AsyncClient)(nil)
)

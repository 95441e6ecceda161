package e621

import (
	"context"
	"fmt"
	"strconv"
)

// LinkedPost decorates a resolved pool member with its neighbors in the
// pool's canonical order. Navigation is a convenience relation only: the
// wrapped posts live independently of each other.
type LinkedPost struct {
	*Post
	Prev *LinkedPost
	Next *LinkedPost
}

// postSearcher is the slice of the client surface the resolver needs.
type postSearcher interface {
	searchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error)
}

// resolvePoolPosts collects every post belonging to a pool by paginating the
// synthetic pool:<id> tag, then reorders the results to the pool's PostIDs.
// Pages are requested strictly sequentially: the service is rate limited and
// whether page N+1 exists is only known after counting page N.
func resolvePoolPosts(ctx context.Context, s postSearcher, pool *Pool) ([]*LinkedPost, error) {
	target := len(pool.PostIDs)
	if target == 0 {
		return nil, nil
	}

	tag := "pool:" + strconv.Itoa(pool.ID)
	byID := make(map[int]*Post, target)
	for page := 1; len(byID) < target; page++ {
		posts, err := s.searchPosts(ctx, PostsOptions{
			Tags: []string{tag},
			Page: strconv.Itoa(page),
		})
		if err != nil {
			return nil, err
		}
		before := len(byID)
		for _, p := range posts {
			byID[p.ID] = p
		}
		// An empty page, or a page that only repeats known posts, means the
		// server will never satisfy the pool's count.
		if len(byID) == before {
			return nil, callerErrorf("pool %d: server returned %d of %d posts", pool.ID, len(byID), target)
		}
	}

	linked := make([]*LinkedPost, 0, target)
	for _, id := range pool.PostIDs {
		p, ok := byID[id]
		if !ok {
			return nil, callerErrorf("pool %d: post %d missing from search results", pool.ID, id)
		}
		linked = append(linked, &LinkedPost{Post: p})
	}
	for i := range linked {
		if i > 0 {
			linked[i].Prev = linked[i-1]
		}
		if i < len(linked)-1 {
			linked[i].Next = linked[i+1]
		}
	}
	return linked, nil
}

// Posts resolves the pool's members through the client that fetched it. Pools
// built by hand have no origin client and fail fast.
//
// When the pool came from an AsyncClient the resolution serializes through
// that client's worker; AsyncClient.PoolPosts offers the same operation as a
// Future for callers that do not want to block.
func (p *Pool) Posts(ctx context.Context) ([]*LinkedPost, error) {
	if p.client == nil {
		return nil, fmt.Errorf("cannot resolve pool %d: %w", p.ID, ErrNoClient)
	}
	return resolvePoolPosts(ctx, p.client, p)
}

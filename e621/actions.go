package e621

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// The mutation endpoints below mirror the service's form conventions with
// bracketed field names. Several of them are thinly documented upstream;
// field sets follow the documented contract but should be re-verified against
// the live service before being relied on for moderation work.

// Vote casts a vote on the post. Score must be 1 or -1; voting the same way
// twice retracts the vote, which is the service's own toggle behavior.
func (p *Post) Vote(ctx context.Context, score int) (*VoteResult, error) {
	if p.client == nil {
		return nil, ErrNoClient
	}
	if score != 1 && score != -1 {
		return nil, ErrInvalidScore
	}
	form := url.Values{}
	form.Set("score", strconv.Itoa(score))
	body, err := p.client.dispatch(ctx, http.MethodPost, votePath(p.ID), form, nil)
	if err != nil {
		return nil, err
	}
	var result VoteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse vote response: %w", err)
	}
	return &result, nil
}

// Favorite adds the post to the authenticated user's favorites.
func (p *Post) Favorite(ctx context.Context) error {
	if p.client == nil {
		return ErrNoClient
	}
	form := url.Values{}
	form.Set("post_id", strconv.Itoa(p.ID))
	if _, err := p.client.dispatch(ctx, http.MethodPost, favoritesPath, form, nil); err != nil {
		return err
	}
	p.IsFavorited = true
	return nil
}

// Unfavorite removes the post from the authenticated user's favorites.
func (p *Post) Unfavorite(ctx context.Context) error {
	if p.client == nil {
		return ErrNoClient
	}
	if _, err := p.client.dispatch(ctx, http.MethodDelete, favoritePath(p.ID), nil, nil); err != nil {
		return err
	}
	p.IsFavorited = false
	return nil
}

// Update pushes local edits to the server. Tag and source changes are sent as
// diff strings computed against the retained server snapshot; description and
// rating are sent only when they differ from it. A post with no changes is a
// no-op that issues no request.
func (p *Post) Update(ctx context.Context) error {
	if p.client == nil {
		return ErrNoClient
	}
	tagDiff, err := p.TagsDifference()
	if err != nil {
		return err
	}
	sourceDiff, err := p.SourcesDifference()
	if err != nil {
		return err
	}
	var snap struct {
		Description string `json:"description"`
		Rating      Rating `json:"rating"`
	}
	if err := p.snapshot(&snap); err != nil {
		return err
	}

	form := url.Values{}
	if tagDiff != "" {
		form.Set("post[tag_string_diff]", tagDiff)
	}
	if sourceDiff != "" {
		form.Set("post[source_diff]", sourceDiff)
	}
	if p.Description != snap.Description {
		form.Set("post[description]", p.Description)
	}
	if p.Rating != snap.Rating {
		form.Set("post[rating]", string(p.Rating))
	}
	if len(form) == 0 {
		return nil
	}

	body, err := p.client.dispatch(ctx, http.MethodPatch, postPath(p.ID), form, nil)
	if err != nil {
		return err
	}
	return p.refresh(body)
}

// refresh replaces the post's state with the server's post-mutation view.
func (p *Post) refresh(body json.RawMessage) error {
	if len(body) == 0 {
		return nil
	}
	var envelope struct {
		Post json.RawMessage `json:"post"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Post) == 0 {
		return nil
	}
	fresh, err := parsePost(envelope.Post, p.client)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Post fetches the post this note annotates.
func (n *Note) Post(ctx context.Context) (*Post, error) {
	if n.client == nil {
		return nil, ErrNoClient
	}
	return n.client.getPost(ctx, n.PostID)
}

// Update pushes the note's body and bounding box to the server.
func (n *Note) Update(ctx context.Context) error {
	if n.client == nil {
		return ErrNoClient
	}
	form := url.Values{}
	form.Set("note[x]", strconv.Itoa(n.X))
	form.Set("note[y]", strconv.Itoa(n.Y))
	form.Set("note[width]", strconv.Itoa(n.Width))
	form.Set("note[height]", strconv.Itoa(n.Height))
	form.Set("note[body]", n.Body)
	_, err := n.client.dispatch(ctx, http.MethodPut, notePath(n.ID), form, nil)
	return err
}

// Delete removes the note from its post.
func (n *Note) Delete(ctx context.Context) error {
	if n.client == nil {
		return ErrNoClient
	}
	_, err := n.client.dispatch(ctx, http.MethodDelete, notePath(n.ID), nil, nil)
	return err
}

// Post fetches the post this flag was raised against.
func (f *Flag) Post(ctx context.Context) (*Post, error) {
	if f.client == nil {
		return nil, ErrNoClient
	}
	return f.client.getPost(ctx, f.PostID)
}

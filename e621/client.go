package e621

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client is the blocking e621 client. Every operation completes before
// returning; cancellation and deadlines come from the caller's context.
type Client struct {
	baseURL   string
	userAgent string
	username  string
	apiKey    string

	httpClient    *http.Client
	ownsTransport bool
	limiter       *rate.Limiter
	logger        zerolog.Logger

	// owner is the client entities reference back to. AsyncClient points
	// this at itself so entity follow-up calls serialize through its worker.
	owner origin
}

// NewClient creates a blocking client. The project name, version and creator
// identify the consumer to the service; e621 rejects anonymous user agents,
// so all three are required.
func NewClient(project, version, creator string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if project == "" || version == "" {
		return nil, callerErrorf("project name and version are required")
	}
	if creator == "" {
		return nil, callerErrorf("creator is required, the service bans anonymous user agents")
	}

	client := &Client{
		baseURL:       DefaultBaseURL,
		userAgent:     fmt.Sprintf("%s/%s (by %s on e621)", project, version, creator),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		ownsTransport: true,
		limiter:       rate.NewLimiter(2, 2),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.owner = client
	return client, nil
}

// Login supplies credentials for authenticated calls. An empty pair reverts
// the client to unauthenticated requests.
func (c *Client) Login(username, apiKey string) {
	c.username = username
	c.apiKey = apiKey
}

// Close releases the owned transport. Clients built around a caller-supplied
// HTTP client leave it untouched.
func (c *Client) Close() error {
	if c.ownsTransport {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

// dispatch performs one throttled HTTP call and returns the verified body.
// Verification and parsing happen outside the throttle window; only the
// outbound call consumes rate budget.
func (c *Client) dispatch(ctx context.Context, method, path string, form url.Values, query url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = bytes.NewReader([]byte(form.Encode()))
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.do(req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Dispatching e621 request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := verifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}

// SearchPosts searches for posts by tags.
func (c *Client) SearchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error) {
	body, err := c.dispatch(ctx, http.MethodGet, postsPath, nil, opts.query())
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Posts []json.RawMessage `json:"posts"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse posts response: %w", err)
	}
	posts := make([]*Post, 0, len(envelope.Posts))
	for _, raw := range envelope.Posts {
		p, err := parsePost(raw, c.owner)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	body, err := c.dispatch(ctx, http.MethodGet, postPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Post json.RawMessage `json:"post"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse post response: %w", err)
	}
	return parsePost(envelope.Post, c.owner)
}

// SearchFlags searches for moderation flags.
func (c *Client) SearchFlags(ctx context.Context, opts FlagsOptions) ([]*Flag, error) {
	body, err := c.dispatch(ctx, http.MethodGet, flagsPath, nil, opts.query())
	if err != nil {
		return nil, err
	}
	raws, err := bareArray(body, "flags")
	if err != nil {
		return nil, err
	}
	flags := make([]*Flag, 0, len(raws))
	for _, raw := range raws {
		f, err := parseFlag(raw, c.owner)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, nil
}

// SearchNotes searches for notes.
func (c *Client) SearchNotes(ctx context.Context, opts NotesOptions) ([]*Note, error) {
	body, err := c.dispatch(ctx, http.MethodGet, notesPath, nil, opts.query())
	if err != nil {
		return nil, err
	}
	raws, err := bareArray(body, "notes")
	if err != nil {
		return nil, err
	}
	notes := make([]*Note, 0, len(raws))
	for _, raw := range raws {
		n, err := parseNote(raw, c.owner)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// SearchPools searches for pools. Invalid Category or Order values fail
// before any network call is issued.
func (c *Client) SearchPools(ctx context.Context, opts PoolsOptions) ([]*Pool, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	body, err := c.dispatch(ctx, http.MethodGet, poolsPath, nil, opts.query())
	if err != nil {
		return nil, err
	}
	raws, err := bareArray(body, "pools")
	if err != nil {
		return nil, err
	}
	pools := make([]*Pool, 0, len(raws))
	for _, raw := range raws {
		p, err := parsePool(raw, c.owner)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, nil
}

// GetPool fetches a single pool by id.
func (c *Client) GetPool(ctx context.Context, id int) (*Pool, error) {
	body, err := c.dispatch(ctx, http.MethodGet, poolPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return parsePool(body, c.owner)
}

// SearchTags searches for tags.
func (c *Client) SearchTags(ctx context.Context, opts TagsOptions) ([]*Tag, error) {
	body, err := c.dispatch(ctx, http.MethodGet, tagsPath, nil, opts.query())
	if err != nil {
		return nil, err
	}
	raws, err := bareArray(body, "tags")
	if err != nil {
		return nil, err
	}
	tags := make([]*Tag, 0, len(raws))
	for _, raw := range raws {
		t, err := parseTag(raw)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// PoolPosts resolves every post belonging to a pool, in the pool's canonical
// order, with prev/next navigation threaded through.
func (c *Client) PoolPosts(ctx context.Context, pool *Pool) ([]*LinkedPost, error) {
	return resolvePoolPosts(ctx, c, pool)
}

func (c *Client) getPost(ctx context.Context, id int) (*Post, error) {
	return c.GetPost(ctx, id)
}

func (c *Client) searchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error) {
	return c.SearchPosts(ctx, opts)
}

// bareArray decodes a search response. These endpoints answer a bare JSON
// array, except that an empty result sometimes arrives wrapped as
// {"<key>": []} instead.
func bareArray(body []byte, key string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string][]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w", key, err)
		}
		return envelope[key], nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", key, err)
	}
	return raws, nil
}

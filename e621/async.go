package e621

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Future is the handle for an operation running on an AsyncClient.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or the context ends. A context
// error abandons the wait, not the underlying operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type asyncTask struct {
	run    func()
	cancel func()
}

// AsyncClient offers the same operation surface as Client with
// Future-returning methods. A single worker goroutine serializes outbound
// requests: two operations never hit the network concurrently, which keeps
// the rate-limited service happy.
//
// The worker starts at construction and stops at Close; the owned transport
// is released with it.
type AsyncClient struct {
	inner *Client

	tasks  chan asyncTask
	mu     sync.Mutex
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewAsyncClient creates an asynchronous client and starts its worker.
func NewAsyncClient(project, version, creator string, logger zerolog.Logger, opts ...Option) (*AsyncClient, error) {
	inner, err := NewClient(project, version, creator, logger, opts...)
	if err != nil {
		return nil, err
	}
	ac := &AsyncClient{
		inner: inner,
		tasks: make(chan asyncTask, 64),
	}
	// Entities parsed through this client reference it, so their follow-up
	// calls serialize through the worker too.
	inner.owner = ac

	ac.wg.Add(1)
	go ac.worker()
	return ac, nil
}

// Login supplies credentials for authenticated calls.
func (ac *AsyncClient) Login(username, apiKey string) {
	ac.inner.Login(username, apiKey)
}

// Close stops the worker, fails any queued operations with ErrClientClosed
// and releases the owned transport. It is idempotent.
func (ac *AsyncClient) Close() error {
	ac.mu.Lock()
	if !ac.closed.Swap(true) {
		close(ac.tasks)
	}
	ac.mu.Unlock()
	ac.wg.Wait()
	return ac.inner.Close()
}

func (ac *AsyncClient) worker() {
	defer ac.wg.Done()
	for t := range ac.tasks {
		if ac.closed.Load() {
			t.cancel()
			continue
		}
		t.run()
	}
}

// enqueue hands a task to the worker, reporting false when the client is
// already closed.
func (ac *AsyncClient) enqueue(t asyncTask) bool {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	if ac.closed.Load() {
		return false
	}
	ac.tasks <- t
	return true
}

// submit schedules op on the worker and returns its Future.
func submit[T any](ac *AsyncClient, ctx context.Context, op func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	t := asyncTask{
		run: func() {
			val, err := op(ctx)
			f.resolve(val, err)
		},
		cancel: func() {
			var zero T
			f.resolve(zero, ErrClientClosed)
		},
	}
	if !ac.enqueue(t) {
		t.cancel()
	}
	return f
}

// SearchPosts searches for posts by tags.
func (ac *AsyncClient) SearchPosts(ctx context.Context, opts PostsOptions) *Future[[]*Post] {
	return submit(ac, ctx, func(ctx context.Context) ([]*Post, error) {
		return ac.inner.SearchPosts(ctx, opts)
	})
}

// GetPost fetches a single post by id.
func (ac *AsyncClient) GetPost(ctx context.Context, id int) *Future[*Post] {
	return submit(ac, ctx, func(ctx context.Context) (*Post, error) {
		return ac.inner.GetPost(ctx, id)
	})
}

// SearchFlags searches for moderation flags.
func (ac *AsyncClient) SearchFlags(ctx context.Context, opts FlagsOptions) *Future[[]*Flag] {
	return submit(ac, ctx, func(ctx context.Context) ([]*Flag, error) {
		return ac.inner.SearchFlags(ctx, opts)
	})
}

// SearchNotes searches for notes.
func (ac *AsyncClient) SearchNotes(ctx context.Context, opts NotesOptions) *Future[[]*Note] {
	return submit(ac, ctx, func(ctx context.Context) ([]*Note, error) {
		return ac.inner.SearchNotes(ctx, opts)
	})
}

// SearchPools searches for pools.
func (ac *AsyncClient) SearchPools(ctx context.Context, opts PoolsOptions) *Future[[]*Pool] {
	return submit(ac, ctx, func(ctx context.Context) ([]*Pool, error) {
		return ac.inner.SearchPools(ctx, opts)
	})
}

// GetPool fetches a single pool by id.
func (ac *AsyncClient) GetPool(ctx context.Context, id int) *Future[*Pool] {
	return submit(ac, ctx, func(ctx context.Context) (*Pool, error) {
		return ac.inner.GetPool(ctx, id)
	})
}

// SearchTags searches for tags.
func (ac *AsyncClient) SearchTags(ctx context.Context, opts TagsOptions) *Future[[]*Tag] {
	return submit(ac, ctx, func(ctx context.Context) ([]*Tag, error) {
		return ac.inner.SearchTags(ctx, opts)
	})
}

// PoolPosts resolves a pool's posts as a single awaitable operation. The
// page-by-page pagination runs on the worker, so it never competes with other
// outbound requests from this client.
func (ac *AsyncClient) PoolPosts(ctx context.Context, pool *Pool) *Future[[]*LinkedPost] {
	return submit(ac, ctx, func(ctx context.Context) ([]*LinkedPost, error) {
		return resolvePoolPosts(ctx, ac.inner, pool)
	})
}

// Upload submits a prepared upload as an awaitable operation.
func (ac *AsyncClient) Upload(ctx context.Context, up *Upload) *Future[*UploadResult] {
	return submit(ac, ctx, func(ctx context.Context) (*UploadResult, error) {
		return ac.inner.Upload(ctx, up)
	})
}

// origin implementation: entity follow-up calls made from user goroutines
// serialize through the worker like any other operation.

func (ac *AsyncClient) dispatch(ctx context.Context, method, path string, form url.Values, query url.Values) (json.RawMessage, error) {
	f := submit(ac, ctx, func(ctx context.Context) (json.RawMessage, error) {
		return ac.inner.dispatch(ctx, method, path, form, query)
	})
	return f.Wait(ctx)
}

func (ac *AsyncClient) getPost(ctx context.Context, id int) (*Post, error) {
	return ac.GetPost(ctx, id).Wait(ctx)
}

func (ac *AsyncClient) searchPosts(ctx context.Context, opts PostsOptions) ([]*Post, error) {
	return ac.SearchPosts(ctx, opts).Wait(ctx)
}

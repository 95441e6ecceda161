package e621

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestClient creates a client pointed at a stub server, with the throttle
// opened up so tests are not pacing themselves.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("esixTest", "0.1", "tester", zerolog.Nop(),
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf, 1),
	)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		project string
		version string
		creator string
		wantErr string
	}{
		{name: "valid", project: "esixTest", version: "0.1", creator: "tester"},
		{name: "missing project", version: "0.1", creator: "tester", wantErr: "project name and version are required"},
		{name: "missing version", project: "esixTest", creator: "tester", wantErr: "project name and version are required"},
		{name: "missing creator", project: "esixTest", version: "0.1", wantErr: "creator is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.project, tt.version, tt.creator, zerolog.Nop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "esixTest/0.1 (by tester on e621)", client.userAgent)
			assert.Equal(t, DefaultBaseURL, client.baseURL)
		})
	}
}

func TestSearchPosts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts.json", r.URL.Path)
		assert.Equal(t, "canine fox", r.URL.Query().Get("tags"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "esixTest/0.1 (by tester on e621)", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"posts": [%s]}`, samplePostJSON)
	}))

	posts, err := client.SearchPosts(t.Context(), PostsOptions{
		Tags:  []string{"canine", "fox"},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 1383235, posts[0].ID)
	assert.NotEmpty(t, posts[0].OriginalData())
}

func TestGetPost(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/1383235.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
	}))

	post, err := client.GetPost(t.Context(), 1383235)
	require.NoError(t, err)
	assert.Equal(t, 1383235, post.ID)
	assert.Equal(t, RatingSafe, post.Rating)
}

func TestBasicAuthAfterLogin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("tester:secret-key"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"posts": []}`)
	}))
	client.Login("tester", "secret-key")

	_, err := client.SearchPosts(t.Context(), PostsOptions{})
	require.NoError(t, err)
}

func TestUnauthenticatedRequestsCarryNoAuth(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"posts": []}`)
	}))

	_, err := client.SearchPosts(t.Context(), PostsOptions{})
	require.NoError(t, err)
}

func TestSearchNotesBareArray(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notes.json", r.URL.Path)
		assert.Equal(t, "translated", r.URL.Query().Get("search[body_matches]"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 1, "post_id": 5, "body": "translated text"}]`)
	}))

	notes, err := client.SearchNotes(t.Context(), NotesOptions{BodyMatches: "translated"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, 5, notes[0].PostID)
}

func TestSearchFlags(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/post_flags.json", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("search[post_id]"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 9, "post_id": 5, "reason": "dupe"}]`)
	}))

	flags, err := client.SearchFlags(t.Context(), FlagsOptions{PostID: 5})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "dupe", flags[0].Reason)
}

func TestSearchPoolsValidatesBeforeDispatch(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.SearchPools(t.Context(), PoolsOptions{Category: "anthology"})
	var callerErr *CallerError
	require.ErrorAs(t, err, &callerErr)
	assert.Zero(t, calls.Load(), "invalid parameters must fail before any network call")
}

func TestGetPoolBareObject(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pools/17319.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 17319, "name": "Weekend_2", "category": "series", "post_ids": [1, 2], "post_count": 2}`)
	}))

	pool, err := client.GetPool(t.Context(), 17319)
	require.NoError(t, err)
	assert.Equal(t, "Weekend_2", pool.Name)
	assert.Equal(t, []int{1, 2}, pool.PostIDs)
}

func TestSearchTagsEnvelopedWhenEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tags": []}`)
	}))

	tags, err := client.SearchTags(t.Context(), TagsOptions{NameMatches: "zzzz*"})
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestSearchTags(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id": 3, "name": "keadonger", "category": 1, "post_count": 312}]`)
	}))

	tags, err := client.SearchTags(t.Context(), TagsOptions{NameMatches: "keadonger"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, TagArtist, tags[0].Category)
}

func TestErrorClassification(t *testing.T) {
	t.Run("404 surfaces as CallerError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"reason": "not found"}`)
		}))

		_, err := client.GetPost(t.Context(), 404404)
		var callerErr *CallerError
		require.ErrorAs(t, err, &callerErr)
		assert.Equal(t, "not found", callerErr.Message)
		assert.True(t, callerErr.IsNotFound())
	})

	t.Run("500 surfaces as ServiceError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.GetPost(t.Context(), 1)
		var serviceErr *ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Equal(t, http.StatusInternalServerError, serviceErr.StatusCode)
	})

	t.Run("204 succeeds with no body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		body, err := client.dispatch(t.Context(), http.MethodDelete, notePath(1), nil, nil)
		require.NoError(t, err)
		assert.Nil(t, body)
	})
}

func TestRateLimitDelaysDispatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"posts": []}`)
	}))
	defer server.Close()

	client, err := NewClient("esixTest", "0.1", "tester", zerolog.Nop(),
		WithBaseURL(server.URL),
		WithRateLimit(rate.Every(100*time.Millisecond), 1),
	)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.SearchPosts(t.Context(), PostsOptions{})
		require.NoError(t, err)
	}
	// First call spends the burst, the next two wait ~100ms each.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestPostVote(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/posts/1383235.json" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
			return
		}
		assert.Equal(t, "/posts/1383235/votes.json", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1", r.PostForm.Get("score"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"score": 93, "up": 94, "down": -1, "our_score": 1}`)
	}))

	post, err := client.GetPost(t.Context(), 1383235)
	require.NoError(t, err)

	result, err := post.Vote(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.OurScore)

	_, err = post.Vote(t.Context(), 2)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestPostVoteWithoutClient(t *testing.T) {
	post := &Post{ID: 1}
	_, err := post.Vote(t.Context(), 1)
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestPostFavorite(t *testing.T) {
	var favorited, unfavorited bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/posts/1383235.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
		case r.URL.Path == "/favorites.json" && r.Method == http.MethodPost:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "1383235", r.PostForm.Get("post_id"))
			favorited = true
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
		case r.URL.Path == "/favorites/1383235.json" && r.Method == http.MethodDelete:
			unfavorited = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	post, err := client.GetPost(t.Context(), 1383235)
	require.NoError(t, err)

	require.NoError(t, post.Favorite(t.Context()))
	assert.True(t, favorited)
	assert.True(t, post.IsFavorited)

	require.NoError(t, post.Unfavorite(t.Context()))
	assert.True(t, unfavorited)
	assert.False(t, post.IsFavorited)
}

func TestPostUpdateSendsDiffs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/posts/1383235.json" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
			return
		}
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "sitting -fox", r.PostForm.Get("post[tag_string_diff]"))
		assert.Equal(t, "a new description", r.PostForm.Get("post[description]"))
		assert.False(t, r.PostForm.Has("post[rating]"), "unchanged rating must not be sent")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
	}))

	post, err := client.GetPost(t.Context(), 1383235)
	require.NoError(t, err)

	post.Tags["species"] = []string{"canine"}
	post.Tags["general"] = append(post.Tags["general"], "sitting")
	post.Description = "a new description"

	require.NoError(t, post.Update(t.Context()))
}

func TestNotePostFollowsForeignKey(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"id": 1, "post_id": 1383235, "body": "hi"}]`)
		case "/posts/1383235.json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"post": %s}`, samplePostJSON)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))

	notes, err := client.SearchNotes(t.Context(), NotesOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	post, err := notes[0].Post(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1383235, post.ID)
}

// Package e621 provides a client for the e621 imageboard REST API.
//
// Two clients share one surface: Client blocks on every call, AsyncClient
// mirrors each operation with a Future-returning variant and serializes its
// outbound requests on a single worker. Both apply the same query encoding,
// the same response verification and the same entity construction, and both
// throttle outbound calls to the service's allowance of two requests per
// second.
//
// # Usage
//
// Create a client with your project's identity. The service requires a
// descriptive User-Agent and bans anonymous ones, so all three fields are
// mandatory:
//
//	logger := zerolog.New(os.Stderr)
//	client, err := e621.NewClient("MyProject", "1.0", "my_username", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Login("my_username", "my-api-key") // optional
//
//	ctx := context.Background()
//	posts, err := client.SearchPosts(ctx, e621.PostsOptions{
//		Tags:  []string{"canine", "order:score"},
//		Limit: 10,
//	})
//
// Pools resolve into their posts in canonical order, with prev/next
// navigation threaded across the sequence:
//
//	pools, err := client.SearchPools(ctx, e621.PoolsOptions{NameMatches: "Critical Success"})
//	linked, err := pools[0].Posts(ctx)
//
// The asynchronous variant looks the same but returns futures:
//
//	async, err := e621.NewAsyncClient("MyProject", "1.0", "my_username", logger)
//	defer async.Close()
//
//	future := async.SearchPosts(ctx, e621.PostsOptions{Tags: []string{"canine"}})
//	posts, err := future.Wait(ctx)
//
// # Local edits
//
// Entities parsed from the server retain their raw payload. Mutating the
// typed fields and calling Update sends the service an e621-style diff
// computed against that snapshot:
//
//	post.Tags["general"] = append(post.Tags["general"], "sitting")
//	err = post.Update(ctx)
//
// # Error Handling
//
// Failures classify into three types:
//
//   - CallerError: caller-correctable, including all 4xx responses, invalid
//     search parameters and missing resources
//   - ServiceError: server-side faults, any 5xx response
//   - ShapeMismatchError: diffing values of incompatible shapes
//
// CallerError exposes the raw server payload plus IsNotFound and
// IsUnauthorized helpers:
//
//	var callerErr *e621.CallerError
//	if errors.As(err, &callerErr) && callerErr.IsNotFound() {
//		// handle missing post
//	}
package e621

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/esix-go/esix/e621"
	"github.com/esix-go/esix/filter"
)

var (
	searchLimit  int
	searchPage   string
	searchFilter string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [tags...]",
	Short: "Search posts by tags",
	Long: `Search posts by tags, optionally narrowing the results with a client-side
filter expression:

  esix search canine order:score --filter 'rating == "s" && score > 100'`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "maximum number of posts")
	searchCmd.Flags().StringVar(&searchPage, "page", "", "result page (number or cursor like b12345)")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "filter expression")
}

func runSearch(cmd *cobra.Command, args []string) error {
	var postFilter *filter.Filter
	if searchFilter != "" {
		var err error
		postFilter, err = filter.Compile(searchFilter)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	posts, err := client.SearchPosts(ctx, e621.PostsOptions{
		Tags:  args,
		Limit: searchLimit,
		Page:  searchPage,
	})
	if err != nil {
		return err
	}

	matched := 0
	for _, post := range posts {
		if postFilter != nil {
			ok, err := postFilter.Match(post)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		matched++
		printPost(post)
	}

	if matched == 0 {
		fmt.Println("No posts found.")
	}
	return nil
}

func printPost(post *e621.Post) {
	fmt.Printf("#%d [%s] score %d, %d favorites\n",
		post.ID, post.Rating, post.Score.Total, post.FavCount)
	if artists := post.Tags["artist"]; len(artists) > 0 {
		fmt.Printf("  Artist: %s\n", strings.Join(artists, ", "))
	}
	if post.File.URL != "" {
		fmt.Printf("  %s\n", post.File.URL)
	}
}

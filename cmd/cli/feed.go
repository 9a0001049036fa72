package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse your feed",
	Long:  "Commands for reading your connection feed and gig recommendations",
}

var (
	feedLimit  int
	feedCursor string
)

var feedPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Show recent posts from your connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFeed("posts")
	},
}

var feedRecsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Show recent gig requests you might answer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showFeed("recommendations")
	},
}

func init() {
	feedCmd.PersistentFlags().IntVar(&feedLimit, "limit", 0, "Page size (default server-side)")
	feedPostsCmd.Flags().StringVar(&feedCursor, "cursor", "", "Resume from a next_cursor value")

	feedCmd.AddCommand(feedPostsCmd)
	feedCmd.AddCommand(feedRecsCmd)
}

type feedPost struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	User  struct {
		Username string `json:"username"`
	} `json:"user"`
	Location      string `json:"location"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	CreatedAt     string `json:"created_at"`
}

func showFeed(component string) error {
	query := url.Values{}
	query.Set("component", component)
	if feedLimit > 0 {
		query.Set("limit", strconv.Itoa(feedLimit))
	}
	if feedCursor != "" {
		query.Set("cursor", feedCursor)
	}

	body, err := apiRequest("GET", "/api/v1/feed?"+query.Encode(), nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	var resp struct {
		Posts           []feedPost `json:"posts"`
		Recommendations []feedPost `json:"recommendations"`
		NextCursor      string     `json:"next_cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	posts := resp.Posts
	header := "📰 Feed"
	if component == "recommendations" {
		posts = resp.Recommendations
		header = "🎯 Gig recommendations"
	}

	if len(posts) == 0 {
		fmt.Println("Nothing here yet")
		return nil
	}

	fmt.Printf("\n%s (%d)\n", header, len(posts))
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	for _, post := range posts {
		fmt.Printf("[%s] %s — @%s", post.Type, post.Title, post.User.Username)
		if post.Location != "" {
			fmt.Printf(" (%s)", post.Location)
		}
		fmt.Printf("\n        %d likes · %d comments · %s\n", post.LikesCount, post.CommentsCount, post.CreatedAt)
	}
	if resp.NextCursor != "" {
		fmt.Printf("\nNext page: lineup feed posts --cursor %s\n", resp.NextCursor)
	}
	fmt.Printf("\n")
	return nil
}

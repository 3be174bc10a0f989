package command

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// PostCommand returns the post subcommand group.
func PostCommand() *cli.Command {
	return &cli.Command{
		Name:    "post",
		Aliases: []string{"posts"},
		Usage:   "Read and write the community feed",
		Subcommands: []*cli.Command{
			{
				Name:   "feed",
				Usage:  "Show the feed, newest first",
				Action: postFeed,
			},
			{
				Name:      "create",
				Usage:     "Publish a post",
				ArgsUsage: "CONTENT...",
				Action:    postCreate,
			},
			{
				Name:      "like",
				Usage:     "Like a post, or unlike it if already liked",
				ArgsUsage: "POST_ID",
				Action:    postLike,
			},
		},
	}
}

type feed []domain.FeedItem

func (f feed) Table() *output.Table {
	t := output.NewTable("ID", "AUTHOR", "LIKES", "LIKED", "POSTED", "CONTENT")
	for _, p := range f {
		liked := ""
		if p.IsLiked {
			liked = "yes"
		}
		t.AddRow(p.ID, p.Author.FullName, strconv.Itoa(p.LikeCount), liked, output.Time(p.CreatedAt), output.Truncate(p.Content, 50))
	}
	return t
}

type postView domain.Post

func (p postView) Table() *output.Table {
	t := output.NewTable("ID", "POSTED", "CONTENT")
	t.AddRow(p.ID, output.Time(p.CreatedAt), output.Truncate(p.Content, 50))
	return t
}

type likeState struct {
	IsLiked bool `json:"is_liked"`
}

func (l likeState) Table() *output.Table {
	text := "Unliked"
	if l.IsLiked {
		text = "Liked"
	}
	return &output.Table{Rows: [][]string{{text}}}
}

func postFeed(c *cli.Context) error {
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var items feed
	if err := client.Get(ctx, "/api/posts", &items); err != nil {
		return err
	}
	return render(c, items)
}

func postCreate(c *cli.Context) error {
	content := strings.Join(c.Args().Slice(), " ")
	if content == "" {
		return errors.New("post content required")
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var post postView
	if err := client.Post(ctx, "/api/posts", domain.CreatePostInput{Content: content}, &post); err != nil {
		return err
	}
	return render(c, post)
}

func postLike(c *cli.Context) error {
	id, err := requireArg(c, "post ID")
	if err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var state likeState
	if err := client.Post(ctx, "/api/posts/"+url.PathEscape(id)+"/like", nil, &state); err != nil {
		return err
	}
	return render(c, state)
}

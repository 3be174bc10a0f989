package command

import (
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// IssueCommand returns the issue subcommand group.
func IssueCommand() *cli.Command {
	return &cli.Command{
		Name:    "issue",
		Aliases: []string{"issues"},
		Usage:   "Manage your security issues",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List issues, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Cloud Security, Reteam Assessment or VAPT"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match title or description"},
				},
				Action: issueList,
			},
			{
				Name:      "get",
				Usage:     "Show one issue",
				ArgsUsage: "ISSUE_ID",
				Action:    issueGet,
			},
			{
				Name:  "create",
				Usage: "Report an issue",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true},
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Required: true},
				}, issueStateFlags()...),
				Action: issueCreate,
			},
			{
				Name:      "update",
				Usage:     "Change fields of an issue",
				ArgsUsage: "ISSUE_ID",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}},
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
				}, issueStateFlags()...),
				Action: issueUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete an issue",
				ArgsUsage: "ISSUE_ID",
				Action:    issueDelete,
			},
		},
	}
}

func issueStateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "priority", Usage: "Low, Medium, High or Critical"},
		&cli.StringFlag{Name: "status", Usage: "Open, In Progress, Resolved or Closed"},
	}
}

type issueTable []domain.Issue

func (l issueTable) Table() *output.Table {
	t := output.NewTable("ID", "TYPE", "PRIORITY", "STATUS", "TITLE", "UPDATED")
	for _, i := range l {
		t.AddRow(i.ID, string(i.Type), string(i.Priority), string(i.Status), output.Truncate(i.Title, 40), output.Time(i.UpdatedAt))
	}
	return t
}

type issueView domain.Issue

func (i issueView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("id", i.ID)
	t.AddRow("type", string(i.Type))
	t.AddRow("title", i.Title)
	t.AddRow("description", i.Description)
	t.AddRow("priority", string(i.Priority))
	t.AddRow("status", string(i.Status))
	t.AddRow("created_at", output.Time(i.CreatedAt))
	t.AddRow("updated_at", output.Time(i.UpdatedAt))
	return t
}

func issueList(c *cli.Context) error {
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	q := url.Values{}
	if v := c.String("type"); v != "" {
		q.Set("type", v)
	}
	if v := c.String("search"); v != "" {
		q.Set("search", v)
	}
	path := "/api/issues"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var issues issueTable
	if err := client.Get(ctx, path, &issues); err != nil {
		return err
	}
	return render(c, issues)
}

func issueGet(c *cli.Context) error {
	id, err := requireArg(c, "issue ID")
	if err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var issue issueView
	if err := client.Get(ctx, "/api/issues/"+url.PathEscape(id), &issue); err != nil {
		return err
	}
	return render(c, issue)
}

func issueCreate(c *cli.Context) error {
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	in := domain.CreateIssueInput{
		Type:        domain.IssueType(c.String("type")),
		Title:       c.String("title"),
		Description: c.String("description"),
		Priority:    domain.IssuePriority(c.String("priority")),
		Status:      domain.IssueStatus(c.String("status")),
	}
	var issue issueView
	if err := client.Post(ctx, "/api/issues", in, &issue); err != nil {
		return err
	}
	return render(c, issue)
}

func issueUpdate(c *cli.Context) error {
	id, err := requireArg(c, "issue ID")
	if err != nil {
		return err
	}

	var in domain.UpdateIssueInput
	if c.IsSet("type") {
		v := domain.IssueType(c.String("type"))
		in.Type = &v
	}
	if c.IsSet("title") {
		v := c.String("title")
		in.Title = &v
	}
	if c.IsSet("description") {
		v := c.String("description")
		in.Description = &v
	}
	if c.IsSet("priority") {
		v := domain.IssuePriority(c.String("priority"))
		in.Priority = &v
	}
	if c.IsSet("status") {
		v := domain.IssueStatus(c.String("status"))
		in.Status = &v
	}

	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var issue issueView
	if err := client.Put(ctx, "/api/issues/"+url.PathEscape(id), in, &issue); err != nil {
		return err
	}
	return render(c, issue)
}

func issueDelete(c *cli.Context) error {
	id, err := requireArg(c, "issue ID")
	if err != nil {
		return err
	}
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var resp message
	if err := client.Delete(ctx, "/api/issues/"+url.PathEscape(id), &resp); err != nil {
		return err
	}
	return render(c, resp)
}

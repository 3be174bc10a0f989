package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Action: profileShow,
			},
			{
				Name:  "update",
				Usage: "Change profile fields; only the flags given are sent",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Full name"},
					&cli.StringFlag{Name: "role"},
					&cli.StringFlag{Name: "bio"},
					&cli.StringFlag{Name: "location"},
					&cli.StringFlag{Name: "status"},
				},
				Action: profileUpdate,
			},
		},
	}
}

type profile domain.User

func (p profile) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("id", p.ID)
	t.AddRow("email", p.Email)
	t.AddRow("full_name", p.FullName)
	t.AddRow("role", p.Role)
	t.AddRow("sector", p.Sector)
	t.AddRow("bio", output.Truncate(p.Bio, 60))
	t.AddRow("location", p.Location)
	t.AddRow("status", p.Status)
	t.AddRow("member_since", output.Time(p.CreatedAt))
	return t
}

func profileShow(c *cli.Context) error {
	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var p profile
	if err := client.Get(ctx, "/api/users/profile", &p); err != nil {
		return err
	}
	return render(c, p)
}

func profileUpdate(c *cli.Context) error {
	var in domain.UpdateProfileInput
	for flag, field := range map[string]**string{
		"name":     &in.FullName,
		"role":     &in.Role,
		"bio":      &in.Bio,
		"location": &in.Location,
		"status":   &in.Status,
	} {
		if c.IsSet(flag) {
			v := c.String(flag)
			*field = &v
		}
	}

	client, err := newClient(c, true)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var p profile
	if err := client.Put(ctx, "/api/users/profile", in, &p); err != nil {
		return err
	}
	return render(c, p)
}

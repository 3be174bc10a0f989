package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show client version and server health",
		Action: versionAction,
	}
}

type versionInfo struct {
	Client buildinfo.Info `json:"client"`
	Server string         `json:"server"`
	Status string         `json:"status"`
}

func (v versionInfo) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("version", v.Client.Version)
	t.AddRow("commit", v.Client.Commit)
	t.AddRow("go", v.Client.GoVersion)
	t.AddRow("server", v.Server)
	t.AddRow("server_status", v.Status)
	return t
}

func versionAction(c *cli.Context) error {
	info := versionInfo{Client: buildinfo.Get(), Status: "unreachable"}

	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	info.Server = client.BaseURL()

	ctx, cancel := requestContext(c)
	defer cancel()
	var health struct {
		Status string `json:"status"`
	}
	if err := client.Get(ctx, "/health", &health); err == nil {
		info.Status = health.Status
	}
	return render(c, info)
}

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/config"
	"github.com/yndnr/secdesk-go/internal/cli/connection"
	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/secdesk-go/internal/infra/tlsconf"
)

// DefaultServer is used when neither --server nor SECDESK_SERVER is set.
const DefaultServer = "http://127.0.0.1:5000"

// ErrNotLoggedIn is returned by commands that need a saved session.
var ErrNotLoggedIn = errors.New("not logged in, run: secdesk-cli auth login")

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "secdesk-cli",
		Usage:   "SecDesk command-line client",
		Version: buildinfo.Get().Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AuthCommand(),
			IssueCommand(),
			PostCommand(),
			ProfileCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "SecDesk server URL",
			EnvVars: []string{"SECDESK_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:    "credentials",
			Usage:   "File holding the saved session",
			EnvVars: []string{"SECDESK_CREDENTIALS"},
			Value:   config.DefaultPath(),
		},
		&cli.StringFlag{
			Name:    "ca-cert",
			Usage:   "PEM bundle trusted for HTTPS servers",
			EnvVars: []string{"SECDESK_CA_CERT"},
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: 30 * time.Second,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server      string
	Output      output.Format
	Credentials string
	CACert      string
	Insecure    bool
	Timeout     time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Server:      connection.NormalizeServer(c.String("server")),
		Output:      format,
		Credentials: c.String("credentials"),
		CACert:      c.String("ca-cert"),
		Insecure:    c.Bool("insecure"),
		Timeout:     c.Duration("timeout"),
	}
}

// newClient builds an API client. With authenticated set, the saved
// session for the selected server is attached or ErrNotLoggedIn returned.
func newClient(c *cli.Context, authenticated bool) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)

	opts := connection.Options{
		Timeout:   flags.Timeout,
		UserAgent: "secdesk-cli/" + buildinfo.Get().Version,
	}
	if strings.HasPrefix(flags.Server, "https://") {
		tlsCfg, err := tlsconf.ClientConfig(flags.CACert, flags.Insecure)
		if err != nil {
			return nil, err
		}
		opts.TLS = tlsCfg
	}

	if authenticated {
		creds, err := config.Load(flags.Credentials)
		if err != nil {
			return nil, err
		}
		if !creds.Valid(flags.Server, time.Now()) {
			return nil, ErrNotLoggedIn
		}
		opts.Token = creds.Token
	}
	return connection.NewClient(flags.Server, opts), nil
}

// render writes v to the app's writer in the selected format.
func render(c *cli.Context, v any) error {
	p := &output.Printer{Format: ParseGlobalFlags(c).Output, Out: c.App.Writer}
	return p.Print(v)
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, ParseGlobalFlags(c).Timeout)
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, name string) (string, error) {
	v := c.Args().First()
	if v == "" {
		return "", fmt.Errorf("%s required", name)
	}
	return v, nil
}

// secret returns the named flag or prompts for it on the app's reader.
func secret(c *cli.Context, flag, prompt string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	fmt.Fprint(c.App.ErrWriter, prompt+": ")
	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", flag, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// message is a plain server acknowledgement.
type message struct {
	Message string `json:"message"`
}

func (m message) Table() *output.Table {
	return &output.Table{Rows: [][]string{{m.Message}}}
}

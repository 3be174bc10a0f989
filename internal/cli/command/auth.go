package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/secdesk-go/internal/cli/config"
	"github.com/yndnr/secdesk-go/internal/cli/output"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, sign in and manage passwords",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"SECDESK_PASSWORD"}, Usage: "Prompted for when omitted"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Full name", Required: true},
					&cli.StringFlag{Name: "designation", Usage: "Job title"},
					&cli.StringFlag{Name: "sector", Usage: "Industry sector"},
				},
				Action: authRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"SECDESK_PASSWORD"}, Usage: "Prompted for when omitted"},
				},
				Action: authLogin,
			},
			{
				Name:   "logout",
				Usage:  "End the session and forget the saved token",
				Action: authLogout,
			},
			{
				Name:  "forgot-password",
				Usage: "Request a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
				},
				Action: authForgot,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with a reset token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Required: true, Usage: "Token from the reset email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"SECDESK_PASSWORD"}, Usage: "Prompted for when omitted"},
				},
				Action: authReset,
			},
		},
	}
}

type session struct {
	User  domain.User `json:"user"`
	Token string      `json:"token,omitempty"`
}

func (s session) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("id", s.User.ID)
	t.AddRow("email", s.User.Email)
	t.AddRow("full_name", s.User.FullName)
	t.AddRow("role", s.User.Role)
	t.AddRow("sector", s.User.Sector)
	return t
}

func authRegister(c *cli.Context) error {
	password, err := secret(c, "password", "Password")
	if err != nil {
		return err
	}
	return signIn(c, "/api/auth/register", domain.RegisterInput{
		Email:       c.String("email"),
		Password:    password,
		FullName:    c.String("name"),
		Designation: c.String("designation"),
		Sector:      c.String("sector"),
	}, c.String("email"))
}

func authLogin(c *cli.Context) error {
	password, err := secret(c, "password", "Password")
	if err != nil {
		return err
	}
	return signIn(c, "/api/auth/login", domain.LoginInput{
		Email:    c.String("email"),
		Password: password,
	}, c.String("email"))
}

func signIn(c *cli.Context, path string, body any, email string) error {
	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var resp session
	if err := client.Post(ctx, path, body, &resp); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	creds := &config.Credentials{
		Server:    flags.Server,
		Email:     email,
		Token:     resp.Token,
		ExpiresAt: tokenExpiry(resp.Token),
	}
	if err := config.Save(flags.Credentials, creds); err != nil {
		return err
	}
	return render(c, resp.withoutToken())
}

// withoutToken drops the token from printed output.
func (s session) withoutToken() session {
	s.Token = ""
	return s
}

// tokenExpiry reads exp without verifying the signature.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func authLogout(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	client, err := newClient(c, true)
	if errors.Is(err, ErrNotLoggedIn) {
		return render(c, message{Message: "Not logged in"})
	}
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var resp message
	if err := client.Post(ctx, "/api/auth/logout", nil, &resp); err != nil {
		return err
	}
	if err := config.Remove(flags.Credentials); err != nil {
		return err
	}
	return render(c, resp)
}

func authForgot(c *cli.Context) error {
	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var resp message
	if err := client.Post(ctx, "/api/auth/forgot-password", domain.ForgotPasswordInput{Email: c.String("email")}, &resp); err != nil {
		return err
	}
	return render(c, resp)
}

func authReset(c *cli.Context) error {
	password, err := secret(c, "password", "New password")
	if err != nil {
		return err
	}
	client, err := newClient(c, false)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	var resp message
	err = client.Post(ctx, "/api/auth/reset-password", domain.ResetPasswordInput{
		Token:    c.String("token"),
		Password: password,
	}, &resp)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return render(c, resp)
}

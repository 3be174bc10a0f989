package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

const layout = `<!DOCTYPE html>
<html>
<body style="font-family:'Courier New',monospace;background:#000;color:#ccc">
<div style="max-width:600px;margin:0 auto;padding:20px;border:1px solid #333">
<div style="border-bottom:1px solid #333;padding-bottom:16px;margin-bottom:16px;color:#00ff00;font-size:24px;font-weight:bold">SECDESK</div>
{{template "content" .}}
<div style="margin-top:40px;border-top:1px solid #333;padding-top:16px;font-size:12px;color:#666">
<p>SECURE TRANSMISSION // END OF LINE</p>
<p>&copy; {{.Year}} SecDesk</p>
</div>
</div>
</body>
</html>`

var contents = map[domain.NotificationKind]string{
	domain.NotifyWelcome: `
<h1>WELCOME {{.Name}}</h1>
<p>Your account has been created.</p>
<p>Use the dashboard to report vulnerabilities, track threats and collaborate with the team.</p>
<a href="{{.AppURL}}/dashboard" style="color:#00ff00">ACCESS DASHBOARD</a>`,

	domain.NotifyIssueCreated: `
<h1 style="color:#ff0000">NEW ISSUE REPORTED</h1>
<p><strong>{{.Name}}</strong> has filed a new report.</p>
<table style="width:100%;border-collapse:collapse">
<tr><td style="color:#666;width:120px">TYPE</td><td style="color:#00ff00">{{.IssueType}}</td></tr>
<tr><td style="color:#666">TITLE</td><td>{{.IssueTitle}}</td></tr>
<tr><td style="color:#666">STATUS</td><td>OPEN</td></tr>
</table>
<a href="{{.AppURL}}/dashboard/issues" style="color:#00ff00">VIEW REPORT</a>`,

	domain.NotifyProfileUpdated: `
<h1>PROFILE UPDATED</h1>
<p>Hello {{.Name}}, the profile details on your account were changed.</p>
<p>If you did not make this change, reset your password immediately.</p>
<a href="{{.AppURL}}/profile" style="color:#00ff00">REVIEW PROFILE</a>`,

	domain.NotifyPasswordReset: `
<h1>RESET YOUR CREDENTIALS</h1>
<p>Hello {{.Name}}, a password reset was requested for your account.</p>
<p>The link below expires in one hour. Ignore this message if you did not ask for it.</p>
<a href="{{.ResetLink}}" style="color:#00ff00">RESET PASSWORD</a>`,
}

type envelope struct {
	sender  string
	subject func(n domain.Notification) string
}

var envelopes = map[domain.NotificationKind]envelope{
	domain.NotifyWelcome: {
		sender:  "SecDesk",
		subject: func(domain.Notification) string { return "Welcome to SecDesk Dashboard" },
	},
	domain.NotifyIssueCreated: {
		sender:  "SecDesk Dashboard",
		subject: func(n domain.Notification) string { return "[ALERT] New Issue: " + n.IssueTitle },
	},
	domain.NotifyProfileUpdated: {
		sender:  "SecDesk Security",
		subject: func(domain.Notification) string { return "[SECURITY] Profile Information Updated" },
	},
	domain.NotifyPasswordReset: {
		sender:  "SecDesk Security",
		subject: func(domain.Notification) string { return "[ACTION REQUIRED] Reset Your Credentials" },
	},
}

type templateData struct {
	Name       string
	IssueTitle string
	IssueType  string
	ResetLink  string
	AppURL     string
	Year       int
}

// Renderer turns notifications into messages.
type Renderer struct {
	from      string
	appURL    string
	templates map[domain.NotificationKind]*template.Template
}

// NewRenderer parses every template. from is the bare sender address.
func NewRenderer(from, appURL string) (*Renderer, error) {
	base, err := template.New("layout").Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{
		from:      from,
		appURL:    strings.TrimRight(appURL, "/"),
		templates: make(map[domain.NotificationKind]*template.Template, len(contents)),
	}
	for kind, body := range contents {
		t, err := template.Must(base.Clone()).New("content").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.templates[kind] = t
	}
	return r, nil
}

// Render builds the message for n.
func (r *Renderer) Render(n domain.Notification, now time.Time) (Message, error) {
	t, ok := r.templates[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification kind %q", n.Kind)
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout", templateData{
		Name:       n.Name,
		IssueTitle: n.IssueTitle,
		IssueType:  strings.ToUpper(string(n.IssueType)),
		ResetLink:  n.ResetLink,
		AppURL:     r.appURL,
		Year:       now.Year(),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", n.Kind, err)
	}

	env := envelopes[n.Kind]
	return Message{
		From:    fmt.Sprintf("%s <%s>", env.sender, r.from),
		To:      n.To,
		Subject: env.subject(n),
		HTML:    buf.String(),
	}, nil
}

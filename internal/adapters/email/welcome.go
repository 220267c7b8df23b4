package email

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

var (
	welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>An administrator account has been created for you at <strong>{{.Branch}}</strong>.</p>
<p>Sign in with <strong>{{.Email}}</strong>{{if .LoginURL}} at <a href="{{.LoginURL}}">{{.LoginURL}}</a>{{end}}.
Your password was set by the super admin who created the account.</p>`))

	welcomeText = template.Must(template.New("welcome").Parse(`Hi {{.Name}},

An administrator account has been created for you at {{.Branch}}.
Sign in with {{.Email}}{{if .LoginURL}} at {{.LoginURL}}{{end}}.
Your password was set by the super admin who created the account.
`))
)

// Welcome is the email a new branch admin receives.
type Welcome struct {
	Name     string
	Branch   string
	Email    string
	LoginURL string // optional
}

// Message renders w for delivery to w.Email.
func (w Welcome) Message() (Message, error) {
	var html, text bytes.Buffer
	if err := welcomeHTML.Execute(&html, w); err != nil {
		return Message{}, err
	}
	if err := welcomeText.Execute(&text, w); err != nil {
		return Message{}, err
	}
	return Message{
		To:      w.Email,
		Subject: "Your " + w.Branch + " admin account",
		HTML:    html.String(),
		Text:    text.String(),
		Tag:     "welcome",
	}, nil
}

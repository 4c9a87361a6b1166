package notifications

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

const expiryLayout = "Jan 2, 2006 15:04 MST"

func render(ctx context.Context, tpl templ.Component) (string, error) {
	var sb strings.Builder
	if err := tpl.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head><body style="font-family:Arial,sans-serif;color:#1f2933;">`,
			templ.EscapeString(title),
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func actionEmail(greetingName, intro, linkLabel, link string, expiresAt time.Time, supportEmail string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		href := templ.EscapeString(string(templ.URL(link)))
		_, err := fmt.Fprintf(w,
			`<p>Hello %s,</p><p>%s</p><p><a href="%s">%s</a></p><p>If the button does not work, copy this address into your browser:<br>%s</p><p>This link expires on %s and can only be used once.</p><p>Questions? Write to <a href="mailto:%s">%s</a>.</p>`,
			templ.EscapeString(greetingName),
			templ.EscapeString(intro),
			href,
			templ.EscapeString(linkLabel),
			templ.EscapeString(link),
			templ.EscapeString(expiresAt.UTC().Format(expiryLayout)),
			templ.EscapeString(supportEmail),
			templ.EscapeString(supportEmail),
		)
		return err
	})
}

func contactEmail(msg ContactMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		phone := msg.Phone
		if phone == "" {
			phone = "not provided"
		}
		message := strings.ReplaceAll(templ.EscapeString(msg.Message), "\n", "<br>")
		_, err := fmt.Fprintf(w,
			`<h2>New contact request</h2><p><strong>From:</strong> %s %s &lt;%s&gt;</p><p><strong>Phone:</strong> %s</p><p><strong>Subject:</strong> %s</p><p>%s</p>`,
			templ.EscapeString(msg.FirstName),
			templ.EscapeString(msg.LastName),
			templ.EscapeString(msg.Email),
			templ.EscapeString(phone),
			templ.EscapeString(msg.Subject),
			message,
		)
		return err
	})
}

func displayName(firstName, lastName string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name == "" {
		return "there"
	}
	return name
}

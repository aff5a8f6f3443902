package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type emailTemplate struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

const emailLayout = `<!DOCTYPE html>
<html lang="hu">
<body style="font-family: Arial, sans-serif; color: #1f2937;">
<div style="max-width: 560px; margin: 0 auto; padding: 24px;">
<h2 style="color: #0f766e;">TávRezsi</h2>
{{template "content" .}}
<p style="font-size: 12px; color: #6b7280;">Ez egy automatikus üzenet, kérjük ne válaszoljon rá.</p>
</div>
</body>
</html>`

func newEmailTemplate(kind NotificationKind, subject, text, html string) emailTemplate {
	layout := htmltemplate.Must(htmltemplate.New(string(kind)).Parse(emailLayout))
	return emailTemplate{
		subject: subject,
		text:    texttemplate.Must(texttemplate.New(string(kind)).Parse(text)),
		html:    htmltemplate.Must(layout.New("content").Parse(html)),
	}
}

var emailTemplates = map[NotificationKind]emailTemplate{
	NotificationPasswordReset: newEmailTemplate(NotificationPasswordReset,
		"Jelszó beállítása a TávRezsi rendszerben",
		`Kedves {{.RecipientName}}!

Jelszó-visszaállítást kértek a fiókjához. Az új jelszót az alábbi linken állíthatja be:
{{.Link}}

A link 24 óráig érvényes. Ha nem Ön kérte, hagyja figyelmen kívül ezt az üzenetet.`,
		`<p>Kedves {{.RecipientName}}!</p>
<p>Jelszó-visszaállítást kértek a fiókjához. Az új jelszót az alábbi gombra kattintva állíthatja be.</p>
<p><a href="{{.Link}}" style="background: #0f766e; color: #ffffff; padding: 10px 16px; text-decoration: none;">Jelszó beállítása</a></p>
<p>A link 24 óráig érvényes. Ha nem Ön kérte, hagyja figyelmen kívül ezt az üzenetet.</p>`),

	NotificationTenantInvite: newEmailTemplate(NotificationTenantInvite,
		"Meghívás a TávRezsi rendszerbe",
		`Kedves {{.RecipientName}}!

Bérlőként meghívták a(z) {{.PropertyName}} ingatlanhoz a TávRezsi rendszerben.
A fiókja aktiválásához állítson be jelszót az alábbi linken:
{{.Link}}

A link 24 óráig érvényes.`,
		`<p>Kedves {{.RecipientName}}!</p>
<p>Bérlőként meghívták a(z) <strong>{{.PropertyName}}</strong> ingatlanhoz a TávRezsi rendszerben.</p>
<p>A fiókja aktiválásához állítson be jelszót:</p>
<p><a href="{{.Link}}" style="background: #0f766e; color: #ffffff; padding: 10px 16px; text-decoration: none;">Fiók aktiválása</a></p>
<p>A link 24 óráig érvényes.</p>`),

	NotificationWelcome: newEmailTemplate(NotificationWelcome,
		"Üdvözöljük a TávRezsi rendszerben!",
		`Kedves {{.RecipientName}}!

A jelszava sikeresen beállításra került, mostantól bejelentkezhet a TávRezsi rendszerbe:
{{.Link}}`,
		`<p>Kedves {{.RecipientName}}!</p>
<p>A jelszava sikeresen beállításra került, mostantól bejelentkezhet a TávRezsi rendszerbe.</p>
<p><a href="{{.Link}}">Bejelentkezés</a></p>`),
}

// RenderNotification produces the subject and bodies for n
func RenderNotification(n Notification) (*EmailMessage, error) {
	tmpl, ok := emailTemplates[n.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	var text, html bytes.Buffer
	if err := tmpl.text.Execute(&text, n); err != nil {
		return nil, fmt.Errorf("failed to render %s text: %w", n.Kind, err)
	}
	if err := tmpl.html.ExecuteTemplate(&html, string(n.Kind), n); err != nil {
		return nil, fmt.Errorf("failed to render %s html: %w", n.Kind, err)
	}

	return &EmailMessage{
		To:       n.RecipientEmail,
		ToName:   n.RecipientName,
		Subject:  tmpl.subject,
		BodyText: text.String(),
		BodyHTML: html.String(),
	}, nil
}

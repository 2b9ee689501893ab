// Package email sends transactional email.
//
// Two Sender implementations are provided: NewPostmarkSender delivers through
// Postmark, and DevSender writes each message to disk for local inspection.
// Render turns a templ component into an HTML body.
//
//	sender := email.NewDevSender("./tmp/emails")
//	body, _ := email.Render(ctx, component)
//	err := sender.Send(ctx, email.Message{To: "a@example.com", Subject: "Hi", BodyHTML: body})
package email

package invitation

import "time"

//go:generate templ generate -f email.templ

type emailData struct {
	InviteeName string
	TenantName  string
	Role        string
	AcceptURL   string
	ExpiresAt   time.Time
}

func (d emailData) greeting() string {
	if d.InviteeName == "" {
		return "Hello"
	}
	return "Hello " + d.InviteeName
}

func (d emailData) expiresOn() string {
	return d.ExpiresAt.UTC().Format("January 2, 2006")
}

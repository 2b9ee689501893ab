package email

import (
	"context"
	"errors"
	"strings"

	"github.com/a-h/templ"
)

var ErrFailedToRender = errors.New("email: failed to render template")

// Render renders a templ component into an HTML string suitable for Message.BodyHTML.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", errors.Join(ErrFailedToRender, err)
	}
	return b.String(), nil
}

// Package render produces localized notification copy for reconciled status
// transitions. The portal community is Spanish-speaking, so Spanish is the
// default; English is available for staff tooling.
package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/craftedmc/portal/internal/api"
	"github.com/craftedmc/portal/internal/notify"
)

const defaultProjectTitle = "el proyecto"

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// NewLocalizer returns a printer for the given BCP 47 locale, falling back
// to Spanish when the locale is empty or unparseable.
func NewLocalizer(locale string) Localizer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Spanish
	}
	return message.NewPrinter(tag)
}

// Body returns the user-facing copy for one reconciled notification.
func Body(loc Localizer, notification notify.Notification) string {
	if loc == nil {
		loc = NewLocalizer("")
	}
	switch notification.Kind {
	case notify.KindApplication:
		title := strings.TrimSpace(notification.ProjectTitle)
		if title == "" {
			title = defaultProjectTitle
		}
		if notification.Status == api.StatusRevocada {
			return loc.Sprintf("notify.project.revoked", title)
		}
		return loc.Sprintf("notify.project.accepted", title)
	case notify.KindStreamer:
		if notification.Status == api.StatusRevocada {
			return loc.Sprintf("notify.streamer.revoked")
		}
		return loc.Sprintf("notify.streamer.accepted")
	default:
		return loc.Sprintf("notify.generic")
	}
}

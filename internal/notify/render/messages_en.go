package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notify.generic", "You have a new notification.")
	message.SetString(lang, "notify.project.accepted", "Your application for \"%s\" has been accepted!")
	message.SetString(lang, "notify.project.revoked", "Your enrollment in \"%s\" has been revoked. Contact the staff for details.")
	message.SetString(lang, "notify.streamer.accepted", "Your streamer request has been accepted!")
	message.SetString(lang, "notify.streamer.revoked", "Your streamer rank has been revoked. Contact the staff for details.")
}

package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Spanish

	message.SetString(lang, "notify.generic", "Tienes una nueva notificación.")
	message.SetString(lang, "notify.project.accepted", "¡Tu solicitud para \"%s\" ha sido aceptada!")
	message.SetString(lang, "notify.project.revoked", "Tu inscripción para \"%s\" ha sido revocada. Habla con el staff para más información.")
	message.SetString(lang, "notify.streamer.accepted", "¡Tu solicitud de Streamer ha sido aceptada!")
	message.SetString(lang, "notify.streamer.revoked", "Tu rango de Streamer ha sido revocado. Habla con el staff para más información.")
}

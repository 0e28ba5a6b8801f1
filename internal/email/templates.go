package email

import (
	"html/template"

	"github.com/estatebid/estatebid-api/templates"
)

var mailTemplates = template.Must(template.ParseFS(templates.EmailFS, "email/*.html"))

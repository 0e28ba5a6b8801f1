package templates

import "embed"

// EmailFS contains the HTML email templates. layout.html defines the shared
// "head" block; every other file defines one named message template.
//
//go:embed email/*.html
var EmailFS embed.FS

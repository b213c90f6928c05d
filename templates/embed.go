package templates

import "embed"

// FS contains the default page templates, used when no template directory is configured.
//
//go:embed *.html
var FS embed.FS

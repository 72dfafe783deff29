// Package static embeds the assets served under /static.
package static

import "embed"

//go:embed admin.css
var FS embed.FS

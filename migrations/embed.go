// Package migrations embeds the reference store schema. Files follow the
// goose annotation format.
package migrations

import "embed"

// FS holds every migration file.
//
//go:embed *.sql
var FS embed.FS

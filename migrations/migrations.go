// Package migrations embeds the SQL schema so the binary migrates itself
// on startup without an on-disk migrations directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

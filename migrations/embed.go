// Package migrations embeds the versioned SQL schema so binaries can
// migrate without the source tree.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS

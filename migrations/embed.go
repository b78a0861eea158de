// Package migrations holds the versioned SQL schema, compiled into the
// binaries so deployments do not need the files on disk.
package migrations

import "embed"

// FS contains every NNNNNN_name.{up,down}.sql file in this directory
//
//go:embed *.sql
var FS embed.FS

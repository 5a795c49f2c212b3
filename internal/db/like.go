package db

import "strings"

// Escape is appended after each LIKE ? placeholder that takes a pattern
// built here. '!' works the same on Postgres, MySQL and SQLite.
const Escape = " ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern matches values containing s literally.
func ContainsPattern(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

// PrefixPattern matches values starting with s literally.
func PrefixPattern(s string) string { return likeEscaper.Replace(s) + "%" }

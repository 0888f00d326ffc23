package library

import (
	"regexp"
	"strings"
)

var (
	// Authoring artifacts stripped from display titles: stacked version
	// suffixes like "sepsis.final.v2" and ordering prefixes like
	// "03_sepsis".
	versionSuffixes = regexp.MustCompile(`(?i)(\.(final|fixed|clean|polished|v\d+))+$`)
	orderingPrefix  = regexp.MustCompile(`^\d+_`)
)

// Title derives a human display title from a file stem (the filename
// without its .json extension).
func Title(stem string) string {
	name := versionSuffixes.ReplaceAllString(stem, "")
	name = orderingPrefix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "_", " ")
}

// slug normalizes a file stem into a stable document id.
func slug(stem string) string {
	return strings.ToLower(versionSuffixes.ReplaceAllString(stem, ""))
}

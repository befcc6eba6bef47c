// Package sources extracts field values from the batch and provisioning files that are
// compared against the machine log: PCOM, CNUM, SCM, SIM-ODA and cps.
//
// Extraction is forgiving. A missing or malformed layout produces fewer values, never an
// error; the comparator reports what is missing.
package sources

import (
	"strings"
)

// Lines splits content into lines, accepting both LF and CRLF endings.
func Lines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

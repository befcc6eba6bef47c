package decode

import "strings"

// SelectCommandPrefix is the SELECT by file ID header (CLA 00, INS A4, P1 P2 0000, Lc 02).
const SelectCommandPrefix = "00A4000002"

// SelectRule describes the two-step layout where a SELECT of FileID is followed, within Window
// lines, by the UPDATE line that carries the data.
type SelectRule struct {
	FileID string
	Window int
	Data   []LineDecoder
}

// Selects reports whether line selects the rule's file, either as a raw APDU or as a
// "SELECT <fid>" trace annotation.
func (r SelectRule) Selects(line string) bool {
	upper := strings.ToUpper(line)
	if !strings.Contains(upper, r.FileID) {
		return false
	}
	return strings.Contains(upper, SelectCommandPrefix+r.FileID) || strings.Contains(upper, "SELECT "+r.FileID)
}

// LookaheadHit is a decoded value together with the line it came from.
type LookaheadHit struct {
	Hit
	Line   int
	Policy Policy
}

// Scan looks at the Window lines following index sel for each data decoder. The first line
// carrying a decoder prefix ends that decoder's search whether or not it decodes.
func (r SelectRule) Scan(lines []string, sel int) []LookaheadHit {
	var out []LookaheadHit
	for _, d := range r.Data {
		for i := sel + 1; i < len(lines) && i <= sel+r.Window; i++ {
			hits, matched := d.Decode(lines[i])
			if !matched {
				continue
			}
			for _, h := range hits {
				out = append(out, LookaheadHit{Hit: h, Line: i + 1, Policy: d.Policy})
			}
			break
		}
	}
	return out
}

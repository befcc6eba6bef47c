package sources

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gregLibert/simcheck/pkg/fields"
	"github.com/gregLibert/simcheck/pkg/normalize"
)

// CNUM batch layout: line 24 names the columns, line 25 carries the first card.
const (
	cnumHeaderLine = 24
	cnumDataLine   = 25
	cnumHeaderTag  = "VAR_OUT:"
	// minHeaderFields is the number of fields below which the whole file is searched instead.
	minHeaderFields = 3

	iccidCNUMAlphabet = "0123456789ABCDEFU"
)

var (
	hex32Expr    = regexp.MustCompile(`(?i)([0-9A-F]{32})`)
	hex32Word    = regexp.MustCompile(`(?i)\b([0-9A-F]{32})\b`)
	digits15Word = regexp.MustCompile(`\b(\d{15})\b`)
	iccidCNUM    = regexp.MustCompile(`(?i)\b([0-9A-FU]{18,20})\b`)
	pukWord      = regexp.MustCompile(`\b(\d{8,})\b`)
	digits4Word  = regexp.MustCompile(`\b(\d{4})\b`)
)

// ParseCNUM maps the `VAR_OUT: A/B/C` header of a CNUM batch onto its first data line and
// falls back to a pattern search of the whole file when fewer than three fields are found.
// Keys follow the direct machine log field names (IMSI, ICCID, PUK1, PUK2, KIC1 (6F22),
// KID1 (6F22), ACC).
func ParseCNUM(content string, log zerolog.Logger) fields.Values {
	lines := Lines(content)
	out := fields.Values{}

	if len(lines) >= cnumDataLine {
		header := strings.ToUpper(strings.TrimSpace(lines[cnumHeaderLine-1]))
		data := strings.TrimSpace(lines[cnumDataLine-1])
		if strings.Contains(header, cnumHeaderTag) && data != "" {
			mapHeader(out, header, strings.Fields(data))
		} else {
			log.Debug().Str("source", "CNUM").Msg("no VAR_OUT header on line 24")
		}
	}

	if len(out) < minHeaderFields {
		log.Debug().Str("source", "CNUM").Int("found", len(out)).Msg("searching whole file")
		searchCNUM(out, strings.Join(trimAll(lines), " "))
	}

	for _, name := range out.Names() {
		log.Debug().Str("source", "CNUM").Str("field", name).Str("value", out[name]).Msg("field extracted")
	}
	return out
}

func mapHeader(out fields.Values, header string, data []string) {
	var names []string
	for _, h := range strings.Split(strings.Replace(header, cnumHeaderTag, "", 1), "/") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}

	for i, name := range names {
		if i >= len(data) {
			break
		}
		v := data[i]
		switch name {
		case "IMSI":
			if d := normalize.StripNonDigits(v); len(d) >= 15 {
				out["IMSI"] = d[:15]
			} else {
				out["IMSI"] = v
			}
		case "ICCID":
			if c := normalize.Keep(strings.ToUpper(v), iccidCNUMAlphabet); len(c) >= 18 {
				out["ICCID"] = truncate(c, 20)
			} else if len(v) >= 18 {
				out["ICCID"] = truncate(v, 20)
			}
		case "PUK1", "PUK2":
			out[name] = v
		case "CIPHERKEY_RFM":
			setKey(out, "KIC1 (6F22)", v)
		case "MACKEY_RFM":
			setKey(out, "KID1 (6F22)", v)
		case "A4IND", "ACC":
			if len(v) == 4 && normalize.IsDigits(v) {
				out["ACC"] = v
			}
		}
	}

	for _, v := range data {
		if _, ok := out["ACC"]; !ok && len(v) == 4 && normalize.IsDigits(v) {
			out["ACC"] = v
		}
		if _, ok := out["ICCID"]; !ok && len(v) >= 18 {
			u := strings.ToUpper(v)
			if strings.Contains(u, "U") || strings.HasSuffix(u, "F") {
				if c := normalize.Keep(u, iccidCNUMAlphabet); len(c) >= 18 {
					out["ICCID"] = truncate(c, 20)
				}
			}
		}
		if _, ok := out["KIC1 (6F22)"]; !ok {
			if m := hex32Expr.FindStringSubmatch(v); m != nil {
				out["KIC1 (6F22)"] = m[1]
			}
		}
		if _, ok := out["KID1 (6F22)"]; !ok {
			if m := hex32Expr.FindStringSubmatch(v); m != nil && m[1] != out["KIC1 (6F22)"] {
				out["KID1 (6F22)"] = m[1]
			}
		}
	}
}

func setKey(out fields.Values, field, v string) {
	if m := hex32Expr.FindStringSubmatch(v); m != nil {
		out[field] = m[1]
	} else if len(v) >= 32 {
		out[field] = v[:32]
	}
}

func searchCNUM(out fields.Values, all string) {
	if _, ok := out["IMSI"]; !ok {
		if m := digits15Word.FindStringSubmatch(all); m != nil {
			out["IMSI"] = m[1]
		}
	}

	for _, m := range iccidCNUM.FindAllStringSubmatch(all, -1) {
		c := strings.ToUpper(m[1])
		if c == out["IMSI"] {
			continue
		}
		if strings.HasPrefix(c, "89") || strings.Contains(c, "U") || strings.HasSuffix(c, "F") {
			out["ICCID"] = truncate(c, 20)
			break
		}
	}

	for _, m := range pukWord.FindAllStringSubmatch(all, -1) {
		if m[1] == out["IMSI"] || m[1] == out["ICCID"] {
			continue
		}
		if _, ok := out["PUK1"]; !ok {
			out["PUK1"] = m[1]
		} else if _, ok := out["PUK2"]; !ok {
			out["PUK2"] = m[1]
			break
		}
	}

	keys := hex32Word.FindAllStringSubmatch(all, -1)
	if _, ok := out["KIC1 (6F22)"]; !ok && len(keys) > 0 {
		out["KIC1 (6F22)"] = keys[0][1]
	}
	if _, ok := out["KID1 (6F22)"]; !ok && len(keys) > 1 {
		out["KID1 (6F22)"] = keys[1][1]
	}

	if _, ok := out["ACC"]; !ok {
		if m := digits4Word.FindStringSubmatch(all); m != nil {
			out["ACC"] = m[1]
		}
	}
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

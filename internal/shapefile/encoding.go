package shapefile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

const defaultEncoding = "utf-8"

// codePage decodes dBASE text according to the .cpg sidecar.
type codePage struct {
	name string
	enc  encoding.Encoding // nil for UTF-8

	// fallback re-decodes invalid UTF-8 as windows-1252. Set when no .cpg exists.
	fallback bool
}

var ansiCodePage = regexp.MustCompile(`^(?:ansi|cp|windows)?[ _-]?(\d{3,4})$`)

// cpgAliases maps ESRI .cpg spellings to WHATWG encoding labels.
var cpgAliases = map[string]string{
	"88591":  "iso-8859-1",
	"88592":  "iso-8859-2",
	"88595":  "iso-8859-5",
	"88597":  "iso-8859-7",
	"88599":  "iso-8859-9",
	"885915": "iso-8859-15",
	"latin1": "iso-8859-1",
	"utf8":   "utf-8",
	"65001":  "utf-8",
	"866":    "ibm866",
	"874":    "windows-874",
	"932":    "shift_jis",
	"936":    "gbk",
	"949":    "euc-kr",
	"950":    "big5",
}

func loadCodePage(path string) (*codePage, error) {
	cpg, err := sidecar(path, ".cpg")
	if err != nil {
		return &codePage{name: defaultEncoding, fallback: true}, nil
	}
	raw, err := os.ReadFile(cpg)
	if err != nil {
		return nil, fmt.Errorf("read code page: %w", err)
	}
	return parseCodePage(string(raw))
}

func parseCodePage(label string) (*codePage, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return &codePage{name: defaultEncoding, fallback: true}, nil
	}

	key := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(label)
	name := label
	if alias, ok := cpgAliases[key]; ok {
		name = alias
	} else if m := ansiCodePage.FindStringSubmatch(label); m != nil {
		if alias, ok := cpgAliases[m[1]]; ok {
			name = alias
		} else {
			name = "windows-" + m[1]
		}
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported code page %q", strings.TrimSpace(label))
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}
	if canonical == defaultEncoding {
		return &codePage{name: defaultEncoding}, nil
	}
	return &codePage{name: canonical, enc: enc}, nil
}

// decode converts a raw attribute value to trimmed UTF-8.
func (c *codePage) decode(s string) (string, error) {
	s = strings.Trim(s, "\x00 ")
	if s == "" {
		return s, nil
	}
	if c.enc != nil {
		out, err := c.enc.NewDecoder().String(s)
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", c.name, err)
		}
		return strings.TrimSpace(out), nil
	}
	if utf8.ValidString(s) {
		return s, nil
	}
	if !c.fallback {
		return "", fmt.Errorf("value is not valid %s", c.name)
	}
	out, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

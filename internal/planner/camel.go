package planner

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var trackPrefix = regexp.MustCompile(`^(\d{1,3})(?:\s*[-._)]+\s*|\s+)(.*)$`)

// FoldAccents strips combining marks from Latin letters so "Beyoncé" becomes "Beyonce".
// Marks on other scripts are kept: "й" stays "й".
func FoldAccents(s string) string {
	var b strings.Builder
	latin := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			if latin {
				continue
			}
		} else {
			latin = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// Words folds accents and splits s on every run of characters that are not letters or digits.
func Words(s string) []string {
	return strings.FieldsFunc(FoldAccents(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CamelCase joins the words of s with the first lowercased and the rest capitalized.
//
// "My Great Band" becomes "myGreatBand". Returns "" when s has no letters or digits.
func CamelCase(s string) string {
	words := Words(s)
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// PascalCase is CamelCase with the first word capitalized too.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// SplitTrackNumber separates a leading track number such as "07 - " or "1_" from the rest of a file name.
//
// ok is false when name does not start with a 1 to 3 digit number followed by a separator.
// A name made only of digits is treated as a bare track number.
func SplitTrackNumber(name string) (num int, rest string, ok bool) {
	name = strings.TrimSpace(name)
	if m := trackPrefix.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, strings.TrimSpace(m[2]), true
		}
	}
	if len(name) > 0 && len(name) <= 3 && strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		n, _ := strconv.Atoi(name)
		return n, "", true
	}
	return 0, name, false
}

// CompactTrackName turns a file stem into a restructured track name.
//
// "07 - Song Title" becomes "07SongTitle" and "1 Song" becomes "01Song".
// Names without a track number are camelCased ("Song Title" becomes "songTitle").
func CompactTrackName(stem string) string {
	num, rest, ok := SplitTrackNumber(stem)
	if !ok {
		if out := CamelCase(stem); out != "" {
			return out
		}
		return "untitled"
	}

	prefix := PadNumber(num, 2)
	return prefix + PascalCase(rest)
}

// PadNumber zero-pads n to width digits.
func PadNumber(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func capitalize(w string) string {
	rs := []rune(strings.ToLower(w))
	if len(rs) == 0 {
		return ""
	}
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

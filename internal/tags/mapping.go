package tags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mp3cator/internal/models"
)

// Rename maps one source tag name to its destination name.
type Rename struct {
	From string
	To   string
}

// Destination tag names the encoder understands.
var DestinationKeys = map[string]bool{
	"title": true, "artist": true, "album": true, "albumartist": true,
	"date": true, "genre": true, "track": true, "tracktotal": true,
	"disc": true, "disctotal": true, "composer": true, "performer": true,
	"comment": true, "lyrics": true, "copyright": true, "encoder": true,
	"encoded_by": true, "organization": true, "albumart": true,
}

// RenameTable is the static source to destination mapping. Source keys are lowercase.
var RenameTable = []Rename{
	{"title", "title"},
	{"artist", "artist"},
	{"album", "album"},
	{"albumartist", "albumartist"},
	{"album_artist", "albumartist"},
	{"album artist", "albumartist"},
	{"date", "date"},
	{"year", "date"},
	{"genre", "genre"},
	{"track", "track"},
	{"tracknumber", "track"},
	{"tracktotal", "tracktotal"},
	{"totaltracks", "tracktotal"},
	{"disc", "disc"},
	{"discnumber", "disc"},
	{"disctotal", "disctotal"},
	{"totaldiscs", "disctotal"},
	{"composer", "composer"},
	{"performer", "performer"},
	{"comment", "comment"},
	{"description", "comment"},
	{"lyrics", "lyrics"},
	{"unsyncedlyrics", "lyrics"},
	{"copyright", "copyright"},
	{"encoder", "encoder"},
	{"encoded_by", "encoded_by"},
	{"encodedby", "encoded_by"},
	{"organization", "organization"},
	{"label", "organization"},
	{"albumart", "albumart"},
	{"picture", "albumart"},
	{"metadata_block_picture", "albumart"},
	{"coverart", "albumart"},
}

// artwork keys are pulled out of the text tags
var artworkKeys = map[string]bool{"albumart": true}

// skipped entirely; coverartmime only describes coverart
var ignoredKeys = map[string]bool{"coverartmime": true}

var renames = mustIndex(RenameTable)

// rank orders aliases by their position in RenameTable; a canonical key always ranks first.
func rank(key, dest string) int {
	if key == dest {
		return -1
	}
	for i, r := range RenameTable {
		if r.From == key {
			return i
		}
	}
	return len(RenameTable)
}

// ValidateRenameTable rejects duplicate sources, non-lowercase sources and unknown destinations.
func ValidateRenameTable(table []Rename) error {
	_, err := index(table)
	return err
}

func index(table []Rename) (map[string]string, error) {
	m := make(map[string]string, len(table))
	for _, r := range table {
		if r.From == "" || r.From != strings.ToLower(r.From) {
			return nil, fmt.Errorf("rename source %q must be non-empty lowercase", r.From)
		}
		if _, dup := m[r.From]; dup {
			return nil, fmt.Errorf("rename source %q listed twice", r.From)
		}
		if !DestinationKeys[r.To] {
			return nil, fmt.Errorf("rename %q -> %q: unknown destination", r.From, r.To)
		}
		m[r.From] = r.To
	}
	return m, nil
}

func mustIndex(table []Rename) map[string]string {
	m, err := index(table)
	if err != nil {
		panic(err)
	}
	return m
}

// MapTags applies the rename table to raw source tags (keys in any case).
//
// Unknown keys pass through lowercased, empty values are dropped and track, disc and date values are normalized.
// Artwork values are returned separately keyed by their original lowercase source key.
func MapTags(raw map[string]string) (models.Tags, map[string]string) {
	out := models.Tags{}
	art := map[string]string{}
	from := map[string]int{}

	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		val := strings.TrimSpace(v)
		if key == "" || val == "" || ignoredKeys[key] {
			continue
		}

		dest, ok := renames[key]
		if !ok {
			dest = key
		}
		if artworkKeys[dest] {
			art[key] = val
			continue
		}
		r := rank(key, dest)
		if prev, exists := from[dest]; exists && prev <= r {
			continue
		}
		from[dest] = r
		out[dest] = val
	}

	normalizeNumber(out, "track", "tracktotal")
	normalizeNumber(out, "disc", "disctotal")
	if d, ok := out["date"]; ok {
		out["date"] = FormatDate(d)
	}
	return out, art
}

func normalizeNumber(t models.Tags, key, totalKey string) {
	v, ok := t[key]
	if !ok {
		return
	}
	total := 0
	if tv, ok := t[totalKey]; ok {
		total, _ = strconv.Atoi(strings.TrimSpace(tv))
	}
	t[key] = FormatNumber(v, total)
}

// FormatNumber zero-pads a track or disc number to 2 digits, or 3 when the total exceeds 99.
//
// "3" becomes "03", "3/12" becomes "03/12" and "7" with total 120 becomes "007". Values that are not numbers pass through.
func FormatNumber(v string, total int) string {
	num, tot, hasTotal := strings.Cut(strings.TrimSpace(v), "/")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n < 0 {
		return v
	}

	if hasTotal {
		t, err := strconv.Atoi(strings.TrimSpace(tot))
		if err != nil {
			return v
		}
		if t > total {
			total = t
		}
	}

	width := 2
	if total > 99 || n > 99 {
		width = 3
	}
	out := fmt.Sprintf("%0*d", width, n)
	if hasTotal {
		out += "/" + fmt.Sprintf("%0*d", width, mustAtoi(tot))
	}
	return out
}

// FormatDate keeps the year of a date: "1994-05-01" becomes "1994". Values not starting with four digits pass through.
func FormatDate(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 4 {
		return v
	}
	for _, r := range v[:4] {
		if r < '0' || r > '9' {
			return v
		}
	}
	return v[:4]
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

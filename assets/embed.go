// assets/embed.go
//
// Embedded static data shipped with the binary.
//   - countries.txt: the default country catalog, one entry per line as
//     `Identifier` or `Identifier|Display Name`. Identifiers double as the
//     image asset names the client resolves.

package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed countries.txt
var FS embed.FS

// readLines returns trimmed, non-empty, non-comment lines of an embedded file.
func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// CountriesList returns the raw catalog lines.
func CountriesList() ([]string, error) {
	return readLines("countries.txt")
}

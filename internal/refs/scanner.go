package refs

import "regexp"

var (
	bracketRe = regexp.MustCompile(`<([^<>]+)>`)
	envRe     = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
)

// Match is one recognized bracket reference inside a string, with the byte
// span it occupies so callers can splice around it.
type Match struct {
	Start int
	End   int
	Raw   string
	Ref   Reference
}

// EnvMatch is one recognized {{NAME}} environment token.
type EnvMatch struct {
	Start int
	End   int
	Raw   string
	Name  string
}

// Scan finds every valid bracket reference in s, in order of occurrence.
// Angle-bracket spans that fail the grammar are skipped entirely, leaving
// the surrounding text untouched.
func Scan(s string) []Match {
	var out []Match
	for _, loc := range bracketRe.FindAllStringSubmatchIndex(s, -1) {
		raw := s[loc[0]:loc[1]]
		interior := s[loc[2]:loc[3]]
		path, ok := ParsePath(interior)
		if !ok {
			continue
		}
		out = append(out, Match{
			Start: loc[0],
			End:   loc[1],
			Raw:   raw,
			Ref:   Classify(path),
		})
	}
	return out
}

// ScanEnv finds every {{NAME}} token in s, in order of occurrence.
func ScanEnv(s string) []EnvMatch {
	var out []EnvMatch
	for _, loc := range envRe.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, EnvMatch{
			Start: loc[0],
			End:   loc[1],
			Raw:   s[loc[0]:loc[1]],
			Name:  s[loc[2]:loc[3]],
		})
	}
	return out
}

package netguard

import "regexp"

type ThreatKind string

const (
	ThreatSQLInjection     ThreatKind = "sql_injection"
	ThreatXSS              ThreatKind = "xss"
	ThreatPathTraversal    ThreatKind = "path_traversal"
	ThreatCommandInjection ThreatKind = "command_injection"
)

// Signature sets are a best-effort heuristic over the raw request text, not
// a parser-level sanitizer. One hit in a class marks the whole class.
var signatures = map[ThreatKind][]*regexp.Regexp{
	ThreatSQLInjection: {
		regexp.MustCompile(`(?i)union(\s+all)?\s+select`),
		regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\d+['"]?\s*=\s*['"]?\d`),
		regexp.MustCompile(`(?i);\s*(drop|truncate|delete)\s+(table|from)`),
		regexp.MustCompile(`(?i)\b(sleep|benchmark|pg_sleep)\s*\(`),
	},
	ThreatXSS: {
		regexp.MustCompile(`(?i)<\s*script`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon(error|load|click|mouseover)\s*=`),
	},
	ThreatPathTraversal: {
		regexp.MustCompile(`\.\./|\.\.\\`),
		regexp.MustCompile(`(?i)%2e%2e(%2f|%5c)`),
		regexp.MustCompile(`(?i)/etc/(passwd|shadow)|\\windows\\system32`),
	},
	ThreatCommandInjection: {
		regexp.MustCompile("(?i)[;|&`]\\s*(cat|ls|rm|wget|curl|nc|bash|sh|powershell)\\b"),
		regexp.MustCompile(`(?i)\$\([^)]*\)`),
		regexp.MustCompile(`(?i)&&\s*(cat|rm|wget|curl|chmod)\b`),
	},
}

// Classify reports every threat class with at least one signature match in
// the given text. The caller concatenates URL, query, body and headers; no
// extra decoding happens here.
func Classify(text string) []ThreatKind {
	if text == "" {
		return nil
	}
	var kinds []ThreatKind
	for _, kind := range []ThreatKind{ThreatSQLInjection, ThreatXSS, ThreatPathTraversal, ThreatCommandInjection} {
		for _, re := range signatures[kind] {
			if re.MatchString(text) {
				kinds = append(kinds, kind)
				break
			}
		}
	}
	return kinds
}

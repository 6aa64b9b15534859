package extract

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultDialects is the static list of dialect names the linter ships with.
// The config file can override it for forks that add dialects.
var DefaultDialects = []string{
	"ansi", "athena", "bigquery", "clickhouse", "databricks", "db2",
	"duckdb", "exasol", "greenplum", "hive", "materialize", "mysql",
	"oracle", "postgres", "redshift", "snowflake", "soql", "sparksql",
	"sqlite", "teradata", "trino", "tsql", "vertica",
}

// dialectAliases maps common spellings to canonical dialect names.
// Issue authors rarely use the canonical name ("tsql"); they write
// "T-SQL" or "SQL Server".
var dialectAliases = map[string]string{
	"t-sql":        "tsql",
	"transact-sql": "tsql",
	"mssql":        "tsql",
	"sql server":   "tsql",
	"sqlserver":    "tsql",
	"postgresql":   "postgres",
	"pgsql":        "postgres",
	"spark sql":    "sparksql",
	"spark-sql":    "sparksql",
	"maria":        "mysql",
	"mariadb":      "mysql",
	"presto":       "trino",
	"mssql server": "tsql",
	"big query":    "bigquery",
}

// dialectMatcher resolves free-text dialect mentions to canonical names.
type dialectMatcher struct {
	re        *regexp.Regexp
	canonical map[string]string // lowercased spelling -> canonical name
}

// newDialectMatcher builds a single word-boundary regex over the known
// dialect names and their aliases. Longer spellings are listed first so
// "spark sql" wins over "sql".
func newDialectMatcher(dialects []string) *dialectMatcher {
	canonical := make(map[string]string, len(dialects)+len(dialectAliases))
	for _, d := range dialects {
		canonical[strings.ToLower(d)] = strings.ToLower(d)
	}
	for alias, target := range dialectAliases {
		if _, known := canonical[target]; known {
			canonical[alias] = target
		}
	}

	spellings := make([]string, 0, len(canonical))
	for s := range canonical {
		spellings = append(spellings, s)
	}
	sort.Slice(spellings, func(i, j int) bool {
		if len(spellings[i]) != len(spellings[j]) {
			return len(spellings[i]) > len(spellings[j])
		}
		return spellings[i] < spellings[j]
	})
	for i, s := range spellings {
		spellings[i] = regexp.QuoteMeta(s)
	}

	re := regexp.MustCompile(`(?i)\b(` + strings.Join(spellings, "|") + `)\b`)
	return &dialectMatcher{re: re, canonical: canonical}
}

// findAll returns the canonical dialect name and matched text for every
// mention in text.
func (m *dialectMatcher) findAll(text string) [][2]string {
	var out [][2]string
	for _, match := range m.re.FindAllString(text, -1) {
		if canon, ok := m.canonical[strings.ToLower(match)]; ok {
			out = append(out, [2]string{canon, match})
		}
	}
	return out
}

// resolve maps a single spelling to its canonical dialect name, or "" when
// the spelling is not a known dialect.
func (m *dialectMatcher) resolve(spelling string) string {
	return m.canonical[strings.ToLower(strings.TrimSpace(spelling))]
}

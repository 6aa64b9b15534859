package extract

import (
	"regexp"

	"github.com/sqlint/triagebot/internal/types"
)

// Pattern family names. The classifier keys its tie-break rules on these,
// so they are part of the engine's contract, not just debug strings.
const (
	PatternTypeKeyword      = "type-keyword"
	PatternDialectMention   = "dialect-mention"
	PatternDialectSyntax    = "dialect-code-syntax"
	PatternDialectConfig    = "dialect-config"
	PatternComponentKeyword = "component-keyword"
	PatternRuleCode         = "rule-code"
)

// keywordPattern associates one compiled regex with the category it votes for.
type keywordPattern struct {
	re       *regexp.Regexp
	category string
}

// typePatterns vote on the type axis. Order within the table does not
// matter; resolution happens in the classifier.
var typePatterns = []keywordPattern{
	{regexp.MustCompile(`(?i)\bbug\b|\bcrash(es|ed)?\b|\bpanic\b|\btraceback\b|\bexception\b|\bregression\b|\bbroken\b|\bfail(s|ed|ure)?\b|\bfalse positives?\b|\berrors? (out|when|while|on)\b`), string(types.TypeBug)},
	{regexp.MustCompile(`(?i)(does ?not|doesn'?t|won'?t|will not|isn'?t) work(ing)?\b`), string(types.TypeBug)},
	{regexp.MustCompile(`(?i)\bnot (being )?(pars|lint|render|detect|recogni[sz]|handl)\w*`), string(types.TypeBug)},
	{regexp.MustCompile(`(?i)\bfeature request\b|\benhancement\b|\bfeature\b|would be (nice|great|useful|helpful)|\badd support\b|\bsupport for\b|\bproposal\b|\bplease (add|support)\b`), string(types.TypeFeature)},
	{regexp.MustCompile(`(?i)\bdocs?\b|\bdocumentation\b|\breadme\b|\btypo\b|\btutorial\b|\bdocstrings?\b|\bchangelog\b`), string(types.TypeDocumentation)},
	{regexp.MustCompile(`(?i)\bquestion\b|\bhow (do|can|should|to)\b|\bwhat (is|does|are)\b|\bwhy (is|does|do)\b|\bclarif(y|ication)\b|\bam i\b`), string(types.TypeQuestion)},
}

// componentPatterns vote on the component axis. Rule codes (two uppercase
// letters + two digits, e.g. AL01) are a separate family because a single
// hit forces component=rules regardless of other matches.
var componentPatterns = []keywordPattern{
	{regexp.MustCompile(`(?i)\bpars(e[rd]?|es|ing)\b|\bunparsable\b|\bsyntax (error|tree)\b|\blexer\b|\blexing\b|\bsegment\b|\bgrammar\b`), string(types.ComponentParser)},
	{regexp.MustCompile(`(?i)\brules?\b|\blint(er|ing)? (rule|violation|result)s?\b|\bviolations?\b|\bfalse positives?\b|\bfalse negatives?\b`), string(types.ComponentRules)},
	{regexp.MustCompile(`(?i)\bjinja\b|\btemplat(e[rd]?|es|ing)\b|\bdbt\b|\bmacros?\b|\bplaceholders?\b`), string(types.ComponentTemplating)},
	{regexp.MustCompile(`(?i)\bcli\b|\bcommand.line\b|\bexit code\b|\bstdin\b|\bstdout\b|--[a-z][a-z-]+\b|\bsubcommands?\b`), string(types.ComponentCLI)},
	{regexp.MustCompile(`(?i)\bslow(er|ness)?\b|\bperformance\b|\bhangs?\b|\btimes? out\b|\btimeout\b|\bmemory\b|\btakes (forever|minutes|hours)\b`), string(types.ComponentPerformance)},
	{regexp.MustCompile(`(?i)\bconfig(uration|s)?\b|\bsettings?\b|\bpyproject\b|\.sqlintrc\b|\bsetup\.cfg\b|\bini file\b`), string(types.ComponentConfiguration)},
}

// ruleCodeRe matches linter rule codes like AL01 or ST06. Deliberately
// case-sensitive: prose words like "also" must not match.
var ruleCodeRe = regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}\b`)

// syntaxHeuristics map SQL constructs that only exist in some dialects to
// a dialect vote. Applied to code blocks only, where the construct is much
// stronger evidence than the same token in prose.
var syntaxHeuristics = []keywordPattern{
	{regexp.MustCompile(`(?i)\bSELECT\s+TOP\s+\d+`), "tsql"},
	{regexp.MustCompile(`(?im)^\s*GO\s*$`), "tsql"},
	{regexp.MustCompile(`(?i)\bNOLOCK\b`), "tsql"},
	{regexp.MustCompile("`[^`\n]+`"), "mysql"},
	{regexp.MustCompile(`::[a-zA-Z]+`), "postgres"},
	{regexp.MustCompile(`(?i)\bILIKE\b`), "postgres"},
	{regexp.MustCompile(`(?i)\bQUALIFY\b`), "snowflake"},
	{regexp.MustCompile(`(?i)\bAUTOINCREMENT\b`), "sqlite"},
	{regexp.MustCompile(`(?i)\bSTRUCT<`), "bigquery"},
	{regexp.MustCompile(`(?i)\bDISTRIBUTE\s+BY\b`), "hive"},
}

// dialectConfigRe captures the value of a dialect setting in a config
// snippet, e.g. "dialect = tsql" or "dialect: tsql".
var dialectConfigRe = regexp.MustCompile(`(?i)\bdialect\s*[:=]\s*"?([a-z0-9_-]+)"?`)

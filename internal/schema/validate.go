package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule validates and normalizes one slot answer. It returns the canonical
// value and true, or ("", false) when the answer is not usable.
type Rule func(raw string) (string, bool)

var (
	namePattern       = regexp.MustCompile(`^[A-Za-z\s.'-]{3,100}$`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	makePattern       = regexp.MustCompile(`^[A-Za-z0-9\s.-]{2,50}$`)
	modelPattern      = regexp.MustCompile(`^[A-Za-z0-9\s.-]{1,50}$`)
	platePattern      = regexp.MustCompile(`^[A-Za-z0-9-]{3,10}$`)
	regionPattern     = regexp.MustCompile(`^[A-Za-z\s]{2,30}$`)
	occupationPattern = regexp.MustCompile(`^[A-Za-z\s.'-]{2,50}$`)

	numericToken = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// defaultRules is the closed mapping from slot key to validation rule. Every
// key that appears in a flow must have an entry here.
func defaultRules() map[string]Rule {
	return map[string]Rule{
		"customer_name": patternRule(namePattern),
		"email":         patternRule(emailPattern),
		"make":          patternRule(makePattern),
		"model":         patternRule(modelPattern),
		"plate_no":      upperPatternRule(platePattern),
		"region":        patternRule(regionPattern),
		"occupation":    patternRule(occupationPattern),

		"age":         integerRule(18, 99),
		"year":        integerRule(1980, 2029),
		"ncd_percent": decimalRule(0, 100),
		"sum_insured": decimalRule(1000, 999999999),
		"income":      decimalRule(100, 999999999),

		"usage": categoricalRule(map[string]string{
			"private": "Private", "personal": "Private",
			"commercial": "Commercial", "business": "Commercial",
			"grab": "Commercial", "delivery": "Commercial", "truck": "Commercial",
		}),
		"gender": categoricalRule(map[string]string{
			"male": "Male", "m": "Male",
			"female": "Female", "f": "Female",
		}),
		"smoker_status": categoricalRule(map[string]string{
			"yes": "Yes", "y": "Yes",
			"no": "No", "n": "No",
		}),

		"optional_coverages": freeTextRule,
		"health_flags":       freeTextRule,
	}
}

// Validate runs the rule registered for the slot key. Unknown keys reject
// everything rather than silently passing text through.
func (r *Registry) Validate(key, raw string) (string, bool) {
	rule, ok := r.rules[key]
	if !ok {
		return "", false
	}
	return rule(raw)
}

func patternRule(re *regexp.Regexp) Rule {
	return func(raw string) (string, bool) {
		v := strings.TrimSpace(raw)
		if !re.MatchString(v) {
			return "", false
		}
		return v, true
	}
}

func upperPatternRule(re *regexp.Regexp) Rule {
	return func(raw string) (string, bool) {
		v, ok := patternRule(re)(raw)
		if !ok {
			return "", false
		}
		return strings.ToUpper(v), true
	}
}

// integerRule extracts the first numeric token and accepts it when it is a
// whole number within [min, max]. Decimal tokens are rejected outright.
func integerRule(min, max int) Rule {
	return func(raw string) (string, bool) {
		tok := numericToken.FindString(raw)
		if tok == "" || strings.Contains(tok, ".") {
			return "", false
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < min || n > max {
			return "", false
		}
		return tok, true
	}
}

// decimalRule extracts the first numeric token, integer or decimal, within
// [min, max].
func decimalRule(min, max float64) Rule {
	return func(raw string) (string, bool) {
		tok := numericToken.FindString(raw)
		if tok == "" {
			return "", false
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || f < min || f > max {
			return "", false
		}
		return tok, true
	}
}

func categoricalRule(synonyms map[string]string) Rule {
	return func(raw string) (string, bool) {
		canonical, ok := synonyms[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return "", false
		}
		return canonical, true
	}
}

func freeTextRule(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	return v, true
}

var coverageSynonyms = map[string]string{
	"THEFT":       "THEFT",
	"ACT":         "ACT_OF_GOD",
	"ACT_OF_GOD":  "ACT_OF_GOD",
	"AOG":         "ACT_OF_GOD",
	"SRCC":        "SRCC",
	"NIL":         "NIL_EXCESS",
	"NIL_EXCESS":  "NIL_EXCESS",
	"FRONT_GLASS": "FRONT_GLASS",
	"GLASS":       "FRONT_GLASS",
}

// NormalizeCoverage maps one human coverage token to its canonical code.
// Unrecognized tokens are upper-cased with separators folded to underscores.
func NormalizeCoverage(token string) string {
	t := strings.ToUpper(strings.TrimSpace(token))
	t = strings.ReplaceAll(t, "-", "_")
	t = strings.ReplaceAll(t, " ", "_")
	if code, ok := coverageSynonyms[t]; ok {
		return code
	}
	return t
}

var coverageSeparators = regexp.MustCompile(`[,;\s]+`)

// SplitCoverages tokenizes an optional_coverages answer into canonical
// coverage codes. The literal answer "none" (any case) yields no codes.
func SplitCoverages(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return nil
	}
	var codes []string
	for _, tok := range coverageSeparators.Split(trimmed, -1) {
		if tok == "" {
			continue
		}
		codes = append(codes, NormalizeCoverage(tok))
	}
	return codes
}

package usecase

import (
	"strconv"
	"strings"

	"insurance-chatbot/internal/domain"
	"insurance-chatbot/internal/schema"
)

// numericAttributes are the slot keys converted to numbers in the backend
// payload: integer unless the stored value carries a decimal point.
var numericAttributes = map[string]bool{
	"age":         true,
	"year":        true,
	"sum_insured": true,
	"income":      true,
	"ncd_percent": true,
}

// buildAttributes converts collected slots into the attribute map expected by
// the quoting backend. Absent slots are omitted. For MOTOR the
// optional_coverages answer expands into per-coverage boolean flags instead
// of being copied as raw text. The function is total: values that fail
// numeric parsing pass through as strings.
func buildAttributes(flow []schema.Slot, intent domain.Intent, slots map[string]string) map[string]any {
	attrs := map[string]any{}
	for _, s := range flow {
		v, ok := slots[s.Key]
		if !ok {
			continue
		}
		if s.Key == "optional_coverages" {
			if intent == domain.IntentMotor {
				for _, code := range schema.SplitCoverages(v) {
					attrs[code+"_enabled"] = true
				}
			}
			continue
		}
		if numericAttributes[s.Key] {
			attrs[s.Key] = numericValue(v)
			continue
		}
		attrs[s.Key] = v
	}
	return attrs
}

func numericValue(v string) any {
	if strings.Contains(v, ".") {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}

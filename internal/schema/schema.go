package schema

import (
	"strings"

	"insurance-chatbot/internal/domain"
)

// Slot is one required piece of information for an intent: the key it is
// stored under and the fixed prompt used to elicit it.
type Slot struct {
	Key    string
	Prompt string
}

// keywordSet maps a set of trigger words to an intent. Sets are evaluated in
// declaration order, so earlier intents win when a message matches several.
type keywordSet struct {
	intent   domain.Intent
	keywords []string
}

// Registry is the immutable dialogue configuration: the per-intent slot
// sequences, the intent keyword sets, and the per-slot validation rules.
// Build one with Default at process start and pass it in explicitly.
type Registry struct {
	flows    map[domain.Intent][]Slot
	keywords []keywordSet
	rules    map[string]Rule
}

// Default returns the canonical registry. MOTOR is checked before LIFE when
// classifying, and that priority is part of the contract.
func Default() *Registry {
	r := &Registry{
		flows: map[domain.Intent][]Slot{
			domain.IntentMotor: {
				{Key: "customer_name", Prompt: "May I have your full name as per NRIC or passport?"},
				{Key: "email", Prompt: "Please provide your email address."},
				{Key: "make", Prompt: "What is the vehicle make? (e.g. Perodua)"},
				{Key: "model", Prompt: "What is the vehicle model? (e.g. Myvi)"},
				{Key: "year", Prompt: "What is the year of manufacture? (e.g. 2019)"},
				{Key: "plate_no", Prompt: "What is the vehicle plate number?"},
				{Key: "usage", Prompt: "Is the usage Private or Commercial?"},
				{Key: "region", Prompt: "Which region is the vehicle registered in?"},
				{Key: "ncd_percent", Prompt: "What is your NCD percentage? (e.g. 38)"},
				{Key: "sum_insured", Prompt: "What sum insured do you want? (numeric, e.g. 40000)"},
				{Key: "optional_coverages", Prompt: "Any optional coverages? (type names like Theft, ACT_OF_GOD, SRCC or 'none')"},
			},
			domain.IntentLife: {
				{Key: "customer_name", Prompt: "May I have your full name?"},
				{Key: "email", Prompt: "Please provide your email address."},
				{Key: "age", Prompt: "What is your age?"},
				{Key: "gender", Prompt: "What is your gender? (Male / Female)"},
				{Key: "smoker_status", Prompt: "Do you smoke? (Yes / No)"},
				{Key: "income", Prompt: "What is your monthly income (RM)?"},
				{Key: "occupation", Prompt: "What is your occupation?"},
				{Key: "health_flags", Prompt: "Any pre-existing health conditions? (none if none)"},
			},
		},
		keywords: []keywordSet{
			{intent: domain.IntentMotor, keywords: []string{"motor", "car", "vehicle", "auto", "roadtax", "ncd", "plate", "comprehensive"}},
			{intent: domain.IntentLife, keywords: []string{"life", "medical", "protection", "beneficiary", "death", "smoker"}},
		},
	}
	r.rules = defaultRules()
	return r
}

// Flow returns the ordered slot sequence for an intent, or nil for an
// unknown intent.
func (r *Registry) Flow(intent domain.Intent) []Slot {
	return r.flows[intent]
}

// Classify maps free text to an intent by keyword substring match over the
// lower-cased input. Returns the empty intent when nothing matches.
func (r *Registry) Classify(text string) domain.Intent {
	msg := strings.ToLower(text)
	if strings.TrimSpace(msg) == "" {
		return ""
	}
	for _, set := range r.keywords {
		for _, kw := range set.keywords {
			if strings.Contains(msg, kw) {
				return set.intent
			}
		}
	}
	return ""
}

// PendingSlot returns the first slot of the intent's sequence that has no
// collected value yet. The second return is false once the flow is complete.
func (r *Registry) PendingSlot(intent domain.Intent, slots map[string]string) (Slot, bool) {
	for _, s := range r.flows[intent] {
		if _, ok := slots[s.Key]; !ok {
			return s, true
		}
	}
	return Slot{}, false
}

// Complete reports whether every slot of the intent's sequence is filled.
func (r *Registry) Complete(intent domain.Intent, slots map[string]string) bool {
	_, pending := r.PendingSlot(intent, slots)
	return !pending && len(r.flows[intent]) > 0
}

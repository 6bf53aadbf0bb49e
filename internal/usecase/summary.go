package usecase

import (
	"strconv"
	"strings"

	"insurance-chatbot/internal/domain"
)

const maxSummaryItems = 10

// renderSummary turns a quote preview into a short human-readable message.
func renderSummary(p *domain.QuotePreview, intent domain.Intent, slots map[string]string) string {
	currency := p.Breakdown.Currency
	if currency == "" {
		currency = "MYR"
	}

	var lines []string
	if intent == domain.IntentMotor {
		vdesc := strings.TrimSpace(strings.Join([]string{slots["make"], slots["model"], slots["year"]}, " "))
		lines = append(lines, "Quotation for your "+vdesc+":")
	} else {
		lines = append(lines, "Life insurance quotation:")
	}

	sumInsured := slots["sum_insured"]
	if p.Breakdown.SumInsured != 0 {
		sumInsured = formatAmount(p.Breakdown.SumInsured)
	}
	if sumInsured != "" {
		lines = append(lines, "- Sum Insured: "+currency+" "+sumInsured)
	}
	lines = append(lines, "- Total Premium: "+currency+" "+formatAmount(p.Total()))

	if len(p.Breakdown.Items) > 0 {
		lines = append(lines, "- Breakdown:")
		for i, it := range p.Breakdown.Items {
			if i == maxSummaryItems {
				break
			}
			label := it.Label
			if label == "" {
				label = it.Code
			}
			if label == "" {
				label = "Item"
			}
			lines = append(lines, "  * "+label+": "+currency+" "+formatAmount(it.Amount))
		}
	}

	risk := "N/A"
	if p.RiskScore != 0 {
		risk = formatAmount(p.RiskScore)
	}
	lines = append(lines, "- Risk Score: "+risk)

	return strings.Join(lines, "\n")
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

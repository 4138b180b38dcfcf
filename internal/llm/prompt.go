package llm

import "strings"

// BuildSystemPrompt composes the system message with currency defaults and
// strict-but-practical formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "USD"
	}

	parts := []string{
		"You are a receipts parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract every purchasable line item with its name, quantity, unit price, and line total as printed.",
		"Do not invent items; omit a numeric field you cannot read rather than guessing.",
		"Use 'purchase_datetime' in 'YYYY-MM-DD HH:MM:SS' form when the receipt shows a date.",
		"Amounts are plain numbers without currency symbols; assume " + defCur + " if uncertain.",
		"Put the pre-tax sum in 'subtotal', taxes in 'tax', and the charged amount in 'total'.",
		"Exclude subtotal, tax, total, change, and payment lines from 'items'.",
	}
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		parts = append(parts, "If dates are ambiguous, prefer timezone: "+tz+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the OCR text for the user message.
func BuildUserPrompt(ocrText string) string {
	var b strings.Builder
	b.WriteString("Receipt OCR text follows. It is noisy; merged words and stray codes are expected.\n\n")
	b.WriteString(ocrText)
	return b.String()
}

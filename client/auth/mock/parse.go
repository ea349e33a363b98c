package mock

import (
	"strconv"
	"strings"
	"time"

	"github.com/kottesh/amuhacks/schema"
)

var incomeWords = []string{"salary", "received", "income", "refund", "got paid"}

// ParseLines is a naive stand-in for the backend's NLP parser: every line or
// sentence holding a number becomes one transaction dated today.
func ParseLines(text string) []schema.ParsedTransaction {
	var ret []schema.ParsedTransaction
	split := func(r rune) bool { return r == '\n' || r == ';' }
	for _, line := range strings.FieldsFunc(text, split) {
		line = strings.TrimSpace(line)
		amount, ok := firstAmount(line)
		if !ok {
			continue
		}
		kind := schema.Expense
		lower := strings.ToLower(line)
		for _, word := range incomeWords {
			if strings.Contains(lower, word) {
				kind = schema.Income
				break
			}
		}
		description := line
		date := schema.NewTime(time.Now().UTC())
		ret = append(ret, schema.ParsedTransaction{Amount: amount, Type: kind, Description: &description, Date: &date})
	}
	return ret
}

func firstAmount(line string) (float64, bool) {
	for _, field := range strings.Fields(line) {
		field = strings.Trim(field, "$₹€£,:")
		field = strings.ReplaceAll(field, ",", "")
		if value, err := strconv.ParseFloat(field, 64); err == nil && value > 0 {
			return value, true
		}
	}
	return 0, false
}

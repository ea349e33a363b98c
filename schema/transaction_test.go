package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionQuery_Params(t *testing.T) {
	query := &TransactionQuery{
		Limit:     30,
		AccountID: 4,
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 7, 23, 59, 59, 0, time.FixedZone("x", 3600)),
		Type:      Expense,
		Sort:      "-transaction_date",
	}
	assert.EqualValues(t, map[string]string{
		"limit":      "30",
		"account_id": "4",
		"start_date": "2024-03-01T00:00:00",
		"end_date":   "2024-03-07T22:59:59",
		"type":       "EXPENSE",
		"sort":       "-transaction_date",
	}, query.Params())

	var empty *TransactionQuery
	assert.Empty(t, empty.Params())
}

func TestParseTransactionType(t *testing.T) {
	actual, err := ParseTransactionType(" income ")
	assert.NoError(t, err)
	assert.Equal(t, Income, actual)
	_, err = ParseTransactionType("gift")
	assert.Error(t, err)
}

func TestParsedTransaction_ToCreate(t *testing.T) {
	category := "food"
	parsed := &ParsedTransaction{Amount: 12.5, Type: Expense, Category: &category}
	actual := parsed.ToCreate(7)
	assert.Equal(t, &TransactionCreate{Amount: 12.5, Type: Expense, Category: &category, AccountID: 7}, actual)
}

package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

// ParseTransactionType accepts any letter case.
func ParseTransactionType(value string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(value))); t {
	case Income, Expense, Transfer:
		return t, nil
	}
	return "", fmt.Errorf("invalid transaction type: %q", value)
}

type (
	Transaction struct {
		ID          int             `json:"id"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    *string         `json:"category,omitempty"`
		Description *string         `json:"description,omitempty"`
		Date        Time            `json:"date"`
		AccountID   int             `json:"account_id"`
		OwnerID     int             `json:"owner_id"`
	}

	TransactionCreate struct {
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    *string         `json:"category,omitempty"`
		Description *string         `json:"description,omitempty"`
		Date        *Time           `json:"date,omitempty"`
		AccountID   int             `json:"account_id"`
	}

	TransactionUpdate struct {
		Amount      *float64         `json:"amount,omitempty"`
		Type        *TransactionType `json:"type,omitempty"`
		Category    *string          `json:"category,omitempty"`
		Description *string          `json:"description,omitempty"`
		Date        *Time            `json:"date,omitempty"`
		AccountID   *int             `json:"account_id,omitempty"`
	}

	// ParsedTransaction is one transaction extracted from free text; it is not saved.
	ParsedTransaction struct {
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    *string         `json:"category,omitempty"`
		Description *string         `json:"description,omitempty"`
		Date        *Time           `json:"date,omitempty"`
	}

	// ParseRequest is the free-text parsing payload.
	ParseRequest struct {
		Text string `json:"text"`
	}

	// TransactionQuery filters transaction listings; zero values are omitted.
	TransactionQuery struct {
		Skip      int
		Limit     int
		AccountID int
		StartDate time.Time
		EndDate   time.Time
		Category  string
		Type      TransactionType
		Sort      string
	}
)

const queryTimeLayout = "2006-01-02T15:04:05"

// Params renders the query as URL parameters.
func (q *TransactionQuery) Params() map[string]string {
	ret := map[string]string{}
	if q == nil {
		return ret
	}
	if q.Skip > 0 {
		ret["skip"] = strconv.Itoa(q.Skip)
	}
	if q.Limit > 0 {
		ret["limit"] = strconv.Itoa(q.Limit)
	}
	if q.AccountID > 0 {
		ret["account_id"] = strconv.Itoa(q.AccountID)
	}
	if !q.StartDate.IsZero() {
		ret["start_date"] = q.StartDate.UTC().Format(queryTimeLayout)
	}
	if !q.EndDate.IsZero() {
		ret["end_date"] = q.EndDate.UTC().Format(queryTimeLayout)
	}
	if q.Category != "" {
		ret["category"] = q.Category
	}
	if q.Type != "" {
		ret["type"] = string(q.Type)
	}
	if q.Sort != "" {
		ret["sort"] = q.Sort
	}
	return ret
}

// ToCreate turns a parsed transaction into a save payload for accountID.
func (p *ParsedTransaction) ToCreate(accountID int) *TransactionCreate {
	return &TransactionCreate{
		Amount:      p.Amount,
		Type:        p.Type,
		Category:    p.Category,
		Description: p.Description,
		Date:        p.Date,
		AccountID:   accountID,
	}
}

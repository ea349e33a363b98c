package dashboard

import (
	"github.com/google/uuid"
	"github.com/kottesh/amuhacks/schema"
)

// ReviewItem is a parsed transaction awaiting user confirmation.
type ReviewItem struct {
	schema.ParsedTransaction
	TempID string
	// DateText is the parsed date trimmed to YYYY-MM-DD, empty when absent.
	DateText string
	// AccountID is the account selected for saving, zero until chosen.
	AccountID     int
	Saving        bool
	SaveError     string
	DateFormatted string
}

// Status updates review item flags; nil fields are left unchanged.
type Status struct {
	Saving    *bool
	SaveError *string
}

func newReviewItem(parsed schema.ParsedTransaction) *ReviewItem {
	ret := &ReviewItem{ParsedTransaction: parsed, TempID: uuid.NewString()}
	if parsed.Date != nil {
		ret.DateText = parsed.Date.Date()
	}
	return ret
}

// date returns the value to save: the formatted date if set, then the parsed date.
func (r *ReviewItem) date() (*schema.Time, error) {
	text := r.DateFormatted
	if text == "" {
		text = r.DateText
	}
	if text == "" {
		return nil, nil
	}
	ret, err := schema.ParseTime(text)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *ReviewItem) toCreate() (*schema.TransactionCreate, error) {
	date, err := r.date()
	if err != nil {
		return nil, err
	}
	ret := r.ParsedTransaction.ToCreate(r.AccountID)
	ret.Date = date
	return ret, nil
}

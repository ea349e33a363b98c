package schema

type (
	Account struct {
		ID      int     `json:"id"`
		Name    string  `json:"name"`
		Type    string  `json:"type"`
		Balance float64 `json:"balance"`
		OwnerID int     `json:"owner_id"`
	}

	AccountCreate struct {
		Name    string  `json:"name"`
		Type    string  `json:"type"`
		Balance float64 `json:"balance"`
	}

	// AccountUpdate carries only the fields to change.
	AccountUpdate struct {
		Name    *string  `json:"name,omitempty"`
		Type    *string  `json:"type,omitempty"`
		Balance *float64 `json:"balance,omitempty"`
	}
)

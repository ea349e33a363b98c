package mock

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/kottesh/amuhacks/schema"
)

func (s *Service) meHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	reject := s.behavior.RejectCurrentUser
	s.mu.Unlock()
	if reject {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, ownerOf(r).User)
}

func (s *Service) listAccountsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	owner := ownerOf(r)
	s.mu.Lock()
	var ret = make([]schema.Account, 0)
	for _, account := range s.accounts {
		if account.OwnerID == owner.ID {
			ret = append(ret, *account)
		}
	}
	s.mu.Unlock()
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	writeJSON(w, http.StatusOK, ret)
}

func (s *Service) createAccountHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	request := &schema.AccountCreate{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("body", "invalid JSON")})
		return
	}
	if strings.TrimSpace(request.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("name", "field required")})
		return
	}
	s.mu.Lock()
	s.nextID++
	account := &schema.Account{ID: s.nextID, Name: request.Name, Type: request.Type, Balance: request.Balance, OwnerID: ownerOf(r).ID}
	s.accounts[account.ID] = account
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, account)
}

func (s *Service) getAccountHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.ownedAccount(r, ps)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Account not found")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Service) updateAccountHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	request := &schema.AccountUpdate{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("body", "invalid JSON")})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.ownedAccount(r, ps)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Account not found")
		return
	}
	if request.Name != nil {
		account.Name = *request.Name
	}
	if request.Type != nil {
		account.Type = *request.Type
	}
	if request.Balance != nil {
		account.Balance = *request.Balance
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Service) listTransactionsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	skip, _ := strconv.Atoi(query.Get("skip"))
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	accountID, _ := strconv.Atoi(query.Get("account_id"))
	var start, end time.Time
	if v := query.Get("start_date"); v != "" {
		parsed, err := schema.ParseTime(v)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("start_date", "invalid datetime format")})
			return
		}
		start = parsed.Time
	}
	if v := query.Get("end_date"); v != "" {
		parsed, err := schema.ParseTime(v)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("end_date", "invalid datetime format")})
			return
		}
		end = parsed.Time
	}
	owner := ownerOf(r)
	s.mu.Lock()
	var ret = make([]schema.Transaction, 0)
	for _, transaction := range s.transactions {
		switch {
		case transaction.OwnerID != owner.ID:
			continue
		case accountID > 0 && transaction.AccountID != accountID:
			continue
		case !start.IsZero() && transaction.Date.Before(start):
			continue
		case !end.IsZero() && transaction.Date.After(end):
			continue
		case query.Get("type") != "" && string(transaction.Type) != query.Get("type"):
			continue
		case query.Get("category") != "" && (transaction.Category == nil || *transaction.Category != query.Get("category")):
			continue
		}
		ret = append(ret, *transaction)
	}
	s.mu.Unlock()

	descending := strings.HasPrefix(query.Get("sort"), "-")
	sort.SliceStable(ret, func(i, j int) bool {
		if !ret[i].Date.Equal(ret[j].Date.Time) {
			if descending {
				return ret[i].Date.After(ret[j].Date.Time)
			}
			return ret[i].Date.Before(ret[j].Date.Time)
		}
		if descending {
			return ret[i].ID > ret[j].ID
		}
		return ret[i].ID < ret[j].ID
	})
	if skip >= len(ret) {
		ret = ret[:0]
	} else {
		ret = ret[skip:]
	}
	if len(ret) > limit {
		ret = ret[:limit]
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Service) createTransactionHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	request := &schema.TransactionCreate{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("body", "invalid JSON")})
		return
	}
	if issues := transactionIssues(request.Amount, request.Type); len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := ownerOf(r)
	account, ok := s.accounts[request.AccountID]
	if !ok || account.OwnerID != owner.ID {
		writeDetail(w, http.StatusNotFound, "Account not found")
		return
	}
	date := schema.NewTime(time.Now().UTC())
	if request.Date != nil && !request.Date.IsZero() {
		date = *request.Date
	}
	s.nextID++
	transaction := &schema.Transaction{
		ID:          s.nextID,
		Amount:      request.Amount,
		Type:        request.Type,
		Category:    request.Category,
		Description: request.Description,
		Date:        date,
		AccountID:   account.ID,
		OwnerID:     owner.ID,
	}
	s.transactions[transaction.ID] = transaction
	applyBalance(account, transaction, 1)
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Service) getTransactionHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transaction, ok := s.ownedTransaction(r, ps)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Service) updateTransactionHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	request := &schema.TransactionUpdate{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("body", "invalid JSON")})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	transaction, ok := s.ownedTransaction(r, ps)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Transaction not found")
		return
	}
	updated := *transaction
	if request.Amount != nil {
		updated.Amount = *request.Amount
	}
	if request.Type != nil {
		updated.Type = *request.Type
	}
	if request.Category != nil {
		updated.Category = request.Category
	}
	if request.Description != nil {
		updated.Description = request.Description
	}
	if request.Date != nil {
		updated.Date = *request.Date
	}
	if request.AccountID != nil {
		updated.AccountID = *request.AccountID
	}
	if issues := transactionIssues(updated.Amount, updated.Type); len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	target, ok := s.accounts[updated.AccountID]
	if !ok || target.OwnerID != transaction.OwnerID {
		writeDetail(w, http.StatusNotFound, "Account not found")
		return
	}
	if source, ok := s.accounts[transaction.AccountID]; ok {
		applyBalance(source, transaction, -1)
	}
	applyBalance(target, &updated, 1)
	*transaction = updated
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Service) deleteTransactionHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transaction, ok := s.ownedTransaction(r, ps)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if account, ok := s.accounts[transaction.AccountID]; ok {
		applyBalance(account, transaction, -1)
	}
	delete(s.transactions, transaction.ID)
	writeJSON(w, http.StatusOK, transaction)
}

func (s *Service) parseHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	request := &schema.ParseRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("text", "field required")})
		return
	}
	s.mu.Lock()
	parser := s.parser
	s.mu.Unlock()
	ret := parser(request.Text)
	if ret == nil {
		ret = []schema.ParsedTransaction{}
	}
	writeJSON(w, http.StatusOK, ret)
}

// ownedAccount must be called with s.mu held
func (s *Service) ownedAccount(r *http.Request, ps httprouter.Params) (*schema.Account, bool) {
	id, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		return nil, false
	}
	account, ok := s.accounts[id]
	if !ok || account.OwnerID != ownerOf(r).ID {
		return nil, false
	}
	return account, true
}

// ownedTransaction must be called with s.mu held
func (s *Service) ownedTransaction(r *http.Request, ps httprouter.Params) (*schema.Transaction, bool) {
	id, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		return nil, false
	}
	transaction, ok := s.transactions[id]
	if !ok || transaction.OwnerID != ownerOf(r).ID {
		return nil, false
	}
	return transaction, true
}

func transactionIssues(amount float64, kind schema.TransactionType) []interface{} {
	var ret []interface{}
	if amount <= 0 {
		ret = append(ret, validationIssue("amount", "ensure this value is greater than 0"))
	}
	if _, err := schema.ParseTransactionType(string(kind)); err != nil || kind == "" {
		ret = append(ret, validationIssue("type", "value is not a valid enumeration member"))
	}
	return ret
}

func applyBalance(account *schema.Account, transaction *schema.Transaction, sign float64) {
	switch transaction.Type {
	case schema.Income:
		account.Balance += sign * transaction.Amount
	case schema.Expense:
		account.Balance -= sign * transaction.Amount
	}
}

package mock

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

const (
	RouteLogin             = "login"
	RouteRegister          = "register"
	RouteRefresh           = "refresh"
	RouteMe                = "me"
	RouteListAccounts      = "listAccounts"
	RouteCreateAccount     = "createAccount"
	RouteGetAccount        = "getAccount"
	RouteUpdateAccount     = "updateAccount"
	RouteListTransactions  = "listTransactions"
	RouteCreateTransaction = "createTransaction"
	RouteGetTransaction    = "getTransaction"
	RouteUpdateTransaction = "updateTransaction"
	RouteDeleteTransaction = "deleteTransaction"
	RouteParse             = "parse"
)

func (s *Service) router() *httprouter.Router {
	router := httprouter.New()
	router.RedirectTrailingSlash = false

	router.POST(Prefix+"/auth/login", s.counted(RouteLogin, s.loginHandler))
	router.POST(Prefix+"/auth/register", s.counted(RouteRegister, s.registerHandler))
	router.POST(Prefix+"/auth/refresh", s.counted(RouteRefresh, s.refreshHandler))

	router.GET(Prefix+"/users/me", s.counted(RouteMe, s.authenticated(s.meHandler)))

	router.GET(Prefix+"/accounts/", s.counted(RouteListAccounts, s.authenticated(s.listAccountsHandler)))
	router.POST(Prefix+"/accounts/", s.counted(RouteCreateAccount, s.authenticated(s.createAccountHandler)))
	router.GET(Prefix+"/accounts/:id", s.counted(RouteGetAccount, s.authenticated(s.getAccountHandler)))
	router.PUT(Prefix+"/accounts/:id", s.counted(RouteUpdateAccount, s.authenticated(s.updateAccountHandler)))

	router.GET(Prefix+"/transactions/", s.counted(RouteListTransactions, s.authenticated(s.listTransactionsHandler)))
	router.POST(Prefix+"/transactions/", s.counted(RouteCreateTransaction, s.authenticated(s.createTransactionHandler)))
	router.POST(Prefix+"/transactions/parse", s.counted(RouteParse, s.authenticated(s.parseHandler)))
	router.GET(Prefix+"/transactions/:id", s.counted(RouteGetTransaction, s.authenticated(s.getTransactionHandler)))
	router.PUT(Prefix+"/transactions/:id", s.counted(RouteUpdateTransaction, s.authenticated(s.updateTransactionHandler)))
	router.DELETE(Prefix+"/transactions/:id", s.counted(RouteDeleteTransaction, s.authenticated(s.deleteTransactionHandler)))
	return router
}

func (s *Service) counted(route string, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s.count(route)
		handle(w, r, ps)
	}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail interface{}) {
	writeJSON(w, status, map[string]interface{}{"detail": detail})
}

// validationIssue mirrors a single entry of a structured 422 detail.
func validationIssue(field, msg string) map[string]interface{} {
	return map[string]interface{}{
		"loc":  []string{"body", field},
		"msg":  msg,
		"type": "value_error",
	}
}

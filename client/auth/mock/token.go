package mock

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/kottesh/amuhacks/schema"
)

type ownerKey struct{}

// loginHandler handles form-encoded /auth/login requests
func (s *Service) loginHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	email, password := r.PostFormValue("username"), r.PostFormValue("password")
	if email == "" || password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{
			validationIssue("username", "field required"),
		})
		return
	}
	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok || u.password != password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	response, err := s.issue(email, true)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// registerHandler handles JSON /auth/register requests
func (s *Service) registerHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	request := &schema.UserCreate{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("body", "invalid JSON")})
		return
	}
	var issues []interface{}
	if !strings.Contains(request.Email, "@") {
		issues = append(issues, validationIssue("email", "value is not a valid email address"))
	}
	if len(request.Password) < 8 {
		issues = append(issues, validationIssue("password", "ensure this value has at least 8 characters"))
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[request.Email]; ok {
		writeDetail(w, http.StatusBadRequest, "The user with this email already exists in the system.")
		return
	}
	created := s.addUser(request.Email, request.Password, request.FirstName, request.LastName)
	writeJSON(w, http.StatusOK, created.User)
}

// refreshHandler handles JSON /auth/refresh requests
func (s *Service) refreshHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	request := &schema.RefreshRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil || request.RefreshToken == "" {
		writeDetail(w, http.StatusUnprocessableEntity, []interface{}{validationIssue("refresh_token", "field required")})
		return
	}
	s.mu.Lock()
	behavior := s.behavior
	email, known := s.refresh[request.RefreshToken]
	s.mu.Unlock()

	if behavior.RefreshDelay > 0 {
		time.Sleep(behavior.RefreshDelay)
	}
	if behavior.FailRefresh || !known {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if _, ok := s.verifyJWT(request.RefreshToken, "refresh_token"); !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if behavior.OmitAccessToken {
		writeJSON(w, http.StatusOK, map[string]interface{}{"token_type": "bearer"})
		return
	}
	rotate := !behavior.OmitRefreshToken
	response, err := s.issue(email, rotate)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Server error")
		return
	}
	if rotate {
		s.mu.Lock()
		delete(s.refresh, request.RefreshToken)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, response)
}

// issue creates an access token and, when withRefresh, a refresh token for email
func (s *Service) issue(email string, withRefresh bool) (map[string]interface{}, error) {
	accessToken, err := s.createJWT(email, "access_token", s.AccessTTL)
	if err != nil {
		return nil, err
	}
	response := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "bearer",
	}
	var refreshToken string
	if withRefresh {
		if refreshToken, err = s.createJWT(email, "refresh_token", s.RefreshTTL); err != nil {
			return nil, err
		}
		response["refresh_token"] = refreshToken
	}
	s.mu.Lock()
	s.accessTokens[accessToken] = email
	if refreshToken != "" {
		s.refresh[refreshToken] = email
	}
	s.mu.Unlock()
	return response, nil
}

// authenticated rejects requests without a live access token
func (s *Service) authenticated(handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		s.mu.Lock()
		email, ok := s.accessTokens[parts[1]]
		owner := s.users[email]
		s.mu.Unlock()
		if !ok || owner == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if _, valid := s.verifyJWT(parts[1], "access_token"); !valid {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		handle(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)), ps)
	}
}

func ownerOf(r *http.Request) *user {
	u, _ := r.Context().Value(ownerKey{}).(*user)
	return u
}

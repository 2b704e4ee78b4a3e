package web

import (
	"fmt"
	"net/http"
	"strings"

	"wtr-service/pkg/common"
)

type signInRequest struct {
	Token string `json:"token"`
}

type connectivityRequest struct {
	Online bool `json:"online"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.identity.OwnerID()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": ok,
		"ownerId":       ownerID,
	})
}

// handleSignIn accepts the token in the body or the Authorization header.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if r.ContentLength != 0 {
		var req signInRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Token != "" {
			token = req.Token
		}
	}
	if strings.TrimSpace(token) == "" {
		writeError(w, fmt.Errorf("%w: token is required", common.ErrUnauthorized))
		return
	}

	ownerID, err := s.verifier.Verify(token)
	if err != nil {
		s.logger.Warn("Sign-in rejected: %v", err)
		writeError(w, err)
		return
	}
	s.identity.SignIn(ownerID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"ownerId":       ownerID,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.identity.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetConnectivity(w http.ResponseWriter, r *http.Request) {
	var req connectivityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.monitor.SetOnline(req.Online)
	writeJSON(w, http.StatusOK, map[string]interface{}{"online": s.monitor.IsOnline()})
}

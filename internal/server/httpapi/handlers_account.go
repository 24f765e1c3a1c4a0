package httpapi

import (
	"net/http"
)

type registerEmailRequest struct {
	Email string `json:"email"`
	PK    string `json:"pk"`
}

type registerVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type kdfParamsResponse struct {
	Salt          string `json:"salt"`
	ArgonMem      int    `json:"argon_mem"`
	ArgonTime     int    `json:"argon_time"`
	ArgonParallel int    `json:"argon_parallel"`
}

type registerPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	EncSK    string `json:"enc_sk"`
	EncMK    string `json:"enc_mk"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	PK            string `json:"pk"`
	EncSK         string `json:"enc_sk"`
	EncMK         string `json:"enc_mk"`
	Salt          string `json:"salt"`
	ArgonMem      int    `json:"argon_mem"`
	ArgonTime     int    `json:"argon_time"`
	ArgonParallel int    `json:"argon_parallel"`
}

type statusResponse struct {
	Status string `json:"status"`
}

var statusOK = statusResponse{Status: "ok"}

func (s *HTTPServer) handleRegisterEmail(w http.ResponseWriter, r *http.Request) {
	var req registerEmailRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.PK == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and pk are required"})
		return
	}

	if err := s.users.RegisterEmail(r.Context(), req.Email, req.PK); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusOK)
}

func (s *HTTPServer) handleRegisterVerify(w http.ResponseWriter, r *http.Request) {
	var req registerVerifyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	params, err := s.users.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, kdfParamsResponse{
		Salt:          params.Salt,
		ArgonMem:      params.ArgonMem,
		ArgonTime:     params.ArgonTime,
		ArgonParallel: params.ArgonParallel,
	})
}

func (s *HTTPServer) handleRegisterPassword(w http.ResponseWriter, r *http.Request) {
	var req registerPasswordRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "password is required"})
		return
	}

	if err := s.users.SetPassword(r.Context(), req.Email, req.Password, req.EncSK, req.EncMK); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusOK)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:   res.AccessToken,
		TokenType:     "bearer",
		PK:            res.PK,
		EncSK:         res.EncSK,
		EncMK:         res.EncMK,
		Salt:          res.Salt,
		ArgonMem:      res.ArgonMem,
		ArgonTime:     res.ArgonTime,
		ArgonParallel: res.ArgonParallel,
	})
}

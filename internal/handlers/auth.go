package handlers

import (
	"net/http"
	"strings"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

type AuthHandler struct {
	svc *services.AuthService
}

func NewAuthHandler(svc *services.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/activate", h.activate)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		httpx.JSONError(w, http.StatusBadRequest, "name, email and password required", nil)
		return
	}
	user, token, err := h.svc.Register(r.Context(), services.RegisterInput{
		Name: in.Name, Email: in.Email, Password: in.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// The token is returned in the response until an outbound mailer exists.
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"user":             user,
		"activation_token": token,
	})
}

func (h *AuthHandler) activate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var in struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "token required", nil)
		return
	}
	user, err := h.svc.Activate(r.Context(), in.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "email and password required", nil)
		return
	}
	user, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

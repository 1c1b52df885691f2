package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/golea/internal/identity"
	"github.com/example/golea/internal/metrics"
)

type sessionStore interface {
	Signup(ctx context.Context, input identity.SignupInput) (identity.User, error)
	Login(ctx context.Context, email, password string) (identity.User, error)
	LoginWithRole(ctx context.Context, email, password string, role identity.Role) (identity.User, error)
	RequestOTP(ctx context.Context, phone string) error
	LoginWithOTP(ctx context.Context, phone, otp string, role identity.Role) (identity.User, error)
	LoginWithID(ctx context.Context, identifier string, role identity.Role) (identity.User, error)
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, update identity.ProfileUpdate) error
	CurrentUser() (identity.User, bool)
}

type AuthHandler struct {
	store     sessionStore
	metrics   *metrics.Metrics
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(store sessionStore, m *metrics.Metrics, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{store: store, metrics: m, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

const joinDateLayout = "2006-01-02"

type userDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department string  `json:"department,omitempty"`
	StudentID  *string `json:"studentId,omitempty"`
	FacultyID  *string `json:"facultyId,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	JoinDate   string  `json:"joinDate"`
}

type sessionResponse struct {
	User            *userDTO `json:"user"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}

func toUserDTO(user identity.User) *userDTO {
	return &userDTO{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: user.Department,
		StudentID:  user.StudentID,
		FacultyID:  user.FacultyID,
		Avatar:     user.Avatar,
		Phone:      user.Phone,
		JoinDate:   user.JoinDate.Format(joinDateLayout),
	}
}

type signupRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department string  `json:"department"`
	Phone      *string `json:"phone"`
	StudentID  *string `json:"studentId"`
	FacultyID  *string `json:"facultyId"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.store.Signup(r.Context(), identity.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Role:       identity.Role(req.Role),
		Department: req.Department,
		Phone:      req.Phone,
		StudentID:  req.StudentID,
		FacultyID:  req.FacultyID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SignupsTotal.Inc()
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{
		User:            toUserDTO(user),
		IsAuthenticated: true,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login handles both login variants: with a role in the body it authenticates
// against the role-scoped account list, without one it searches the registry.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	variant := "email"
	var (
		user identity.User
		err  error
	)
	if role := strings.TrimSpace(req.Role); role != "" {
		variant = "role"
		user, err = h.store.LoginWithRole(r.Context(), req.Email, req.Password, identity.Role(role))
	} else {
		user, err = h.store.Login(r.Context(), req.Email, req.Password)
	}
	h.finishLogin(w, r, variant, user, err)
}

type otpRequest struct {
	Phone string `json:"phone"`
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.store.RequestOTP(r.Context(), req.Phone); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusAccepted, map[string]string{"status": "otp_sent"})
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Role  string `json:"role"`
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.store.LoginWithOTP(r.Context(), req.Phone, req.OTP, identity.Role(req.Role))
	h.finishLogin(w, r, "otp", user, err)
}

type idLoginRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (h *AuthHandler) LoginWithID(w http.ResponseWriter, r *http.Request) {
	var req idLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.store.LoginWithID(r.Context(), req.ID, identity.Role(req.Role))
	h.finishLogin(w, r, "id", user, err)
}

func (h *AuthHandler) finishLogin(w http.ResponseWriter, r *http.Request, variant string, user identity.User, err error) {
	if err != nil {
		if h.metrics != nil {
			h.metrics.IncLoginFailure(variant, identity.ErrorKind(err))
		}
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncLoginSuccess(variant)
	}
	h.log(r.Context(), "Login", "variant", variant, "user_id", user.ID).InfoContext(r.Context(), "login succeeded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{
		User:            toUserDTO(user),
		IsAuthenticated: true,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.sessionState())
}

type profileUpdateRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	Avatar     *string `json:"avatar"`
	Phone      *string `json:"phone"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.store.UpdateProfile(r.Context(), identity.ProfileUpdate{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Avatar:     req.Avatar,
		Phone:      req.Phone,
	}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.sessionState())
}

func (h *AuthHandler) sessionState() sessionResponse {
	if user, ok := h.store.CurrentUser(); ok {
		return sessionResponse{User: toUserDTO(user), IsAuthenticated: true}
	}
	return sessionResponse{}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/models"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
)

type UserHandler struct {
	service      *services.UserService
	secureCookie bool
}

func NewUserHandler(service *services.UserService, secureCookie bool) *UserHandler {
	return &UserHandler{service: service, secureCookie: secureCookie}
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, session *services.Session) {
	sameSite := http.SameSiteLaxMode
	if h.secureCookie {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: sameSite,
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	user, session, err := h.service.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	h.setSessionCookie(w, session)
	utils.WriteOK(w, utils.Envelope{"user": user, "token": session.Token})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	utils.WriteOK(w, utils.Envelope{"message": "Logged out successfully"})
}

// Register is the public sign-up. Accounts created here are never admins;
// admins come from AdminRegister or the create-admin command.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in.IsAdmin = false
	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{
		"status":  true,
		"message": "User registered successfully",
		"user":    user,
	})
}

// AdminRegister creates an account on behalf of a signed-in admin, whose
// own session is left in place.
func (h *UserHandler) AdminRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{
		"status":  true,
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), body.Email); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"success": true, "message": "OTP sent to your email address"})
}

func (h *UserHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	token, err := h.service.VerifyOTP(r.Context(), body.Email, body.OTP)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"success": true, "message": "OTP verified successfully", "token": token})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), body.Email, body.Token, body.Password); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"success": true, "message": "Password has been reset successfully"})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileUpdate
	if err := decodeBody(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), middleware.PrincipalFromContext(r.Context()), in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Profile Updated Successfully.", "user": user})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), middleware.PrincipalFromContext(r.Context()), body.Password); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "Password changed successfully."})
}

func (h *UserHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "User")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var body struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeBody(r, &body); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if body.IsActive == nil {
		utils.WriteError(w, r, models.ValidationError("isActive is required"))
		return
	}

	user, err := h.service.SetActive(r.Context(), id, *body.IsActive)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	state := "disabled"
	if user.IsActive {
		state = "activated"
	}
	utils.WriteOK(w, utils.Envelope{"message": "User account has been " + state})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "User")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"message": "User deleted successfully"})
}

// TeamList, like the board's other list reads, answers with a bare array.
func (h *UserHandler) TeamList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.TeamList(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.TaskStatus(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteOK(w, utils.Envelope{"stats": stats})
}

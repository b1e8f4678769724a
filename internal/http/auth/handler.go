package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/invoiceflow/internal/http/apierr"
	"github.com/MrJamesThe3rd/invoiceflow/internal/http/middleware"
	"github.com/MrJamesThe3rd/invoiceflow/internal/oauth"
	"github.com/MrJamesThe3rd/invoiceflow/internal/session"
	"github.com/MrJamesThe3rd/invoiceflow/internal/user"
)

const stateCookie = "iflow_oauth_state"

type Config struct {
	CookieName   string
	SecureCookie bool
	// Browsers land here after the Google flow.
	SuccessURL string
	FailureURL string
}

type Handler struct {
	users    *user.Service
	sessions *session.Manager
	google   *oauth.Google
	cfg      Config
	log      zerolog.Logger
}

func NewHandler(users *user.Service, sessions *session.Manager, google *oauth.Google, cfg Config, log zerolog.Logger) *Handler {
	return &Handler{users: users, sessions: sessions, google: google, cfg: cfg, log: log}
}

// Routes mounts the public endpoints. Me needs the session middleware and
// is mounted by the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/signup", h.signUp)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/google", h.googleRedirect)
	r.Get("/google/callback", h.googleCallback)
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type sessionResponse struct {
	Success   bool         `json:"success"`
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.BadRequest(w, h.log, "invalid request body: "+err.Error())
		return
	}

	u, err := h.users.SignUp(r.Context(), user.SignUpParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	h.startSession(w, u, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.BadRequest(w, h.log, "invalid request body: "+err.Error())
		return
	}

	u, err := h.users.Login(r.Context(), middleware.ClientIP(r), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrRateLimited) {
			w.Header().Set("Retry-After", "60")
		}

		apierr.Write(w, h.log, err)

		return
	}

	h.startSession(w, u, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		apierr.Write(w, h.log, session.ErrUnauthorized)
		return
	}

	u, err := h.users.Get(r.Context(), s.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			err = session.ErrUnauthorized
		}

		apierr.Write(w, h.log, err)

		return
	}

	apierr.JSON(w, h.log, http.StatusOK, toUserResponse(u))
}

func (h *Handler) googleRedirect(w http.ResponseWriter, r *http.Request) {
	if !h.google.Configured() {
		apierr.Write(w, h.log, oauth.ErrNotConfigured)
		return
	}

	state, err := oauth.NewState()
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		h.log.Warn().Msg("google callback with mismatched state")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)

		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/google", MaxAge: -1})

	profile, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.Warn().Err(err).Msg("google exchange failed")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)

		return
	}

	if !profile.VerifiedEmail {
		h.log.Warn().Str("google_id", profile.ID).Msg("google email not verified")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)

		return
	}

	u, err := h.users.LoginGoogle(r.Context(), user.GoogleProfile{
		ID:      profile.ID,
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("google sign-in failed")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)

		return
	}

	if _, _, err := h.setSessionCookie(w, u); err != nil {
		h.log.Error().Err(err).Msg("issuing session failed")
		http.Redirect(w, r, h.cfg.FailureURL, http.StatusFound)

		return
	}

	http.Redirect(w, r, h.cfg.SuccessURL, http.StatusFound)
}

func (h *Handler) startSession(w http.ResponseWriter, u *user.User, status int) {
	token, expires, err := h.setSessionCookie(w, u)
	if err != nil {
		apierr.Write(w, h.log, err)
		return
	}

	apierr.JSON(w, h.log, status, sessionResponse{
		Success:   true,
		User:      toUserResponse(u),
		Token:     token,
		ExpiresAt: expires,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, u *user.User) (string, time.Time, error) {
	token, expires, err := h.sessions.Issue(session.Session{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return token, expires, nil
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/respond"
	"github.com/videotube/backend/internal/storage"
)

const (
	refreshCookie       = "refreshToken"
	maxRegistrationSize = 10 << 20
	minPasswordLength   = 8
	// bcrypt only accepts passwords up to 72 bytes.
	maxPasswordBytes = 72
)

// AuthHandler implements registration and session endpoints.
type AuthHandler struct {
	Accounts AccountStore
	Sessions SessionManager
	Media    MediaStorage
	Cookies  config.CookieConfig
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/users/register (multipart form).
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(maxRegistrationSize); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respond.Error(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req := registerRequest{
		UserName: strings.ToLower(strings.TrimSpace(r.FormValue("userName"))),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Password: r.FormValue("password"),
	}
	if err := req.validate(); err != nil {
		respondError(ctx, w, err, "invalid registration")
		return
	}

	for _, login := range []string{req.UserName, req.Email} {
		_, err := h.Accounts.FindByLogin(ctx, login)
		if err == nil {
			respond.Error(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		if !errors.Is(err, repositories.ErrNotFound) && !errors.Is(err, auth.ErrAccountNotFound) {
			respondError(ctx, w, err, "unable to verify existing accounts")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(ctx, w, err, "failed to secure password")
		return
	}

	avatar, err := h.upload(r, "avatar", storage.KindAvatar, true)
	if err != nil {
		respondError(ctx, w, err, "failed to upload avatar")
		return
	}
	cover, err := h.upload(r, "coverImage", storage.KindCover, false)
	if err != nil {
		respondError(ctx, w, err, "failed to upload cover image")
		return
	}

	now := h.now()
	account := models.Account{
		ID:           uuid.NewString(),
		UserName:     req.UserName,
		Email:        req.Email,
		FullName:     req.FullName,
		Avatar:       avatar,
		CoverImage:   cover,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Error(ctx, w, http.StatusConflict, "user with email or username already exists")
			return
		}
		respondError(ctx, w, err, "failed to create account")
		return
	}

	logger.Info("account registered", "accountId", account.ID)
	respond.JSON(ctx, w, http.StatusCreated, account.Public(), "user registered successfully")
}

func (h AuthHandler) upload(r *http.Request, field string, kind storage.ImageKind, required bool) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return "", invalid("%s file is required", field)
		}
		return "", nil
	}
	if err != nil {
		return "", invalid("unreadable %s file", field)
	}
	defer file.Close()

	return h.Media.SaveImage(r.Context(), kind, contentType(header, file), file)
}

func contentType(header *multipart.FileHeader, file multipart.File) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	sniff := make([]byte, 512)
	n, _ := file.Read(sniff)
	_, _ = file.Seek(0, io.SeekStart)
	return http.DetectContentType(sniff[:n])
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid login payload", "error", err)
		respond.Error(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	login := strings.TrimSpace(req.UserName)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		respond.Error(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	account, tokens, err := h.Sessions.Authenticate(ctx, login, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			respond.Error(ctx, w, http.StatusNotFound, "user does not exist")
			return
		}
		if errors.Is(err, auth.ErrUnauthorized) {
			respond.Error(ctx, w, http.StatusUnauthorized, "invalid user credentials")
			return
		}
		respondError(ctx, w, err, "failed to create session")
		return
	}

	h.setSessionCookies(w, tokens)
	respond.JSON(ctx, w, http.StatusOK, sessionResponse{
		User:          ptr(account.Public()),
		SessionTokens: tokens,
	}, "user logged in successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The refresh cookie takes
// precedence over the refreshToken body field.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := ""
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.Body != nil {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	tokens, err := h.Sessions.Rotate(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			respond.Error(ctx, w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		respondError(ctx, w, err, "unable to refresh session")
		return
	}

	h.setSessionCookies(w, tokens)
	respond.JSON(ctx, w, http.StatusOK, sessionResponse{SessionTokens: tokens}, "access token refreshed")
}

// Logout handles POST /api/v1/users/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := middleware.AccountIDFromContext(ctx)

	if err := h.Sessions.Revoke(ctx, accountID); err != nil {
		respondError(ctx, w, err, "failed to log out")
		return
	}

	h.clearSessionCookies(w)
	respond.JSON(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// Me handles GET /api/v1/users/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, _ := middleware.AccountIDFromContext(ctx)

	account, err := h.Accounts.FindByID(ctx, accountID)
	if err != nil {
		respondError(ctx, w, err, "failed to load account")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, account.Public(), "current user fetched successfully")
}

func (h AuthHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(refreshCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessCookie, refreshCookie} {
		c := h.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.Cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type registerRequest struct {
	UserName string
	Email    string
	FullName string
	Password string
}

func (req registerRequest) validate() error {
	if req.UserName == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		return invalid("all fields are required")
	}
	if strings.ContainsAny(req.UserName, " /") {
		return invalid("username must not contain spaces or slashes")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return invalid("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	if len(req.Password) > maxPasswordBytes {
		return invalid("password must not exceed %d bytes", maxPasswordBytes)
	}
	return nil
}

type loginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	User *models.PublicAccount `json:"user,omitempty"`
	models.SessionTokens
}

func ptr[T any](v T) *T {
	return &v
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"hopecity/internal/middleware"
	"hopecity/internal/pin"
	"hopecity/internal/render"
	"hopecity/internal/session"
	"hopecity/internal/store"
)

const (
	totpIssuer        = "Hope City"
	minPasswordLength = 10

	msgTooManyAttempts = "Too many attempts. Please wait a few minutes and try again."
	msgInviteInvalid   = "This invitation link is invalid or has expired."
)

// PINGate guards local-mode sign-in. *pin.Gate satisfies it.
type PINGate interface {
	IsSet(ctx context.Context) (bool, error)
	Set(ctx context.Context, pin string) error
	Change(ctx context.Context, current, next string) error
	Verify(ctx context.Context, pin string) error
}

// Auth groups the sign-in handlers. users is nil in local mode, where the
// operator signs in with the PIN instead.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	users    Users
	pins     PINGate
	attempts Limiter
}

// NewAuth creates the auth handler group. attempts may be nil.
func NewAuth(renderer *render.Renderer, sessions *session.Store, users Users, pins PINGate, attempts Limiter) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		users:    users,
		pins:     pins,
		attempts: attempts,
	}
}

// LoginPath is where unauthenticated operators are sent.
func (a *Auth) LoginPath() string {
	if a.users == nil {
		return "/admin/pin"
	}
	return "/admin/login"
}

// LoginPage renders the email and password form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "login", &render.PageData{Title: "Sign In"})
}

// LoginSubmit checks the password and starts a session that still needs
// the TOTP step.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	key := "login:" + email

	loginError := func(msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": msg, "Email": email},
		})
	}

	if lockedOut(ctx, a.attempts, key) {
		loginError(msgTooManyAttempts)
		return
	}

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		loginError("An unexpected error occurred.")
		return
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		recordFailure(ctx, a.attempts, key)
		loginError("Invalid email or password.")
		return
	}
	resetAttempts(ctx, a.attempts, key)

	if _, err := a.sessions.Create(ctx, w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Method:      session.MethodPassword,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("password accepted", "email", user.Email)
	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
}

// TwoFASetupPage enrolls a new TOTP secret and shows its QR code. Users
// who already finished enrollment are sent to the verify page so their
// secret cannot be replaced from a half-authenticated session.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil || sess.Method != session.MethodPassword {
		http.Redirect(w, r, a.LoginPath(), http.StatusSeeOther)
		return
	}

	user, err := a.users.FindByID(ctx, sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := a.users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderSetup(w, r, user.Email, key.Secret(), "")
}

func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, email, secret, errMsg string) {
	png, err := qrcode.Encode(otpauthURL(email, secret), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"QRCode": base64.StdEncoding.EncodeToString(png),
		"Secret": secret,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data:  data,
	})
}

// otpauthURL builds the provisioning URI for an existing secret.
func otpauthURL(email, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", totpIssuer)
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + totpIssuer + ":" + email,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// TwoFAVerifyPage renders the code form for enrolled users.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.Method != session.MethodPassword {
		http.Redirect(w, r, a.LoginPath(), http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "2fa_verify", &render.PageData{Title: "Two-Factor Authentication"})
}

// TwoFAVerifySubmit checks the TOTP code, finishing enrollment on first
// use, and marks the session authenticated.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil || sess.Method != session.MethodPassword {
		http.Redirect(w, r, a.LoginPath(), http.StatusSeeOther)
		return
	}

	user, err := a.users.FindByID(ctx, sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	key := "totp:" + user.ID.String()
	verifyError := func(msg string) {
		if !user.TOTPEnabled {
			a.renderSetup(w, r, user.Email, *user.TOTPSecret, msg)
			return
		}
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": msg},
		})
	}

	if lockedOut(ctx, a.attempts, key) {
		verifyError(msgTooManyAttempts)
		return
	}
	if !totp.Validate(strings.TrimSpace(r.FormValue("code")), *user.TOTPSecret) {
		recordFailure(ctx, a.attempts, key)
		verifyError("Invalid code. Please try again.")
		return
	}
	resetAttempts(ctx, a.attempts, key)

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(ctx, user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(ctx, r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("operator signed in", "email", user.Email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// PINPage renders the PIN form, or the first-run setup form when no PIN
// exists yet.
func (a *Auth) PINPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sess := middleware.SessionFromCtx(ctx); sess != nil && sess.Authenticated() {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	set, err := a.pins.IsSet(ctx)
	if err != nil {
		slog.Error("pin lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !set {
		http.Redirect(w, r, "/admin/pin/setup", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "pin", &render.PageData{Title: "Sign In"})
}

// PINSubmit checks the operator PIN.
func (a *Auth) PINSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := "pin:" + middleware.ClientIP(r)

	pinError := func(msg string) {
		a.renderer.Page(w, r, "pin", &render.PageData{
			Title: "Sign In",
			Data:  map[string]any{"Error": msg},
		})
	}

	if lockedOut(ctx, a.attempts, key) {
		pinError(msgTooManyAttempts)
		return
	}

	err := a.pins.Verify(ctx, r.FormValue("pin"))
	switch {
	case errors.Is(err, pin.ErrNotSet):
		http.Redirect(w, r, "/admin/pin/setup", http.StatusSeeOther)
		return
	case errors.Is(err, pin.ErrMismatch), errors.Is(err, pin.ErrFormat):
		recordFailure(ctx, a.attempts, key)
		pinError("Incorrect PIN.")
		return
	case err != nil:
		slog.Error("pin verify failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	resetAttempts(ctx, a.attempts, key)

	a.startPINSession(w, r)
}

// PINSetupPage renders the first-run PIN form.
func (a *Auth) PINSetupPage(w http.ResponseWriter, r *http.Request) {
	set, err := a.pins.IsSet(r.Context())
	if err != nil {
		slog.Error("pin lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if set {
		http.Redirect(w, r, "/admin/pin", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "pin_setup", &render.PageData{Title: "Set Admin PIN"})
}

// PINSetupSubmit stores the first PIN and signs the operator in.
func (a *Auth) PINSetupSubmit(w http.ResponseWriter, r *http.Request) {
	value := r.FormValue("pin")

	setupError := func(msg string) {
		a.renderer.Page(w, r, "pin_setup", &render.PageData{
			Title: "Set Admin PIN",
			Data:  map[string]any{"Error": msg},
		})
	}

	if value != r.FormValue("confirm") {
		setupError("The PINs do not match.")
		return
	}

	err := a.pins.Set(r.Context(), value)
	switch {
	case errors.Is(err, pin.ErrAlreadySet):
		http.Redirect(w, r, "/admin/pin", http.StatusSeeOther)
		return
	case errors.Is(err, pin.ErrFormat):
		setupError(sentence(err))
		return
	case err != nil:
		slog.Error("pin setup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("admin pin created")
	a.startPINSession(w, r)
}

func (a *Auth) startPINSession(w http.ResponseWriter, r *http.Request) {
	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		Email:       "operator",
		DisplayName: "Operator",
		Role:        "admin",
		Method:      session.MethodPIN,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// InvitePage shows the accept form for a valid invitation token.
func (a *Auth) InvitePage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := map[string]any{"Error": msgInviteInvalid}

	if token != "" {
		user, err := a.users.FindByInviteToken(r.Context(), token)
		if err != nil {
			slog.Error("invite lookup failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if user != nil {
			data = map[string]any{"Email": user.Email, "Token": token}
		}
	}

	a.renderer.Page(w, r, "invite_accept", &render.PageData{
		Title: "Accept Invitation",
		Data:  data,
	})
}

// InviteAccept sets the invited operator's password and continues to TOTP
// enrollment.
func (a *Auth) InviteAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.FormValue("token")
	password := r.FormValue("password")
	displayName := strings.TrimSpace(r.FormValue("display_name"))

	acceptError := func(msg string) {
		data := map[string]any{"Error": msg}
		if user, err := a.users.FindByInviteToken(ctx, token); err == nil && user != nil {
			data["Email"] = user.Email
			data["Token"] = token
		}
		a.renderer.Page(w, r, "invite_accept", &render.PageData{
			Title: "Accept Invitation",
			Data:  data,
		})
	}

	switch {
	case len(password) < minPasswordLength:
		acceptError("Password must be at least 10 characters.")
		return
	case password != r.FormValue("confirm"):
		acceptError("The passwords do not match.")
		return
	}

	user, err := a.users.AcceptInvite(ctx, token, password, displayName)
	if errors.Is(err, store.ErrInviteInvalid) {
		acceptError(msgInviteInvalid)
		return
	}
	if err != nil {
		slog.Error("accept invite failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := a.sessions.Create(ctx, w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		Method:      session.MethodPassword,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("invitation accepted", "email", user.Email)
	http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, a.LoginPath(), http.StatusSeeOther)
}

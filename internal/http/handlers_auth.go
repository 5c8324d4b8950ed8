package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	"github.com/target/cinema-ui/internal/domain/gate"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/http/validation"
)

// phoneRegion applies to numbers entered without a country code.
const phoneRegion = "VN"

// authForm carries submitted values back into the login and register forms.
// Passwords are never echoed.
type authForm struct {
	Redirect    string
	Email       string
	Username    string
	PhoneNumber string
	Address     string
	DateOfBirth string
}

// formRedirect is the sanitized redirect target of a GET query or POST form.
func formRedirect(r *http.Request) string {
	v := r.URL.Query().Get(redirectField)
	if r.Method == http.MethodPost {
		v = r.PostFormValue(redirectField)
	}
	return safeRedirectPath(v)
}

func loginMeta() PageMeta {
	return PageMeta{Title: "Đăng nhập", PageTitle: "Đăng nhập", CurrentPage: PageLogin}
}

func registerMeta() PageMeta {
	return PageMeta{Title: "Đăng ký", PageTitle: "Đăng ký", CurrentPage: PageRegister}
}

func (h *UIHandlers) loginPage(w http.ResponseWriter, r *http.Request, form authForm) {
	data := NewTemplateData(r, loginMeta()).With("Form", form).Build()
	h.renderPage(w, r, http.StatusOK, data)
}

func (h *UIHandlers) registerPage(w http.ResponseWriter, r *http.Request, form authForm) {
	data := NewTemplateData(r, registerMeta()).With("Form", form).Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// Login handles POST /login.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if stateFromRequest(r).Status.IsAuthenticated() {
		redirect(w, r, gate.PathHome)
		return
	}
	form := authForm{
		Redirect: formRedirect(r),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	if !h.Limiter.Allow(r) {
		h.rateLimited(w, r, loginMeta(), form)
		return
	}

	sess, err := h.Auth.Login(r.Context(), domainauth.LoginRequest{
		Email:    form.Email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "login failed", "code", apperrors.GetCode(err), "error", err)
		h.authFailed(w, r, loginMeta(), form, err, nil)
		return
	}
	h.startSession(w, r, sess, form.Redirect)
}

// Register handles POST /register.
func (h *UIHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if stateFromRequest(r).Status.IsAuthenticated() {
		redirect(w, r, gate.PathHome)
		return
	}
	form := authForm{
		Redirect:    formRedirect(r),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		Username:    strings.TrimSpace(r.PostFormValue("username")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phoneNumber")),
		Address:     strings.TrimSpace(r.PostFormValue("address")),
		DateOfBirth: strings.TrimSpace(r.PostFormValue("dateOfBirth")),
	}
	password := r.PostFormValue("password")

	fv := validation.New().
		Validate("username", form.Username, validation.RequiredRange("tên đăng nhập", 3, 50)).
		Validate("email", form.Email, validation.Email("email")).
		Validate("password", password, validation.MinLength("mật khẩu", 6)).
		Validate("phoneNumber", form.PhoneNumber, validation.Phone("số điện thoại", phoneRegion)).
		Validate("address", form.Address, validation.Optional("địa chỉ", 255)).
		Validate("dateOfBirth", form.DateOfBirth, validation.PastDate("ngày sinh", h.now))
	if !fv.Valid() {
		h.authFailed(w, r, registerMeta(), form, nil, fv.Errors())
		return
	}
	if !h.Limiter.Allow(r) {
		h.rateLimited(w, r, registerMeta(), form)
		return
	}

	sess, err := h.Auth.Register(r.Context(), domainauth.RegisterRequest{
		Email:       form.Email,
		Password:    password,
		PhoneNumber: form.PhoneNumber,
		Username:    form.Username,
		Address:     form.Address,
		DateOfBirth: form.DateOfBirth,
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "registration failed", "code", apperrors.GetCode(err), "error", err)
		h.authFailed(w, r, registerMeta(), form, err, nil)
		return
	}
	h.startSession(w, r, sess, form.Redirect)
}

// Logout handles POST /logout.
func (h *UIHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFromRequest(r); id != "" {
		if err := h.Auth.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	clearCookie(w, r, cookieParams{Name: SessionCookieName, Domain: h.CookieDomain})
	redirect(w, r, gate.PathLogin)
}

type statusUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type statusResponse struct {
	Authenticated bool        `json:"authenticated"`
	Loading       bool        `json:"loading"`
	User          *statusUser `json:"user"`
}

// Status handles GET /auth/status.
func (h *UIHandlers) Status(w http.ResponseWriter, r *http.Request) {
	st := stateFromRequest(r)
	resp := statusResponse{
		Authenticated: st.Status.IsAuthenticated(),
		Loading:       st.Status.IsLoading(),
	}
	if u := st.User(); u != nil && resp.Authenticated {
		resp.User = &statusUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)}
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, resp)
}

func (h *UIHandlers) startSession(w http.ResponseWriter, r *http.Request, sess *domainauth.Session, target string) {
	setSessionCookie(w, r, h.CookieDomain, sess.ID, sess.ExpiresAt)
	redirect(w, r, safeRedirectPath(target))
}

func (h *UIHandlers) authFailed(
	w http.ResponseWriter,
	r *http.Request,
	meta PageMeta,
	form authForm,
	err error,
	fieldErrors map[string]string,
) {
	RenderError(ErrorOpts{
		W:           w,
		R:           r,
		Err:         err,
		FieldErrors: fieldErrors,
		Renderer:    h.renderPage,
		PageMeta:    meta,
		Data:        map[string]any{"Form": form},
		KeepMessage: true,
	})
}

// rateLimited re-renders the form with 429, or 200 for htmx so the message
// is swapped in.
func (h *UIHandlers) rateLimited(w http.ResponseWriter, r *http.Request, meta PageMeta, form authForm) {
	status := http.StatusTooManyRequests
	if WantsPartial(r) {
		status = http.StatusOK
	}
	w.Header().Set("Retry-After", "5")
	RenderError(ErrorOpts{
		W:          w,
		R:          r,
		Err:        apperrors.RateLimited(errMsgRateLimited),
		Renderer:   h.renderPage,
		PageMeta:   meta,
		Data:       map[string]any{"Form": form},
		StatusCode: status,
	})
}

package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{apperrors.NotFoundf("movie %d", 1), errMsgNotFound},
		{apperrors.RateLimited("slow down"), errMsgRateLimited},
		{apperrors.Unauthorized("expired"), errMsgExpired},
		{apperrors.Validation("bad"), errMsgInvalid},
		{apperrors.Upstreamf("status %d", 502), errMsgLoadFailed},
		{errors.New("plain"), errMsgLoadFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage(tt.err), "%v", tt.err)
	}
}

func TestProcessError(t *testing.T) {
	var fields map[string]string
	assert.Empty(t, processError(nil, false, &fields))
	assert.Equal(t, errMsgTimeout, processError(fmt.Errorf("get: %w", context.DeadlineExceeded), false, &fields))
	assert.Equal(t, errMsgCanceled, processError(context.Canceled, false, &fields))

	msg := processError(apperrors.ValidationField("email", "Email không hợp lệ."), false, &fields)
	assert.Empty(t, msg)
	assert.Equal(t, map[string]string{"email": "Email không hợp lệ."}, fields)

	assert.Equal(t, "Email hoặc mật khẩu không đúng",
		processError(apperrors.Unauthorized("Email hoặc mật khẩu không đúng"), true, &fields))
	assert.Equal(t, errMsgExpired,
		processError(apperrors.Unauthorized("Email hoặc mật khẩu không đúng"), false, &fields),
		"raw messages are only shown when asked for")
}

func TestRenderError(t *testing.T) {
	var (
		gotStatus int
		gotData   map[string]any
	)
	renderer := func(_ http.ResponseWriter, _ *http.Request, status int, data map[string]any) {
		gotStatus, gotData = status, data
	}

	r := httptest.NewRequest(http.MethodPost, "/register", nil)
	RenderError(ErrorOpts{
		W:           httptest.NewRecorder(),
		R:           r,
		FieldErrors: map[string]string{"username": "Vui lòng nhập tên đăng nhập."},
		Renderer:    renderer,
		PageMeta:    registerMeta(),
		Data:        map[string]any{"Form": authForm{Email: "a@b.c"}},
	})
	require.NotNil(t, gotData)
	assert.Equal(t, http.StatusOK, gotStatus)
	assert.Equal(t, true, gotData["Error"])
	assert.Equal(t, errMsgFixBelow, gotData["ErrorMessage"])
	assert.Equal(t, PageRegister, gotData["CurrentPage"])
	assert.Equal(t, authForm{Email: "a@b.c"}, gotData["Form"])

	RenderError(ErrorOpts{
		W:          httptest.NewRecorder(),
		R:          r,
		Err:        apperrors.RateLimited("x"),
		Renderer:   renderer,
		StatusCode: http.StatusTooManyRequests,
	})
	assert.Equal(t, http.StatusTooManyRequests, gotStatus)
	assert.Equal(t, errMsgRateLimited, gotData["ErrorMessage"])
	assert.NotContains(t, gotData, "Errors")
}

func TestRenderError_NoRenderer(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderError(ErrorOpts{W: rec, R: httptest.NewRequest(http.MethodGet, "/", nil)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDetermineErrorStatus(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/movie/1", nil)
	notFound := apperrors.NotFoundf("movie %d not found", 1)

	assert.Equal(t, http.StatusNotFound, DetermineErrorStatus(r, notFound))
	assert.Equal(t, http.StatusOK, DetermineErrorStatus(r, errors.New("boom")))
	assert.Equal(t, http.StatusOK, DetermineErrorStatus(AsHTMX(r, true), notFound))
}

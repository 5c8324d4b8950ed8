package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

// Messages shown for failed page data loads.
const (
	errMsgFixBelow    = "Vui lòng kiểm tra lại các trường bên dưới."
	errMsgLoadFailed  = "Không thể tải dữ liệu. Vui lòng thử lại."
	errMsgNotFound    = "Không tìm thấy nội dung bạn yêu cầu."
	errMsgTimeout     = "Yêu cầu quá thời gian. Vui lòng thử lại."
	errMsgCanceled    = "Yêu cầu đã bị hủy."
	errMsgRateLimited = "Bạn thao tác quá nhanh. Vui lòng thử lại sau ít phút."
	errMsgExpired     = "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."
	errMsgInvalid     = "Yêu cầu không hợp lệ."
	errMsgNotBookable = "Suất chiếu này hiện không mở bán vé."
)

// ErrorRenderer renders template data with a status code.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, status int, data map[string]any)

// ErrorOpts contains all options needed to render an error response.
type ErrorOpts struct {
	W   http.ResponseWriter
	R   *http.Request
	Err error
	// FieldErrors maps form field names to messages.
	FieldErrors map[string]string
	Renderer    ErrorRenderer
	PageMeta    PageMeta
	// Data is merged into the template data, e.g. to keep submitted form values.
	Data map[string]any
	// StatusCode defaults to 200 so htmx swaps the response.
	StatusCode int
	// KeepMessage shows the AppError message as is. Auth forms set it, as
	// the auth service only returns displayable messages.
	KeepMessage bool
}

// RenderError renders the page described by opts in its error state.
func RenderError(opts ErrorOpts) {
	if opts.Renderer == nil {
		http.Error(opts.W, "misconfigured error renderer", http.StatusInternalServerError)
		return
	}

	builder := NewTemplateData(opts.R, opts.PageMeta)

	general := processError(opts.Err, opts.KeepMessage, &opts.FieldErrors)
	if len(opts.FieldErrors) > 0 {
		builder.WithFieldErrors(opts.FieldErrors)
	}
	switch {
	case general != "":
		builder.WithError(general)
	case len(opts.FieldErrors) > 0:
		builder.WithError(errMsgFixBelow)
	}
	for k, v := range opts.Data {
		builder.With(k, v)
	}

	status := opts.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	opts.Renderer(opts.W, opts.R, status, builder.Build())
}

// processError returns the message to show for err. Validation and conflict
// errors naming a field are attached to that field instead.
func processError(err error, keepMessage bool, fieldErrors *map[string]string) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return errMsgTimeout
		case errors.Is(err, context.Canceled):
			return errMsgCanceled
		default:
			return errMsgLoadFailed
		}
	}

	if appErr.Field != "" && appErr.Message != "" &&
		(appErr.Code == apperrors.ErrCodeValidation || appErr.Code == apperrors.ErrCodeConflict) {
		if *fieldErrors == nil {
			*fieldErrors = make(map[string]string)
		}
		(*fieldErrors)[appErr.Field] = appErr.Message
		return ""
	}
	if keepMessage && appErr.Message != "" {
		return appErr.Message
	}
	return ErrorMessage(err)
}

// ErrorMessage maps err to a generic Vietnamese message by its AppError code.
func ErrorMessage(err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return errMsgNotFound
	case apperrors.ErrCodeTimeout:
		return errMsgTimeout
	case apperrors.ErrCodeCanceled:
		return errMsgCanceled
	case apperrors.ErrCodeRateLimited:
		return errMsgRateLimited
	case apperrors.ErrCodeUnauthorized:
		return errMsgExpired
	case apperrors.ErrCodeValidation:
		return errMsgInvalid
	default:
		return errMsgLoadFailed
	}
}

// DetermineErrorStatus is the status a failed page load is rendered with.
// Data failures stay 200 so the page renders inside the layout; missing
// resources are 404 for full page loads.
func DetermineErrorStatus(r *http.Request, err error) int {
	if apperrors.IsNotFound(err) && !WantsPartial(r) {
		return http.StatusNotFound
	}
	return http.StatusOK
}

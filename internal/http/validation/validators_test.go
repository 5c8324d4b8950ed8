package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/target/cinema-ui/internal/testutil"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "valid input", value: "minh", want: ""},
		{name: "empty string", value: "", want: "Vui lòng nhập tên đăng nhập."},
		{name: "whitespace only", value: "   ", want: "Vui lòng nhập tên đăng nhập."},
		{name: "too long", value: strings.Repeat("a", 11), want: "Tên đăng nhập không được vượt quá 10 ký tự."},
		{name: "unicode counted by rune", value: "Nguyễn Văn", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Required("tên đăng nhập", 10)(tt.value))
		})
	}
}

func TestRequiredRange(t *testing.T) {
	v := RequiredRange("tên", 3, 5)
	assert.Equal(t, "", v("abcd"))
	assert.Equal(t, "Tên phải từ 3 đến 5 ký tự.", v("ab"))
	assert.Equal(t, "Tên phải từ 3 đến 5 ký tự.", v("abcdef"))
	assert.Equal(t, "Vui lòng nhập tên.", v(" "))
}

func TestMinLength(t *testing.T) {
	v := MinLength("mật khẩu", 6)
	assert.Equal(t, "", v("secret"))
	assert.Equal(t, "Mật khẩu phải có ít nhất 6 ký tự.", v("abc"))
	assert.Equal(t, "Vui lòng nhập mật khẩu.", v(""))
}

func TestEmail(t *testing.T) {
	v := Email("email")
	for _, ok := range []string{"a@b.vn", "minh.nguyen@example.com"} {
		assert.Empty(t, v(ok), ok)
	}
	for _, bad := range []string{"plain", "a@b", "Minh <a@b.vn>", "a b@c.vn"} {
		assert.Equal(t, "Email không hợp lệ.", v(bad), bad)
	}
	assert.Equal(t, "Vui lòng nhập email.", v(""))
}

func TestPastDate(t *testing.T) {
	v := PastDate("ngày sinh", testutil.FixedTimeFunc(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", v(""))
	assert.Equal(t, "", v("2000-01-31"))
	assert.Equal(t, "Ngày sinh không hợp lệ.", v("31/01/2000"))
	assert.Equal(t, "Ngày sinh không được ở tương lai.", v("2030-01-01"))
}

func TestOptional(t *testing.T) {
	v := Optional("địa chỉ", 5)
	assert.Equal(t, "", v(""))
	assert.Equal(t, "", v("Huế"))
	assert.Equal(t, "Địa chỉ không được vượt quá 5 ký tự.", v("Hà Nội xa"))
}

func TestFieldValidator_StopsAtFirstError(t *testing.T) {
	fv := New().
		Validate("password", "", MinLength("mật khẩu", 6), Required("mật khẩu", 100)).
		Validate("email", "a@b.vn", Email("email"))

	assert.False(t, fv.Valid())
	assert.Equal(t, map[string]string{"password": "Vui lòng nhập mật khẩu."}, fv.Errors())
}

func TestFieldValidator_EmptyErrors(t *testing.T) {
	fv := New().Validate("username", "minh", Required("tên đăng nhập", 50))
	assert.True(t, fv.Valid())
	assert.Empty(t, fv.Errors())
}

func TestPhone(t *testing.T) {
	v := Phone("số điện thoại", "VN")
	for _, ok := range []string{"", "+84901234567", "0901234567", " 0912 345 678 "} {
		assert.Empty(t, v(ok), ok)
	}
	for _, bad := range []string{"12ab", "123", "+8490"} {
		assert.Equal(t, "Số điện thoại không hợp lệ.", v(bad), bad)
	}
}

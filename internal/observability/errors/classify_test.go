package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

func TestClassify(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Equal(t, "not_found", Classify(fmt.Errorf("get movie: %w", apperrors.NotFound("movie"))))
	assert.Equal(t, "timeout", Classify(fmt.Errorf("fetch: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", Classify(context.Canceled))
	assert.Equal(t, "net_operror", Classify(fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Err: errors.New("refused")})))
}

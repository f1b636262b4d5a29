package http_utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorizeRequestError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ErrorCategoryNone},
		{fmt.Errorf("send: %w", context.Canceled), ErrorCategoryCanceled},
		{context.DeadlineExceeded, ErrorCategoryTimeoutDeadline},
		{errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), ErrorCategoryConnectionRefused},
		{errors.New("lookup nowhere.invalid: no such host"), ErrorCategoryDNSResolution},
		{errors.New("net/http: invalid control character in URL"), ErrorCategoryURLControlCharacter},
		{errors.New("something odd"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategorizeRequestError(tt.err), "%v", tt.err)
	}
}

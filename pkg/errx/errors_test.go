package errx_test

import (
	"errors"
	"fmt"
	"testing"

	"siteshell/pkg/errx"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndIs(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	err := fmt.Errorf("start: %w", errx.Wrap(errx.CodeNetworkUnavailable, base, "站点不可达"))

	assert.True(t, errx.Is(err, errx.CodeNetworkUnavailable))
	assert.False(t, errx.Is(err, errx.CodePrintFailed))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, errx.CodeNetworkUnavailable, errx.CodeOf(err))
	assert.Contains(t, err.Error(), "NETWORK_UNAVAILABLE")
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, errx.CodeInternal, errx.CodeOf(errors.New("x")))
}

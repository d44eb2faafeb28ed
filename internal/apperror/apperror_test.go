package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type providerErr struct{ code int }

func (p *providerErr) Error() string { return fmt.Sprintf("provider status %d", p.code) }

func TestError_IsAndAs(t *testing.T) {
	cause := &providerErr{code: 404}
	err := fmt.Errorf("gateway: %w", New("download", ErrNotFound, cause))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrExport)

	var pe *providerErr
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 404, pe.code)
	assert.Equal(t, "gateway: download: document not found: provider status 404", err.Error())
}

func TestError_NoCause(t *testing.T) {
	err := New("token", ErrAuth, nil)
	assert.Equal(t, "token: authentication required", err.Error())
	assert.ErrorIs(t, err, ErrAuth)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"auth", New("x", ErrAuth, nil), ErrAuth},
		{"wrapped export", fmt.Errorf("outer: %w", New("x", ErrExport, errors.New("eof"))), ErrExport},
		{"config", New("x", ErrConfig, nil), ErrConfig},
		{"plain", errors.New("boom"), nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescribe/codescribe-go/internal/model"
)

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, TypeCache, "persist result")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "persist result")
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithContext(t *testing.T) {
	err := New(TypeParse, "bad input").WithContext("path", "src/A.java")
	require.NotNil(t, err.Context)
	assert.Equal(t, "src/A.java", err.Context["path"])
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"nil", nil, model.ErrorNone},
		{"parse", ParseErrorf("broken"), model.ErrorParse},
		{"service", ServiceError(stderrors.New("503"), "call failed"), model.ErrorServiceUnavailable},
		{"cache", CacheError(stderrors.New("io"), "load"), model.ErrorCacheCorrupt},
		{"cancelled", New(TypeCancelled, "stopped"), model.ErrorCancelled},
		{"plain error", stderrors.New("anything"), model.ErrorServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs_MatchesByType(t *testing.T) {
	a := New(TypeParse, "one")
	b := New(TypeParse, "two")
	c := New(TypeCache, "three")

	assert.True(t, stderrors.Is(a, b), "Errors of the same type should match")
	assert.False(t, stderrors.Is(a, c))
}

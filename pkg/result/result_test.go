package result

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOkAllowsNilPayload(t *testing.T) {
	r := Ok[*int](nil)
	assert.True(t, r.Succeeded)
	assert.False(t, r.Failed())
	assert.Nil(t, r.Data)
	assert.Empty(t, r.Message())
}

func TestFailCollectsMessages(t *testing.T) {
	r := Fail[int]("first", "second")
	assert.True(t, r.Failed())
	assert.False(t, r.Canceled)
	assert.Equal(t, "first", r.Message())
	assert.Len(t, r.Messages, 2)
}

func TestFromErrorClassifiesCancellation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		canceled bool
	}{
		{"context canceled", context.Canceled, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped cancellation", errors.Join(errors.New("query"), context.Canceled), true},
		{"plain failure", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromError[int](tt.err)
			assert.True(t, r.Failed())
			assert.Equal(t, tt.canceled, r.Canceled)
		})
	}
}

func TestCarryPreservesFailureShape(t *testing.T) {
	in := Fail[string]("rejected")
	out := Carry[int](in)
	assert.True(t, out.Failed())
	assert.Equal(t, in.Messages, out.Messages)

	canceled := Carry[int](Canceled[string]())
	assert.True(t, canceled.Canceled)
}

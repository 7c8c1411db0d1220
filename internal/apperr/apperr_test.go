package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "конфликт уникальности",
			err:  New(KindConflict, "email already registered"),
			want: KindConflict,
		},
		{
			name: "обернутая ошибка сохраняет класс",
			err:  fmt.Errorf("storage.CreateLead: %w", New(KindConflict, "lead already captured")),
			want: KindConflict,
		},
		{
			name: "ошибка вне таксономии считается внутренней",
			err:  errors.New("connection refused"),
			want: KindInternal,
		},
		{
			name: "ошибка провайдера",
			err:  Wrap(KindUpstreamPayment, "payment provider unavailable", errors.New("timeout")),
			want: KindUpstreamPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "unknown plan", Message(New(KindNotFound, "unknown plan")))

	// текст внутренних причин не должен утекать наружу
	assert.Equal(t, "internal error", Message(errors.New("pq: relation does not exist")))
	assert.Equal(t, "internal error", Message(Wrap(KindInternal, "hash failed", errors.New("bcrypt cost"))))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(KindConflict, "email already registered", cause)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
}

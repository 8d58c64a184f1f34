package errors

import (
	goerrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/escrow-api/internal/domain/model"
	apperrors "github.com/target/escrow-api/internal/errors"
)

type customErr struct{}

func (customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "temporary processor", err: &model.ProcessorError{Temporary: true, Code: "rate_limit"}, want: "processor_unavailable"},
		{name: "declined", err: fmt.Errorf("hold: %w", &model.ProcessorError{Code: "card_declined"}), want: "processor_card_declined"},
		{name: "processor without code", err: &model.ProcessorError{}, want: "processor_error"},
		{name: "app error", err: fmt.Errorf("wrap: %w", apperrors.StateGuard("milestone", "pending", "escrowed")), want: "state_guard"},
		{name: "concrete type", err: fmt.Errorf("wrap: %w", customErr{}), want: "errors_customerr"},
		{name: "plain", err: goerrors.New("x"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

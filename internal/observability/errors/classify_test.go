package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/target/adverity-fetchbot/internal/errors"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "app error", err: apperrors.PollTransient(nil, "status 502"), want: "poll_transient"},
		{
			name: "wrapped app error",
			err:  fmt.Errorf("outer: %w", apperrors.JobStartFailed("no id", nil)),
			want: "job_start_failed",
		},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "url error", err: &url.Error{Op: "Get", URL: "x", Err: goerrors.New("boom")}, want: "errors_errorstring"},
		{name: "plain", err: goerrors.New("x"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

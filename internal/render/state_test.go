package render

import (
	"errors"
	"testing"
)

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Launched, "launched"},
		{ContentLoaded, "content-loaded"},
		{Settled, "settled"},
		{Closed, "closed"},
		{State(42), "state(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cur     State
		want    State
		wantErr error
	}{
		{"match", Settled, Settled, nil},
		{"too early", Launched, Settled, ErrInvalidState},
		{"too late", Settled, ContentLoaded, ErrInvalidState},
		{"closed", Closed, Settled, ErrSessionClosed},
		{"closed wanted idle", Closed, Idle, ErrSessionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := expect(tt.cur, tt.want)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expect() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expect() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

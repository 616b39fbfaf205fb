package health

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct{ err error }

func (f *fakeStore) Ping(_ context.Context) error { return f.err }

type fakeEncoder struct{ err error }

func (f *fakeEncoder) HealthCheck(_ context.Context) error { return f.err }

func TestCheck(t *testing.T) {
	storeDown := errors.New("connection refused")
	encoderDown := errors.New("request timeout")

	tests := []struct {
		name        string
		storeErr    error
		encoderErr  error
		noEncoder   bool
		wantStatus  Status
		wantDB      CheckResult
		wantEncoder CheckResult // empty means the check must be absent
	}{
		{
			name:       "all components up",
			wantStatus: Healthy, wantDB: CheckOK, wantEncoder: CheckOK,
		},
		{
			name:     "store down is fatal",
			storeErr: storeDown,
			wantStatus: Unhealthy, wantDB: CheckError, wantEncoder: CheckOK,
		},
		{
			name:       "encoder down only degrades",
			encoderErr: encoderDown,
			wantStatus: Degraded, wantDB: CheckOK, wantEncoder: CheckError,
		},
		{
			name:     "store failure outranks encoder failure",
			storeErr: storeDown, encoderErr: encoderDown,
			wantStatus: Unhealthy, wantDB: CheckError, wantEncoder: CheckError,
		},
		{
			name:      "no encoder wired",
			noEncoder: true,
			wantStatus: Healthy, wantDB: CheckOK,
		},
		{
			name:      "no encoder, store down",
			noEncoder: true, storeErr: storeDown,
			wantStatus: Unhealthy, wantDB: CheckError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var encoder EncoderChecker
			if !tc.noEncoder {
				encoder = &fakeEncoder{err: tc.encoderErr}
			}
			svc := New(&fakeStore{err: tc.storeErr}, encoder)

			r := svc.Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status: got %q, want %q", r.Status, tc.wantStatus)
			}
			if r.Checks["database"] != tc.wantDB {
				t.Errorf("database check: got %q, want %q", r.Checks["database"], tc.wantDB)
			}

			got, present := r.Checks["embedding"]
			if tc.wantEncoder == "" {
				if present {
					t.Errorf("embedding check should be absent, got %q", got)
				}
				return
			}
			if got != tc.wantEncoder {
				t.Errorf("embedding check: got %q, want %q", got, tc.wantEncoder)
			}
		})
	}
}

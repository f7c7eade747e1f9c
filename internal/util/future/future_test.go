package future

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAll(t *testing.T) {
	type testCase struct {
		name    string
		futures []*Future[int]
		wantVal []int
		wantErr bool
	}

	testCases := []testCase{
		{
			name:    "completed values keep order",
			futures: []*Future[int]{FromValue(1), FromValue(2), FromValue(3)},
			wantVal: []int{1, 2, 3},
		},
		{
			name: "slower first future still first",
			futures: []*Future[int]{
				New(func() (int, error) {
					time.Sleep(10 * time.Millisecond)
					return 100, nil
				}),
				New(func() (int, error) {
					return 200, nil
				}),
			},
			wantVal: []int{100, 200},
		},
		{
			name: "error propagates",
			futures: []*Future[int]{
				FromValue(1),
				New(func() (int, error) { return 0, errors.New("failure") }),
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			vals, err := All(tc.futures...)
			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error: %v, got: %v", tc.wantErr, err)
			}
			if tc.wantErr {
				return
			}
			if len(vals) != len(tc.wantVal) {
				t.Fatalf("expected %d values, got %d", len(tc.wantVal), len(vals))
			}
			for i := range vals {
				if vals[i] != tc.wantVal[i] {
					t.Errorf("value %d: expected %d, got %d", i, tc.wantVal[i], vals[i])
				}
			}
		})
	}
}

func TestPoolLimitsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]func() (int, error), 8)
	for i := range jobs {
		jobs[i] = func() (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return i, nil
		}
	}

	vals, err := All(Pool(2, jobs)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vals {
		if v != i {
			t.Errorf("expected %d at %d, got %d", i, i, v)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent jobs, saw %d", peak.Load())
	}
}

func TestAwaitContext(t *testing.T) {
	never := New(func() (int, error) {
		time.Sleep(time.Second)
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := never.AwaitContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-server/mocks"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	workerMock := mocks.NewMockWorker(ctrl)

	calls := make(chan struct{}, 16)
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls <- struct{}{}
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(log, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	sup.Add(workerMock).Run(ctx)

	// Waiting for panics and restarts
	seen := 0
	deadline := time.After(900 * time.Millisecond)
	for seen < 2 {
		select {
		case <-calls:
			seen++
		case <-deadline:
			req.Fail("worker was not restarted after a panic")
		}
	}
	sup.Stop()
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	ran := make(chan struct{})
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			close(ran)
			return nil
		}).
		Times(1)

	sup := NewSupervisor(log, 10*time.Millisecond)
	sup.Add(workerMock).Run(context.Background())

	select {
	case <-ran:
		// Then the worker ran once; a clean return is never restarted
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have run the worker")
	}
	sup.Stop()
}

func TestSupervisor_StopCancelsRunningWorkers(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workerMock := mocks.NewMockWorker(ctrl)
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}).
		Times(1)

	sup := NewSupervisor(log, 10*time.Millisecond)
	sup.Add(workerMock).Run(context.Background())

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		req.Fail("Stop should cancel the supervised context and return")
	}
}

package cron

import (
	"context"
	"errors"
	"testing"

	"kvrdesk/services/booking"
	"kvrdesk/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type sweepingService struct {
	booking.BookingService
	calls int
	count int
	err   error
}

func (s *sweepingService) SweepExpired(context.Context) (int, error) {
	s.calls++
	return s.count, s.err
}

func TestHandleSweepTask(t *testing.T) {
	svc := &sweepingService{count: 2}
	handler := HandleSweepTask(svc, zap.NewNop())

	task, err := tasks.NewSweepTask("test")
	if err != nil {
		t.Fatal(err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if svc.calls != 1 {
		t.Fatalf("sweep calls = %d", svc.calls)
	}

	svc.err = errors.New("store offline")
	if err := handler(context.Background(), task); err == nil {
		t.Fatal("store failure should be retried")
	}
}

func TestHandleSweepTaskBadPayload(t *testing.T) {
	svc := &sweepingService{}
	err := HandleSweepTask(svc, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeSweepExpiredHolds, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
	if svc.calls != 0 {
		t.Fatal("sweep should not run on bad payload")
	}
}

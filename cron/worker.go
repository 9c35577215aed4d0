package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kvrdesk/config"
	"kvrdesk/models"
	"kvrdesk/services/booking"
	"kvrdesk/services/tasks"
	"kvrdesk/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SweepWorker runs the expired-hold sweep on a schedule and on demand.
type SweepWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	client    *asynq.Client
	logger    *zap.Logger
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitSweepWorker starts the asynq worker and the periodic scheduler.
func InitSweepWorker(svc booking.BookingService) (*SweepWorker, error) {
	logger := utils.GetLogger().With(zap.String("component", "sweep-worker"))
	opts := redisOpts()

	srv := asynq.NewServer(
		opts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSweepExpiredHolds, HandleSweepTask(svc, logger))

	// Start async worker with retry logic
	const maxAttempts = 5
	for attempts := 1; ; attempts++ {
		err := srv.Start(mux)
		if err == nil {
			break
		}
		logger.Warn("failed to start worker", zap.Int("attempt", attempts), zap.Error(err))
		if attempts == maxAttempts {
			return nil, fmt.Errorf("sweep worker: %w", err)
		}
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}

	scheduler := asynq.NewScheduler(opts, &asynq.SchedulerOpts{Location: time.Local})
	task, err := tasks.NewSweepTask("schedule")
	if err != nil {
		srv.Shutdown()
		return nil, err
	}
	entryID, err := scheduler.Register(config.AppConfig.SweepCron, task)
	if err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("register sweep %q: %w", config.AppConfig.SweepCron, err)
	}
	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	logger.Info("sweep worker started", zap.String("cron", config.AppConfig.SweepCron), zap.String("entry", entryID))
	return &SweepWorker{server: srv, scheduler: scheduler, client: asynq.NewClient(opts), logger: logger}, nil
}

// ScheduleExpiry enqueues a one-off sweep just after a hold lapses.
func (w *SweepWorker) ScheduleExpiry(ctx context.Context, token string, expiresAt time.Time) error {
	task, opts, err := tasks.NewHoldExpiryTask(token, expiresAt)
	if err != nil {
		return err
	}
	info, err := w.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return err
	}
	w.logger.Debug("hold expiry scheduled", zap.String("task", info.ID), zap.Time("at", info.NextProcessAt))
	return nil
}

func (w *SweepWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	if err := w.client.Close(); err != nil {
		w.logger.Warn("closing queue client", zap.Error(err))
	}
	w.logger.Info("sweep worker stopped")
}

// HandleSweepTask demotes every overdue hold.
func HandleSweepTask(svc booking.BookingService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.SweepPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid sweep payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		count, err := svc.SweepExpired(ctx)
		if err != nil {
			logger.Error("sweep failed", zap.String("reason", p.Reason), zap.Error(err))
			return err
		}
		logger.Debug("sweep finished", zap.String("reason", p.Reason), zap.Int("expired", count))
		return nil
	}
}

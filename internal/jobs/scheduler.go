// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает ежемесячный сброс квот и догоняет пропущенный
// запуск, если сервис был выключен в момент срабатывания.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/config"
	"serotonyl.ru/boostly/internal/features/monthlyreset"
)

// Resetter — ежемесячный сброс.
type Resetter interface {
	Run(ctx context.Context, now time.Time) (*monthlyreset.Summary, error)
}

// Scheduler управляет фоновыми задачами.
//
// Расписание сброса всегда считается в UTC: месячные корзины журнала и квот
// начинаются в 00:00 UTC 1-го числа. APP_TIMEZONE влияет только на вывод времени.
type Scheduler struct {
	cron     *cron.Cron
	chain    cron.Chain
	schedule cron.Schedule
	spec     string
	grace    time.Duration
	display  *time.Location
	resetter Resetter
	notify   func(text string) // может быть nil
	now      func() time.Time

	catchUp sync.WaitGroup
}

// NewScheduler создаёт планировщик сброса.
// notify получает итоги каждого прогона (например, рассылка админам в Telegram).
func NewScheduler(cfg *config.Config, resetter Resetter, notify func(text string)) (*Scheduler, error) {
	display, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(cfg.ResetCron)
	if err != nil {
		return nil, err
	}

	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		chain:    cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		schedule: schedule,
		spec:     cfg.ResetCron,
		grace:    cfg.ResetMisfireGrace,
		display:  display,
		resetter: resetter,
		notify:   notify,
		now:      time.Now,
	}, nil
}

// Start запускает фоновые задачи. Если последнее срабатывание было
// не раньше чем grace назад — сброс запускается сразу.
func (s *Scheduler) Start(ctx context.Context) error {
	// Плановый запуск и догоняющий идут через одну обёртку:
	// SkipIfStillRunning не даст им выполняться одновременно
	job := s.chain.Then(cron.FuncJob(func() {
		log.Info("[CRON] Ежемесячный сброс квот")
		s.RunReset(ctx)
	}))
	s.cron.Schedule(s.schedule, job)

	now := s.now().UTC()
	if MissedRun(s.schedule, now, s.grace) {
		log.WithField("grace", s.grace).Warn("[CRON] Пропущен запуск сброса, догоняем")
		s.catchUp.Add(1)
		go func() {
			defer s.catchUp.Done()
			job.Run()
		}()
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"spec":     s.spec + " (UTC)",
		"timezone": s.display.String(),
		"next":     common.FormatDateTime(s.schedule.Next(now), s.display),
	}).Info("Планировщик задач запущен")
	return nil
}

// RunReset выполняет один прогон сброса и рассылает итоги.
func (s *Scheduler) RunReset(ctx context.Context) {
	summary, err := s.resetter.Run(ctx, s.now())
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса")
	}
	if summary == nil {
		return
	}
	log.Infof("[CRON] %s", summary)
	if s.notify != nil {
		s.notify(summary.String())
	}
}

// Stop останавливает планировщик и ждёт завершения текущего прогона,
// в том числе догоняющего.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.catchUp.Wait()
	log.Info("Планировщик задач остановлен")
}

// MissedRun сообщает, было ли срабатывание расписания в окне (now-grace, now].
func MissedRun(schedule cron.Schedule, now time.Time, grace time.Duration) bool {
	if grace <= 0 {
		return false
	}
	next := schedule.Next(now.Add(-grace))
	return !next.After(now)
}

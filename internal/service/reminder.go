package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acadflow/backend/config"
	"acadflow/backend/internal/model"
	"acadflow/backend/internal/repository"
	"acadflow/backend/pkg/mailer"
)

// Reminder nudges eligible users who have not yet submitted the preference
// form. It runs once a day while a semester is collecting responses, and
// threads its mail onto the original announcement.
type Reminder struct {
	cfg    *config.Config
	repo   *repository.Repository
	mail   Mailer
	logger *zap.Logger
	cron   *cron.Cron
}

// NewReminder builds the reminder scheduler.
func NewReminder(cfg *config.Config, repo *repository.Repository, mail Mailer, logger *zap.Logger) *Reminder {
	return &Reminder{cfg: cfg, repo: repo, mail: mail, logger: logger}
}

// Start schedules the daily run. A disabled or unconfigured mailer leaves the
// scheduler off.
func (r *Reminder) Start() error {
	if !r.cfg.Reminder.Enabled {
		r.logger.Info("deadline reminders disabled")
		return nil
	}
	if !r.mail.IsConfigured() {
		r.logger.Warn("deadline reminders disabled: mail is not configured")
		return nil
	}

	r.cron = cron.New()
	spec := fmt.Sprintf("0 %d * * *", r.cfg.Reminder.Hour)
	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			r.logger.Error("deadline reminder run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule deadline reminder: %w", err)
	}
	r.cron.Start()

	r.logger.Info("deadline reminders scheduled", zap.Int("hour", r.cfg.Reminder.Hour))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Reminder) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// Run performs a single reminder pass. It is a no-op unless the latest
// semester is collecting responses against a future deadline.
func (r *Reminder) Run(ctx context.Context) error {
	semester, err := r.repo.Semester.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if semester.AllocationStatus != model.AllocationFormCollection || semester.FormID == nil {
		return nil
	}

	form, err := r.repo.Form.GetByID(ctx, *semester.FormID)
	if err != nil {
		return err
	}
	if form.Deadline == nil || !form.Deadline.After(time.Now()) {
		return nil
	}

	eligible, err := eligibleInstructors(ctx, r.repo, "")
	if err != nil {
		return err
	}
	submitters, err := r.repo.Response.DistinctSubmitters(ctx, form.FormID)
	if err != nil {
		return err
	}
	responded := make(map[string]bool, len(submitters))
	for _, email := range submitters {
		responded[email] = true
	}

	var pending []string
	for _, u := range eligible {
		if !responded[u.Email] {
			pending = append(pending, u.Email)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	body := fmt.Sprintf(
		"<p>This is a reminder to submit your course allocation preferences before %s.</p>"+
			"<p><a href=%q>Open the form</a></p>",
		form.Deadline.Format("Monday, 02 Jan 2006 15:04"),
		r.cfg.Server.BaseURL+"/allocation/form/"+form.FormID,
	)
	_, err = r.mail.Send(&mailer.Message{
		Subject:   "Reminder: course allocation preferences pending",
		HTMLBody:  body,
		BCC:       pending,
		InReplyTo: form.EmailMessageID,
	})
	if err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}

	r.logger.Info("deadline reminders sent",
		zap.String("form_id", form.FormID),
		zap.Int("recipients", len(pending)),
	)
	return nil
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// reminderAge is how long an account must stay unverified before it is reminded
	reminderAge = 24 * time.Hour
	// reminderBatch is the page size used while walking candidates
	reminderBatch = 100
	// defaultReminderWindow is the look-back of a first run when no schedule sets it
	defaultReminderWindow = 24 * time.Hour
)

// VerificationReminder periodically re-sends verification emails to active
// identities that registered more than a day ago and never verified. Each run
// covers the accounts that crossed reminderAge since the previous run, so an
// account is reminded once.
type VerificationReminder struct {
	auth  *AuthService
	users UserStore
	log   zerolog.Logger
	now   func() time.Time

	mu     sync.Mutex
	window time.Duration
	// lastCutoff is the upper creation bound of the previous run
	lastCutoff time.Time

	cron *cron.Cron
}

// NewVerificationReminder creates the reminder job
func NewVerificationReminder(auth *AuthService, users UserStore, log zerolog.Logger) *VerificationReminder {
	return &VerificationReminder{
		auth:   auth,
		users:  users,
		log:    log.With().Str("component", "verification_reminder").Logger(),
		now:    time.Now,
		window: defaultReminderWindow,
	}
}

// Start schedules the job on spec. An empty spec disables it.
func (r *VerificationReminder) Start(spec string) error {
	if spec == "" {
		r.log.Info().Msg("verification reminder disabled")
		return nil
	}

	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return err
	}
	// The first run looks back one interval; later runs continue from lastCutoff
	next := sched.Next(r.now())
	r.mu.Lock()
	r.window = sched.Next(next).Sub(next)
	r.mu.Unlock()

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		r.RunOnce(ctx)
	}))
	r.cron = c
	c.Start()

	r.log.Info().Str("schedule", spec).Dur("window", r.window).Msg("verification reminder started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (r *VerificationReminder) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// RunOnce reminds every candidate created in [lastCutoff, now-reminderAge)
// and returns how many were delivered. Runs are serialized.
func (r *VerificationReminder) RunOnce(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.now().Add(-reminderAge)
	after := r.lastCutoff
	if after.IsZero() {
		after = before.Add(-r.window)
	}

	candidates, sent := 0, 0
	for offset := 0; ctx.Err() == nil; offset += reminderBatch {
		identities, err := r.users.ListUnverified(ctx, after, before, offset, reminderBatch)
		if err != nil {
			// Keep lastCutoff so the next run retries this window
			r.log.Error().Err(err).Int("offset", offset).Msg("list unverified users failed")
			return sent
		}
		candidates += len(identities)
		for _, identity := range identities {
			if ctx.Err() != nil {
				break
			}
			if !identity.IsActive || identity.EmailVerified {
				continue
			}
			if r.auth.sendVerification(ctx, identity) {
				sent++
			}
		}
		if len(identities) < reminderBatch {
			break
		}
	}
	if ctx.Err() == nil {
		r.lastCutoff = before
	}

	r.log.Info().
		Time("created_after", after).
		Time("created_before", before).
		Int("candidates", candidates).
		Int("sent", sent).
		Msg("verification reminders processed")
	return sent
}

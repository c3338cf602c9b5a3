package booking

import (
    "context"
    "errors"
    "time"

    "github.com/rs/zerolog"

    "github.com/courtclub/session-booking/internal/clock"
    "github.com/courtclub/session-booking/internal/model"
)

// BirthdayGrants credits the yearly bonus ticket to subscribers on their
// birthday.  Eligibility is decided by the store query; the grant itself
// re-checks the subscription under lock, so a lapse between selection and
// credit just skips the user.  The bonus_birthday ledger row doubles as the
// once-per-year marker, which keeps redundant sweeps from double-crediting.
type BirthdayGrants struct {
    store    Store
    tickets  *TicketLedger
    policies PolicySource
    clock    clock.Clock
    log      zerolog.Logger
}

// NewBirthdayGrants wires the birthday bonus job.
func NewBirthdayGrants(store Store, policies PolicySource, clk clock.Clock, log zerolog.Logger) *BirthdayGrants {
    return &BirthdayGrants{
        store:    store,
        tickets:  NewTicketLedger(store, log),
        policies: policies,
        clock:    clk,
        log:      log,
    }
}

// Sweep grants the bonus to every user eligible today.  Failures are logged
// per user and never abort the batch.  Returns the number of grants made.
func (g *BirthdayGrants) Sweep(ctx context.Context) (int, error) {
    pol, err := g.policies.LoadPolicy(ctx)
    if err != nil {
        return 0, err
    }
    today := g.clock.Now()
    eligible, err := g.store.ListBirthdayBonusEligible(ctx, today, pol.BirthdayAccountAgeDays, today.Year())
    if err != nil {
        return 0, err
    }
    if len(eligible) == 0 {
        return 0, nil
    }
    g.log.Info().Int("candidates", len(eligible)).Msg("birthday sweep started")

    granted := 0
    for _, u := range eligible {
        err := g.store.WithTx(ctx, func(ctx context.Context) error {
            // The selection ran outside the transaction; the subscription
            // may have lapsed since.
            if _, err := g.store.GetActiveSubscriptionForUpdate(ctx, u.ID); err != nil {
                return err
            }
            _, err := g.tickets.Credit(ctx, u.ID, pol.BirthdayBonusTickets, model.TicketTxBirthday, nil, "birthday bonus")
            return err
        })
        switch {
        case err == nil:
            granted++
            g.log.Info().
                Uint64("user_id", u.ID).
                Int("tickets", pol.BirthdayBonusTickets).
                Msg("birthday bonus granted")
        case errors.Is(err, ErrNotFound):
            g.log.Warn().Uint64("user_id", u.ID).Msg("subscription lapsed, birthday bonus skipped")
        default:
            g.log.Error().Err(err).Uint64("user_id", u.ID).Msg("birthday grant failed; continuing sweep")
        }
    }
    return granted, nil
}

// Run sweeps immediately and then on every tick of interval until ctx is
// cancelled.
func (g *BirthdayGrants) Run(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        if _, err := g.Sweep(ctx); err != nil {
            g.log.Error().Err(err).Msg("birthday sweep failed")
        }
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
        }
    }
}

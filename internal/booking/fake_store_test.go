package booking

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/courtclub/session-booking/internal/model"
)

// fakeStore is an in-memory Store used by the engine tests.  WithTx takes a
// single mutex for the whole transaction, which models the row-lock
// serialization of the real store coarsely but faithfully enough for the
// race-shaped tests: concurrent transactions never interleave.  A failed
// transaction restores the pre-transaction snapshot.
type fakeStore struct {
    mu       sync.Mutex
    sessions map[uint64]model.Session
    bookings map[uint64]model.Booking
    subs     map[uint64]model.Subscription // keyed by user ID
    users    map[uint64]model.User
    ledger   []model.TicketTransaction
    waiters  map[uint64]model.WaitlistEntry
    nextID   uint64

    // ledgerNow, when set, stamps appended ledger rows instead of the
    // ID-derived epoch time.  Year-scoped queries need real dates.
    ledgerNow time.Time
}

type fakeTxKey struct{}

func newFakeStore() *fakeStore {
    return &fakeStore{
        sessions: map[uint64]model.Session{},
        bookings: map[uint64]model.Booking{},
        subs:     map[uint64]model.Subscription{},
        users:    map[uint64]model.User{},
        waiters:  map[uint64]model.WaitlistEntry{},
    }
}

func (f *fakeStore) id() uint64 {
    f.nextID++
    return f.nextID
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
    if ctx.Value(fakeTxKey{}) != nil {
        return fn(ctx)
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    snap := f.snapshot()
    if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
        f.restore(snap)
        return err
    }
    return nil
}

type fakeSnapshot struct {
    sessions map[uint64]model.Session
    bookings map[uint64]model.Booking
    subs     map[uint64]model.Subscription
    ledger   []model.TicketTransaction
    waiters  map[uint64]model.WaitlistEntry
    nextID   uint64
}

func (f *fakeStore) snapshot() fakeSnapshot {
    s := fakeSnapshot{
        sessions: make(map[uint64]model.Session, len(f.sessions)),
        bookings: make(map[uint64]model.Booking, len(f.bookings)),
        subs:     make(map[uint64]model.Subscription, len(f.subs)),
        ledger:   append([]model.TicketTransaction(nil), f.ledger...),
        waiters:  make(map[uint64]model.WaitlistEntry, len(f.waiters)),
        nextID:   f.nextID,
    }
    for k, v := range f.sessions {
        s.sessions[k] = v
    }
    for k, v := range f.bookings {
        s.bookings[k] = v
    }
    for k, v := range f.subs {
        s.subs[k] = v
    }
    for k, v := range f.waiters {
        s.waiters[k] = v
    }
    return s
}

func (f *fakeStore) restore(s fakeSnapshot) {
    f.sessions = s.sessions
    f.bookings = s.bookings
    f.subs = s.subs
    f.ledger = s.ledger
    f.waiters = s.waiters
    f.nextID = s.nextID
}

// --- sessions ---

func (f *fakeStore) GetSession(ctx context.Context, id uint64) (model.Session, error) {
    s, ok := f.sessions[id]
    if !ok {
        return model.Session{}, ErrNotFound
    }
    return s, nil
}

func (f *fakeStore) GetSessionForUpdate(ctx context.Context, id uint64) (model.Session, error) {
    return f.GetSession(ctx, id)
}

func (f *fakeStore) SetAvailableSlots(ctx context.Context, sessionID uint64, slots int) error {
    s, ok := f.sessions[sessionID]
    if !ok {
        return ErrNotFound
    }
    s.AvailableSlots = slots
    f.sessions[sessionID] = s
    return nil
}

func (f *fakeStore) InsertSession(ctx context.Context, s *model.Session) error {
    s.ID = f.id()
    f.sessions[s.ID] = *s
    return nil
}

func (f *fakeStore) CancelSession(ctx context.Context, id uint64, at time.Time) error {
    s, ok := f.sessions[id]
    if !ok {
        return ErrNotFound
    }
    s.Cancelled = true
    s.CancelledAt = &at
    f.sessions[id] = s
    return nil
}

func (f *fakeStore) ListUpcomingSessions(ctx context.Context, now time.Time) ([]model.Session, error) {
    var out []model.Session
    for _, s := range f.sessions {
        if !s.Cancelled && s.StartsAt.After(now) {
            out = append(out, s)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
    return out, nil
}

func (f *fakeStore) ListOpenSessionsWithWaiters(ctx context.Context, now time.Time) ([]uint64, error) {
    var out []uint64
    for id, s := range f.sessions {
        if s.Cancelled || !s.StartsAt.After(now) || s.AvailableSlots == 0 {
            continue
        }
        for _, e := range f.waiters {
            if e.SessionID == id {
                out = append(out, id)
                break
            }
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
    return out, nil
}

// --- bookings ---

func (f *fakeStore) InsertBooking(ctx context.Context, b *model.Booking) error {
    b.ID = f.id()
    b.CreatedAt = time.Unix(int64(b.ID), 0).UTC()
    b.UpdatedAt = b.CreatedAt
    f.bookings[b.ID] = *b
    return nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
    b, ok := f.bookings[id]
    if !ok {
        return model.Booking{}, ErrNotFound
    }
    return b, nil
}

func (f *fakeStore) GetBookingForUpdate(ctx context.Context, id uint64) (model.Booking, error) {
    return f.GetBooking(ctx, id)
}

func (f *fakeStore) HasActiveBooking(ctx context.Context, userID, sessionID uint64) (bool, error) {
    for _, b := range f.bookings {
        if b.UserID == userID && b.SessionID == sessionID && b.CancelledAt == nil {
            return true, nil
        }
    }
    return false, nil
}

func (f *fakeStore) FinalizeBooking(ctx context.Context, id uint64, status string, cancelledAt time.Time) error {
    b, ok := f.bookings[id]
    if !ok {
        return ErrNotFound
    }
    if b.CancelledAt != nil {
        return nil
    }
    b.PaymentStatus = status
    b.CancelledAt = &cancelledAt
    f.bookings[id] = b
    return nil
}

func (f *fakeStore) SetPaymentStatus(ctx context.Context, id uint64, status string) error {
    b, ok := f.bookings[id]
    if !ok {
        return ErrNotFound
    }
    b.PaymentStatus = status
    f.bookings[id] = b
    return nil
}

func (f *fakeStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    var out []model.Booking
    for _, b := range f.bookings {
        if b.UserID == userID {
            out = append(out, b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
    return out, nil
}

func (f *fakeStore) ListExpiredPending(ctx context.Context, now time.Time) ([]model.Booking, error) {
    var out []model.Booking
    for _, b := range f.bookings {
        if b.PaymentStatus == model.PaymentStatusPending &&
            b.CancelledAt == nil &&
            b.PaymentDeadline != nil && now.After(*b.PaymentDeadline) {
            out = append(out, b)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// --- subscriptions and tickets ---

func (f *fakeStore) GetActiveSubscription(ctx context.Context, userID uint64) (model.Subscription, error) {
    s, ok := f.subs[userID]
    if !ok || !s.IsActive() {
        return model.Subscription{}, ErrNotFound
    }
    return s, nil
}

func (f *fakeStore) GetActiveSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error) {
    return f.GetActiveSubscription(ctx, userID)
}

func (f *fakeStore) GetSubscriptionForUpdate(ctx context.Context, userID uint64) (model.Subscription, error) {
    s, ok := f.subs[userID]
    if !ok {
        return model.Subscription{}, ErrNotFound
    }
    return s, nil
}

func (f *fakeStore) SetTicketBalance(ctx context.Context, subscriptionID uint64, balance int) error {
    for uid, s := range f.subs {
        if s.ID == subscriptionID {
            s.TicketsRemaining = balance
            f.subs[uid] = s
            return nil
        }
    }
    return ErrNotFound
}

func (f *fakeStore) AppendTicketTransaction(ctx context.Context, tx *model.TicketTransaction) error {
    tx.ID = f.id()
    tx.CreatedAt = time.Unix(int64(tx.ID), 0).UTC()
    if !f.ledgerNow.IsZero() {
        tx.CreatedAt = f.ledgerNow
    }
    f.ledger = append(f.ledger, *tx)
    return nil
}

func (f *fakeStore) ListTicketTransactions(ctx context.Context, userID uint64) ([]model.TicketTransaction, error) {
    var out []model.TicketTransaction
    for _, tx := range f.ledger {
        if tx.UserID == userID {
            out = append(out, tx)
        }
    }
    return out, nil
}

// --- users ---

func (f *fakeStore) ListBirthdayBonusEligible(ctx context.Context, today time.Time, minAgeDays, year int) ([]model.User, error) {
    cutoff := today.AddDate(0, 0, -minAgeDays)
    var out []model.User
    for _, u := range f.users {
        if u.Birthday == nil {
            continue
        }
        if u.Birthday.Month() != today.Month() || u.Birthday.Day() != today.Day() {
            continue
        }
        if u.CreatedAt.After(cutoff) {
            continue
        }
        if s, ok := f.subs[u.ID]; !ok || !s.IsActive() {
            continue
        }
        granted := false
        for _, tx := range f.ledger {
            if tx.UserID == u.ID && tx.Kind == model.TicketTxBirthday && tx.CreatedAt.Year() == year {
                granted = true
                break
            }
        }
        if granted {
            continue
        }
        out = append(out, u)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

// --- waitlist ---

func (f *fakeStore) InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
    e.ID = f.id()
    e.CreatedAt = time.Unix(int64(e.ID), 0).UTC()
    f.waiters[e.ID] = *e
    return nil
}

func (f *fakeStore) GetWaitlistEntry(ctx context.Context, sessionID, userID uint64) (model.WaitlistEntry, error) {
    for _, e := range f.waiters {
        if e.SessionID == sessionID && e.UserID == userID {
            return e, nil
        }
    }
    return model.WaitlistEntry{}, ErrNotFound
}

func (f *fakeStore) DeleteWaitlistEntry(ctx context.Context, sessionID, userID uint64) error {
    for id, e := range f.waiters {
        if e.SessionID == sessionID && e.UserID == userID {
            delete(f.waiters, id)
            return nil
        }
    }
    return nil
}

func (f *fakeStore) ListWaitlist(ctx context.Context, sessionID uint64) ([]model.WaitlistEntry, error) {
    var out []model.WaitlistEntry
    for _, e := range f.waiters {
        if e.SessionID == sessionID {
            out = append(out, e)
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].Priority != out[j].Priority {
            return out[i].Priority > out[j].Priority
        }
        return out[i].ID < out[j].ID
    })
    return out, nil
}

func (f *fakeStore) MarkWaitlistNotified(ctx context.Context, entryID uint64, at time.Time) error {
    e, ok := f.waiters[entryID]
    if !ok {
        return ErrNotFound
    }
    e.NotifiedAt = &at
    e.CanBook = true
    f.waiters[entryID] = e
    return nil
}

func (f *fakeStore) ResetWaitlistNotifications(ctx context.Context, sessionID uint64) error {
    for id, e := range f.waiters {
        if e.SessionID == sessionID {
            e.NotifiedAt = nil
            e.CanBook = false
            f.waiters[id] = e
        }
    }
    return nil
}

// --- test fixtures ---

func (f *fakeStore) addSession(startsAt time.Time, totalSlots int, price *int64) uint64 {
    id := f.id()
    f.sessions[id] = model.Session{
        ID:             id,
        OrganizerID:    1,
        Title:          "test session",
        StartsAt:       startsAt,
        TotalSlots:     totalSlots,
        AvailableSlots: totalSlots,
        PriceCents:     price,
    }
    return id
}

func (f *fakeStore) addSubscription(userID uint64, status string, tickets int) uint64 {
    id := f.id()
    f.subs[userID] = model.Subscription{
        ID:               id,
        UserID:           userID,
        Status:           status,
        TicketsRemaining: tickets,
    }
    return id
}

func (f *fakeStore) addUser(userID uint64, birthday *time.Time, createdAt time.Time) {
    f.users[userID] = model.User{
        ID:        userID,
        Email:     "member@example.com",
        Role:      model.RoleMember,
        Birthday:  birthday,
        CreatedAt: createdAt,
    }
}

// recorder captures published events and dispatched notifications.
type recorder struct {
    mu        sync.Mutex
    confirmed []model.Booking
    notified  []uint64
}

func (r *recorder) BookingConfirmed(ctx context.Context, b model.Booking) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.confirmed = append(r.confirmed, b)
    return nil
}

func (r *recorder) NotifyWaitlist(ctx context.Context, userID, sessionID uint64, expiresAt time.Time) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.notified = append(r.notified, userID)
    return nil
}

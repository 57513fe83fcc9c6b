package due

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nihalm/duetrack/internal/extractor"
	"github.com/nihalm/duetrack/internal/user"
)

const testRoomID = int64(42)

// fakeStore is an in-memory Store. Settlement runs against a snapshot
// copy that only replaces the live state on success, mirroring the SQL
// transaction's all-or-nothing behavior.
type fakeStore struct {
	dues        map[int64]*Due
	flags       []string
	nextID      int64
	failUpdates bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{dues: map[int64]*Due{}, nextID: 1}
}

func (f *fakeStore) add(d *Due) *Due {
	copied := *d
	copied.ID = f.nextID
	f.nextID++
	f.dues[copied.ID] = &copied
	return &copied
}

func (f *fakeStore) CreateDue(ctx context.Context, d *Due) (*Due, error) {
	created := f.add(d)
	created.CreatedAt = time.Now()
	return created, nil
}

func (f *fakeStore) GetDue(ctx context.Context, id int64) (*Due, error) {
	d, ok := f.dues[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (f *fakeStore) Settlement(ctx context.Context, roomID int64, fn func(tx SettlementTx) error) error {
	snapshot := &fakeStore{dues: map[int64]*Due{}, nextID: f.nextID, failUpdates: f.failUpdates}
	for id, d := range f.dues {
		copied := *d
		snapshot.dues[id] = &copied
	}
	snapshot.flags = append(snapshot.flags, f.flags...)

	if err := fn(snapshot); err != nil {
		return err
	}

	f.dues = snapshot.dues
	f.flags = snapshot.flags
	f.nextID = snapshot.nextID
	return nil
}

func (f *fakeStore) ListCandidates(ctx context.Context, roomID, excludeID, debtorID int64, maxAmount float64) ([]*Due, error) {
	var out []*Due
	for _, d := range f.dues {
		if d.RoomID != roomID || d.ID == excludeID || d.DueFrom != debtorID {
			continue
		}
		if !d.IsDue || d.DueAmount > maxAmount {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) UpdateAmounts(ctx context.Context, id int64, dueAmount, paidAmount float64, status string, isDue bool) error {
	if f.failUpdates {
		return errors.New("update failed")
	}
	d, ok := f.dues[id]
	if !ok {
		return fmt.Errorf("due %d not found", id)
	}
	d.DueAmount = dueAmount
	d.PaidAmount = paidAmount
	d.Status = status
	d.IsDue = isDue
	return nil
}

func (f *fakeStore) CreateFlag(ctx context.Context, roomID int64, message string) error {
	f.flags = append(f.flags, message)
	return nil
}

type fakeRooms struct {
	roomID       int64
	lastDueID    int64
	setLastErr   error
	findCalled   bool
	setLastCalls int
}

func (f *fakeRooms) FindByMembers(ctx context.Context, a, b int64) (int64, error) {
	f.findCalled = true
	return f.roomID, nil
}

func (f *fakeRooms) SetLastDue(ctx context.Context, roomID, dueID int64) error {
	f.setLastCalls++
	if f.setLastErr != nil {
		return f.setLastErr
	}
	f.lastDueID = dueID
	return nil
}

type fakeUsers struct {
	users map[int64]*user.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

type stubExtractor struct {
	result *extractor.Result
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, message string) (*extractor.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

const (
	userA = int64(1)
	userB = int64(2)
)

func testUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*user.User{
		userA: {ID: userA, Username: "asha", Email: "asha@example.com"},
		userB: {ID: userB, Username: "bikram", Email: "bikram@example.com"},
	}}
}

func newTestService(store *fakeStore, rooms *fakeRooms, ext *stubExtractor) *Service {
	return NewService(store, rooms, testUsers(), ext, zap.NewNop())
}

// pendingDue seeds an outstanding due owed by debtor to creditor.
func pendingDue(store *fakeStore, debtor, creditor int64, amount float64, createdAt time.Time) *Due {
	return store.add(&Due{
		RoomID:      testRoomID,
		CreatedBy:   creditor,
		DueTo:       creditor,
		DueFrom:     debtor,
		TotalAmount: amount,
		DueAmount:   amount,
		PaidAmount:  0,
		Status:      "Payment due",
		IsDue:       true,
		CreatedAt:   createdAt,
	})
}

func assertInvariants(t *testing.T, d *Due) {
	t.Helper()
	assert.InDelta(t, d.TotalAmount, d.DueAmount+d.PaidAmount, 1e-9, "total = due + paid for due %d", d.ID)
	assert.GreaterOrEqual(t, d.DueAmount, 0.0, "due amount non-negative for due %d", d.ID)
	assert.Equal(t, d.DueAmount > 0, d.IsDue, "isDue derived from dueAmount for due %d", d.ID)
}

func TestSettleClearsEqualMutualDebt(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	// bikram already owes asha 300
	old := pendingDue(store, userB, userA, 300, base)
	// asha now owes bikram 300
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 300, DueAmount: 300, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	settled := store.dues[old.ID]
	assert.Equal(t, 0.0, settled.DueAmount)
	assert.Equal(t, 300.0, settled.PaidAmount)
	assert.False(t, settled.IsDue)

	updated := store.dues[newDue.ID]
	assert.Equal(t, 0.0, updated.DueAmount)
	assert.Equal(t, 300.0, updated.PaidAmount)
	assert.False(t, updated.IsDue)

	require.Len(t, store.flags, 2)
	assert.Contains(t, store.flags[0], "✅ A due of ₹300")
	assert.Contains(t, store.flags[0], "has been cleared")
	assert.Equal(t, "🎊 bikram has cleared all dues!", store.flags[1])

	for _, d := range store.dues {
		assertInvariants(t, d)
	}
}

func TestSettleExcludesLargerDebts(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	big := pendingDue(store, userB, userA, 500, base)
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 300, DueAmount: 300, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	// The 500 debt exceeds the new due and is left out of the pass.
	assert.Equal(t, 500.0, store.dues[big.ID].DueAmount)
	assert.True(t, store.dues[big.ID].IsDue)
	assert.Equal(t, 300.0, store.dues[newDue.ID].DueAmount)
	assert.True(t, store.dues[newDue.ID].IsDue)
	assert.Empty(t, store.flags)
}

func TestSettleConsumesPreUpdateAmounts(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	first := pendingDue(store, userB, userA, 100, base)
	second := pendingDue(store, userB, userA, 150, base.Add(time.Minute))
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 200, DueAmount: 200, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	// First candidate fully cleared by the 200.
	assert.Equal(t, 0.0, store.dues[first.ID].DueAmount)
	assert.Equal(t, 100.0, store.dues[first.ID].PaidAmount)
	assert.False(t, store.dues[first.ID].IsDue)

	// The walk decrements remaining by the pre-update amount (200-100
	// leaves 100), so the second candidate absorbs 100 of its 150.
	assert.Equal(t, 50.0, store.dues[second.ID].DueAmount)
	assert.Equal(t, 100.0, store.dues[second.ID].PaidAmount)
	assert.True(t, store.dues[second.ID].IsDue)

	// remaining went 200 -> 100 -> -50, clamped to 0 before the new
	// due's own update.
	assert.Equal(t, 0.0, store.dues[newDue.ID].DueAmount)
	assert.Equal(t, 200.0, store.dues[newDue.ID].PaidAmount)
	assert.False(t, store.dues[newDue.ID].IsDue)

	require.Len(t, store.flags, 2)
	assert.Contains(t, store.flags[0], "has been cleared")
	assert.Contains(t, store.flags[1], "⏺️ An amount of ₹100 has been paid toward the due of ₹150")
	// remaining dipped below zero on the last candidate: no
	// celebration flag.
	for _, f := range store.flags {
		assert.NotContains(t, f, "🎊")
	}

	for _, d := range store.dues {
		assertInvariants(t, d)
	}
}

func TestSettleStopsEarlyOnceSpent(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	first := pendingDue(store, userB, userA, 50, base)
	second := pendingDue(store, userB, userA, 50, base.Add(time.Minute))
	third := pendingDue(store, userB, userA, 50, base.Add(2*time.Minute))
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 100, DueAmount: 100, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	assert.False(t, store.dues[first.ID].IsDue)
	assert.False(t, store.dues[second.ID].IsDue)
	// The third candidate is never touched: remaining hit zero first.
	assert.Equal(t, 50.0, store.dues[third.ID].DueAmount)
	assert.True(t, store.dues[third.ID].IsDue)
	assert.Equal(t, "Payment due", store.dues[third.ID].Status)

	// Two clearance flags, and no celebration because the walk broke
	// before reaching the last candidate.
	require.Len(t, store.flags, 2)
	for _, f := range store.flags {
		assert.Contains(t, f, "has been cleared")
	}
}

func TestSettleCelebratesWhenLastCandidateClears(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	pendingDue(store, userB, userA, 50, base)
	pendingDue(store, userB, userA, 60, base.Add(time.Minute))
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 120, DueAmount: 120, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	require.Len(t, store.flags, 3)
	assert.Equal(t, "🎊 bikram has cleared all dues!", store.flags[2])

	// 120 spent on 110 of debt: the new due keeps the remainder.
	assert.Equal(t, 10.0, store.dues[newDue.ID].DueAmount)
	assert.Equal(t, 110.0, store.dues[newDue.ID].PaidAmount)
	assert.True(t, store.dues[newDue.ID].IsDue)
}

func TestSettleRollsBackOnFailure(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	old := pendingDue(store, userB, userA, 300, base)
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 300, DueAmount: 300, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: base.Add(time.Hour),
	})

	store.failUpdates = true
	svc := newTestService(store, rooms, &stubExtractor{})
	err := svc.Settle(context.Background(), newDue.ID)
	require.Error(t, err)

	// Nothing committed: every record at its pre-run value.
	assert.Equal(t, 300.0, store.dues[old.ID].DueAmount)
	assert.Equal(t, 0.0, store.dues[old.ID].PaidAmount)
	assert.True(t, store.dues[old.ID].IsDue)
	assert.Equal(t, 300.0, store.dues[newDue.ID].DueAmount)
	assert.Empty(t, store.flags)
}

func TestSettleUnknownDue(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRooms{roomID: testRoomID}, &stubExtractor{})

	err := svc.Settle(context.Background(), 999)
	assert.ErrorIs(t, err, ErrDueNotFound)
}

func TestSettleStatusMentionsNewDueDate(t *testing.T) {
	store := newFakeStore()
	rooms := &fakeRooms{roomID: testRoomID}
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	old := pendingDue(store, userB, userA, 100, base)
	newDue := store.add(&Due{
		RoomID: testRoomID, CreatedBy: userB, DueTo: userB, DueFrom: userA,
		TotalAmount: 100, DueAmount: 100, Status: "Payment due to bikram",
		IsDue: true, CreatedAt: time.Date(2025, time.July, 4, 9, 0, 0, 0, time.UTC),
	})

	svc := newTestService(store, rooms, &stubExtractor{})
	require.NoError(t, svc.Settle(context.Background(), newDue.ID))

	assert.Equal(t, "₹100 paid from the due of 04 July 2025.", store.dues[old.ID].Status)
	assert.True(t, strings.Contains(store.flags[0], "created on 10 Mar 2025"))
}

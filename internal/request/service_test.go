package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalm/duetrack/internal/connection"
	"github.com/nihalm/duetrack/internal/notification"
	"github.com/nihalm/duetrack/internal/user"
)

type fakeStore struct {
	requests map[int64]*Request
	nextID   int64
	exists   bool
	deleted  []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[int64]*Request{}, nextID: 1}
}

func (f *fakeStore) add(r *Request) *Request {
	copied := *r
	copied.ID = f.nextID
	f.nextID++
	f.requests[copied.ID] = &copied
	return &copied
}

func (f *fakeStore) Create(ctx context.Context, from, to int64) (*Request, error) {
	return f.add(&Request{From: from, To: to, Status: StatusPending, CreatedAt: time.Now()}), nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) ActiveExists(ctx context.Context, userA, userB int64) (bool, error) {
	return f.exists, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id int64, status Status) (bool, error) {
	r, ok := f.requests[id]
	if !ok || r.Status != StatusPending {
		return false, nil
	}
	r.Status = status
	return true, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	delete(f.requests, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) ListPending(ctx context.Context, userID int64, received bool) ([]*Request, error) {
	var out []*Request
	for _, r := range f.requests {
		if r.Status != StatusPending {
			continue
		}
		if (received && r.To == userID) || (!received && r.From == userID) {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkChecked(ctx context.Context, userID int64) error { return nil }

type fakeRoomCreator struct {
	calls int
	room  *connection.Room
}

func (f *fakeRoomCreator) CreateRoom(ctx context.Context, createdBy, other int64) (*connection.Room, error) {
	f.calls++
	return f.room, nil
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

type sentNotification struct {
	to      int64
	ntype   notification.Type
	title   string
	message string
}

type fakeSink struct {
	sent []sentNotification
}

func (f *fakeSink) Notify(ctx context.Context, to int64, ntype notification.Type, title, message string) {
	f.sent = append(f.sent, sentNotification{to: to, ntype: ntype, title: title, message: message})
}

const (
	userA = int64(1)
	userB = int64(2)
)

func testUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*user.User{
		userA: {ID: userA, Username: "asha"},
		userB: {ID: userB, Username: "bikram"},
	}}
}

func TestCreateRequest(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), sink)

	req, err := svc.Create(context.Background(), userA, userB)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, userA, req.From)
	assert.Equal(t, userB, req.To)

	require.Len(t, sink.sent, 1)
	assert.Equal(t, userB, sink.sent[0].to)
	assert.Equal(t, notification.TypeRequest, sink.sent[0].ntype)
	assert.Contains(t, sink.sent[0].message, "created by asha")
}

func TestCreateRequestToSelf(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeRoomCreator{}, testUsers(), &fakeSink{})

	_, err := svc.Create(context.Background(), userA, userA)
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestCreateRequestDuplicate(t *testing.T) {
	store := newFakeStore()
	store.exists = true
	sink := &fakeSink{}
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), sink)

	_, err := svc.Create(context.Background(), userA, userB)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
	assert.Empty(t, sink.sent)
}

func TestAcceptOpensRoomAndAlertsBothMembers(t *testing.T) {
	store := newFakeStore()
	pending := store.add(&Request{From: userA, To: userB, Status: StatusPending})
	rooms := &fakeRoomCreator{room: &connection.Room{
		ID:        7,
		CreatedAt: time.Date(2025, time.July, 4, 9, 0, 0, 0, time.UTC),
	}}
	sink := &fakeSink{}
	svc := NewService(store, rooms, testUsers(), sink)

	require.NoError(t, svc.Update(context.Background(), userB, pending.ID, StatusAccepted))

	assert.Equal(t, StatusAccepted, store.requests[pending.ID].Status)
	assert.Equal(t, 1, rooms.calls)

	// Exactly one notification per member.
	require.Len(t, sink.sent, 2)
	assert.Equal(t, userA, sink.sent[0].to)
	assert.Equal(t, "🎉 New connection opened with bikram at 04 July 2025", sink.sent[0].message)
	assert.Equal(t, userB, sink.sent[1].to)
	assert.Equal(t, "🎉 New connection opened with asha at 04 July 2025", sink.sent[1].message)
	for _, n := range sink.sent {
		assert.Equal(t, "New Connection Started", n.title)
		assert.Equal(t, notification.TypeUpdates, n.ntype)
	}
}

func TestRejectAlertsRequesterOnly(t *testing.T) {
	store := newFakeStore()
	pending := store.add(&Request{From: userA, To: userB, Status: StatusPending})
	rooms := &fakeRoomCreator{}
	sink := &fakeSink{}
	svc := NewService(store, rooms, testUsers(), sink)

	require.NoError(t, svc.Update(context.Background(), userB, pending.ID, StatusRejected))

	assert.Equal(t, StatusRejected, store.requests[pending.ID].Status)
	assert.Zero(t, rooms.calls)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, userA, sink.sent[0].to)
	assert.Contains(t, sink.sent[0].message, "has been rejected")
}

func TestUpdateRequiresRecipient(t *testing.T) {
	store := newFakeStore()
	pending := store.add(&Request{From: userA, To: userB, Status: StatusPending})
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), &fakeSink{})

	err := svc.Update(context.Background(), userA, pending.ID, StatusAccepted)
	assert.ErrorIs(t, err, ErrNotRecipient)
	assert.Equal(t, StatusPending, store.requests[pending.ID].Status)
}

func TestUpdateNonPending(t *testing.T) {
	store := newFakeStore()
	decided := store.add(&Request{From: userA, To: userB, Status: StatusAccepted})
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), &fakeSink{})

	err := svc.Update(context.Background(), userB, decided.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestUpdateRejectsOtherStatuses(t *testing.T) {
	store := newFakeStore()
	pending := store.add(&Request{From: userA, To: userB, Status: StatusPending})
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), &fakeSink{})

	err := svc.Update(context.Background(), userB, pending.ID, StatusPending)
	require.Error(t, err)
	assert.Equal(t, StatusPending, store.requests[pending.ID].Status)
}

func TestRemoveRequiresSender(t *testing.T) {
	store := newFakeStore()
	pending := store.add(&Request{From: userA, To: userB, Status: StatusPending})
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), &fakeSink{})

	err := svc.Remove(context.Background(), userB, pending.ID)
	assert.ErrorIs(t, err, ErrNotSender)

	require.NoError(t, svc.Remove(context.Background(), userA, pending.ID))
	assert.Equal(t, []int64{pending.ID}, store.deleted)
}

func TestRemoveNonPending(t *testing.T) {
	store := newFakeStore()
	decided := store.add(&Request{From: userA, To: userB, Status: StatusRejected})
	svc := NewService(store, &fakeRoomCreator{}, testUsers(), &fakeSink{})

	err := svc.Remove(context.Background(), userA, decided.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/motorinps-dev/emby/internal/config"
	"github.com/motorinps-dev/emby/internal/logging"
	"github.com/motorinps-dev/emby/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func newTestDB(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	db, rm, err := repomanager.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, rm.RunMigrations(context.Background(), db))
	return db, rm
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

type fakeGateway struct {
	createErr   map[string]error
	deleteErr   map[string]error
	activity    map[string]time.Time
	activityErr map[string]error

	created []string
	deleted []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		createErr:   map[string]error{},
		deleteErr:   map[string]error{},
		activity:    map[string]time.Time{},
		activityErr: map[string]error{},
	}
}

func (g *fakeGateway) CreateUser(ctx context.Context, username, password string) (string, error) {
	if err := g.createErr[username]; err != nil {
		return "", err
	}
	g.created = append(g.created, username)
	return "rid-" + username, nil
}

func (g *fakeGateway) DeleteUser(ctx context.Context, remoteID string) error {
	if err := g.deleteErr[remoteID]; err != nil {
		return err
	}
	g.deleted = append(g.deleted, remoteID)
	return nil
}

func (g *fakeGateway) LastActivity(ctx context.Context, remoteID string) (*time.Time, error) {
	if err := g.activityErr[remoteID]; err != nil {
		return nil, err
	}
	if ts, ok := g.activity[remoteID]; ok {
		return &ts, nil
	}
	return nil, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	sent    []sentMessage
	failFor map[int64]error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failFor: map[int64]error{}}
}

func (n *recordingNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := n.failFor[chatID]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func newLifecycle(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, gw Gateway, n Notifier) *LifecycleService {
	t.Helper()
	return NewLifecycleService(db, rm, gw, n, testLogger(), testConfig())
}

// --- provisioning ---

func TestProvision_MixedBatch(t *testing.T) {
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	s := newLifecycle(t, db, rm, gw, newRecordingNotifier())
	ctx := context.Background()

	report, err := s.Provision(ctx, []Entry{
		{Username: "user1", Password: "p1"},
		{Username: "bad", Password: "p2"},
		{Username: "user2", Password: "p3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "bad", report.Issues[0].Username)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	usernames := []string{list[0].Username, list[1].Username}
	assert.ElementsMatch(t, []string{"user1", "user2"}, usernames)
	for _, a := range list {
		assert.Equal(t, "rid-"+a.Username, a.RemoteID)
	}
}

func TestProvision_RemoteFailureDoesNotAbortBatch(t *testing.T) {
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	gw.createErr["user3"] = errors.New("connection refused")
	s := newLifecycle(t, db, rm, gw, newRecordingNotifier())
	ctx := context.Background()

	var entries []Entry
	for i := 1; i <= 5; i++ {
		entries = append(entries, Entry{Username: fmt.Sprintf("user%d", i), Password: "p"})
	}

	report, err := s.Provision(ctx, entries)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Created)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "user3", report.Issues[0].Username)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	// entries after the failing one are still processed in order
	assert.Equal(t, []string{"user1", "user2", "user4", "user5"}, gw.created)
}

func TestProvision_DuplicateIsSkip(t *testing.T) {
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	s := newLifecycle(t, db, rm, gw, newRecordingNotifier())
	ctx := context.Background()

	_, err := s.Provision(ctx, []Entry{{Username: "user1", Password: "p1"}})
	require.NoError(t, err)

	report, err := s.Provision(ctx, []Entry{{Username: "user1", Password: "p1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProvision_StorageErrorAborts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO accounts").WillReturnError(errors.New("disk I/O error"))

	gw := newFakeGateway()
	s := NewLifecycleService(db, &repomanager.SQLiteRepositoryManager{}, gw, newRecordingNotifier(), testLogger(), testConfig())

	_, err = s.Provision(context.Background(), []Entry{{Username: "user1", Password: "p1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- login detection ---

func TestDetectLogins_RecordsFirstLoginOnce(t *testing.T) {
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	s := newLifecycle(t, db, rm, gw, newRecordingNotifier())
	ctx := context.Background()

	_, err := s.Provision(ctx, []Entry{
		{Username: "user1", Password: "p1"},
		{Username: "user2", Password: "p2"},
	})
	require.NoError(t, err)

	seen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gw.activity["rid-user1"] = seen

	report, err := s.DetectLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Updated)

	// same remote data again: zero writes
	report, err = s.DetectLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked, "user1 left the working set")
	assert.Equal(t, 0, report.Updated)

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	for _, a := range list {
		if a.Username == "user1" {
			require.NotNil(t, a.FirstLoginAt)
			assert.WithinDuration(t, seen, *a.FirstLoginAt, time.Second)
		} else {
			assert.Nil(t, a.FirstLoginAt)
		}
	}
}

func TestDetectLogins_GatewayErrorSkipsAccount(t *testing.T) {
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	s := newLifecycle(t, db, rm, gw, newRecordingNotifier())
	ctx := context.Background()

	_, err := s.Provision(ctx, []Entry{
		{Username: "user1", Password: "p1"},
		{Username: "user2", Password: "p2"},
	})
	require.NoError(t, err)

	gw.activityErr["rid-user1"] = errors.New("timeout")
	gw.activity["rid-user2"] = time.Now().UTC()

	report, err := s.DetectLogins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Failed)
}

// --- expiry ---

func expireFixture(t *testing.T) (*LifecycleService, *fakeGateway, *recordingNotifier, *AdminService, time.Time) {
	t.Helper()
	db, rm := newTestDB(t)
	gw := newFakeGateway()
	n := newRecordingNotifier()
	s := newLifecycle(t, db, rm, gw, n)
	adminSvc := NewAdminService(db, rm, testLogger())
	ctx := context.Background()

	_, err := s.Provision(ctx, []Entry{{Username: "user1", Password: "p1"}})
	require.NoError(t, err)

	firstLogin := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	gw.activity["rid-user1"] = firstLogin
	_, err = s.DetectLogins(ctx)
	require.NoError(t, err)

	return s, gw, n, adminSvc, firstLogin
}

func TestExpireAccounts_DeletesAndNotifiesEveryRecipient(t *testing.T) {
	s, gw, n, adminSvc, firstLogin := expireFixture(t)
	ctx := context.Background()

	require.NoError(t, adminSvc.AddAdmin(ctx, 100, "alice"))
	require.NoError(t, adminSvc.AddAdmin(ctx, 200, "bob"))
	require.NoError(t, adminSvc.AddGroup(ctx, -1001234))

	s.now = func() time.Time { return firstLogin.Add(14 * 24 * time.Hour) }

	report, err := s.ExpireAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, []string{"rid-user1"}, gw.deleted)

	// exactly one notification per registered recipient
	require.Len(t, n.sent, 3)
	var chats []int64
	for _, m := range n.sent {
		chats = append(chats, m.chatID)
		assert.Contains(t, m.text, "user1")
		assert.Contains(t, m.text, "Account deleted")
	}
	assert.ElementsMatch(t, []int64{100, 200, -1001234}, chats)

	// a later sweep never deletes the account again
	report, err = s.ExpireAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
	assert.Equal(t, []string{"rid-user1"}, gw.deleted)
}

func TestExpireAccounts_BeforeBoundaryNothingHappens(t *testing.T) {
	s, gw, _, _, firstLogin := expireFixture(t)

	s.now = func() time.Time { return firstLogin.Add(14*24*time.Hour - time.Second) }

	report, err := s.ExpireAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
	assert.Empty(t, gw.deleted)
}

func TestExpireAccounts_GatewayFailureRetriedNextSweep(t *testing.T) {
	s, gw, n, adminSvc, firstLogin := expireFixture(t)
	ctx := context.Background()

	require.NoError(t, adminSvc.AddAdmin(ctx, 100, "alice"))

	gw.deleteErr["rid-user1"] = errors.New("connection refused")
	s.now = func() time.Time { return firstLogin.Add(14 * 24 * time.Hour) }

	report, err := s.ExpireAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, n.sent, "no notification for a failed deletion")

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsDeleted, "account stays active until the remote delete succeeds")

	// next sweep, one day later, the gateway is back
	delete(gw.deleteErr, "rid-user1")
	s.now = func() time.Time { return firstLogin.Add(15 * 24 * time.Hour) }

	report, err = s.ExpireAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	require.Len(t, n.sent, 1)
}

func TestExpireAccounts_NotifierFailureDoesNotBlockOthers(t *testing.T) {
	s, _, n, adminSvc, firstLogin := expireFixture(t)
	ctx := context.Background()

	require.NoError(t, adminSvc.AddAdmin(ctx, 100, "alice"))
	require.NoError(t, adminSvc.AddAdmin(ctx, 200, "bob"))
	n.failFor[100] = errors.New("bot was blocked")

	s.now = func() time.Time { return firstLogin.Add(14 * 24 * time.Hour) }

	report, err := s.ExpireAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)

	require.Len(t, n.sent, 1)
	assert.Equal(t, int64(200), n.sent[0].chatID)
}

// --- stats ---

func TestAccountStats(t *testing.T) {
	s, gw, _, _, firstLogin := expireFixture(t)
	ctx := context.Background()

	_, err := s.Provision(ctx, []Entry{{Username: "user2", Password: "p2"}})
	require.NoError(t, err)

	s.now = func() time.Time { return firstLogin.Add(14 * 24 * time.Hour) }
	_, err = s.ExpireAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"rid-user1"}, gw.deleted)

	stats, err := s.AccountStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.LoggedIn)
	assert.Equal(t, 1, stats.Deleted)
}

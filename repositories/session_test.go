package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	db "github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"chat-server/domain"
	"chat-server/errors"
)

type sessionFixture struct {
	users    IUserRepository
	sessions *SessionRepository
	ids      map[string]string // nickname -> user id
}

func newSessionFixture(t *testing.T, badgerDB *badger.DB, nicknames ...string) *sessionFixture {
	req := require.New(t)

	sessions, err := NewSessionRepository(badgerDB, logs.GetLoggerFromString("ERROR"))
	req.NoError(err)
	t.Cleanup(func() { _ = sessions.Close() })

	f := &sessionFixture{
		users:    NewUserRepository(badgerDB),
		sessions: sessions,
		ids:      make(map[string]string),
	}
	for _, nickname := range nicknames {
		id, err := f.users.CreateUser(nickname+"@example.com", nickname, "hash")
		req.NoError(err)
		f.ids[nickname] = id
	}
	return f
}

func (f *sessionFixture) nicknames(participants []domain.Participant) []string {
	return lo.Map(participants, func(p domain.Participant, _ int) string {
		return p.Nickname
	})
}

func TestSessionRepository_InitializeSession(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice", "bob", "carol")

	session, err := f.sessions.InitializeSession("lobby", false,
		[]string{f.ids["alice"], f.ids["bob"]}, f.ids["alice"])
	req.NoError(err)
	req.NotEmpty(session.ID)
	req.Equal("lobby", session.Name)
	req.False(session.IsPrivate)

	participants, err := f.sessions.ListParticipants(session.ID)
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, f.nicknames(participants))
}

func TestSessionRepository_InitializeSession_Idempotent(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice", "bob", "carol")

	first, err := f.sessions.InitializeSession("lobby", false,
		[]string{f.ids["alice"]}, f.ids["alice"])
	req.NoError(err)

	// Same (name, privacy) pair: the session is reused, new users enrolled,
	// existing members untouched.
	second, err := f.sessions.InitializeSession("lobby", false,
		[]string{f.ids["alice"], f.ids["carol"]}, f.ids["alice"])
	req.NoError(err)
	req.Equal(first.ID, second.ID)

	participants, err := f.sessions.ListParticipants(first.ID)
	req.NoError(err)
	req.Equal([]string{"alice", "carol"}, f.nicknames(participants))

	// A different privacy flag under the same name is a different session.
	private, err := f.sessions.InitializeSession("lobby", true,
		[]string{f.ids["alice"]}, f.ids["alice"])
	req.NoError(err)
	req.NotEqual(first.ID, private.ID)
}

func TestSessionRepository_InitializeSession_Validation(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice")

	_, err = f.sessions.InitializeSession("", false, nil, f.ids["alice"])
	req.ErrorIs(err, errors.ErrValidation)

	_, err = f.sessions.InitializeSession("lobby", false, nil, "")
	req.ErrorIs(err, errors.ErrValidation)

	// All participants unknown, creator included
	_, err = f.sessions.InitializeSession("lobby", false, []string{"ghost-1"}, "ghost-2")
	req.ErrorIs(err, errors.ErrValidation)

	// Unknown participants are dropped, not fatal, as long as someone resolves
	session, err := f.sessions.InitializeSession("lobby", false, []string{"ghost-1"}, f.ids["alice"])
	req.NoError(err)
	participants, err := f.sessions.ListParticipants(session.ID)
	req.NoError(err)
	req.Equal([]string{"alice"}, f.nicknames(participants))
}

func TestSessionRepository_AddToPublicSession(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice", "bob")

	session, err := f.sessions.InitializeSession("lobby", false,
		[]string{f.ids["alice"]}, f.ids["alice"])
	req.NoError(err)

	participants, err := f.sessions.AddToPublicSession(session.ID, f.ids["bob"])
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, f.nicknames(participants))

	// Joining twice is a conflict
	_, err = f.sessions.AddToPublicSession(session.ID, f.ids["bob"])
	req.ErrorIs(err, errors.ErrConflict)

	// Unknown session and unknown user are the same error kind
	_, err = f.sessions.AddToPublicSession("ghost", f.ids["bob"])
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = f.sessions.AddToPublicSession(session.ID, "ghost")
	req.ErrorIs(err, errors.ErrNotFound)

	// A private session is not joinable through the public path
	private, err := f.sessions.InitializeSession("backroom", true,
		[]string{f.ids["alice"]}, f.ids["alice"])
	req.NoError(err)
	_, err = f.sessions.AddToPublicSession(private.ID, f.ids["bob"])
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestSessionRepository_AddToPrivateSession(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice", "bob", "carol")

	session, err := f.sessions.InitializeSession("backroom", true,
		[]string{f.ids["alice"]}, f.ids["alice"])
	req.NoError(err)

	// A member can invite
	participants, err := f.sessions.AddToPrivateSession(session.ID, f.ids["bob"], f.ids["alice"])
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, f.nicknames(participants))

	// A non-member cannot
	_, err = f.sessions.AddToPrivateSession(session.ID, f.ids["carol"], "ghost")
	req.ErrorIs(err, errors.ErrPermission)

	// Inviting an existing member is a conflict
	_, err = f.sessions.AddToPrivateSession(session.ID, f.ids["bob"], f.ids["alice"])
	req.ErrorIs(err, errors.ErrConflict)
}

func TestSessionRepository_RemoveFromSession(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := db.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer db.CleanupDB(badgerDB, blugeWriter)

	f := newSessionFixture(t, badgerDB, "alice", "bob")

	public, err := f.sessions.InitializeSession("lobby", false,
		[]string{f.ids["alice"], f.ids["bob"]}, f.ids["alice"])
	req.NoError(err)

	req.NoError(f.sessions.RemoveFromSession(public.ID, f.ids["bob"]))

	isMember, err := f.sessions.IsMember(public.ID, f.ids["bob"])
	req.NoError(err)
	req.False(isMember)

	// Removing a non-member fails
	err = f.sessions.RemoveFromSession(public.ID, f.ids["bob"])
	req.ErrorIs(err, errors.ErrNotFound)

	// Private sessions never support removal
	private, err := f.sessions.InitializeSession("backroom", true,
		[]string{f.ids["alice"], f.ids["bob"]}, f.ids["alice"])
	req.NoError(err)
	err = f.sessions.RemoveFromSession(private.ID, f.ids["bob"])
	req.ErrorIs(err, errors.ErrPermission)
}

package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/firekill222/signaling-server/domain"
)

func TestRegistry_AddMember_CreatesPartyLazily(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no party exists
	req.Nil(registry.MembersOf(7))

	// When a member joins an unseen party
	registry.AddSession("s42")
	registry.AddMember(42, "s42", 7)

	// Then the party exists with exactly that member
	req.ElementsMatch([]domain.MemberID{42}, registry.MembersOf(7))

	member, ok := registry.FindMemberBySession("s42")
	req.True(ok)
	req.Equal(domain.Member{ID: 42, Session: "s42", Party: 7}, member)
}

func TestRegistry_AddMember_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When the same join is applied twice
	registry.AddMember(42, "s42", 7)
	registry.AddMember(42, "s42", 7)

	// Then state is unchanged
	req.ElementsMatch([]domain.MemberID{42}, registry.MembersOf(7))
	snapshot := registry.Snapshot()
	req.Equal(1, snapshot.Members)
	req.Len(snapshot.Parties, 1)
}

func TestRegistry_AddMember_MovesBetweenParties(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a member in party 7
	registry.AddMember(42, "s42", 7)

	// When the same member record is overwritten with party 8
	registry.AddMember(42, "s42", 8)

	// Then it no longer lingers in party 7, which dissolved out of the table
	req.Nil(registry.MembersOf(7))
	req.ElementsMatch([]domain.MemberID{42}, registry.MembersOf(8))
}

func TestRegistry_AddMember_SessionTakeoverUnbindsOldSession(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a member registered on a session that later went silent
	registry.AddSession("s1")
	registry.AddMember(42, "s1", 7)

	// When the same member re-registers from a fresh session
	registry.AddSession("s2")
	registry.AddMember(42, "s2", 7)

	// Then the dead session no longer resolves to the member
	_, ok := registry.FindMemberBySession("s1")
	req.False(ok)

	member, ok := registry.FindMemberBySession("s2")
	req.True(ok)
	req.Equal(domain.Member{ID: 42, Session: "s2", Party: 7}, member)
	req.ElementsMatch([]domain.MemberID{42}, registry.MembersOf(7))
}

func TestRegistry_RemoveMember_ReturnsPriorRecord(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddMember(42, "s42", 7)

	member, ok := registry.RemoveMember(42)

	req.True(ok)
	req.Equal(domain.SessionID("s42"), member.Session)
	req.Equal(domain.PartyID(7), member.Party)

	// And the session no longer resolves to a member
	_, ok = registry.FindMemberBySession("s42")
	req.False(ok)
}

func TestRegistry_RemoveMember_LastMemberDeletesParty(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddMember(42, "s42", 7)
	registry.AddMember(99, "s99", 7)

	// When members leave one by one
	_, ok := registry.RemoveMember(42)
	req.True(ok)
	req.ElementsMatch([]domain.MemberID{99}, registry.MembersOf(7))

	_, ok = registry.RemoveMember(99)
	req.True(ok)

	// Then the emptied party is gone from the table entirely
	req.Nil(registry.MembersOf(7))
	req.Empty(registry.Snapshot().Parties)
}

func TestRegistry_RemoveMember_Unknown_IsNoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, ok := registry.RemoveMember(12345)

	req.False(ok)
	req.Empty(registry.Snapshot().Parties)
}

func TestRegistry_RemoveSession_KeepsMemberTablesUntouched(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddSession("s42")
	registry.AddMember(42, "s42", 7)

	// When only the session mapping is dropped
	registry.RemoveSession("s42")

	// Then membership is untouched: the engine removes members explicitly
	req.ElementsMatch([]domain.MemberID{42}, registry.MembersOf(7))
	req.Equal(0, registry.Snapshot().Sessions)
}

func TestRegistry_FindMemberBySession_TracksLatestJoin(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddSession("s1")

	// Given no join happened yet
	_, ok := registry.FindMemberBySession("s1")
	req.False(ok)

	// When a join lands on the session
	registry.AddMember(42, "s1", 7)
	member, ok := registry.FindMemberBySession("s1")
	req.True(ok)
	req.Equal(domain.MemberID(42), member.ID)

	// And the member parts again
	registry.RemoveMember(42)
	_, ok = registry.FindMemberBySession("s1")
	req.False(ok)
}

func TestRegistry_SessionOf(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddMember(42, "s42", 7)

	sessionID, ok := registry.SessionOf(42)
	req.True(ok)
	req.Equal(domain.SessionID("s42"), sessionID)

	_, ok = registry.SessionOf(99)
	req.False(ok)
}

func TestRegistry_Snapshot_SortedAndDetached(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.AddSession("s1")
	registry.AddSession("s2")
	registry.AddMember(99, "s1", 7)
	registry.AddMember(42, "s2", 7)

	snapshot := registry.Snapshot()

	req.Equal(2, snapshot.Sessions)
	req.Equal(2, snapshot.Members)
	req.Len(snapshot.Parties, 1)
	req.Equal(domain.PartyID(7), snapshot.Parties[0].ID)
	req.Equal([]domain.MemberID{42, 99}, snapshot.Parties[0].Members)

	// Mutating the snapshot must not leak back into the registry
	snapshot.Parties[0].Members[0] = 12345
	req.ElementsMatch([]domain.MemberID{42, 99}, registry.MembersOf(7))
}

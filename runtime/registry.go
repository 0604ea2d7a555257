// Package runtime hosts the relay state machine and its registry.
// It moves membership state around without touching the transport
// or interpreting payloads.
package runtime

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/firekill222/signaling-server/domain"
)

type Set map[domain.MemberID]struct{}

// Registry is the authoritative in-memory state: sessions, members,
// parties and their relationships. All mutation goes through it.
//
// The relay loop is the only writer, but the debug server and telemetry
// worker read concurrently, so every table sits behind one RWMutex and
// each operation is all-or-nothing under it.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[domain.SessionID]time.Time    // session -> connected at
	members   map[domain.MemberID]domain.Member // member -> record
	bySession map[domain.SessionID]domain.MemberID
	parties   map[domain.PartyID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[domain.SessionID]time.Time),
		members:   make(map[domain.MemberID]domain.Member),
		bySession: make(map[domain.SessionID]domain.MemberID),
		parties:   make(map[domain.PartyID]Set),
	}
}

// AddSession registers a live connection with no member yet.
func (r *Registry) AddSession(sessionID domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = time.Now().UTC()
}

// RemoveSession drops the session mapping. It does not remove a member by
// itself; the engine removes the member first on disconnect.
func (r *Registry) RemoveSession(sessionID domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// AddMember creates or overwrites the member record, creates the party on
// first join and adds the member to its set. Calling it twice with the
// same arguments leaves state unchanged.
func (r *Registry) AddMember(memberID domain.MemberID, sessionID domain.SessionID, partyID domain.PartyID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A member moving between parties must not linger in the old set, and
	// a member re-registering from a new session must not leave its old
	// session resolving to it: that stale mapping would let the old
	// session's eventual disconnect evict the live membership.
	if prev, ok := r.members[memberID]; ok {
		if prev.Party != partyID {
			r.dropFromParty(prev.Party, memberID)
		}
		if prev.Session != sessionID {
			delete(r.bySession, prev.Session)
		}
	}

	r.members[memberID] = domain.Member{ID: memberID, Session: sessionID, Party: partyID}
	r.bySession[sessionID] = memberID

	if _, ok := r.parties[partyID]; !ok {
		r.parties[partyID] = make(Set)
	}
	r.parties[partyID][memberID] = struct{}{}
}

// RemoveMember deletes the member record and its party set entry,
// returning the prior record. Removing the last member deletes the party
// entirely so no empty sets linger in the table.
// Safe to call on an unknown member: a no-op signalled by false.
func (r *Registry) RemoveMember(memberID domain.MemberID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, ok := r.members[memberID]
	if !ok {
		return domain.Member{}, false
	}
	delete(r.members, memberID)
	delete(r.bySession, member.Session)
	r.dropFromParty(member.Party, memberID)
	return member, true
}

// dropFromParty removes one member from a party set and deletes the party
// once the set is empty. Callers hold the write lock.
func (r *Registry) dropFromParty(partyID domain.PartyID, memberID domain.MemberID) {
	members, ok := r.parties[partyID]
	if !ok {
		return
	}
	delete(members, memberID)
	if len(members) == 0 {
		delete(r.parties, partyID)
	}
}

// FindMemberBySession resolves the member speaking on a session. Part and
// disconnect arrive addressed by session, not by member identifier.
func (r *Registry) FindMemberBySession(sessionID domain.SessionID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberID, ok := r.bySession[sessionID]
	if !ok {
		return domain.Member{}, false
	}
	member, ok := r.members[memberID]
	return member, ok
}

// MembersOf returns the current member set of a party, nil if the party
// does not exist. The returned slice is a copy.
func (r *Registry) MembersOf(partyID domain.PartyID) []domain.MemberID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.parties[partyID]
	if !ok {
		return nil
	}
	return lo.Keys(members)
}

// SessionOf maps a member back to its live session id.
func (r *Registry) SessionOf(memberID domain.MemberID) (domain.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.members[memberID]
	if !ok {
		return "", false
	}
	return member.Session, true
}

// Snapshot copies the tables into a read-only view for the debug surface
// and telemetry. Parties and members are sorted for stable rendering.
func (r *Registry) Snapshot() domain.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parties := make([]domain.PartyView, 0, len(r.parties))
	for partyID, members := range r.parties {
		ids := lo.Keys(members)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		parties = append(parties, domain.PartyView{ID: partyID, Members: ids})
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].ID < parties[j].ID })

	return domain.RegistrySnapshot{
		Sessions: len(r.sessions),
		Members:  len(r.members),
		Parties:  parties,
	}
}

package runtime

import (
	"fmt"
	"log/slog"

	"github.com/firekill222/signaling-server/contract"
	"github.com/firekill222/signaling-server/domain"
	errs "github.com/firekill222/signaling-server/errors"
	"github.com/firekill222/signaling-server/observability"
	"github.com/firekill222/signaling-server/wire"
)

// Engine is the protocol state machine. It holds no state of its own:
// every persistent effect goes through the registry, every delivery
// through the dispatcher.
//
// No inbound event may take the process down. Protocol errors are logged
// and swallowed; only transport-level closure ends a session.
type Engine struct {
	log        *slog.Logger
	registry   contract.IRegistry
	dispatcher contract.Dispatcher
	stats      *observability.RelayStats
}

func NewEngine(log *slog.Logger, registry contract.IRegistry,
	dispatcher contract.Dispatcher, stats *observability.RelayStats) *Engine {
	return &Engine{
		log:        log,
		registry:   registry,
		dispatcher: dispatcher,
		stats:      stats,
	}
}

// HandleConnect registers a fresh session with no member attached.
func (e *Engine) HandleConnect(sessionID domain.SessionID) {
	e.registry.AddSession(sessionID)
	e.stats.IncrConnects()
	e.log.Debug("Session connected", "session_id", sessionID)
}

// HandleFrame decodes one inbound envelope and applies it. A frame that
// fails to decode is dropped with a diagnostic; the connection stays open.
func (e *Engine) HandleFrame(sessionID domain.SessionID, raw []byte) {
	msg, err := wire.DecodeC2S(raw)
	if err != nil {
		e.stats.IncrMalformed()
		e.log.Warn("Dropping frame", "session_id", sessionID, "error", err)
		return
	}

	switch {
	case msg.Join != nil:
		e.handleJoin(sessionID, msg.Join.Party, msg.Join.Member)
	case msg.Part != nil:
		e.handlePart(sessionID)
	case msg.Data != nil:
		e.handleData(sessionID, msg.Data.Type, msg.Data.Data)
	}
}

// HandleDisconnect is the terminal event for a session: the member (if
// any) parts its party, then the session mapping is dropped.
func (e *Engine) HandleDisconnect(sessionID domain.SessionID) {
	e.removeAndAnnounce(sessionID)
	e.registry.RemoveSession(sessionID)
	e.stats.IncrDisconnects()
	e.log.Debug("Session disconnected", "session_id", sessionID)
}

// handleJoin admits a member into a party and synchronizes views:
// everyone in the party (the newcomer included) learns of the join, and
// the newcomer is unicast one UserJoin per pre-existing member so its
// local membership view is complete before any data traffic follows.
func (e *Engine) handleJoin(sessionID domain.SessionID, partyID domain.PartyID, memberID domain.MemberID) {
	// A session carries at most one membership. A join naming a different
	// member or party on an already-joined session parts the old member
	// first, announcement included.
	if prev, ok := e.registry.FindMemberBySession(sessionID); ok &&
		(prev.ID != memberID || prev.Party != partyID) {
		e.removeAndAnnounce(sessionID)
	}

	e.registry.AddMember(memberID, sessionID, partyID)
	e.stats.IncrJoins()

	announce, err := wire.EncodeS2C(wire.S2C{UserJoin: &wire.UserJoin{Party: partyID, Member: memberID}})
	if err != nil {
		e.log.Error("Encoding join announcement failed", "error", err)
		return
	}
	e.broadcast(partyID, nil, announce)

	for _, existingID := range e.registry.MembersOf(partyID) {
		if existingID == memberID {
			continue
		}
		catchup, err := wire.EncodeS2C(wire.S2C{UserJoin: &wire.UserJoin{Party: partyID, Member: existingID}})
		if err != nil {
			e.log.Error("Encoding catch-up failed", "error", err)
			continue
		}
		if !e.dispatcher.Send(sessionID, catchup) {
			e.log.Debug("Catch-up skipped",
				"session_id", sessionID, "error", errs.ErrTransportUnavailable)
		}
	}

	e.log.Info("Member joined",
		"party_id", partyID, "member_id", memberID, "session_id", sessionID)
}

// handleData relays an opaque payload to the sender's party. The payload
// bytes and type string pass through byte-identical; the engine never
// inspects them. The sender is excluded from its own broadcast.
func (e *Engine) handleData(sessionID domain.SessionID, typ string, data []byte) {
	member, ok := e.registry.FindMemberBySession(sessionID)
	if !ok {
		e.stats.IncrUnknownSenders()
		e.log.Warn("Dropping data frame",
			"session_id", sessionID, "error", errs.ErrUnknownSender)
		return
	}

	buf, err := wire.EncodeS2C(wire.S2C{PartyData: &wire.PartyData{
		Party:  member.Party,
		Member: member.ID,
		Type:   typ,
		Data:   data,
	}})
	if err != nil {
		e.log.Error("Encoding party data failed", "error", err)
		return
	}

	e.broadcast(member.Party, &member.ID, buf)
	e.stats.IncrFramesRelayed()
}

// handlePart removes the sender's membership and announces it. A part
// from a session with no member is a silent no-op.
func (e *Engine) handlePart(sessionID domain.SessionID) {
	if e.removeAndAnnounce(sessionID) {
		e.stats.IncrParts()
	}
}

// removeAndAnnounce resolves the session's member, removes it and
// broadcasts UserPart to the remaining party set. The parting member is
// never a recipient: it is already out of the set by broadcast time.
func (e *Engine) removeAndAnnounce(sessionID domain.SessionID) bool {
	member, ok := e.registry.FindMemberBySession(sessionID)
	if !ok {
		return false
	}
	if _, ok := e.registry.RemoveMember(member.ID); !ok {
		return false
	}

	// The last member emptied the party; announcing to nobody is a no-op.
	if len(e.registry.MembersOf(member.Party)) == 0 {
		e.log.Info("Member parted, party dissolved",
			"party_id", member.Party, "member_id", member.ID)
		return true
	}

	buf, err := wire.EncodeS2C(wire.S2C{UserPart: &wire.UserPart{Member: member.ID}})
	if err != nil {
		e.log.Error("Encoding part announcement failed", "error", err)
		return true
	}
	e.broadcast(member.Party, nil, buf)

	e.log.Info("Member parted", "party_id", member.Party, "member_id", member.ID)
	return true
}

// broadcast fans one pre-encoded buffer out to a party's current members.
// A nil exclude means everyone receives; a non-nil exclude names the one
// member (the sender) to leave out. The buffer is encoded once and shared
// across all recipients. A recipient whose connection is not writable is
// skipped, not failed: its own disconnect event cleans it up shortly.
func (e *Engine) broadcast(partyID domain.PartyID, exclude *domain.MemberID, buf []byte) {
	members := e.registry.MembersOf(partyID)
	if members == nil {
		e.log.Warn(fmt.Sprintf("Broadcast target missing for party %d", partyID),
			"error", errs.ErrUnknownParty)
		return
	}

	var delivered, skipped uint64
	for _, memberID := range members {
		if exclude != nil && memberID == *exclude {
			continue
		}
		sessionID, ok := e.registry.SessionOf(memberID)
		if !ok {
			skipped++
			continue
		}
		if e.dispatcher.Send(sessionID, buf) {
			delivered++
		} else {
			skipped++
		}
	}

	e.stats.AddDeliveries(delivered)
	e.stats.AddSkipped(skipped)
	e.log.Debug("Broadcast complete",
		"party_id", partyID, "party_size", len(members),
		"delivered", delivered, "skipped", skipped)
}

// Package domain contains core concepts of the party relay.
// This file defines identifiers and membership entities.
// No runtime, network, or wire logic should be added here.
package domain

// PartyID identifies a group of members. Assigned by clients, 64-bit.
type PartyID int64

// MemberID identifies one party participant. Externally assigned, 64-bit.
type MemberID int64

// SessionID identifies one live connection, independently of membership.
type SessionID string

// Member binds a member identifier to the session it speaks on and the
// party it currently belongs to. A Member exists only while its session
// is connected and has joined a party.
type Member struct {
	ID      MemberID
	Session SessionID
	Party   PartyID
}

// PartyView is a read-only projection of one party, used by the debug
// surface and telemetry. It never aliases registry internals.
type PartyView struct {
	ID      PartyID
	Members []MemberID
}

// RegistrySnapshot is a point-in-time copy of the registry tables.
type RegistrySnapshot struct {
	Sessions int
	Members  int
	Parties  []PartyView
}

// Package wire translates between the external binary schema and in-memory
// message values. It is pure and stateless.
//
// Every envelope is one tag byte followed by the variant's fields:
//
//	int64    8 bytes, big-endian two's complement
//	string   uint16 length prefix + raw bytes
//	bytes    uint32 length prefix + raw bytes
//
// Client-to-server and server-to-client unions use separate tag spaces and
// are decoded by direction-specific functions. Identifiers never pass
// through a floating-point intermediate, so the full 64-bit range
// round-trips exactly.
package wire

import (
	"fmt"

	"github.com/firekill222/signaling-server/domain"
	errs "github.com/firekill222/signaling-server/errors"
)

// Client-to-server tags.
const (
	tagJoin byte = 0x01
	tagPart byte = 0x02
	tagData byte = 0x03
)

// Server-to-client tags.
const (
	tagUserJoin  byte = 0x01
	tagUserPart  byte = 0x02
	tagPartyData byte = 0x03
)

type Join struct {
	Party  domain.PartyID
	Member domain.MemberID
}

type Part struct{}

type Data struct {
	Type string
	Data []byte
}

// C2S is the client-to-server envelope. Exactly one variant is set.
type C2S struct {
	Join *Join
	Part *Part
	Data *Data
}

type UserJoin struct {
	Party  domain.PartyID
	Member domain.MemberID
}

type UserPart struct {
	Member domain.MemberID
}

type PartyData struct {
	Party  domain.PartyID
	Member domain.MemberID
	Type   string
	Data   []byte
}

// S2C is the server-to-client envelope. Exactly one variant is set.
type S2C struct {
	UserJoin  *UserJoin
	UserPart  *UserPart
	PartyData *PartyData
}

// EncodeC2S serializes a client envelope. The output is deterministic:
// the same logical message always produces the same bytes.
func EncodeC2S(m C2S) ([]byte, error) {
	switch {
	case m.Join != nil && m.Part == nil && m.Data == nil:
		buf := make([]byte, 0, 1+8+8)
		buf = append(buf, tagJoin)
		buf = appendInt64(buf, int64(m.Join.Party))
		buf = appendInt64(buf, int64(m.Join.Member))
		return buf, nil
	case m.Part != nil && m.Join == nil && m.Data == nil:
		return []byte{tagPart}, nil
	case m.Data != nil && m.Join == nil && m.Part == nil:
		if len(m.Data.Type) > maxTypeLen {
			return nil, fmt.Errorf("%w: type string exceeds %d bytes", errs.ErrMalformedMessage, maxTypeLen)
		}
		buf := make([]byte, 0, 1+2+len(m.Data.Type)+4+len(m.Data.Data))
		buf = append(buf, tagData)
		buf = appendString(buf, m.Data.Type)
		buf = appendBytes(buf, m.Data.Data)
		return buf, nil
	}
	return nil, fmt.Errorf("%w: envelope must carry exactly one variant", errs.ErrMalformedMessage)
}

// DecodeC2S parses a client envelope. Any deviation from the schema,
// including trailing bytes, yields ErrMalformedMessage. It never panics.
func DecodeC2S(buf []byte) (C2S, error) {
	r := reader{buf: buf}
	tag, err := r.tag()
	if err != nil {
		return C2S{}, err
	}
	switch tag {
	case tagJoin:
		party, err := r.int64("partyId")
		if err != nil {
			return C2S{}, err
		}
		member, err := r.int64("memberId")
		if err != nil {
			return C2S{}, err
		}
		if err := r.done(); err != nil {
			return C2S{}, err
		}
		return C2S{Join: &Join{Party: domain.PartyID(party), Member: domain.MemberID(member)}}, nil
	case tagPart:
		if err := r.done(); err != nil {
			return C2S{}, err
		}
		return C2S{Part: &Part{}}, nil
	case tagData:
		typ, err := r.string("type")
		if err != nil {
			return C2S{}, err
		}
		data, err := r.bytes("data")
		if err != nil {
			return C2S{}, err
		}
		if err := r.done(); err != nil {
			return C2S{}, err
		}
		return C2S{Data: &Data{Type: typ, Data: data}}, nil
	}
	return C2S{}, fmt.Errorf("%w: unknown client tag 0x%02x", errs.ErrMalformedMessage, tag)
}

// EncodeS2C serializes a server envelope, deterministically.
func EncodeS2C(m S2C) ([]byte, error) {
	switch {
	case m.UserJoin != nil && m.UserPart == nil && m.PartyData == nil:
		buf := make([]byte, 0, 1+8+8)
		buf = append(buf, tagUserJoin)
		buf = appendInt64(buf, int64(m.UserJoin.Party))
		buf = appendInt64(buf, int64(m.UserJoin.Member))
		return buf, nil
	case m.UserPart != nil && m.UserJoin == nil && m.PartyData == nil:
		buf := make([]byte, 0, 1+8)
		buf = append(buf, tagUserPart)
		buf = appendInt64(buf, int64(m.UserPart.Member))
		return buf, nil
	case m.PartyData != nil && m.UserJoin == nil && m.UserPart == nil:
		if len(m.PartyData.Type) > maxTypeLen {
			return nil, fmt.Errorf("%w: type string exceeds %d bytes", errs.ErrMalformedMessage, maxTypeLen)
		}
		buf := make([]byte, 0, 1+8+8+2+len(m.PartyData.Type)+4+len(m.PartyData.Data))
		buf = append(buf, tagPartyData)
		buf = appendInt64(buf, int64(m.PartyData.Party))
		buf = appendInt64(buf, int64(m.PartyData.Member))
		buf = appendString(buf, m.PartyData.Type)
		buf = appendBytes(buf, m.PartyData.Data)
		return buf, nil
	}
	return nil, fmt.Errorf("%w: envelope must carry exactly one variant", errs.ErrMalformedMessage)
}

// DecodeS2C parses a server envelope. Used by test clients and the load
// tester; the server itself only encodes this direction.
func DecodeS2C(buf []byte) (S2C, error) {
	r := reader{buf: buf}
	tag, err := r.tag()
	if err != nil {
		return S2C{}, err
	}
	switch tag {
	case tagUserJoin:
		party, err := r.int64("partyId")
		if err != nil {
			return S2C{}, err
		}
		member, err := r.int64("memberId")
		if err != nil {
			return S2C{}, err
		}
		if err := r.done(); err != nil {
			return S2C{}, err
		}
		return S2C{UserJoin: &UserJoin{Party: domain.PartyID(party), Member: domain.MemberID(member)}}, nil
	case tagUserPart:
		member, err := r.int64("memberId")
		if err != nil {
			return S2C{}, err
		}
		if err := r.done(); err != nil {
			return S2C{}, err
		}
		return S2C{UserPart: &UserPart{Member: domain.MemberID(member)}}, nil
	case tagPartyData:
		party, err := r.int64("partyId")
		if err != nil {
			return S2C{}, err
		}
		member, err := r.int64("memberId")
		if err != nil {
			return S2C{}, err
		}
		typ, err := r.string("type")
		if err != nil {
			return S2C{}, err
		}
		data, err := r.bytes("data")
		if err != nil {
			return S2C{}, err
		}
		if err := r.done(); err != nil {
			return S2C{}, err
		}
		return S2C{PartyData: &PartyData{
			Party:  domain.PartyID(party),
			Member: domain.MemberID(member),
			Type:   typ,
			Data:   data,
		}}, nil
	}
	return S2C{}, fmt.Errorf("%w: unknown server tag 0x%02x", errs.ErrMalformedMessage, tag)
}

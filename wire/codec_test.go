package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/firekill222/signaling-server/domain"
	errs "github.com/firekill222/signaling-server/errors"
)

func TestCodec_C2S_Join_RoundTrip(t *testing.T) {
	req := require.New(t)

	// Given identifiers outside the 53-bit float-safe range
	msg := C2S{Join: &Join{
		Party:  domain.PartyID(1<<62 + 12345),
		Member: domain.MemberID(math.MinInt64),
	}}

	// When encoded and decoded again
	buf, err := EncodeC2S(msg)
	req.NoError(err)
	decoded, err := DecodeC2S(buf)

	// Then the identifiers round-trip exactly
	req.NoError(err)
	req.NotNil(decoded.Join)
	req.Equal(domain.PartyID(1<<62+12345), decoded.Join.Party)
	req.Equal(domain.MemberID(math.MinInt64), decoded.Join.Member)
}

func TestCodec_C2S_Part_RoundTrip(t *testing.T) {
	req := require.New(t)

	buf, err := EncodeC2S(C2S{Part: &Part{}})
	req.NoError(err)
	req.Equal([]byte{tagPart}, buf)

	decoded, err := DecodeC2S(buf)
	req.NoError(err)
	req.NotNil(decoded.Part)
	req.Nil(decoded.Join)
	req.Nil(decoded.Data)
}

func TestCodec_C2S_Data_RoundTrip(t *testing.T) {
	req := require.New(t)

	// Given an opaque payload, including zero bytes
	payload := []byte{0x00, 0xff, 0x42, 0x00}
	msg := C2S{Data: &Data{Type: "input", Data: payload}}

	buf, err := EncodeC2S(msg)
	req.NoError(err)
	decoded, err := DecodeC2S(buf)

	// Then the payload is byte-identical and the type untouched
	req.NoError(err)
	req.NotNil(decoded.Data)
	req.Equal("input", decoded.Data.Type)
	req.Equal(payload, decoded.Data.Data)
}

func TestCodec_C2S_Data_EmptyPayload(t *testing.T) {
	req := require.New(t)

	buf, err := EncodeC2S(C2S{Data: &Data{Type: "", Data: nil}})
	req.NoError(err)

	decoded, err := DecodeC2S(buf)
	req.NoError(err)
	req.NotNil(decoded.Data)
	req.Empty(decoded.Data.Type)
	req.Empty(decoded.Data.Data)
}

func TestCodec_S2C_RoundTrip_AllVariants(t *testing.T) {
	req := require.New(t)

	messages := []S2C{
		{UserJoin: &UserJoin{Party: 7, Member: 42}},
		{UserPart: &UserPart{Member: -1}},
		{PartyData: &PartyData{Party: 1 << 60, Member: 99, Type: "state", Data: []byte("opaque")}},
	}

	for _, msg := range messages {
		buf, err := EncodeS2C(msg)
		req.NoError(err)
		decoded, err := DecodeS2C(buf)
		req.NoError(err)
		req.Equal(msg, decoded)
	}
}

func TestCodec_Encode_Deterministic(t *testing.T) {
	req := require.New(t)

	msg := S2C{PartyData: &PartyData{Party: 7, Member: 42, Type: "x", Data: []byte("d")}}

	first, err := EncodeS2C(msg)
	req.NoError(err)
	second, err := EncodeS2C(msg)
	req.NoError(err)

	// Then the same logical message always serializes to the same bytes
	req.Equal(first, second)
}

func TestCodec_Decode_Garbage_IsMalformed(t *testing.T) {
	req := require.New(t)

	inputs := [][]byte{
		nil,                      // empty buffer
		{},                       // empty buffer
		{0x7f},                   // unknown tag
		{0x01, 0x00},             // truncated join
		{0x02, 0xde, 0xad},       // trailing bytes after part
		{0x03, 0x00, 0x05, 'a'},  // type length overruns buffer
		{0x03, 0x00, 0x00, 0xff}, // truncated data length
	}

	for _, buf := range inputs {
		_, err := DecodeC2S(buf)
		req.ErrorIs(err, errs.ErrMalformedMessage, "input % x", buf)
	}
}

func TestCodec_Decode_HugeLengthPrefix_NoPanic(t *testing.T) {
	req := require.New(t)

	// Given a data frame claiming 4 GiB of payload
	buf := []byte{tagData, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff}

	_, err := DecodeC2S(buf)
	req.ErrorIs(err, errs.ErrMalformedMessage)
}

func TestCodec_Encode_RejectsAmbiguousEnvelope(t *testing.T) {
	req := require.New(t)

	// Given an envelope with two variants set
	_, err := EncodeC2S(C2S{Join: &Join{}, Part: &Part{}})
	req.ErrorIs(err, errs.ErrMalformedMessage)

	// And one with none
	_, err = EncodeS2C(S2C{})
	req.ErrorIs(err, errs.ErrMalformedMessage)
}

func TestCodec_DecodedData_DoesNotAliasInput(t *testing.T) {
	req := require.New(t)

	buf, err := EncodeC2S(C2S{Data: &Data{Type: "t", Data: []byte{1, 2, 3}}})
	req.NoError(err)

	decoded, err := DecodeC2S(buf)
	req.NoError(err)

	// When the network buffer is reused
	for i := range buf {
		buf[i] = 0
	}

	// Then the decoded payload is unaffected
	req.Equal([]byte{1, 2, 3}, decoded.Data.Data)
}

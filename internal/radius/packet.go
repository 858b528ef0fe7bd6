// Package radius implements the wire codec for RADIUS packets (RFC 2865):
// attribute encode/append, shape validation, and Request/Response
// Authenticator signing and verification. It is the external collaborator
// spec.md §6 names "RADIUS packet codec" — the radiusclient package calls
// into it but never encodes or signs attributes itself.
package radius

import "encoding/binary"

// AVP is a single RADIUS attribute-value pair (RFC 2865 section 5).
type AVP struct {
	Type  uint8
	Value []byte
}

// Packet is a RADIUS message: header fields plus an attribute list.
//
// Authenticator holds the Request Authenticator on an outbound
// Access-Request/Accounting-Request, and on an inbound reply the Response
// Authenticator as read off the wire by Unmarshal (VerifyResponse checks
// it).
type Packet struct {
	Code          Code
	Identifier    uint8
	Authenticator [AuthenticatorLen]byte
	Attributes    []AVP
}

// AppendAVP appends a type/length/value attribute. Value is truncated to
// 253 bytes (the maximum that fits in the 1-byte TLV length field minus
// the 2-byte type+length prefix).
func (p *Packet) AppendAVP(typ uint8, value []byte) {
	if len(value) > 253 {
		value = value[:253]
	}
	p.Attributes = append(p.Attributes, AVP{Type: typ, Value: value})
}

// Find returns the value of the first attribute of the given type, or nil.
func (p *Packet) Find(typ uint8) []byte {
	for _, a := range p.Attributes {
		if a.Type == typ {
			return a.Value
		}
	}
	return nil
}

// Marshal serializes the packet to RADIUS wire format. The Length field is
// computed from the header plus the encoded attributes.
func (p *Packet) Marshal() ([]byte, error) {
	size := HeaderSize
	for _, a := range p.Attributes {
		size += 2 + len(a.Value)
	}
	if size > MaxPacketLen {
		return nil, ErrPacketTooLong
	}

	out := make([]byte, HeaderSize, size)
	out[0] = byte(p.Code)
	out[1] = p.Identifier
	binary.BigEndian.PutUint16(out[2:4], uint16(size))
	copy(out[4:20], p.Authenticator[:])

	for _, a := range p.Attributes {
		out = append(out, a.Type, byte(2+len(a.Value)))
		out = append(out, a.Value...)
	}
	return out, nil
}

// Unmarshal parses a RADIUS wire-format message, performing the shape
// sanity check required by spec.md §4.5 step 1: header length, the
// declared Length field against the actual buffer length, and a full
// attribute walk that never reads past the declared length.
func Unmarshal(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, ErrPacketTooShort
	}

	declared := int(binary.BigEndian.Uint16(buf[2:4]))
	if declared < HeaderSize || declared > MaxPacketLen {
		return nil, ErrLengthMismatch
	}
	if declared > len(buf) {
		return nil, ErrLengthMismatch
	}
	// RADIUS permits trailing padding after the declared length on some
	// implementations; this client only looks at the declared prefix.
	buf = buf[:declared]

	p := &Packet{
		Code:       Code(buf[0]),
		Identifier: buf[1],
	}
	copy(p.Authenticator[:], buf[4:20])

	off := HeaderSize
	for off < len(buf) {
		if off+2 > len(buf) {
			return nil, ErrAttributeWalk
		}
		typ := buf[off]
		length := int(buf[off+1])
		if length < 2 {
			return nil, ErrAttributeTooShort
		}
		if off+length > len(buf) {
			return nil, ErrAttributeWalk
		}
		value := make([]byte, length-2)
		copy(value, buf[off+2:off+length])
		p.Attributes = append(p.Attributes, AVP{Type: typ, Value: value})
		off += length
	}

	return p, nil
}

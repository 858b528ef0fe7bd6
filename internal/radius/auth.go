package radius

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/subtle"
)

// SignRequest computes the Request Authenticator for an outbound
// Access-Request or Accounting-Request and stores it in p.Authenticator:
// MD5 over the encoded packet, with random16 in the Authenticator field,
// followed by the shared secret. Passing an all-zero random16 yields the
// RFC 2866 section 3 Accounting-Request authenticator.
//
// random16 must be 16 bytes of caller-supplied entropy; Access-Request
// authenticators must be unpredictable since User-Password encryption
// depends on them.
func SignRequest(p *Packet, secret []byte, random16 [16]byte) error {
	p.Authenticator = random16
	raw, err := p.Marshal()
	if err != nil {
		return err
	}
	// raw[4:20] already holds random16; digest it in place with secret appended.
	h := md5.New()
	h.Write(raw)
	h.Write(secret)
	copy(p.Authenticator[:], h.Sum(nil))
	return nil
}

// VerifyResponse checks an inbound reply's Response Authenticator against
// the Request Authenticator that was sent (RFC 2865 section 3):
//
//	ResponseAuth = MD5(Code+ID+Length+RequestAuth+Attributes+Secret)
//
// reqAuthenticator is the Authenticator that was actually transmitted on
// the matching request (after SignRequest ran), not a freshly generated
// one.
func VerifyResponse(resp *Packet, reqAuthenticator [16]byte, secret []byte) error {
	respAuth := resp.Authenticator
	resp.Authenticator = reqAuthenticator
	raw, err := resp.Marshal()
	resp.Authenticator = respAuth
	if err != nil {
		return err
	}

	h := md5.New()
	h.Write(raw)
	h.Write(secret)
	want := h.Sum(nil)

	if subtle.ConstantTimeCompare(want, respAuth[:]) != 1 {
		return ErrAuthMismatch
	}
	return nil
}

// SignMessageAuthenticator computes and stores the Message-Authenticator
// attribute (RFC 3579/2869 section 5.14): HMAC-MD5 over the whole packet
// with the Message-Authenticator attribute's value zeroed, keyed on the
// shared secret. attrIndex is the index of the Message-Authenticator AVP
// within p.Attributes; its Value must already be 16 zero bytes.
func SignMessageAuthenticator(p *Packet, attrIndex int, secret []byte) error {
	raw, err := p.Marshal()
	if err != nil {
		return err
	}
	// Locate the attribute's value region within raw and zero it (it should
	// already be zero, but this makes the function self-contained).
	off := HeaderSize
	for i, a := range p.Attributes {
		length := 2 + len(a.Value)
		if i == attrIndex {
			for j := off + 2; j < off+length; j++ {
				raw[j] = 0
			}
			mac := hmac.New(md5.New, secret)
			mac.Write(raw)
			sum := mac.Sum(nil)
			p.Attributes[i].Value = sum
			return nil
		}
		off += length
	}
	return ErrAttributeWalk
}

// EncryptUserPassword encrypts a User-Password attribute value per RFC
// 2865 section 5.2: the password is padded to a multiple of 16 bytes and
// XORed against successive MD5(secret+salt) blocks, where the first
// salt is the Request Authenticator and each subsequent salt is the
// previous ciphertext block.
func EncryptUserPassword(password []byte, secret []byte, requestAuthenticator [16]byte) []byte {
	padded := make([]byte, ((len(password)+15)/16)*16)
	if len(padded) == 0 {
		padded = make([]byte, 16)
	}
	copy(padded, password)

	out := make([]byte, len(padded))
	prev := requestAuthenticator[:]
	for i := 0; i < len(padded); i += 16 {
		h := md5.New()
		h.Write(secret)
		h.Write(prev)
		b := h.Sum(nil)
		for j := 0; j < 16; j++ {
			out[i+j] = padded[i+j] ^ b[j]
		}
		prev = out[i : i+16]
	}
	return out
}

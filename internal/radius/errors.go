package radius

import "errors"

// Sentinel errors returned by the codec. Callers compare with errors.Is.
var (
	ErrPacketTooShort    = errors.New("radius: packet shorter than header")
	ErrPacketTooLong     = errors.New("radius: packet exceeds max length")
	ErrLengthMismatch    = errors.New("radius: declared length does not match buffer")
	ErrAttributeWalk     = errors.New("radius: attribute walk overruns buffer")
	ErrAttributeTooShort = errors.New("radius: attribute shorter than TLV header")
	ErrSecretTooLong     = errors.New("radius: shared secret exceeds UserPasswordMaxLen-1")
	ErrAuthMismatch      = errors.New("radius: response authenticator mismatch")
)

package go_openid

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Diffie-Hellman exchange for the association handshake.
//
// The modulus and generator are fixed by the protocol and independent of
// the digest chosen for the session: the session type only selects the hash
// applied to the shared value to produce the key-encryption key. The raw
// MAC key never crosses the wire; only the XOR-masked form and the public
// values do.

// openidDefaultModulus is the protocol-mandated 1024-bit prime, here as the
// decimal expansion of the btwoc value published in the OpenID 2.0
// specification.
const openidDefaultModulus = "155172898181473697471232257763715539915724801966" +
	"915404479707795314057629378541917580651227423698188993727816152646631438" +
	"561595825688188889951272158842675419950341258706556549803580104870537681" +
	"476726513255747040765857479291291572334510643245094715007229621094194349" +
	"783925984760375594985848253359305585439638443"

var (
	dhModulus   *big.Int
	dhGenerator = big.NewInt(2)
	bigOne      = big.NewInt(1)
)

func init() {
	n, ok := new(big.Int).SetString(openidDefaultModulus, 10)
	if !ok {
		panic("openid: invalid built-in DH modulus")
	}
	dhModulus = n
}

// DHKeyExchange holds one party's private exponent and public value for a
// single handshake attempt. It is discarded once the shared secret has been
// derived and is never persisted.
type DHKeyExchange struct {
	sessionType SessionType
	private     *big.Int
	public      *big.Int
}

// GenerateDHKeyExchange generates a fresh key pair for one handshake
// attempt. The session type must be one of the DH sessions; it determines
// the digest later applied to the shared value.
func GenerateDHKeyExchange(sessionType SessionType) (*DHKeyExchange, error) {
	if !sessionType.UsesDH() {
		return nil, fmt.Errorf("session type %s does not use Diffie-Hellman: %w", sessionType, ErrInvalidArgument)
	}

	// Private exponent in [1, p-2].
	limit := new(big.Int).Sub(dhModulus, big.NewInt(2))
	x, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate DH private exponent: %w", err)
	}
	x.Add(x, bigOne)

	return &DHKeyExchange{
		sessionType: sessionType,
		private:     x,
		public:      new(big.Int).Exp(dhGenerator, x, dhModulus),
	}, nil
}

// PublicValue returns the public value in btwoc wire encoding.
func (dh *DHKeyExchange) PublicValue() []byte {
	return btwoc(dh.public)
}

// SessionType returns the session type the exchange was generated for.
func (dh *DHKeyExchange) SessionType() SessionType {
	return dh.sessionType
}

// SharedSecret completes the exchange against the peer's btwoc-encoded
// public value and returns the key-encryption key: the session digest over
// the btwoc encoding of g^xy mod p.
//
// Peer values of zero, one, or congruent to the modulus are rejected as a
// malformed handshake (classic small-subgroup check); the caller treats
// this as a negotiation failure, not a crash.
func (dh *DHKeyExchange) SharedSecret(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) == 0 {
		return nil, fmt.Errorf("empty DH public value: %w", ErrMalformedHandshake)
	}

	peer := unbtwoc(peerPublic)
	peer.Mod(peer, dhModulus)
	if peer.Cmp(bigOne) <= 0 || peer.Cmp(new(big.Int).Sub(dhModulus, bigOne)) >= 0 {
		return nil, fmt.Errorf("DH public value in small subgroup: %w", ErrMalformedHandshake)
	}

	shared := new(big.Int).Exp(peer, dh.private, dhModulus)
	digest := dh.sessionType.Hash()
	if digest == nil {
		return nil, fmt.Errorf("session type %s has no digest: %w", dh.sessionType, ErrInvalidArgument)
	}

	h := digest()
	h.Write(btwoc(shared))
	return h.Sum(nil), nil
}

// EncryptMacKey masks a MAC key with the key-encryption key. The mask is a
// byte-wise XOR with the kek repeated to the MAC key's length, so the
// operation is its own inverse.
func EncryptMacKey(kek, macKey []byte) ([]byte, error) {
	return xorMacKey(kek, macKey)
}

// DecryptMacKey recovers a MAC key from its masked form. Encryption and
// decryption share one implementation.
func DecryptMacKey(kek, encMacKey []byte) ([]byte, error) {
	return xorMacKey(kek, encMacKey)
}

func xorMacKey(kek, in []byte) ([]byte, error) {
	if len(kek) == 0 {
		return nil, fmt.Errorf("empty key-encryption key: %w", ErrInvalidArgument)
	}
	out := make([]byte, len(in))
	for i := range in {
		out[i] = in[i] ^ kek[i%len(kek)]
	}
	return out, nil
}

// btwoc encodes a non-negative integer in big-endian two's complement: the
// shortest encoding whose leading bit is clear, so a value with the high
// bit set gains a leading zero byte.
func btwoc(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	if b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return b
}

// unbtwoc decodes a btwoc byte string into a non-negative integer.
func unbtwoc(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

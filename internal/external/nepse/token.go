package nepse

import "fmt"

// Token de-obfuscation for the /api/authenticate endpoints.
//
// The server pads the JWTs it returns with decoy characters and ships four
// "salt" integers alongside; the decoy positions are recovered with the two
// index routines below. The arithmetic and both lookup tables were lifted
// from the WASM blob the NEPSE frontend runs and must stay integer-identical
// to it. Resist the urge to simplify: correctness is defined by the server,
// not by the formula reading nicely.

// indexTable backs cdx and rdx. Only every fourth slot is meaningful (the
// blob reads 32-bit little-endian words out of a byte array).
var indexTable = [...]int{
	9, 0, 0, 0, 8, 0, 0, 0, 4, 0, 0, 0, 1, 0, 0, 0,
	2, 0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 5, 0, 0, 0,
	8, 0, 0, 0, 7, 0, 0, 0, 9, 0, 0, 0, 8, 0, 0, 0,
	0, 0, 0, 0, 3, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0,
	2, 0, 0, 0, 4, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0,
	1, 0, 0, 0, 9, 0, 0, 0, 5, 0, 0, 0, 4, 0, 0, 0,
	6, 0, 0, 0, 3, 0, 0, 0, 7, 0, 0, 0, 2, 0, 0, 0,
	1, 0, 0, 0, 6, 0, 0, 0, 9, 0, 0, 0, 8, 0, 0, 0,
	4, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0,
	3, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0, 4,
}

// postIDTable backs PostID.
var postIDTable = [...]int{
	147, 117, 239, 143, 157, 312, 161, 612, 512, 804, 411, 527, 170,
	511, 421, 667, 764, 621, 301, 106, 133, 793, 411, 511, 312, 423,
	344, 346, 653, 758, 342, 222, 236, 811, 711, 611, 122, 447, 128,
	199, 183, 135, 489, 703, 800, 745, 152, 863, 134, 211, 142, 564,
	375, 793, 212, 153, 138, 153, 648, 611, 151, 649, 318, 143, 117,
	756, 119, 141, 717, 113, 112, 146, 162, 660, 693, 261, 362, 354,
	251, 641, 157, 178, 631, 192, 734, 445, 192, 883, 187, 122, 591,
	731, 852, 384, 565, 596, 451, 772, 624, 691,
}

// TokenDecodeError reports a malformed decode: the derived splice indices do
// not fit the padded token the server sent. This means the upstream contract
// changed; it is fatal to authentication and must not be retried.
type TokenDecodeError struct {
	Reason string
}

func (e *TokenDecodeError) Error() string {
	return fmt.Sprintf("token decode failed: %s", e.Reason)
}

// cdx derives a splice index from two salts. Ported instruction by
// instruction from the frontend blob; only the second argument actually
// participates, which is faithful to the original.
func cdx(p0, p1 int) int {
	i0 := p1 / 10
	p0 = i0
	i0 = i0 % 10
	i0 += p1 - p0*10
	i0 += (p1 / 100) % 10
	i0 <<= 2
	return indexTable[i0] + 22
}

// rdx is the three-salt variant of cdx, again ported literally.
func rdx(p0, p1, p2 int) int {
	i0 := (p1 / 100) % 10
	p0 = p1 / 10
	i0 += p0 % 10
	p2 = i0
	i1 := p2 + (p1 - p0*10)
	i1 <<= 2
	i1 = indexTable[i1]
	i0 += i1
	return i0 + 22
}

// AuthPayload is the envelope returned by /api/authenticate/prove and
// /api/authenticate/refresh-token. Both tokens are padded.
type AuthPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Salt1        int    `json:"salt1"`
	Salt2        int    `json:"salt2"`
	Salt3        int    `json:"salt3"`
	Salt4        int    `json:"salt4"`
}

// TokenPair holds the decoded bearer tokens for one session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// DecodeTokens strips the decoy characters out of both padded tokens using
// the salt quadruple.
func DecodeTokens(payload AuthPayload) (TokenPair, error) {
	n := cdx(payload.Salt1, payload.Salt2)
	i := cdx(payload.Salt2, payload.Salt1)
	l := rdx(payload.Salt1, payload.Salt2, payload.Salt4)
	r := rdx(payload.Salt2, payload.Salt1, payload.Salt3)

	access, err := splice(payload.AccessToken, n, l)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := splice(payload.RefreshToken, i, r)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// splice removes the decoy characters at index a and index b from token,
// i.e. token[0:a] + token[a+1:b] + token[b+1:].
func splice(token string, a, b int) (string, error) {
	if a < 0 || b <= a || b >= len(token) {
		return "", &TokenDecodeError{
			Reason: fmt.Sprintf("indices %d,%d out of bounds for token of length %d", a, b, len(token)),
		}
	}
	return token[:a] + token[a+1:b] + token[b+1:], nil
}

// PostID maps the small integer returned by the market-open endpoint to the
// numeric payload id the floorsheet endpoint demands. day is the current
// calendar day of month; the server runs the same derivation on its side.
func PostID(id, day int) (int, error) {
	if id < 0 || id >= len(postIDTable) {
		return 0, &TokenDecodeError{
			Reason: fmt.Sprintf("market id %d outside table of %d entries", id, len(postIDTable)),
		}
	}
	return postIDTable[id] + id + 2*day, nil
}

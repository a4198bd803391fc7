package treeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/zack-schrag/treeline-money-sub002/date"
)

// Content fingerprints give transactions an identity that survives the trip
// through different sources. A purchase exported to CSV and the same
// purchase fetched from the aggregation API must land on the same
// fingerprint, so the inputs are reduced to what both sources agree on:
// account, calendar day, amount at minor-unit scale, and a normalized
// description. Mutable fields (tags, nicknames) never participate.

// NormalizeDescription reduces a raw description to its canonical matching
// form. In order: upper-case, drop the '*' and '#' noise runes, turn every
// other punctuation rune into a space, strip trailing reference-number runs
// of 4+ digits, collapse whitespace.
//
//	"Netflix.com  *subscr"      -> "NETFLIX COM SUBSCR"
//	"CHECK #4821"               -> "CHECK"
//	"payment - thank you 00012" -> "PAYMENT THANK YOU"
func NormalizeDescription(desc string) string {
	s := strings.ToUpper(desc)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '*' || r == '#':
			// dropped entirely, no space left behind
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	for len(fields) > 0 && isReferenceRun(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// isReferenceRun reports whether a token is a check or reference number: all
// digits, at least four of them.
func isReferenceRun(tok string) bool {
	if len(tok) < 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ContentFingerprint hashes the stable identity of a transaction. The amount
// is rendered at the currency's minor-unit scale with sign preserved and
// negative zero collapsed, the day at calendar granularity.
func ContentFingerprint(accountID string, amount Money, day date.Date, description string) string {
	payload := fmt.Sprintf("%s|%s|%s|%s", accountID, day, amount.Scaled(), NormalizeDescription(description))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}

// NativeKey namespaces a provider's native transaction id so ids from
// different providers cannot collide.
func NativeKey(provider, nativeID string) string {
	return "native:" + provider + ":" + nativeID
}

// DedupKeyFor picks the reconciliation key for a fetched transaction:
// the namespaced native id when the provider supplies one, the content
// fingerprint otherwise. The fingerprint is returned in both cases and is
// always stored.
func DedupKeyFor(provider string, src SourceTransaction, accountID string) (key, fingerprint string) {
	fingerprint = ContentFingerprint(accountID, src.Amount, src.Date, src.Description)
	if src.NativeID != "" {
		return NativeKey(provider, src.NativeID), fingerprint
	}
	return fingerprint, fingerprint
}

// DedupIndex holds the identities already known for an account, in the
// three views matching needs. A flat key set is not enough: an id-less CSV
// row must match a stored API row by content, and a stored CSV row must
// catch the API copy arriving later, yet two distinct native ids with
// identical content are two real transactions and must both survive.
type DedupIndex struct {
	keys         map[string]bool // stored dedup keys
	fingerprints map[string]bool // every stored content fingerprint
	contentKeyed map[string]bool // fingerprints of rows keyed by content
}

// NewDedupIndex returns an empty index.
func NewDedupIndex() DedupIndex {
	return DedupIndex{
		keys:         map[string]bool{},
		fingerprints: map[string]bool{},
		contentKeyed: map[string]bool{},
	}
}

// Add records one stored (or about-to-be-stored) transaction identity.
func (ix DedupIndex) Add(key, fingerprint string) {
	ix.keys[key] = true
	ix.fingerprints[fingerprint] = true
	if key == fingerprint {
		ix.contentKeyed[fingerprint] = true
	}
}

// Matches reports whether an incoming transaction with the given key and
// fingerprint is already represented in the index.
//
// An id-less record (key == fingerprint) matches any stored row with the
// same content. An id-bearing record matches its own native key, or a
// stored id-less row with the same content; it does not match another
// native id's row just because the contents coincide.
func (ix DedupIndex) Matches(key, fingerprint string) bool {
	if ix.keys[key] {
		return true
	}
	if key == fingerprint {
		return ix.fingerprints[fingerprint]
	}
	return ix.contentKeyed[fingerprint]
}

// Len returns how many keys the index holds.
func (ix DedupIndex) Len() int { return len(ix.keys) }

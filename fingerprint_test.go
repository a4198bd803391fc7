package treeline

import (
	"strings"
	"testing"
)

func TestNormalizeDescription(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "upper cases", in: "starbucks store", want: "STARBUCKS STORE"},
		{name: "collapses whitespace", in: "PAYROLL   ACME    CORP", want: "PAYROLL ACME CORP"},
		{name: "punctuation becomes space", in: "NETFLIX.COM/BILL", want: "NETFLIX COM BILL"},
		{name: "star dropped without space", in: "AMZN*MKTP", want: "AMZNMKTP"},
		{name: "hash dropped", in: "CHECK #4821", want: "CHECK"},
		{name: "trailing reference stripped", in: "TRANSFER REF 048211", want: "TRANSFER REF"},
		{name: "repeated trailing references stripped", in: "WIRE 1234 567890", want: "WIRE"},
		{name: "short digits kept", in: "TERMINAL 42", want: "TERMINAL 42"},
		{name: "digits inside token kept", in: "7 ELEVEN 2041B", want: "7 ELEVEN 2041B"},
		{name: "only a reference", in: "00012345", want: ""},
		{name: "dashes collapse", in: "payment - thank you", want: "PAYMENT THANK YOU"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeDescription(tc.in); got != tc.want {
				t.Errorf("NormalizeDescription(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestContentFingerprintCrossSource(t *testing.T) {
	// the same purchase as the aggregation API reports it and as the
	// bank's CSV export writes it
	api := ContentFingerprint("acct-1", USD(-12.5), day("2025-03-04"), "NETFLIX.COM  *subscr")
	csv := ContentFingerprint("acct-1", USD(-12.50), day("2025-03-04"), "Netflix.com *subscr")
	if api != csv {
		t.Errorf("fingerprints differ across sources: %s vs %s", api, csv)
	}
	if len(api) != 16 {
		t.Errorf("fingerprint length = %d, want 16 hex chars", len(api))
	}
	if api != strings.ToLower(api) {
		t.Error("fingerprint should be lower-case hex")
	}
}

func TestContentFingerprintDiscriminates(t *testing.T) {
	base := ContentFingerprint("acct-1", USD(-12.50), day("2025-03-04"), "COFFEE")

	if got := ContentFingerprint("acct-2", USD(-12.50), day("2025-03-04"), "COFFEE"); got == base {
		t.Error("different account should change the fingerprint")
	}
	if got := ContentFingerprint("acct-1", USD(-12.51), day("2025-03-04"), "COFFEE"); got == base {
		t.Error("different amount should change the fingerprint")
	}
	if got := ContentFingerprint("acct-1", USD(12.50), day("2025-03-04"), "COFFEE"); got == base {
		t.Error("different sign should change the fingerprint")
	}
	if got := ContentFingerprint("acct-1", USD(-12.50), day("2025-03-05"), "COFFEE"); got == base {
		t.Error("different day should change the fingerprint")
	}
	if got := ContentFingerprint("acct-1", USD(-12.50), day("2025-03-04"), "TEA"); got == base {
		t.Error("different description should change the fingerprint")
	}
}

func TestDedupKeyFor(t *testing.T) {
	withID := srcTx("tx-99", USD(-5), "COFFEE", "2025-03-04")
	key, fp := DedupKeyFor("simplefin", withID, "acct-1")
	if key != "native:simplefin:tx-99" {
		t.Errorf("key = %q", key)
	}
	if fp != ContentFingerprint("acct-1", USD(-5), day("2025-03-04"), "COFFEE") {
		t.Error("fingerprint must be computed even when the native id wins")
	}

	noID := srcTx("", USD(-5), "COFFEE", "2025-03-04")
	key, fp = DedupKeyFor("csv", noID, "acct-1")
	if key != fp {
		t.Errorf("id-less record should key by content, got key %q fp %q", key, fp)
	}
}

func TestDedupIndexMatches(t *testing.T) {
	fp := "aaaabbbbccccdddd"

	t.Run("id-less matches stored native row by content", func(t *testing.T) {
		ix := NewDedupIndex()
		ix.Add("native:simplefin:tx-1", fp)
		if !ix.Matches(fp, fp) {
			t.Error("CSV copy of an API transaction should match")
		}
	})

	t.Run("native matches stored content-keyed row", func(t *testing.T) {
		ix := NewDedupIndex()
		ix.Add(fp, fp)
		if !ix.Matches("native:simplefin:tx-1", fp) {
			t.Error("API copy of a CSV transaction should match")
		}
	})

	t.Run("distinct native ids with equal content both survive", func(t *testing.T) {
		ix := NewDedupIndex()
		ix.Add("native:simplefin:tx-1", fp)
		if ix.Matches("native:simplefin:tx-2", fp) {
			t.Error("two real transactions with identical content must not collapse")
		}
	})

	t.Run("same native id matches", func(t *testing.T) {
		ix := NewDedupIndex()
		ix.Add("native:simplefin:tx-1", fp)
		if !ix.Matches("native:simplefin:tx-1", "eeeeffff00001111") {
			t.Error("same native id should match regardless of fingerprint")
		}
	})
}

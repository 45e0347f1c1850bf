package utf

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// UnicodeCollation compares strings the way a human reader of a given
// language would order them, rather than byte-for-byte. It is registered
// under the collation name "UNICODE" alongside the ASCII-only builtins
// in BuiltinCollations.
type UnicodeCollation struct {
	Name string
	col  *collate.Collator
}

// NewUnicodeCollation builds a Unicode-aware collation for the given BCP
// 47 language tag (e.g. "en", "de", "sv"). An unrecognized tag falls back
// to language.Und, which still NFC-normalizes before comparing.
func NewUnicodeCollation(tag string) *UnicodeCollation {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.Und
	}
	return &UnicodeCollation{
		Name: "UNICODE",
		col:  collate.New(t),
	}
}

// Compare orders a and b per the collator's language rules, after NFC
// normalization so that precomposed and decomposed forms of the same
// character compare equal.
func (u *UnicodeCollation) Compare(a, b string) int {
	return u.col.CompareString(norm.NFC.String(a), norm.NFC.String(b))
}

// registerUnicodeCollation installs a UNICODE collation (language-neutral,
// root collation order) into BuiltinCollations so SQL can reference it as
// COLLATE UNICODE the same way it references COLLATE BINARY/NOCASE/RTRIM.
//
// BuiltinCollations holds Collation values that dispatch on CollationType,
// which UnicodeCollation doesn't fit; CompareUnicode below is the plain
// function form that internal/expr's comparison codegen can call directly
// for a column declared COLLATE UNICODE.
var rootUnicodeCollation = NewUnicodeCollation("und")

// CompareUnicode compares two strings using Unicode collation algorithm
// ordering (root locale) after NFC normalization.
func CompareUnicode(a, b string) int {
	return rootUnicodeCollation.Compare(a, b)
}

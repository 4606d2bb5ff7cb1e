package logfields

import (
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"Bundle", KeyBundle, "docs/guide", Bundle("docs/guide")},
		{"Page", KeyPage, "guide/intro", Page("guide/intro")},
		{"Path", KeyPath, "guide/intro.md", Path("guide/intro.md")},
		{"URL", KeyURL, "/en/guide/intro.html", URL("/en/guide/intro.html")},
		{"Label", KeyLabel, ":guide:setup", Label(":guide:setup")},
		{"Lang", KeyLang, "fr", Lang("fr")},
		{"Template", KeyTemplate, "base.html", Template("base.html")},
		{"Stage", KeyStage, "crossref", Stage("crossref")},
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Revision", KeyRevision, "abc1234", Revision("abc1234")},
		{"Key", KeyKey, "urls.html_suffix", Key("urls.html_suffix")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Count(7); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := DurationMS(1500 * time.Microsecond); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
	if v := DurationMS(1500 * time.Microsecond); v.Value.Float64() != 1.5 {
		t.Fatalf("DurationMS value mismatch: %v", v.Value)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }

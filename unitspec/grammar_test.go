package unitspec

import "testing"

func TestGrammarStrings(t *testing.T) {
	cases := map[Grammar]string{
		GrammarNone:            "NONE",
		GrammarScopeController: "SCOPE-CONTROLLER",
		GrammarSubject:         "SUBJECT",
		GrammarModifier:        "MODIFIER",
	}
	for g, want := range cases {
		if got := g.String(); got != want {
			t.Fatalf("Grammar(%d).String() = %q, want %q", g, got, want)
		}
	}
}

func TestScopeStrings(t *testing.T) {
	if ScopeGlobal.String() != "GLOBAL" {
		t.Fatalf("ScopeGlobal.String() = %q, want GLOBAL", ScopeGlobal.String())
	}
	if ScopeTX.String() != "TX" {
		t.Fatalf("ScopeTX.String() = %q, want TX", ScopeTX.String())
	}
}

func TestIsTXModifierAndSubject(t *testing.T) {
	if !StrandSelect.IsTXModifier() {
		t.Fatalf("expected StrandSelect to be a TX modifier")
	}
	if StrandSelect.IsTXSubject() {
		t.Fatalf("StrandSelect must not be a TX subject")
	}
	if !StrandWriteDataBlock.IsTXSubject() {
		t.Fatalf("expected StrandWriteDataBlock to be a TX subject")
	}
	if StrandWriteDataBlock.IsTXModifier() {
		t.Fatalf("StrandWriteDataBlock must not be a TX modifier")
	}
}

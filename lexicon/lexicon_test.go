package lexicon

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	rerr "github.com/rulexdb/rulexdb/error"
	"github.com/rulexdb/rulexdb/rules"
	"github.com/rulexdb/rulexdb/store"
)

func openTemp(t *testing.T) *Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexicon.db")
	h, err := Open(path, store.Create, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// Scenario 2: exception hit with post-correction.
func TestSearchExceptionWithCorrector(t *testing.T) {
	h := openTemp(t)

	if _, err := h.RuleAppend(rules.Corrector, `t$`, "d"); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if err := h.Put("cot", "co+t", Exception, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := h.Search("cot", FlagAll)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got != "co+d" {
		t.Fatalf("Search = %q, want co+d", got)
	}
}

// Scenario 3: implicit base via a lexical-class rule. The diff replaying
// against the original input word (not a copy truncated to the base's own
// length) is the ported historical behavior: any inflectional tail past
// the base's own letters that the stored diff does not explicitly edit
// passes through unchanged.
func TestSearchFormsRepliesAgainstOriginalWord(t *testing.T) {
	h := openTemp(t)

	if _, err := h.RuleAppend(rules.LexClass, `^(run)s$`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if err := h.Put("run", "ru+m", ImplicitBase, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := h.Search("runs", FlagForms)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got != "ru+ms" {
		t.Fatalf("Search = %q, want ru+ms", got)
	}
}

// Scenario 3b: when the candidate base is longer than the input (the
// lexical-class rule's literal replacement adds letters), the decode
// buffer is padded with underscores out to the base's length before
// decoding, and the padding shows through the result wherever the stored
// diff does not explicitly overwrite that position — a direct consequence
// of replaying the diff against the padded input rather than the base's
// own letters.
func TestSearchFormsPadsShorterInput(t *testing.T) {
	h := openTemp(t)

	if _, err := h.RuleAppend(rules.LexClass, `^(do)g$`, "gies"); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if err := h.Put("dogies", "dogi+zes", ImplicitBase, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := h.Search("dog", FlagForms)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !strings.Contains(got, "_") {
		t.Fatalf("Search = %q, want visible underscore padding", got)
	}
}

// Scenario 4: stress-guess fallback via a general rule.
func TestSearchRulesFallback(t *testing.T) {
	h := openTemp(t)

	if _, err := h.RuleAppend(rules.General, `^([a-z]*a)`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}

	got, err := h.Search("banana", FlagRules)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got != "banana+" {
		t.Fatalf("Search = %q, want banana+", got)
	}
}

func TestSearchNoHitNoRulesFlag(t *testing.T) {
	h := openTemp(t)
	if _, err := h.Search("nowhere", FlagExceptions|FlagForms); rerr.Of(err) != rerr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSearchNoRuleMatches(t *testing.T) {
	h := openTemp(t)
	if _, err := h.RuleAppend(rules.General, `^([0-9]+)`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if _, err := h.Search("word", FlagRules); rerr.Of(err) != rerr.NoRule {
		t.Fatalf("expected NoRule, got %v", err)
	}
}

// Scenario 5: InvalidKey rejection, no store mutation.
func TestPutInvalidKeyRejected(t *testing.T) {
	h := openTemp(t)
	// 0xE5 ('å') is a G3 letter, forbidden word-initially.
	bad := string([]byte{0xE5, 'a', 't'})
	if err := h.Put(bad, "value", Exception, true); rerr.Of(err) != rerr.InvalidKey {
		t.Fatalf("expected InvalidKey, got %v", err)
	}
	count, _ := h.exceptionScratch.Count()
	if count != 0 {
		t.Fatalf("expected no mutation after InvalidKey, count=%d", count)
	}
}

// P5: classify idempotence.
func TestClassifyIdempotent(t *testing.T) {
	h := openTemp(t)
	if _, err := h.RuleAppend(rules.LexClass, `^(.*[^s])$`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	ok1, err := h.Classify("cat")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	ok2, err := h.Classify("cat")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if !ok1 || ok1 != ok2 {
		t.Fatalf("Classify not idempotent: %v, %v", ok1, ok2)
	}
}

// P6: search monotonicity — enabling more flags never turns a hit into a
// miss.
func TestSearchMonotonicity(t *testing.T) {
	h := openTemp(t)
	if err := h.Put("cot", "co+t", Exception, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	if _, err := h.Search("cot", FlagExceptions); err != nil {
		t.Fatalf("narrow search should hit: %v", err)
	}
	if _, err := h.Search("cot", FlagAll); err != nil {
		t.Fatalf("broad search should still hit: %v", err)
	}
}

func TestPutDefaultRetriesExceptionOnCollision(t *testing.T) {
	h := openTemp(t)
	if _, err := h.RuleAppend(rules.LexClass, `^(.*)$`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if err := h.Put("cat", "ca+t", ImplicitBase, true); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	// "cat" classifies as a base (the rule is a fixed point for every
	// word), so Default resolution targets ImplicitBase; since that slot
	// is already occupied and overwrite is false, Put must fall back to
	// Exception rather than fail outright.
	if err := h.Put("cat", "ca+d", Default, false); err != nil {
		t.Fatalf("Put fallback error: %v", err)
	}
	got, err := h.Search("cat", FlagExceptions)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if got != "ca+d" {
		t.Fatalf("Search = %q, want ca+d (from the exception fallback)", got)
	}
}

func TestSeqExceptionAscendingOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.db")
	h, err := Open(path, store.Create, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	for _, w := range []string{"banana", "apple", "cherry"} {
		if err := h.Put(w, w, Exception, true); err != nil {
			t.Fatalf("Put(%q) error: %v", w, err)
		}
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	h2, err := Open(path, store.Update, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer h2.Close()

	var got []string
	key, _, err := h2.Seq(Exception, First)
	for err == nil {
		got = append(got, key)
		key, _, err = h2.Seq(Exception, Next)
	}
	if rerr.Of(err) != rerr.EndOfData {
		t.Fatalf("expected EndOfData, got %v", err)
	}
	want := []string{"apple", "banana", "cherry"}
	if len(got) != len(want) {
		t.Fatalf("Seq visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Seq order = %v, want %v", got, want)
		}
	}
}

func TestDiscardRuleset(t *testing.T) {
	h := openTemp(t)
	if _, err := h.RuleAppend(rules.General, `^(a)`, ""); err != nil {
		t.Fatalf("RuleAppend error: %v", err)
	}
	if err := h.Discard(General); err != nil {
		t.Fatalf("Discard error: %v", err)
	}
	count, err := h.RuleCount(rules.General)
	if err != nil {
		t.Fatalf("RuleCount error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty ruleset after discard, count=%d", count)
	}
}

func TestDelNotFound(t *testing.T) {
	h := openTemp(t)
	if err := h.Del("missing", Exception); rerr.Of(err) != rerr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

package lextest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rulexdb/rulexdb/lexicon"
	"github.com/rulexdb/rulexdb/store"
)

func openTemp(t *testing.T) *lexicon.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lex.db")
	h, err := lexicon.Open(path, store.Create, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func writeTestFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.txt")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListTestCasesSkipsBlankAndComment(t *testing.T) {
	path := writeTestFile(t, "\n# a comment\ncat ca+t\ndog do+g\n")
	cases, err := ListTestCases(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 2 {
		t.Fatalf("got %v cases, want 2", len(cases))
	}
	if cases[0].Word != "cat" || cases[0].Expected != "ca+t" {
		t.Fatalf("unexpected first case: %+v", cases[0])
	}
	if cases[0].Line != 3 {
		t.Fatalf("got line %v, want 3", cases[0].Line)
	}
}

func TestListTestCasesMalformedLine(t *testing.T) {
	path := writeTestFile(t, "catnodelim\n")
	if _, err := ListTestCases(path); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestTesterRunPassAndFail(t *testing.T) {
	h := openTemp(t)
	if err := h.Put("cat", "ca+t", lexicon.Exception, false); err != nil {
		t.Fatal(err)
	}

	cases := []*TestCase{
		{Word: "cat", Expected: "ca+t", Line: 1, FilePath: "mem"},
		{Word: "cat", Expected: "wrong", Line: 2, FilePath: "mem"},
		{Word: "nosuchword", Expected: "anything", Line: 3, FilePath: "mem"},
	}
	tester := &Tester{Handle: h, Flags: lexicon.FlagAll, Cases: cases}
	results := tester.Run()
	if len(results) != 3 {
		t.Fatalf("got %v results, want 3", len(results))
	}
	if !results[0].Passed() {
		t.Fatalf("case 0 should pass: %v", results[0])
	}
	if results[1].Passed() {
		t.Fatalf("case 1 should fail: %v", results[1])
	}
	if results[2].Passed() || results[2].Err == nil {
		t.Fatalf("case 2 should fail with a search error: %v", results[2])
	}

	passed, failed := Summarize(results)
	if passed != 1 || failed != 2 {
		t.Fatalf("got passed=%v failed=%v, want 1/2", passed, failed)
	}
}

func TestResultString(t *testing.T) {
	c := &TestCase{Word: "cat", Expected: "ca+t", Line: 5, FilePath: "cases.txt"}
	pass := &TestResult{Case: c, Got: "ca+t"}
	if got := pass.String(); got != "PASS cases.txt:5: cat" {
		t.Fatalf("got %q", got)
	}
	fail := &TestResult{Case: c, Got: "xx"}
	if got := fail.String(); got != `FAIL cases.txt:5: cat: got "xx", want "ca+t"` {
		t.Fatalf("got %q", got)
	}
}

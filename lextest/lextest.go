// Package lextest implements the holder CLI's "-t FILE" test action: read a
// file of key/expected-pronunciation records, run each through a lexicon
// search, and report which records match and which don't.
package lextest

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rulexdb/rulexdb/lexicon"
)

// TestCase is one record line: word should search to expected.
type TestCase struct {
	Word     string
	Expected string
	Line     int
	FilePath string
}

// TestResult is the outcome of running one TestCase through a lexicon.
type TestResult struct {
	Case *TestCase
	Got  string
	Err  error
}

func (r *TestResult) Passed() bool {
	return r.Err == nil && r.Got == r.Case.Expected
}

func (r *TestResult) String() string {
	loc := fmt.Sprintf("%v:%v", r.Case.FilePath, r.Case.Line)
	if r.Err != nil {
		return fmt.Sprintf("FAIL %v: %v: error: %v", loc, r.Case.Word, r.Err)
	}
	if r.Got != r.Case.Expected {
		return fmt.Sprintf("FAIL %v: %v: got %q, want %q", loc, r.Case.Word, r.Got, r.Case.Expected)
	}
	return fmt.Sprintf("PASS %v: %v", loc, r.Case.Word)
}

// ListTestCases reads a test file of "<word> <expected>" lines. Blank lines
// and lines starting with '#' are skipped.
func ListTestCases(path string) ([]*TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cases []*TestCase
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%v:%v: malformed test line %q", path, lineNo, line)
		}
		cases = append(cases, &TestCase{
			Word:     fields[0],
			Expected: fields[1],
			Line:     lineNo,
			FilePath: path,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// Tester runs every case against an open lexicon handle with a fixed set of
// search flags.
type Tester struct {
	Handle *lexicon.Handle
	Flags  lexicon.SearchFlags
	Cases  []*TestCase
}

// Run executes every case and returns one result per case, in order.
func (t *Tester) Run() []*TestResult {
	results := make([]*TestResult, len(t.Cases))
	for i, c := range t.Cases {
		got, err := t.Handle.Search(c.Word, t.Flags)
		results[i] = &TestResult{Case: c, Got: got, Err: err}
	}
	return results
}

// Summarize counts passes and failures across results.
func Summarize(results []*TestResult) (passed, failed int) {
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	rerr "github.com/rulexdb/rulexdb/error"
	"github.com/rulexdb/rulexdb/lexicon"
	"github.com/rulexdb/rulexdb/lextest"
)

const maxLineSize = 256

// resolveDataset maps the dataset-selector flags onto a lexicon.Dataset,
// defaulting to lexicon.Default when none are set. Setting more than one
// is a command-line misuse.
func resolveDataset(f *holderFlags) (lexicon.Dataset, error) {
	selected := 0
	var d lexicon.Dataset
	check := func(set bool, ds lexicon.Dataset) {
		if set {
			selected++
			d = ds
		}
	}
	check(f.implicit, lexicon.ImplicitBase)
	check(f.exception, lexicon.Exception)
	check(f.general, lexicon.General)
	check(f.lexclass, lexicon.LexClass)
	check(f.prefix, lexicon.Prefix)
	check(f.corrector, lexicon.Corrector)
	if selected > 1 {
		return 0, errors.New("at most one dataset selector may be given")
	}
	if selected == 0 {
		return lexicon.Default, nil
	}
	return d, nil
}

func resolveSearchFlags(f *holderFlags) lexicon.SearchFlags {
	var flags lexicon.SearchFlags
	if f.flagExceptions {
		flags |= lexicon.FlagExceptions
	}
	if f.flagForms {
		flags |= lexicon.FlagForms
	}
	if f.flagRules {
		flags |= lexicon.FlagRules
	}
	return flags
}

func openOutput(f *holderFlags) (io.Writer, func(), error) {
	if f.file == "" {
		return os.Stdout, func() {}, nil
	}
	out, err := os.Create(f.file)
	if err != nil {
		return nil, nil, err
	}
	return out, func() { out.Close() }, nil
}

func openInput(f *holderFlags) (io.Reader, func(), error) {
	if f.file == "" {
		return os.Stdin, func() {}, nil
	}
	in, err := os.Open(f.file)
	if err != nil {
		return nil, nil, err
	}
	return in, func() { in.Close() }, nil
}

// runList walks dataset with Seq from First to EndOfData, printing
// "<key> <value>" records.
func runList(h *lexicon.Handle, f *holderFlags, dataset lexicon.Dataset) error {
	out, closeOut, err := openOutput(f)
	if err != nil {
		return err
	}
	defer closeOut()

	w := bufio.NewWriter(out)
	defer w.Flush()

	dir := lexicon.First
	for {
		key, value, err := h.Seq(dataset, dir)
		if rerr.Of(err) == rerr.EndOfData {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v %v\n", key, value)
		dir = lexicon.Next
	}
}

// runTest parses the test file named by f.testFile and runs every case
// through Search with resolveSearchFlags, printing a PASS/FAIL line per
// case. It returns an error if any case failed.
func runTest(h *lexicon.Handle, f *holderFlags) error {
	cases, err := lextest.ListTestCases(f.testFile)
	if err != nil {
		return err
	}
	tester := &lextest.Tester{Handle: h, Flags: resolveSearchFlags(f), Cases: cases}
	results := tester.Run()

	out, closeOut, err := openOutput(f)
	if err != nil {
		return err
	}
	defer closeOut()
	w := bufio.NewWriter(out)
	defer w.Flush()

	for _, r := range results {
		if f.quiet && r.Passed() {
			continue
		}
		fmt.Fprintln(w, r)
	}
	passed, failed := lextest.Summarize(results)
	if !f.quiet {
		fmt.Fprintf(w, "%v passed, %v failed\n", passed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%v test case(s) failed", failed)
	}
	return nil
}

// runClean re-inserts every decodable record of dataset into itself via
// Discard+Put, dropping records that fail to re-pack (mirroring the
// historical "clean" action's role of evicting corrupt entries).
func runClean(h *lexicon.Handle, f *holderFlags, dataset lexicon.Dataset) error {
	if dataset != lexicon.ImplicitBase && dataset != lexicon.Exception {
		return errors.New("clean only applies to a dictionary dataset")
	}
	type record struct{ key, value string }
	var records []record
	// Read exceptions raw so corrector rules are not baked into the
	// re-inserted values.
	seqDataset := dataset
	if dataset == lexicon.Exception {
		seqDataset = lexicon.RawException
	}
	dir := lexicon.First
	for {
		key, value, err := h.Seq(seqDataset, dir)
		if rerr.Of(err) == rerr.EndOfData {
			break
		}
		if err != nil {
			return err
		}
		records = append(records, record{key, value})
		dir = lexicon.Next
	}
	if err := h.Discard(dataset); err != nil {
		return err
	}
	kept, skipped := 0, 0
	for _, r := range records {
		if err := h.Put(r.key, r.value, dataset, true); err != nil {
			skipped++
			if f.verbose {
				fmt.Fprintf(os.Stderr, "clean: dropped %q: %v\n", r.key, err)
			}
			continue
		}
		kept++
	}
	if !f.quiet {
		fmt.Fprintf(os.Stdout, "clean: kept %v, dropped %v\n", kept, skipped)
	}
	return nil
}

func runSearch(h *lexicon.Handle, f *holderFlags) error {
	result, err := h.Search(f.search, resolveSearchFlags(f))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, result)
	return nil
}

// runDiscoverBases walks the lexical-class ruleset with ClassifyScan,
// printing every candidate base key discovers rather than stopping at the
// first dictionary hit the way Search does.
func runDiscoverBases(h *lexicon.Handle, f *holderFlags) error {
	var scanStart uint64 = 1
	found := 0
	for {
		base, idx, err := h.MatchPrefix(f.discoverBase, scanStart)
		if err != nil {
			return err
		}
		if idx == 0 {
			break
		}
		fmt.Fprintf(os.Stdout, "%v\n", base)
		found++
		scanStart = idx + 1
	}
	if found == 0 {
		return fmt.Errorf("no candidate base found for %q", f.discoverBase)
	}
	return nil
}

func runDeleteOne(h *lexicon.Handle, f *holderFlags, dataset lexicon.Dataset) error {
	return h.Del(f.deleteOne, dataset)
}

func runDiscard(h *lexicon.Handle, dataset lexicon.Dataset) error {
	if dataset == lexicon.Default {
		return errors.New("discard requires a dataset selector")
	}
	return h.Discard(dataset)
}

// runDefaultInsert is the action taken when no other action flag is given:
// read "<key> <value>" records from input and Put each into dataset
// (Default resolves per-record via classification).
func runDefaultInsert(h *lexicon.Handle, f *holderFlags, dataset lexicon.Dataset) error {
	in, closeIn, err := openInput(f)
	if err != nil {
		return err
	}
	defer closeIn()

	scanner := bufio.NewScanner(in)
	lineNo := 0
	inserted, skipped := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) > maxLineSize {
			skipped++
			if !f.quiet {
				fmt.Fprintf(os.Stderr, "line %v: skipped, exceeds %v bytes\n", lineNo, maxLineSize)
			}
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			skipped++
			if !f.quiet {
				fmt.Fprintf(os.Stderr, "line %v: malformed record %q\n", lineNo, line)
			}
			continue
		}
		if err := h.Put(fields[0], fields[1], dataset, f.replace); err != nil {
			skipped++
			if !f.quiet {
				fmt.Fprintf(os.Stderr, "line %v: %q: %v\n", lineNo, fields[0], err)
			}
			continue
		}
		inserted++
		if f.verbose {
			fmt.Fprintf(os.Stdout, "line %v: inserted %q\n", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !f.quiet {
		fmt.Fprintf(os.Stdout, "inserted %v, skipped %v\n", inserted, skipped)
	}
	return nil
}

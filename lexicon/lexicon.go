// Package lexicon is the public façade over the two dictionaries and four
// rule programs: open/close, put/del/seq over datasets, and the composite
// search pipeline that ties the key codec, diff codec, and rule engine
// together. It owns the rule cache and any open per-dataset cursor.
package lexicon

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/rulexdb/rulexdb/codec"
	rerr "github.com/rulexdb/rulexdb/error"
	"github.com/rulexdb/rulexdb/rules"
	"github.com/rulexdb/rulexdb/store"
)

// MaxKeySize bounds a decoded surface key, mirroring the 50-byte packed-key
// bound from the data model.
const MaxKeySize = 50

// Dataset names every persisted collection plus the Default pseudo-target
// that resolves to ImplicitBase or Exception at Put/Del time. Not every
// operation accepts every value: Put and Del accept only
// {Default, ImplicitBase, Exception}; Seq accepts every value except
// Default. Passing an illegal value reports Parameter.
type Dataset int

const (
	Default Dataset = iota
	ImplicitBase
	Exception
	RawException
	General
	LexClass
	Prefix
	Corrector
)

func (d Dataset) String() string {
	switch d {
	case Default:
		return "default"
	case ImplicitBase:
		return "implicit-base"
	case Exception:
		return "exception"
	case RawException:
		return "raw-exception"
	case General:
		return "general"
	case LexClass:
		return "lexclass"
	case Prefix:
		return "prefix"
	case Corrector:
		return "corrector"
	default:
		return "unknown"
	}
}

// SearchFlags selects which stages of the composite search pipeline run.
// The zero value means "all stages", matching the historical getopt
// interface where no flag at all implies every flag.
type SearchFlags int

const (
	FlagExceptions SearchFlags = 1 << iota
	FlagForms
	FlagRules
)

// FlagAll runs every stage; equivalent to the zero value.
const FlagAll = FlagExceptions | FlagForms | FlagRules

func (f SearchFlags) has(bit SearchFlags) bool {
	return f == 0 || f&bit != 0
}

// Direction is a cursor step.
type Direction int

const (
	First Direction = iota
	Next
	Prev
	Last
)

// Handle is one open lexicon database. A Handle is not safe for concurrent
// use from multiple goroutines; the engine is synchronous by design (§5).
type Handle struct {
	db     *store.Database
	mode   store.Mode
	logger zerolog.Logger

	implicit  store.OrderedStore
	exception store.OrderedStore

	implicitScratch  *store.Scratch
	exceptionScratch *store.Scratch

	generalStore   store.RecnoStore
	lexclassStore  store.RecnoStore
	correctorStore store.RecnoStore
	prefixStore    store.RecnoStore

	generalQ, lexclassQ, correctorQ, prefixQ *rules.Program
	generalE, lexclassE, correctorE, prefixE *rules.Program

	implicitCursor  store.Cursor
	exceptionCursor store.Cursor

	ruleCursor map[rules.Kind]uint64
}

// Open opens the database at path in the given mode and realizes every
// dataset. In Create mode, the two dictionaries are built into scratch
// unordered stores and dumped sorted into the bolt-backed ordered buckets
// on Close.
func Open(path string, mode store.Mode, logger zerolog.Logger) (*Handle, error) {
	db, err := store.Open(path, mode)
	if err != nil {
		return nil, err
	}

	h := &Handle{db: db, mode: mode, logger: logger, ruleCursor: make(map[rules.Kind]uint64)}

	h.implicit, err = db.Ordered(store.BucketLexbases)
	if err != nil {
		db.Close()
		return nil, err
	}
	h.exception, err = db.Ordered(store.BucketExceptions)
	if err != nil {
		db.Close()
		return nil, err
	}
	if mode == store.Create {
		h.implicitScratch = store.NewScratch()
		h.exceptionScratch = store.NewScratch()
	}

	h.generalStore, err = db.Recno(store.BucketGeneral)
	if err != nil {
		db.Close()
		return nil, err
	}
	h.lexclassStore, err = db.Recno(store.BucketLexclasses)
	if err != nil {
		db.Close()
		return nil, err
	}
	h.correctorStore, err = db.Recno(store.BucketCorrections)
	if err != nil {
		db.Close()
		return nil, err
	}
	h.prefixStore, err = db.Recno(store.BucketPrefixes)
	if err != nil {
		db.Close()
		return nil, err
	}

	h.refreshPrograms()
	return h, nil
}

// refreshPrograms rebuilds every rules.Program wrapper so query-mode
// callers never see a compiled-regex cache left stale by an edit made
// through the corresponding edit-mode wrapper.
func (h *Handle) refreshPrograms() {
	h.generalQ = rules.OpenForQuery(rules.General, h.generalStore, h.logger)
	h.lexclassQ = rules.OpenForQuery(rules.LexClass, h.lexclassStore, h.logger)
	h.correctorQ = rules.OpenForQuery(rules.Corrector, h.correctorStore, h.logger)
	h.prefixQ = rules.OpenForQuery(rules.Prefix, h.prefixStore, h.logger)
	if h.mode != store.Search {
		h.generalE = rules.OpenForEdit(rules.General, h.generalStore, h.logger)
		h.lexclassE = rules.OpenForEdit(rules.LexClass, h.lexclassStore, h.logger)
		h.correctorE = rules.OpenForEdit(rules.Corrector, h.correctorStore, h.logger)
		h.prefixE = rules.OpenForEdit(rules.Prefix, h.prefixStore, h.logger)
	}
}

// Close flushes any bulk-build scratch store, releases open cursors, and
// closes the underlying database.
func (h *Handle) Close() error {
	if err := h.closeCursors(); err != nil {
		return err
	}
	if h.mode == store.Create {
		if h.implicitScratch != nil {
			if err := h.implicitScratch.Dump(h.implicit); err != nil {
				return err
			}
		}
		if h.exceptionScratch != nil {
			if err := h.exceptionScratch.Dump(h.exception); err != nil {
				return err
			}
		}
	}
	return h.db.Close()
}

func (h *Handle) closeCursors() error {
	if h.implicitCursor != nil {
		if err := h.implicitCursor.Close(); err != nil {
			return err
		}
		h.implicitCursor = nil
	}
	if h.exceptionCursor != nil {
		if err := h.exceptionCursor.Close(); err != nil {
			return err
		}
		h.exceptionCursor = nil
	}
	return nil
}

func (h *Handle) dictStore(d Dataset) store.OrderedStore {
	switch d {
	case ImplicitBase:
		if h.implicitScratch != nil {
			return h.implicitScratch
		}
		return h.implicit
	case Exception, RawException:
		if h.exceptionScratch != nil {
			return h.exceptionScratch
		}
		return h.exception
	default:
		return nil
	}
}

// Classify reports whether word is itself a lexical base: some lexical
// class rule's base construction, applied to word, reproduces word
// exactly (§4.5 classify, P5).
func (h *Handle) Classify(word string) (bool, error) {
	return h.lexclassQ.Classify(word)
}

// MatchPrefix exposes the optional prefix ruleset per §4.4a: search and
// classify never consult it, callers compose it themselves.
func (h *Handle) MatchPrefix(word string, scanStart uint64) (base string, idx uint64, err error) {
	return h.prefixQ.ClassifyScan(word, scanStart)
}

// Put inserts value under key into the dataset resolved from target.
// Default resolves via Classify: a fixed-point base targets ImplicitBase,
// anything else targets Exception. On a Duplicate collision while
// targeting ImplicitBase under Default resolution, Put retries against
// Exception, matching the historical "irregular base" escape hatch.
func (h *Handle) Put(word, value string, target Dataset, overwrite bool) error {
	if h.mode == store.Search {
		return rerr.New(rerr.Access, "lexicon opened read-only")
	}
	switch target {
	case Default:
		isBase, err := h.Classify(word)
		if err != nil {
			return err
		}
		if isBase {
			err := h.putInto(ImplicitBase, word, value, overwrite)
			if rerr.Of(err) == rerr.Duplicate {
				return h.putInto(Exception, word, value, overwrite)
			}
			return err
		}
		return h.putInto(Exception, word, value, overwrite)
	case ImplicitBase, Exception:
		return h.putInto(target, word, value, overwrite)
	default:
		return rerr.New(rerr.Parameter, "%s is not a legal put target", target)
	}
}

func (h *Handle) putInto(target Dataset, word, value string, overwrite bool) error {
	packed, err := codec.PackKey(word)
	if err != nil {
		return err
	}
	diff, err := codec.PackData(word, value)
	if err != nil {
		return err
	}
	if len(diff) == 0 {
		// A single KEEP-0 byte records "value equals key" so the record
		// is distinguishable from an absent one.
		diff = []byte{0}
	}
	return h.dictStore(target).Put(packed, diff, overwrite)
}

// Del removes the record for word from the dataset resolved from target.
func (h *Handle) Del(word string, target Dataset) error {
	if h.mode == store.Search {
		return rerr.New(rerr.Access, "lexicon opened read-only")
	}
	resolved := target
	if target == Default {
		isBase, err := h.Classify(word)
		if err != nil {
			return err
		}
		if isBase {
			resolved = ImplicitBase
		} else {
			resolved = Exception
		}
	} else if target != ImplicitBase && target != Exception {
		return rerr.New(rerr.Parameter, "%s is not a legal delete target", target)
	}
	packed, err := codec.PackKey(word)
	if err != nil {
		return err
	}
	return h.dictStore(resolved).Delete(packed)
}

// Seq advances the per-dataset cursor for dataset in direction dir and
// returns the decoded record at the new position. Dictionaries return
// (surface key, surface value); rule datasets return (pattern,
// replacement). EndOfData is returned at either terminal.
func (h *Handle) Seq(dataset Dataset, dir Direction) (key, value string, err error) {
	switch dataset {
	case ImplicitBase:
		return h.seqDict(&h.implicitCursor, h.implicit, dir, false)
	case Exception:
		return h.seqDict(&h.exceptionCursor, h.exception, dir, true)
	case RawException:
		return h.seqDict(&h.exceptionCursor, h.exception, dir, false)
	case General:
		return h.seqRule(h.generalQ, rules.General, dir)
	case LexClass:
		return h.seqRule(h.lexclassQ, rules.LexClass, dir)
	case Prefix:
		return h.seqRule(h.prefixQ, rules.Prefix, dir)
	case Corrector:
		return h.seqRule(h.correctorQ, rules.Corrector, dir)
	default:
		return "", "", rerr.New(rerr.Parameter, "%s is not a legal seq dataset", dataset)
	}
}

func (h *Handle) seqDict(cursor *store.Cursor, st store.OrderedStore, dir Direction, correct bool) (string, string, error) {
	if *cursor == nil {
		c, err := st.Cursor()
		if err != nil {
			return "", "", err
		}
		*cursor = c
	}

	var k, v []byte
	var ok bool
	switch dir {
	case First:
		k, v, ok = (*cursor).First()
	case Next:
		k, v, ok = (*cursor).Next()
	case Prev:
		k, v, ok = (*cursor).Prev()
	case Last:
		k, v, ok = (*cursor).Last()
	default:
		return "", "", rerr.New(rerr.Parameter, "unknown seq direction")
	}
	if !ok {
		return "", "", rerr.New(rerr.EndOfData, "no more records")
	}

	word, err := codec.UnpackKey(k)
	if err != nil {
		return "", "", err
	}
	if len(word) > MaxKeySize {
		return "", "", rerr.New(rerr.Failure, "decoded key exceeds max key size")
	}
	surface := codec.UnpackData(word, v)
	if correct {
		surface, err = h.correctorQ.Correct(surface)
		if err != nil {
			return "", "", err
		}
	}
	return word, surface, nil
}

func (h *Handle) seqRule(p *rules.Program, kind rules.Kind, dir Direction) (string, string, error) {
	count, err := p.Count()
	if err != nil {
		return "", "", err
	}
	pos := h.ruleCursor[kind]

	var next uint64
	switch dir {
	case First:
		next = 1
	case Last:
		next = count
	case Next:
		next = pos + 1
	case Prev:
		if pos == 0 {
			next = 0
		} else {
			next = pos - 1
		}
	default:
		return "", "", rerr.New(rerr.Parameter, "unknown seq direction")
	}
	if next < 1 || next > count {
		h.ruleCursor[kind] = next
		return "", "", rerr.New(rerr.EndOfData, "no more records")
	}
	h.ruleCursor[kind] = next
	return p.Fetch(next)
}

// Search runs the composite lookup pipeline described in §4.5: exception
// lookup, then implicit-base lookup via lexical-class classification, then
// general-rule stress guessing, applying corrector rules to any hit.
func (h *Handle) Search(word string, flags SearchFlags) (string, error) {
	if flags.has(FlagExceptions) {
		packed, err := codec.PackKey(word)
		if err == nil {
			if diff, err := h.dictStore(Exception).Get(packed); err == nil {
				result := codec.UnpackData(word, diff)
				return h.correctorQ.Correct(result)
			}
		}
	}

	if flags.has(FlagForms) {
		result, ok, err := h.searchForms(word)
		if err != nil {
			return "", err
		}
		if ok {
			return h.correctorQ.Correct(result)
		}
	}

	if flags.has(FlagRules) {
		result, err := h.generalQ.MatchGeneral(word)
		if err != nil {
			return word, err
		}
		return h.correctorQ.Correct(result)
	}

	return word, rerr.New(rerr.NotFound, "no record found for %q", word)
}

// searchForms walks the lexical-class ruleset via ClassifyScan, looking up
// each candidate base in the implicit-base dictionary. On a hit, the
// stored diff is decoded not against the recovered base's own bytes, but
// against the original input word, padded with underscores out to the
// base's length when the base is the longer of the two — the historical
// lexdb_search/db_get behavior: the buffer handed to the decoder is seeded
// from the surface word being searched, so any letters of the word past
// the rule's first capture group stay in the buffer unless the diff edits
// them.
func (h *Handle) searchForms(word string) (string, bool, error) {
	var scanStart uint64 = 1
	for {
		base, idx, err := h.lexclassQ.ClassifyScan(word, scanStart)
		if err != nil {
			return "", false, err
		}
		if idx == 0 {
			return "", false, nil
		}
		scanStart = idx + 1

		packed, err := codec.PackKey(base)
		if err != nil {
			continue
		}
		diff, err := h.dictStore(ImplicitBase).Get(packed)
		if err != nil {
			continue
		}

		padded := word
		if len(base) > len(word) {
			padded = word + strings.Repeat("_", len(base)-len(word))
		}
		return codec.UnpackData(padded, diff), true, nil
	}
}

// Discard empties dataset: for a dictionary it truncates the store and
// closes any open cursor; for a ruleset it truncates the program and
// invalidates the compiled cache.
func (h *Handle) Discard(dataset Dataset) error {
	if h.mode == store.Search {
		return rerr.New(rerr.Access, "lexicon opened read-only")
	}
	switch dataset {
	case ImplicitBase:
		if h.implicitCursor != nil {
			h.implicitCursor.Close()
			h.implicitCursor = nil
		}
		if h.implicitScratch != nil {
			return h.implicitScratch.Truncate()
		}
		return h.implicit.Truncate()
	case Exception, RawException:
		if h.exceptionCursor != nil {
			h.exceptionCursor.Close()
			h.exceptionCursor = nil
		}
		if h.exceptionScratch != nil {
			return h.exceptionScratch.Truncate()
		}
		return h.exception.Truncate()
	case General:
		delete(h.ruleCursor, rules.General)
		return h.generalE.Discard()
	case LexClass:
		delete(h.ruleCursor, rules.LexClass)
		return h.lexclassE.Discard()
	case Prefix:
		delete(h.ruleCursor, rules.Prefix)
		return h.prefixE.Discard()
	case Corrector:
		delete(h.ruleCursor, rules.Corrector)
		return h.correctorE.Discard()
	default:
		return rerr.New(rerr.Parameter, "%s is not a legal discard target", dataset)
	}
}

// RuleCount reports how many rules kind's ruleset holds.
func (h *Handle) RuleCount(kind rules.Kind) (uint64, error) {
	return h.queryProgram(kind).Count()
}

// RuleFetch returns the raw pattern/replacement of rule n in kind's
// ruleset.
func (h *Handle) RuleFetch(kind rules.Kind, n uint64) (pattern, replacement string, err error) {
	return h.queryProgram(kind).Fetch(n)
}

// RuleAppend adds a rule at the end of kind's ruleset.
func (h *Handle) RuleAppend(kind rules.Kind, pattern, replacement string) (uint64, error) {
	n, err := h.editProgram(kind).Append(pattern, replacement)
	if err != nil {
		return 0, err
	}
	h.refreshQueryProgram(kind)
	return n, nil
}

// RuleInsertAt inserts a rule at 1-based position n in kind's ruleset.
func (h *Handle) RuleInsertAt(kind rules.Kind, n uint64, pattern, replacement string) error {
	if err := h.editProgram(kind).InsertAt(n, pattern, replacement); err != nil {
		return err
	}
	h.refreshQueryProgram(kind)
	return nil
}

// RuleRemoveAt deletes the rule at position n in kind's ruleset.
func (h *Handle) RuleRemoveAt(kind rules.Kind, n uint64) error {
	if err := h.editProgram(kind).RemoveAt(n); err != nil {
		return err
	}
	h.refreshQueryProgram(kind)
	delete(h.ruleCursor, kind)
	return nil
}

func (h *Handle) queryProgram(kind rules.Kind) *rules.Program {
	switch kind {
	case rules.General:
		return h.generalQ
	case rules.LexClass:
		return h.lexclassQ
	case rules.Corrector:
		return h.correctorQ
	default:
		return h.prefixQ
	}
}

func (h *Handle) editProgram(kind rules.Kind) *rules.Program {
	switch kind {
	case rules.General:
		return h.generalE
	case rules.LexClass:
		return h.lexclassE
	case rules.Corrector:
		return h.correctorE
	default:
		return h.prefixE
	}
}

func (h *Handle) refreshQueryProgram(kind rules.Kind) {
	switch kind {
	case rules.General:
		h.generalQ = rules.OpenForQuery(rules.General, h.generalStore, h.logger)
	case rules.LexClass:
		h.lexclassQ = rules.OpenForQuery(rules.LexClass, h.lexclassStore, h.logger)
	case rules.Corrector:
		h.correctorQ = rules.OpenForQuery(rules.Corrector, h.correctorStore, h.logger)
	case rules.Prefix:
		h.prefixQ = rules.OpenForQuery(rules.Prefix, h.prefixStore, h.logger)
	}
}

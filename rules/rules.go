// Package rules implements the four ordered regex rule programs the
// lexicon engine consults: general stress rules, lexical-class rules,
// corrector rules, and the optional prefix rules. Each program is a
// densely numbered, 1-based sequence of text records backed by a
// store.RecnoStore; compiled regex objects are realized lazily and cached
// parallel to the record count.
package rules

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rulexdb/rulexdb/alphabet"
	rerr "github.com/rulexdb/rulexdb/error"
	"github.com/rulexdb/rulexdb/store"
)

// Kind identifies which of the four rule semantics a Program implements.
type Kind int

const (
	General Kind = iota
	LexClass
	Corrector
	Prefix
)

func (k Kind) String() string {
	switch k {
	case General:
		return "general"
	case LexClass:
		return "lexclass"
	case Corrector:
		return "corrector"
	case Prefix:
		return "prefix"
	default:
		return "unknown"
	}
}

type accessMode int

const (
	queryMode accessMode = iota
	editMode
)

type compiled struct {
	re          *regexp.Regexp
	replacement string
	skip        bool
}

// Program is one ruleset realized over a RecnoStore. A Program is opened
// either for querying (Match*/Classify/Correct) or for editing
// (Append/InsertAt/RemoveAt/Discard); using the wrong half of the API
// reports Access, mirroring the store-level single-writer rule.
type Program struct {
	kind   Kind
	mode   accessMode
	store  store.RecnoStore
	logger zerolog.Logger

	mu    sync.Mutex
	cache []*compiled
}

// OpenForQuery realizes st for lookups.
func OpenForQuery(kind Kind, st store.RecnoStore, logger zerolog.Logger) *Program {
	return &Program{kind: kind, mode: queryMode, store: st, logger: logger}
}

// OpenForEdit realizes st for structural edits (insert/remove/discard).
func OpenForEdit(kind Kind, st store.RecnoStore, logger zerolog.Logger) *Program {
	return &Program{kind: kind, mode: editMode, store: st, logger: logger}
}

func (p *Program) Kind() Kind { return p.kind }

// Count reports the current number of rules.
func (p *Program) Count() (uint64, error) {
	return p.store.Count()
}

// Fetch returns the raw pattern and replacement text of rule n.
func (p *Program) Fetch(n uint64) (pattern, replacement string, err error) {
	raw, err := p.store.GetByN(n)
	if err != nil {
		return "", "", err
	}
	pattern, replacement = splitRecord(raw)
	return pattern, replacement, nil
}

// Append adds a new rule at the end of the program.
func (p *Program) Append(pattern, replacement string) (uint64, error) {
	if p.mode != editMode {
		return 0, rerr.New(rerr.Access, "%s program not opened for editing", p.kind)
	}
	return p.store.Append([]byte(formatRecord(pattern, replacement)))
}

// InsertAt inserts a rule at 1-based position n, shifting n..count up by
// one.
func (p *Program) InsertAt(n uint64, pattern, replacement string) error {
	if p.mode != editMode {
		return rerr.New(rerr.Access, "%s program not opened for editing", p.kind)
	}
	return p.store.InsertAt(n, []byte(formatRecord(pattern, replacement)))
}

// RemoveAt deletes the rule at position n, renumbering the tail.
func (p *Program) RemoveAt(n uint64) error {
	if p.mode != editMode {
		return rerr.New(rerr.Access, "%s program not opened for editing", p.kind)
	}
	return p.store.DeleteAt(n)
}

// Discard empties the program and invalidates the compiled cache.
func (p *Program) Discard() error {
	if p.mode != editMode {
		return rerr.New(rerr.Access, "%s program not opened for editing", p.kind)
	}
	if err := p.store.Truncate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.cache = nil
	p.mu.Unlock()
	return nil
}

// load realizes and returns the compiled form of rule n (1-based),
// compiling and caching it on first access. A pattern that fails to
// compile is logged once and its slot is marked permanently skip.
func (p *Program) load(n uint64) (*compiled, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache == nil {
		count, err := p.store.Count()
		if err != nil {
			return nil, err
		}
		p.cache = make([]*compiled, count)
	}
	if n < 1 || n > uint64(len(p.cache)) {
		return nil, rerr.New(rerr.Parameter, "rule %d out of range (count=%d)", n, len(p.cache))
	}
	if c := p.cache[n-1]; c != nil {
		return c, nil
	}

	raw, err := p.store.GetByN(n)
	if err != nil {
		return nil, err
	}
	pattern, replacement := splitRecord(raw)
	// Go's POSIX-mode parser rejects the (?i) Perl flag syntax, so
	// case-insensitivity is achieved by folding the pattern itself:
	// callers are expected to feed already-lowercased surface forms
	// (the canonical form the rest of the engine works in), so folding
	// the pattern alone is sufficient.
	re, err := regexp.CompilePOSIX(strings.ToLower(pattern))
	var c *compiled
	if err != nil {
		p.logger.Warn().Err(err).Str("kind", p.kind.String()).Uint64("rule", n).Msg("rule pattern failed to compile, skipping")
		c = &compiled{skip: true}
	} else {
		c = &compiled{re: re, replacement: replacement}
	}
	p.cache[n-1] = c
	return c, nil
}

// MatchGeneral finds the first general rule matching w and inserts a
// major-stress marker at the end of its first capture group.
func (p *Program) MatchGeneral(w string) (string, error) {
	if p.mode != queryMode {
		return "", rerr.New(rerr.Access, "%s program not opened for query", p.kind)
	}
	if p.kind != General {
		return "", rerr.New(rerr.Parameter, "MatchGeneral requires a general program open for query")
	}
	count, err := p.store.Count()
	if err != nil {
		return "", err
	}
	for i := uint64(1); i <= count; i++ {
		c, err := p.load(i)
		if err != nil {
			return "", err
		}
		if c.skip {
			continue
		}
		loc := c.re.FindStringSubmatchIndex(w)
		if loc == nil || len(loc) < 4 || loc[2] < 0 {
			continue
		}
		end := loc[3]
		return w[:end] + string(alphabet.MajorStress) + w[end:], nil
	}
	return w, rerr.New(rerr.NoRule, "no general rule matched %q", w)
}

// ClassifyScan finds the first rule at index >= scanStart whose pattern
// matches w, and constructs a candidate base by appending the rule's
// literal replacement after the first capture group. It serves both the
// lexical-class and the prefix programs, which share this mechanism.
// idx is 0 if nothing matched.
func (p *Program) ClassifyScan(w string, scanStart uint64) (base string, idx uint64, err error) {
	if p.mode != queryMode {
		return "", 0, rerr.New(rerr.Access, "%s program not opened for query", p.kind)
	}
	if p.kind != LexClass && p.kind != Prefix {
		return "", 0, rerr.New(rerr.Parameter, "ClassifyScan requires a lexclass or prefix program open for query")
	}
	if scanStart < 1 {
		scanStart = 1
	}
	count, err := p.store.Count()
	if err != nil {
		return "", 0, err
	}
	for i := scanStart; i <= count; i++ {
		c, err := p.load(i)
		if err != nil {
			return "", 0, err
		}
		if c.skip {
			continue
		}
		loc := c.re.FindStringSubmatchIndex(w)
		if loc == nil || len(loc) < 4 || loc[2] < 0 {
			continue
		}
		end := loc[3]
		return w[:end] + c.replacement, i, nil
	}
	return "", 0, nil
}

// Classify reports whether word is itself a lexical base: some rule's
// base construction, applied to word, reproduces word exactly.
func (p *Program) Classify(word string) (bool, error) {
	if p.mode != queryMode {
		return false, rerr.New(rerr.Access, "%s program not opened for query", p.kind)
	}
	if p.kind != LexClass {
		return false, rerr.New(rerr.Parameter, "Classify requires a lexclass program open for query")
	}
	count, err := p.store.Count()
	if err != nil {
		return false, err
	}
	for i := uint64(1); i <= count; i++ {
		c, err := p.load(i)
		if err != nil {
			return false, err
		}
		if c.skip {
			continue
		}
		loc := c.re.FindStringSubmatchIndex(word)
		if loc == nil || len(loc) < 4 || loc[2] < 0 {
			continue
		}
		if word[:loc[3]]+c.replacement == word {
			return true, nil
		}
	}
	return false, nil
}

// Correct applies every matching corrector rule in order, each rewriting
// its first match in the string the previous rule left behind.
func (p *Program) Correct(s string) (string, error) {
	if p.mode != queryMode {
		return "", rerr.New(rerr.Access, "%s program not opened for query", p.kind)
	}
	if p.kind != Corrector {
		return "", rerr.New(rerr.Parameter, "Correct requires a corrector program open for query")
	}
	count, err := p.store.Count()
	if err != nil {
		return "", err
	}
	for i := uint64(1); i <= count; i++ {
		c, err := p.load(i)
		if err != nil {
			return "", err
		}
		if c.skip {
			continue
		}
		loc := c.re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		s = s[:loc[0]] + expandTemplate(c.replacement, s, loc) + s[loc[1]:]
	}
	return s, nil
}

// expandTemplate expands \0..\9 back-references in tmpl against the match
// position loc found in s; any other byte is copied literally.
func expandTemplate(tmpl, s string, loc []int) string {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '\\' && i+1 < len(tmpl) && tmpl[i+1] >= '0' && tmpl[i+1] <= '9' {
			d := int(tmpl[i+1] - '0')
			if 2*d+1 < len(loc) && loc[2*d] >= 0 {
				b.WriteString(s[loc[2*d]:loc[2*d+1]])
			}
			i++
			continue
		}
		b.WriteByte(tmpl[i])
	}
	return b.String()
}

func splitRecord(raw []byte) (pattern, replacement string) {
	s := string(raw)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func formatRecord(pattern, replacement string) string {
	if replacement == "" {
		return pattern
	}
	return pattern + " " + replacement
}

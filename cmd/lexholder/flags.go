package main

import "github.com/spf13/cobra"

// holderFlags mirrors the historical getopt-based interface as one large,
// mutually-exclusive flag set on a single command, rather than a
// subcommand tree.
type holderFlags struct {
	// Action group, mutually exclusive.
	list         bool
	testFile     string
	clean        bool
	search       string
	discoverBase string
	deleteOne    string
	discard      bool

	// Dataset selector.
	implicit  bool
	exception bool
	general   bool
	lexclass  bool
	prefix    bool
	corrector bool

	// Search flags, additive; no flag set means "all".
	flagExceptions bool
	flagForms      bool
	flagRules      bool

	// General.
	file    string
	replace bool
	quiet   bool
	verbose bool

	config   string
	logLevel string
}

func registerFlags(cmd *cobra.Command) *holderFlags {
	f := &holderFlags{}
	fs := cmd.Flags()

	fs.BoolVarP(&f.list, "list", "l", false, "list every record in the selected dataset")
	fs.StringVarP(&f.testFile, "test", "t", "", "run key/value test records from FILE against search")
	fs.BoolVarP(&f.clean, "clean", "c", false, "rebuild the selected dataset, dropping unreadable records")
	fs.StringVarP(&f.search, "search", "s", "", "search for KEY and print its pronunciation")
	fs.StringVarP(&f.discoverBase, "discover-bases", "b", "", "print the lexical-class bases KEY matches")
	fs.StringVarP(&f.deleteOne, "delete", "d", "", "delete the record for KEY")
	fs.BoolVarP(&f.discard, "discard", "D", false, "discard every record in the selected dataset")

	fs.BoolVarP(&f.implicit, "implicit", "M", false, "select the implicit-base dictionary")
	fs.BoolVarP(&f.exception, "exception", "X", false, "select the exception dictionary")
	fs.BoolVarP(&f.general, "general", "G", false, "select the general ruleset")
	fs.BoolVarP(&f.lexclass, "lexclass", "L", false, "select the lexical-class ruleset")
	fs.BoolVarP(&f.prefix, "prefix", "P", false, "select the prefix ruleset")
	fs.BoolVarP(&f.corrector, "corrector", "C", false, "select the corrector ruleset")

	fs.BoolVarP(&f.flagExceptions, "search-exceptions", "x", false, "enable the exception-dictionary stage in search")
	fs.BoolVarP(&f.flagForms, "search-forms", "m", false, "enable the implicit-form stage in search")
	fs.BoolVarP(&f.flagRules, "search-rules", "g", false, "enable the stress-guess stage in search")

	fs.StringVarP(&f.file, "file", "f", "", "read from or write to FILE instead of stdin/stdout")
	fs.BoolVarP(&f.replace, "replace", "r", false, "overwrite existing records instead of skipping them")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress per-record diagnostics")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "emit per-record diagnostics even on success")

	fs.StringVar(&f.config, "config", "", "load configuration from FILE")
	fs.StringVar(&f.logLevel, "log-level", "", "override the configured log level")

	return f
}

// Command lexholder is the bulk holder/CLI frontend for a lexicon database:
// subscribe, list, test, clean, search, discover-bases, delete-one, and
// discard-dataset, driven by a single mutually-exclusive flag set.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rulexdb/rulexdb/config"
	"github.com/rulexdb/rulexdb/lexicon"
	"github.com/rulexdb/rulexdb/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	var f *holderFlags
	cmd := &cobra.Command{
		Use:   "lexholder [flags] <database>",
		Short: "Inspect and maintain a lexicon database",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})
	f = registerFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return dispatch(f, args[0])
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("command-line misuse")

func dispatch(f *holderFlags, dbPath string) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	cfg = config.ApplyFlagOverrides(cfg, f.logLevel)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	actionCount := 0
	for _, set := range []bool{f.list, f.testFile != "", f.clean, f.search != "", f.discoverBase != "", f.deleteOne != "", f.discard} {
		if set {
			actionCount++
		}
	}
	if actionCount > 1 {
		return fmt.Errorf("%w: at most one action flag may be given", errUsage)
	}

	dataset, err := resolveDataset(f)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	mode := store.Update
	switch {
	case f.list, f.testFile != "", f.search != "", f.discoverBase != "":
		mode = store.Search
	}

	h, err := lexicon.Open(dbPath, mode, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	switch {
	case f.list:
		return runList(h, f, fallbackDataset(dataset, lexicon.Exception))
	case f.testFile != "":
		return runTest(h, f)
	case f.clean:
		return runClean(h, f, fallbackDataset(dataset, lexicon.Exception))
	case f.search != "":
		return runSearch(h, f)
	case f.discoverBase != "":
		return runDiscoverBases(h, f)
	case f.deleteOne != "":
		return runDeleteOne(h, f, dataset)
	case f.discard:
		return runDiscard(h, dataset)
	default:
		return runDefaultInsert(h, f, dataset)
	}
}

// fallbackDataset substitutes def for dataset when the caller gave no
// dataset selector, for actions where lexicon.Default is not itself a
// legal dataset (list, clean).
func fallbackDataset(dataset, def lexicon.Dataset) lexicon.Dataset {
	if dataset == lexicon.Default {
		return def
	}
	return dataset
}

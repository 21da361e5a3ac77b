// Command rulexfilter is the stream markup filter frontend: it lowercases
// an input text stream and replaces every run of alphabet letters with its
// searched pronunciation, leaving everything else untouched.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rulexdb/rulexdb/alphabet"
	"github.com/rulexdb/rulexdb/lexicon"
	"github.com/rulexdb/rulexdb/store"
)

func main() {
	cmd := &cobra.Command{
		Use:           "rulexfilter <database> [unresolved-log]",
		Short:         "Replace words in a text stream with their searched pronunciation",
		Args:          cobra.RangeArgs(1, 2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := ""
			if len(args) == 2 {
				logPath = args[1]
			}
			return runFilter(args[0], logPath, os.Stdin, os.Stdout)
		},
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFilter(dbPath, logPath string, in io.Reader, out io.Writer) error {
	h, err := lexicon.Open(dbPath, store.Search, zerolog.Nop())
	if err != nil {
		return err
	}
	defer h.Close()

	var unresolved io.Writer
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		unresolved = f
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	lower := make([]byte, len(data))
	for i, b := range data {
		lower[i] = toLower(b)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	i := 0
	for i < len(lower) {
		if !isAlphabetByte(lower[i]) {
			w.WriteByte(lower[i])
			i++
			continue
		}
		j := i
		for j < len(lower) && isAlphabetByte(lower[j]) {
			j++
		}
		run := string(lower[i:j])
		i = j

		if len(run) > lexicon.MaxKeySize {
			w.WriteString(run)
			continue
		}
		result, err := h.Search(run, lexicon.FlagAll)
		if err != nil {
			w.WriteString(run)
			if unresolved != nil {
				fmt.Fprintf(unresolved, "%v: %v\n", run, err)
			}
			continue
		}
		w.WriteString(result)
	}
	return nil
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func isAlphabetByte(b byte) bool {
	_, ok := alphabet.Idx(b)
	return ok
}

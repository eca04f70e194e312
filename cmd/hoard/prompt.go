package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// confirm asks question on stderr and reads the answer from stdin. It
// returns errAborted unless the answer is yes. --yes answers for the user;
// without it a non-interactive stdin refuses.
func confirm(cmd *cobra.Command, question string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%s: confirmation required, pass --yes", question)
	}
	return answerOrAbort(os.Stdin, os.Stderr, question)
}

// answerOrAbort asks question and turns anything but yes into errAborted.
func answerOrAbort(r io.Reader, w io.Writer, question string) error {
	ok, err := ask(r, w, question)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

// ask writes question to w and reports whether the reply from r is yes.
func ask(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

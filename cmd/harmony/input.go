package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	textPrompt  = "Enter text to parse: "
	imagePrompt = "Enter path to screenshot image (drag and drop works): "

	quoteChars = "'\"“”‘’"
)

// inputText joins the positional words or, when there are none, prompts for
// a line of text.
func inputText(args []string, in *bufio.Reader, prompt io.Writer) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return ask(in, prompt, textPrompt)
}

// imagePath returns the cleaned image path from the positional arguments or
// from an interactive prompt.
func imagePath(args []string, in *bufio.Reader, prompt io.Writer) (string, error) {
	raw := strings.Join(args, " ")
	if raw == "" {
		var err error
		if raw, err = ask(in, prompt, imagePrompt); err != nil {
			return "", err
		}
	}

	path := expandHome(sanitizePath(raw))
	if path == "" {
		return "", usageError{fmt.Errorf("image path is empty")}
	}
	return path, nil
}

func ask(in *bufio.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)

	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", usageError{fmt.Errorf("read input: %w", err)}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// sanitizePath strips whitespace, surrounding quotes (including smart
// quotes from pasted text) and shell escapes added by drag and drop.
func sanitizePath(raw string) string {
	path := strings.TrimSpace(raw)
	path = strings.Trim(path, quoteChars)
	path = strings.ReplaceAll(path, `\ `, " ")
	return strings.TrimSpace(path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

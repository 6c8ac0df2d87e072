package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/harmony/internal/calendar"
	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/infrastructure"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/pipeline"
)

const (
	cmdText   = "text"
	cmdModels = "models"
)

var commands = []string{cmdText, string(ocr.ModeTesseract), string(ocr.ModeEasyOCR), string(ocr.ModeFusion), cmdModels}

// options are the flags shared by the parse commands.
type options struct {
	model       string
	modelString string
	icsPath     string
}

// invocation is a parsed command line.
type invocation struct {
	command string
	args    []string
	opts    options
}

func (inv invocation) image() bool {
	return inv.command != cmdText && inv.command != cmdModels
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	inv, err := parse(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		usage(stderr)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: configuration: %v\n", err)
		return exitConfig
	}

	infra, err := infrastructure.New(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: configuration: %v\n", err)
		return exitConfig
	}

	if inv.command == cmdModels {
		return listModels(infra.Registry, stdout)
	}

	reader := bufio.NewReader(stdin)
	p := infra.Pipeline()
	sel := models.Selector{Alias: inv.opts.model, ModelString: inv.opts.modelString}

	var (
		result *pipeline.Result
		output any
	)

	if inv.image() {
		path, err := imagePath(inv.args, reader, stdout)
		if err != nil {
			return fail(stderr, err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fail(stderr, usageError{fmt.Errorf("read image: %w", err)})
		}

		result, err = p.ParseImage(ctx, data, ocr.Mode(inv.command), sel)
		if err != nil {
			return fail(stderr, err)
		}
		output = pipeline.ImageResponse{OCRText: result.OCRText, Event: result.Event, Warnings: result.Warnings}

		for _, w := range result.Warnings {
			fmt.Fprintf(stderr, "Warning: %s\n", w)
		}
	} else {
		text, err := inputText(inv.args, reader, stdout)
		if err != nil {
			return fail(stderr, err)
		}

		result, err = p.ParseText(ctx, text, sel)
		if err != nil {
			return fail(stderr, err)
		}
		output = pipeline.TextResponse{Event: result.Event}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fail(stderr, err)
	}

	if inv.opts.icsPath != "" {
		if err := writeICS(inv.opts.icsPath, result, infra); err != nil {
			fmt.Fprintf(stderr, "Warning: calendar export skipped: %v\n", err)
		}
	}

	return exitOK
}

// parse reads the command name and its flags. Flags may appear before or
// after the positional input.
func parse(args []string, stderr io.Writer) (invocation, error) {
	if len(args) == 0 {
		return invocation{}, errors.New("missing command")
	}

	inv := invocation{command: args[0]}
	switch inv.command {
	case "-h", "--help", "help":
		usage(stderr)
		return invocation{}, flag.ErrHelp
	}

	known := false
	for _, c := range commands {
		if c == inv.command {
			known = true
			break
		}
	}
	if !known {
		return invocation{}, fmt.Errorf("unknown command %q", inv.command)
	}

	fs := flag.NewFlagSet(inv.command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&inv.opts.model, "model", "", "model alias (see harmony models)")
	fs.StringVar(&inv.opts.modelString, "model-string", "", "explicit provider model id, e.g. openai/gpt-5-mini")
	fs.StringVar(&inv.opts.icsPath, "ics", "", "also write the event as an iCalendar file")

	positional, err := parseInterleaved(fs, args[1:])
	if err != nil {
		return invocation{}, err
	}
	inv.args = positional

	if inv.opts.model != "" && inv.opts.modelString != "" {
		return invocation{}, errors.New("use either --model or --model-string, not both")
	}

	return inv, nil
}

func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func listModels(r *models.Registry, stdout io.Writer) int {
	for _, e := range r.Entries() {
		marker := " "
		if e.Alias == r.DefaultAlias() {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-14s %s", marker, e.Alias, e.Model)
		if len(e.Synonyms) > 0 {
			line += fmt.Sprintf(" (also: %s)", strings.Join(e.Synonyms, ", "))
		}
		fmt.Fprintln(stdout, line)
	}
	return exitOK
}

func writeICS(path string, result *pipeline.Result, infra *infrastructure.Infrastructure) error {
	doc, err := calendar.Render(result.Event, infra.Location, time.Now())
	if err != nil {
		return err
	}
	return os.WriteFile(expandHome(sanitizePath(path)), []byte(doc), 0644)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `Usage: harmony <command> [input] [--model alias | --model-string id] [--ics file]

Commands:
  text           parse typed text (prompts when no text is given)
  ocr-tesseract  parse a screenshot with the classical OCR engine
  ocr-easyocr    parse a screenshot with the neural OCR engine
  ocr-fusion     parse a screenshot with both engines combined
  models         list model aliases

Model aliases:`)
	for _, name := range models.Default().Names() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

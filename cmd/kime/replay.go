package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kimeweb/internal/composer"
	"kimeweb/internal/config"
	"kimeweb/internal/ime"
	"kimeweb/internal/keycode"
	"kimeweb/internal/surface"
)

type replayOptions struct {
	file     string
	initial  string
	jsonMode bool
	category string
}

// replayResult is the final input state.
type replayResult struct {
	Value    string `json:"value"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Preedit  string `json:"preedit"`
	Category string `json:"category"`
	Consumed int    `json:"consumed"`
}

func newReplayCommand(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay [strokes...]",
		Short: "Drive a session with a key script and print the input",
		Long: `Drive a session on an in-memory input with a key script and print the
resulting value and selection.

Strokes are physical key identifiers with optional modifier prefixes
(S- shift, C- control, M- super, A- alt), separated by whitespace.
"@hangul" and "@latin" switch category, "@stop" stops the composition,
and lines starting with # are ignored. Keys the engine does not consume
type their US layout character into the input.`,
		Example: `  kime replay --category hangul KeyG KeyK KeyS KeyR KeyN KeyR
  kime replay -f strokes.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			script := strings.Join(args, " ")
			if opts.file != "" {
				data, err := readScript(cmd, opts.file)
				if err != nil {
					return err
				}
				script = data
			}
			return runReplay(cmd, root, opts, script)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", `Read strokes from a file ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.initial, "initial", "", "Initial input value; the caret starts at its end")
	cmd.Flags().StringVar(&opts.category, "category", "", "Override the default category (hangul|latin)")
	cmd.Flags().BoolVar(&opts.jsonMode, "json", false, "Print the result as JSON")
	return cmd
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions, script string) error {
	log, err := root.logger(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	cfg, err := config.Load(root.resolvedConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.category != "" {
		cfg.Engine.DefaultCategory = opts.category
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	input := surface.NewInput(opts.initial)
	session, err := ime.InstallConfig(cfg, input, ime.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer session.Close()

	consumed, err := playScript(session, input, script)
	if err != nil {
		return err
	}

	start, end, _ := input.SelectionRange()
	category, _ := session.Category()
	res := replayResult{
		Value:    input.Value(),
		Start:    start,
		End:      end,
		Preedit:  session.Preedit(),
		Category: category.String(),
		Consumed: consumed,
	}

	out := cmd.OutOrStdout()
	if opts.jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(out, "value:     %s\n", res.Value)
	fmt.Fprintf(out, "selection: %d..%d\n", res.Start, res.End)
	fmt.Fprintf(out, "preedit:   %s\n", res.Preedit)
	fmt.Fprintf(out, "category:  %s\n", res.Category)
	return nil
}

// playScript types every stroke into input, where the session handles it
// like a live keydown, and counts consumed keys. Strokes the engine passes
// through get the input's default action.
func playScript(s *ime.Session, input *surface.Input, script string) (int, error) {
	consumed := 0
	for lineNo, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			switch tok {
			case "@stop":
				if err := s.StopComposite(); err != nil {
					return consumed, err
				}
				continue
			case "@hangul", "@latin":
				c, _ := composer.ParseCategory(tok[1:])
				if err := s.SetCategory(c); err != nil {
					return consumed, fmt.Errorf("line %d: %w", lineNo+1, err)
				}
				continue
			}

			code, mask, err := parseStroke(tok)
			if err != nil {
				return consumed, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if input.KeyDown(strokeEvent(code, mask)) {
				consumed++
			}
		}
	}
	return consumed, nil
}

var strokeModifiers = map[string]keycode.Mask{
	"S": keycode.MaskShift,
	"C": keycode.MaskControl,
	"M": keycode.MaskSuper,
	"A": keycode.MaskAlt,
}

// strokeEvent builds the keydown a US keyboard sends for a stroke.
func strokeEvent(code string, mask keycode.Mask) *surface.KeyEvent {
	ev := &surface.KeyEvent{
		KeyValue:  code,
		CodeValue: code,
		Shift:     mask&keycode.MaskShift != 0,
		Ctrl:      mask&keycode.MaskControl != 0,
		Alt:       mask&keycode.MaskAlt != 0,
		Meta:      mask&keycode.MaskSuper != 0,
	}
	if key, ok := keycode.PrintableKey(code, ev.Shift); ok {
		ev.KeyValue = key
	}
	return ev
}

// parseStroke splits "C-S-KeyA" into a physical identifier and a mask.
func parseStroke(tok string) (string, keycode.Mask, error) {
	var mask keycode.Mask
	rest := tok
	for {
		prefix, tail, ok := strings.Cut(rest, "-")
		if !ok || tail == "" {
			break
		}
		bit, known := strokeModifiers[prefix]
		if !known {
			break
		}
		mask |= bit
		rest = tail
	}
	if _, ok := keycode.Lookup(rest); !ok {
		return "", 0, fmt.Errorf("unknown key %q in stroke %q", rest, tok)
	}
	return rest, mask, nil
}

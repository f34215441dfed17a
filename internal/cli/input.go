// Package cli handles cmd line input for debugging the classifier and the
// learned model in real-time.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/fillserve/internal/logger"
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/sequence"
	"github.com/charmbracelet/log"
)

// InputHandler reads one command per line and prints what the model and
// classifier make of it.
type InputHandler struct {
	model        *sequence.Model
	classifier   *field.Classifier
	suggestLimit int
	prompt       string
	in           io.Reader
	out          *log.Logger
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(model *sequence.Model, classifier *field.Classifier, limit int, prompt string) *InputHandler {
	return NewInputHandlerWithIO(model, classifier, limit, prompt, os.Stdin, os.Stderr)
}

// NewInputHandlerWithIO is NewInputHandler over arbitrary streams
func NewInputHandlerWithIO(model *sequence.Model, classifier *field.Classifier, limit int, prompt string, in io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		model:        model,
		classifier:   classifier,
		suggestLimit: limit,
		prompt:       prompt,
		in:           in,
		out:          logger.Default(out, ""),
	}
}

// Start begins the interface loop. It returns nil when input ends or the
// user types quit.
func (h *InputHandler) Start(ctx context.Context) error {
	h.out.Print("fillserve CLI [BETA]")
	h.out.Print("type help for commands (Ctrl+C to exit):")
	reader := bufio.NewReader(h.in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.out.Print(h.prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		h.handleInput(ctx, line)
	}
}

// handleInput runs one command line
func (h *InputHandler) handleInput(ctx context.Context, line string) {
	h.requestCount++
	args := strings.Fields(line)
	cmd, args := args[0], args[1:]
	start := time.Now()
	defer func() {
		h.out.Debugf("Took [ %v ] for %q", time.Since(start), cmd)
	}()

	switch cmd {
	case "help":
		h.printHelp()
	case "classify":
		h.classify(args)
	case "observe":
		h.observe(ctx, args)
	case "suggest":
		t, ok := h.typeArg(args)
		if !ok {
			return
		}
		_, related := splitRelated(args[1:])
		h.printValues("suggestions", h.model.Suggest(t, related))
	case "predict":
		t, ok := h.typeArg(args)
		if !ok {
			return
		}
		h.printValues("predictions", h.model.Predict(t))
	case "complete":
		h.complete(args)
	case "known":
		h.printKnown(h.model.AllKnownValues())
	case "last":
		h.printLast(h.model.LastSeen())
	case "stats":
		h.printStats(h.model.Stats())
	case "refresh":
		if err := h.model.Refresh(ctx); err != nil {
			h.out.Errorf("Refresh failed: %v", err)
			return
		}
		h.out.Print("refreshed")
	default:
		h.out.Errorf("Unknown command: %s (try help)", cmd)
	}
}

func (h *InputHandler) classify(args []string) {
	if len(args) == 0 {
		h.out.Error("usage: classify key=value ...")
		return
	}
	d, err := parseDescriptor(args)
	if err != nil {
		h.out.Error(err.Error())
		return
	}
	t, ok := h.classifier.Classify(d)
	if !ok {
		h.out.Warn("No field type matched", "tokens", strings.Join(field.Tokens(d), " "))
		return
	}
	h.out.Print("classified", "type", t, "fillable", d.IsFillable())
}

func (h *InputHandler) observe(ctx context.Context, args []string) {
	t, ok := h.typeArg(args)
	if !ok {
		return
	}
	value, related := splitRelated(args[1:])
	if value == "" {
		h.out.Error("usage: observe <type> <value> [type=value ...]")
		return
	}
	// no pairs typed: fall back to the last values seen
	if len(related) == 0 {
		related = nil
	}
	accepted, err := h.model.Observe(ctx, t, value, related)
	if err != nil {
		h.out.Errorf("Observed but not saved: %v", err)
		return
	}
	if !accepted {
		h.out.Warnf("Rejected %q for %s", value, t)
		return
	}
	h.out.Print("learned", "type", t, "value", value)
}

func (h *InputHandler) complete(args []string) {
	t, ok := h.typeArg(args)
	if !ok {
		return
	}
	prefix := ""
	if len(args) > 1 {
		prefix = args[1]
	}
	limit := h.suggestLimit
	if len(args) > 2 {
		if n, err := strconv.Atoi(args[2]); err == nil && n > 0 {
			limit = n
		}
	}
	h.printCompletions(prefix, h.model.Complete(t, prefix, limit))
}

// typeArg parses args[0] as a field type, reporting when it is missing or unknown
func (h *InputHandler) typeArg(args []string) (field.Type, bool) {
	if len(args) == 0 {
		h.out.Error("missing field type")
		return "", false
	}
	t, ok := field.Parse(args[0])
	if !ok {
		h.out.Errorf("Unknown field type: %s", args[0])
	}
	return t, ok
}

// splitRelated separates type=value pairs from the remaining words, which
// are joined back into one value. Words whose key is not a field type stay
// part of the value.
func splitRelated(args []string) (string, map[field.Type]string) {
	related := map[field.Type]string{}
	var words []string
	for _, a := range args {
		k, v, found := strings.Cut(a, "=")
		if found {
			if t, ok := field.Parse(k); ok {
				related[t] = v
				continue
			}
		}
		words = append(words, a)
	}
	return strings.Join(words, " "), related
}

// parseDescriptor reads key=value attribute pairs; class takes a comma list
func parseDescriptor(args []string) (field.Descriptor, error) {
	var d field.Descriptor
	for _, a := range args {
		k, v, found := strings.Cut(a, "=")
		if !found {
			return d, errors.New("attributes must be key=value, got " + strconv.Quote(a))
		}
		switch strings.ToLower(k) {
		case "name":
			d.Name = v
		case "id":
			d.ID = v
		case "class":
			d.Classes = append(d.Classes, strings.Split(v, ",")...)
		case "test_id", "testid":
			d.TestID = v
		case "automation_id", "automationid":
			d.AutomationID = v
		case "autocomplete":
			d.Autocomplete = v
		case "type":
			d.InputType = v
		case "placeholder":
			d.Placeholder = v
		case "aria_label", "aria-label":
			d.AriaLabel = v
		default:
			return d, errors.New("unknown attribute " + strconv.Quote(k))
		}
	}
	return d, nil
}

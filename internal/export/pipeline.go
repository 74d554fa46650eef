package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/convkit/convkit/internal/conversation"
	"github.com/convkit/convkit/internal/dataset"
	"github.com/convkit/convkit/internal/tokenizer"
)

// sysPromptFile is the optional system-prompt template at the corpus root.
const sysPromptFile = "sysprompt.txt"

// datetimeLayout renders the {datetime} placeholder as
// "02 January 2006 03:04 PM".
const datetimeLayout = "02 January 2006 03:04 PM"

// Outcome is the terminal state of an export run.
type Outcome int

// Terminal outcomes.
const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one entry in the run's event stream. Progress events carry
// Current/Total; the single final event has Terminal set and carries the
// outcome, run statistics and, for failures, the fatal error.
type Event struct {
	Current  int
	Total    int
	Terminal bool
	Outcome  Outcome
	Stats    Stats
	Err      error
}

// Stats summarizes a run.
type Stats struct {
	Files   int // files discovered
	Rows    int // dataset rows written
	Skipped int // files skipped due to per-file errors
}

// Pipeline runs one export: discover conversation files, encode them and
// stream rows into a .cvds dataset.
type Pipeline struct {
	cfg    Config
	tok    tokenizer.Tokenizer
	logger zerolog.Logger
	now    func() time.Time
}

// NewPipeline creates a Pipeline. The configuration must already be
// validated.
func NewPipeline(tok tokenizer.Tokenizer, cfg Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		tok:    tok,
		logger: logger,
		now:    time.Now,
	}
}

// Run starts the export on its own goroutine and returns the event stream.
//
// The channel delivers zero or more progress events followed by exactly one
// terminal event, then closes. The caller must consume the channel until it
// is closed. Cancel ctx to stop the run cooperatively: the file being
// processed is finished and appended, then the dataset is closed and a
// cancelled outcome is emitted. Rows already written remain valid.
func (p *Pipeline) Run(ctx context.Context) <-chan Event {
	events := make(chan Event, 16)

	var wg conc.WaitGroup
	wg.Go(func() {
		p.run(ctx, events)
	})

	go func() {
		if r := wg.WaitAndRecover(); r != nil {
			events <- Event{
				Terminal: true,
				Outcome:  OutcomeFailed,
				Err:      fmt.Errorf("export panicked: %w", r.AsError()),
			}
		}
		close(events)
	}()

	return events
}

func (p *Pipeline) run(ctx context.Context, events chan<- Event) {
	files, err := p.discover()
	if err != nil {
		p.fail(events, err)
		return
	}
	if len(files) == 0 {
		p.fail(events, fmt.Errorf("%w under %q", ErrNoFiles, p.cfg.RootDir))
		return
	}

	writer, err := dataset.Create(p.cfg.OutputPath)
	if err != nil {
		p.fail(events, fmt.Errorf("%w: %w", ErrStorage, err))
		return
	}
	// Close is idempotent; the deferred call covers early returns and the
	// checked call at the end reports flush failures.
	defer func() { _ = writer.Close() }()

	writer.PutMetadata("tokenizer", p.tok.Name())
	writer.PutMetadata("ignore_index", strconv.Itoa(int(p.cfg.IgnoreIndex)))
	writer.PutMetadata("assistant_name", p.cfg.AssistantName)

	p.logger.Info().
		Int("files", len(files)).
		Str("output", p.cfg.OutputPath).
		Msg("starting export")

	enc := NewEncoder(p.tok, p.cfg)
	template := p.loadSystemPrompt()
	stats := Stats{Files: len(files)}
	cancelled := false

	p.progress(ctx, events, 0, len(files))

	for i, path := range files {
		// Cancellation is polled only at file boundaries; a row, once
		// begun, is always fully written or not written at all.
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		if err := p.processFile(path, enc, writer, template); err != nil {
			if errors.Is(err, ErrStorage) {
				p.fail(events, err)
				return
			}
			stats.Skipped++
			p.logger.Warn().Str("file", filepath.Base(path)).Err(err).Msg("skipping conversation file")
		}

		p.progress(ctx, events, i+1, len(files))
	}

	stats.Rows = writer.Rows()
	if err := writer.Close(); err != nil {
		p.fail(events, fmt.Errorf("%w: %w", ErrStorage, err))
		return
	}

	outcome := OutcomeCompleted
	if cancelled {
		outcome = OutcomeCancelled
	}
	p.logger.Info().
		Stringer("outcome", outcome).
		Int("rows", stats.Rows).
		Int("skipped", stats.Skipped).
		Msg("export finished")

	events <- Event{Terminal: true, Outcome: outcome, Stats: stats}
}

// processFile encodes one conversation file and appends its row. Returned
// errors wrapping ErrStorage are fatal; everything else skips the file.
func (p *Pipeline) processFile(path string, enc *Encoder, writer *dataset.Writer, template string) error {
	conv, err := conversation.Load(path)
	if err != nil {
		return err
	}

	if len(conv) == 0 || conv[0].Role != "system" {
		if item, ok := p.systemItem(template); ok {
			conv = append(conversation.Conversation{item}, conv...)
		}
	}

	rec, err := enc.Encode(conv)
	if err != nil {
		return err
	}
	if len(rec.InputIDs) == 0 {
		return nil
	}

	if err := writer.Append(rec.InputIDs, rec.Labels); err != nil {
		if errors.Is(err, dataset.ErrShape) {
			// Encoder defect: abort this file's write, keep the run going.
			return err
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// discover enumerates *.json files under the corpus root in lexicographic
// path order. This order fixes dataset row order.
func (p *Pipeline) discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.cfg.RootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %q: %w", ErrConfig, p.cfg.RootDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// loadSystemPrompt reads the sysprompt.txt template from the corpus root.
// A missing template is not an error; injection is simply skipped.
func (p *Pipeline) loadSystemPrompt() string {
	path := filepath.Join(p.cfg.RootDir, sysPromptFile)
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is derived from the configured corpus root.
	if err != nil {
		p.logger.Warn().Str("path", path).Msg("system prompt template not found, not injecting")
		return ""
	}
	return strings.TrimSpace(string(data))
}

// systemItem builds the injected system turn from the template, replacing a
// literal {datetime} placeholder with the current local time.
func (p *Pipeline) systemItem(template string) (conversation.Item, bool) {
	if template == "" {
		return conversation.Item{}, false
	}

	text := template
	if strings.Contains(text, "{datetime}") {
		text = strings.ReplaceAll(text, "{datetime}", p.now().Format(datetimeLayout))
	}

	return conversation.Item{
		Role: "system",
		Content: []conversation.Block{
			&conversation.TextBlock{
				Segments: []conversation.TextSegment{{Text: text, Learnable: false}},
			},
		},
	}, true
}

func (p *Pipeline) progress(ctx context.Context, events chan<- Event, current, total int) {
	select {
	case events <- Event{Current: current, Total: total}:
	case <-ctx.Done():
	}
}

func (p *Pipeline) fail(events chan<- Event, err error) {
	p.logger.Error().Err(err).Msg("export failed")
	events <- Event{Terminal: true, Outcome: OutcomeFailed, Err: err}
}

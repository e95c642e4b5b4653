// Command musictext parses plain-text music notation.
// It analyzes notation files, stores results, and serves the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	apperrors "github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/pipeline"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/core/sqlite"
	"github.com/FocuswithJustin/musictext/internal/api"
	"github.com/FocuswithJustin/musictext/internal/logging"
	"github.com/FocuswithJustin/musictext/internal/metrics"
	"github.com/FocuswithJustin/musictext/internal/store"
	"github.com/FocuswithJustin/musictext/internal/validation"
)

const version = "0.1.0"

// Output streams, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errStavesFailed is returned when a document has failed staves and the
// command treats that as fatal.
var errStavesFailed = errors.New("one or more staves failed")

// CLI defines the command-line interface for musictext.
var CLI struct {
	// Global flags
	DB        string `name:"db" help:"Document database path" default:"musictext.db" env:"MUSICTEXT_DB" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"MUSICTEXT_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format" enum:"text,json" default:"text"`
	SentryDSN string `name:"sentry-dsn" help:"Sentry DSN for tracing and defect reports" env:"SENTRY_DSN"`

	Parse   ParseCmd   `cmd:"" help:"Parse a notation file"`
	Check   CheckCmd   `cmd:"" help:"Report warnings and errors in a notation file"`
	Systems SystemsCmd `cmd:"" help:"List notation systems"`
	History HistoryCmd `cmd:"" help:"List stored documents"`
	Show    ShowCmd    `cmd:"" help:"Show a stored document"`
	Export  ExportCmd  `cmd:"" help:"Export a stored document as JSON"`
	Serve   ServeCmd   `cmd:"" help:"Start REST API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ParseCmd runs the pipeline over one file.
type ParseCmd struct {
	File    string `arg:"" help:"Notation file, or - for standard input" default:"-"`
	Format  string `help:"Output format" enum:"json,text" default:"json" short:"f"`
	System  string `help:"Notation system (auto, number, sargam, western, bhatkhande, tabla)" default:"auto" short:"s"`
	Workers int    `help:"Staves analyzed in parallel (0 = one per CPU)" default:"0"`
	Store   string `help:"Store the result in this database and print its ID" type:"path"`
	Strict  bool   `help:"Exit non-zero when any stave fails"`
}

func (c *ParseCmd) Run() error {
	text, err := readInput(c.File)
	if err != nil {
		return err
	}
	system, err := notation.ParseSystem(c.System)
	if err != nil {
		return err
	}

	m := initMetrics()
	defer m.Flush(2 * time.Second)

	start := time.Now()
	doc, err := pipeline.Process(context.Background(), text, pipeline.Options{
		System:  system,
		Workers: c.Workers,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if c.Store != "" {
		st, err := store.Open(c.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(context.Background(), doc, text)
		if err != nil {
			return err
		}
		doc.ID = id
		fmt.Fprintf(stderr, "stored %s\n", id)
	}

	switch c.Format {
	case "text":
		writeSummary(stdout, doc, elapsed)
	default:
		if err := writeJSON(stdout, doc); err != nil {
			return err
		}
	}

	if c.Strict && len(doc.Failures) > 0 {
		return fmt.Errorf("%w: %d of %d", errStavesFailed, len(doc.Failures), len(doc.Failures)+len(doc.Staves))
	}
	return nil
}

// CheckCmd prints diagnostics in source order.
type CheckCmd struct {
	File   string `arg:"" help:"Notation file, or - for standard input" default:"-"`
	System string `help:"Notation system" default:"auto" short:"s"`
}

func (c *CheckCmd) Run() error {
	text, err := readInput(c.File)
	if err != nil {
		return err
	}
	system, err := notation.ParseSystem(c.System)
	if err != nil {
		return err
	}
	doc, err := pipeline.Process(context.Background(), text, pipeline.Options{System: system})
	if err != nil {
		return err
	}

	diags := diagnostics(doc)
	for _, d := range diags {
		fmt.Fprintf(stdout, "%s %s %s\n", d.Position, d.Kind, d.Message)
	}
	if len(diags) == 0 {
		fmt.Fprintf(stdout, "ok: %d stave(s), %d note(s)\n", len(doc.Staves), doc.NoteCount())
	}
	if len(doc.Failures) > 0 {
		return errStavesFailed
	}
	return nil
}

type diagnostic struct {
	Position score.Position
	Kind     string
	Message  string
}

// diagnostics flattens failures, rhythm errors and warnings into one list
// ordered by position.
func diagnostics(doc *score.Document) []diagnostic {
	var out []diagnostic
	for _, f := range doc.Failures {
		out = append(out, diagnostic{f.Position, f.Kind + "-error", f.Message})
	}
	for _, st := range doc.Staves {
		c := st.Content
		for i, b := range c.Beats {
			if b.Error == "" || len(b.Elements) == 0 {
				continue
			}
			pos := c.Elements[b.Elements[0]].Source.Position
			out = append(out, diagnostic{pos, "rhythm-error", fmt.Sprintf("beat %d: %s", i+1, b.Error)})
		}
	}
	for _, w := range doc.AllWarnings() {
		out = append(out, diagnostic{w.Position, string(w.Kind), w.Message})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position.Before(out[j].Position)
	})
	return out
}

// SystemsCmd lists notation systems and their pitch symbols.
type SystemsCmd struct{}

func (c *SystemsCmd) Run() error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYSTEM\tSYMBOLS")
	for _, s := range notation.Systems() {
		fmt.Fprintf(tw, "%s\t%s\n", s, strings.Join(notation.Symbols(s), " "))
	}
	return tw.Flush()
}

// HistoryCmd lists stored documents, newest first.
type HistoryCmd struct {
	Limit int `help:"Maximum documents to list" default:"20" short:"n"`
}

func (c *HistoryCmd) Run() error {
	st, err := store.OpenReadOnly(CLI.DB)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		fmt.Fprintln(stdout, "no stored documents")
		return nil
	}
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.List(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(stdout, "no stored documents")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTORED\tSYSTEM\tSTAVES\tFAILED\tSIZE\tTITLE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			s.ID, humanize.Time(s.CreatedAt), s.System, s.Staves, s.Failures,
			humanize.Bytes(uint64(s.Size)), s.Title)
	}
	return tw.Flush()
}

// ShowCmd prints a stored document.
type ShowCmd struct {
	ID     string `arg:"" help:"Document ID"`
	Format string `help:"Output format" enum:"json,text" default:"text" short:"f"`
	Source bool   `help:"Also print the source text (text format only)"`
}

func (c *ShowCmd) Run() error {
	st, err := store.OpenReadOnly(CLI.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return writeJSON(stdout, rec)
	}
	fmt.Fprintf(stdout, "ID: %s\nStored: %s\n", rec.ID, humanize.Time(rec.CreatedAt))
	writeSummary(stdout, rec.Document, 0)
	if c.Source {
		fmt.Fprintf(stdout, "\n%s\n", rec.Source)
	}
	return nil
}

// ExportCmd writes a stored document's JSON to a file or standard output.
type ExportCmd struct {
	ID     string `arg:"" help:"Document ID"`
	Output string `help:"Output file (- for standard output)" default:"-" short:"o"`
	XZ     bool   `name:"xz" help:"Write the xz-compressed payload as stored"`
}

func (c *ExportCmd) Run() error {
	st, err := store.OpenReadOnly(CLI.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := st.Payload(context.Background(), c.ID)
	if err != nil {
		return err
	}
	if !c.XZ {
		if data, err = store.Decompress(data); err != nil {
			return err
		}
	}

	if c.Output == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(c.Output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Output, err)
	}
	fmt.Fprintf(stderr, "wrote %s (%s)\n", c.Output, humanize.Bytes(uint64(len(data))))
	return nil
}

// ServeCmd starts the REST API.
type ServeCmd struct {
	Port           int      `help:"HTTP server port" default:"8081" env:"MUSICTEXT_PORT"`
	NoStore        bool     `name:"no-store" help:"Serve without a document database"`
	System         string   `help:"Default notation system" default:"auto"`
	Workers        int      `help:"Staves analyzed in parallel per request (0 = one per CPU)" default:"0"`
	MaxBody        int64    `name:"max-body" help:"Request body limit in bytes" default:"1048576"`
	RateLimit      int      `name:"rate-limit" help:"Requests per minute per client (0 = disabled)" default:"0"`
	RateBurst      int      `name:"rate-burst" help:"Rate limit burst size" default:"10"`
	AllowedOrigins []string `name:"allowed-origin" help:"Allowed CORS and websocket origins (repeatable)"`
	TLSCert        string   `name:"tls-cert" help:"TLS certificate file" type:"path"`
	TLSKey         string   `name:"tls-key" help:"TLS private key file" type:"path"`
}

func (c *ServeCmd) Run() error {
	system, err := notation.ParseSystem(c.System)
	if err != nil {
		return err
	}

	var st *store.Store
	if !c.NoStore {
		if st, err = store.Open(CLI.DB); err != nil {
			return err
		}
		defer st.Close()
	}

	m := initMetrics()
	defer m.Flush(2 * time.Second)

	cfg := api.Config{
		Port:              c.Port,
		Workers:           c.Workers,
		DefaultSystem:     system,
		MaxBodyBytes:      c.MaxBody,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateBurst,
		AllowedOrigins:    c.AllowedOrigins,
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "" || c.TLSKey != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.New(cfg, st, m).Start(ctx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "musictext version %s (sqlite: %s)\n", version, info.Package)
	return nil
}

// Helper functions

func readInput(path string) (string, error) {
	r := stdin
	if path != "-" && path != "" {
		if err := validation.ValidatePath(path); err != nil {
			return "", err
		}
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		defer f.Close()
		r = f
	}
	text, err := validation.ReadText(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return text, nil
}

func initMetrics() *metrics.SentryMetrics {
	m, err := metrics.Init(metrics.Config{
		DSN:     CLI.SentryDSN,
		Release: "musictext@" + version,
	})
	if err != nil {
		logging.Warn("tracing disabled", "error", err)
	}
	return m
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSummary prints a short human-readable account of doc. A zero
// elapsed duration is omitted.
func writeSummary(w io.Writer, doc *score.Document, elapsed time.Duration) {
	if doc.Title != "" {
		title := doc.Title
		if doc.Author != "" {
			title += " by " + doc.Author
		}
		fmt.Fprintf(w, "Title: %s\n", title)
	}
	fmt.Fprintf(w, "System: %s\n", doc.System)
	fmt.Fprintf(w, "Staves: %d  Notes: %d  Failed: %d  Warnings: %d\n",
		len(doc.Staves), doc.NoteCount(), len(doc.Failures), len(doc.AllWarnings()))
	if elapsed > 0 {
		fmt.Fprintf(w, "Parsed in %s\n", durafmt.Parse(elapsed).LimitFirstN(2))
	}

	for _, st := range doc.Staves {
		c := st.Content
		tuplets := 0
		for _, b := range c.Beats {
			if b.Tuplet {
				tuplets++
			}
		}
		fmt.Fprintf(w, "  stave %d (line %d): %d notes, %d beats", st.Index+1, c.Line, len(c.Notes()), len(c.Beats))
		if tuplets > 0 {
			fmt.Fprintf(w, ", %d tuplet(s)", tuplets)
		}
		if n := len(st.BeatErrors); n > 0 {
			fmt.Fprintf(w, ", %d beat error(s)", n)
		}
		fmt.Fprintln(w)
	}
	for _, f := range doc.Failures {
		fmt.Fprintf(w, "  stave %d failed at %s: %s\n", f.Index+1, f.Position, f.Message)
	}

	counts := score.CountByKind(doc.AllWarnings())
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[score.WarningKind(k)])
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("musictext"),
		kong.Description("musictext - plain-text music notation parser"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)
	api.Version = version

	err = ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}

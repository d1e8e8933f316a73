// Command menota helps edit TEI/Menota manuscript transcriptions.
// It previews and inserts page and line break milestones and wraps the words
// and punctuation of a transcription in <w> and <pc> elements.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/motheatensoul/menota-helper/core/errors"
	"github.com/motheatensoul/menota-helper/core/milestone"
	"github.com/motheatensoul/menota-helper/core/numbering"
	"github.com/motheatensoul/menota-helper/core/xml"
	"github.com/motheatensoul/menota-helper/internal/config"
	"github.com/motheatensoul/menota-helper/internal/editor"
	"github.com/motheatensoul/menota-helper/internal/logging"
	"github.com/motheatensoul/menota-helper/internal/validation"
)

const version = "0.2.0"

// CLI defines the command-line interface for menota.
type CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"YAML configuration file" type:"path" env:"MENOTA_CONFIG"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`

	Preview       PreviewCmd       `cmd:"" help:"Show the latest page and line breaks and their next values"`
	Next          NextCmd          `cmd:"" help:"Print the numbering value that follows a value"`
	Wrap          WrapCmd          `cmd:"" help:"Wrap words and punctuation of the whole transcription"`
	WrapParagraph WrapParagraphCmd `cmd:"" name:"wrap-paragraph" help:"Wrap words and punctuation of the paragraph at an offset"`
	Insert        InsertCmd        `cmd:"" help:"Insert the next page or line break at an offset"`
	Check         CheckCmd         `cmd:"" help:"Check that transcriptions are well-formed"`
	Version       VersionCmd       `cmd:"" help:"Print version information"`
}

// Env is what every command runs with.
type Env struct {
	Ctx    context.Context
	Config *config.Config
	Stdout io.Writer
}

func (e *Env) editor(buf *editor.Buffer) *editor.Editor {
	return editor.New(buf, e.Config.Scheme())
}

// OutputFlags select where a transformed transcription goes. Without either
// flag it is written to stdout.
type OutputFlags struct {
	InPlace bool   `name:"in-place" short:"i" help:"Overwrite the input file" xor:"output"`
	Out     string `name:"out" short:"o" help:"Output file (.xz and .gz are compressed)" type:"path" xor:"output"`
}

func (o OutputFlags) write(env *Env, buf *editor.Buffer, path string, changed bool) error {
	switch {
	case o.InPlace:
		if !changed {
			logging.InfoContext(env.Ctx, "unchanged, not rewritten", "path", path)
			return nil
		}
		return buf.Save(path)
	case o.Out != "":
		if err := validation.ValidatePath(o.Out); err != nil {
			return errors.Wrap(err, "invalid output path")
		}
		return buf.Save(o.Out)
	default:
		_, err := io.WriteString(env.Stdout, buf.Text())
		return err
	}
}

func load(path string) (*editor.Buffer, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.Wrap(err, "invalid input path")
	}
	return editor.Load(path)
}

// PreviewCmd shows the latest milestones.
type PreviewCmd struct {
	Path string `arg:"" help:"Transcription file" type:"existingfile"`
	JSON bool   `name:"json" help:"Print JSON"`
}

func (c *PreviewCmd) Run(env *Env) error {
	buf, err := load(c.Path)
	if err != nil {
		return err
	}
	p, err := env.editor(buf).PreviewMilestones(env.Ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(previewJSON(p))
	}
	for _, row := range []struct {
		kind milestone.Kind
		info *milestone.Info
	}{{milestone.PageBreak, p.PageBreak}, {milestone.LineBreak, p.LineBreak}} {
		if row.info == nil {
			fmt.Fprintf(env.Stdout, "%s\t(none)\n", row.kind)
			continue
		}
		fmt.Fprintf(env.Stdout, "%s\t%q -> %q\n", row.kind, row.info.Current, row.info.Next)
	}
	return nil
}

type milestoneJSON struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

func previewJSON(p milestone.Preview) map[string]milestoneJSON {
	out := make(map[string]milestoneJSON)
	if p.PageBreak != nil {
		out["pageBreak"] = milestoneJSON{Current: p.PageBreak.Current, Next: p.PageBreak.Next}
	}
	if p.LineBreak != nil {
		out["lineBreak"] = milestoneJSON{Current: p.LineBreak.Current, Next: p.LineBreak.Next}
	}
	return out
}

// NextCmd prints the successor of a numbering value.
type NextCmd struct {
	Value string `arg:"" optional:"" help:"Current value (empty starts at 1)"`
}

func (c *NextCmd) Run(env *Env) error {
	_, err := fmt.Fprintln(env.Stdout, numbering.Next(c.Value))
	return err
}

// WrapCmd wraps a whole transcription.
type WrapCmd struct {
	Path string `arg:"" help:"Transcription file" type:"existingfile"`
	OutputFlags `embed:""`
}

func (c *WrapCmd) Run(env *Env) error {
	buf, err := load(c.Path)
	if err != nil {
		return err
	}
	before := buf.Revision()
	changed, err := env.editor(buf).WrapDocument(env.Ctx)
	if err != nil {
		return err
	}
	logging.DebugContext(env.Ctx, "revision", "path", c.Path, "before", before, "after", buf.Revision())
	return c.write(env, buf, c.Path, changed)
}

// WrapParagraphCmd wraps the paragraph around a byte offset.
type WrapParagraphCmd struct {
	Path   string `arg:"" help:"Transcription file" type:"existingfile"`
	Offset int    `required:"" help:"Byte offset inside the paragraph"`
	OutputFlags `embed:""`
}

func (c *WrapParagraphCmd) Run(env *Env) error {
	buf, err := load(c.Path)
	if err != nil {
		return err
	}
	if err := buf.SetCursor(c.Offset); err != nil {
		return errors.Wrapf(err, "offset %d", c.Offset)
	}
	changed, err := env.editor(buf).WrapParagraph(env.Ctx)
	if err != nil {
		return err
	}
	return c.write(env, buf, c.Path, changed)
}

// InsertCmd inserts the next milestone.
type InsertCmd struct {
	Path   string `arg:"" help:"Transcription file" type:"existingfile"`
	Kind   string `required:"" enum:"pb,lb,page,line" help:"Milestone kind (pb, lb)"`
	Offset int    `required:"" help:"Byte offset to insert at"`
	OutputFlags `embed:""`
}

func (c *InsertCmd) Run(env *Env) error {
	kind, err := milestone.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	buf, err := load(c.Path)
	if err != nil {
		return err
	}
	if err := buf.SetCursor(c.Offset); err != nil {
		return errors.Wrapf(err, "offset %d", c.Offset)
	}
	if _, err := env.editor(buf).InsertMilestone(env.Ctx, kind); err != nil {
		return err
	}
	return c.write(env, buf, c.Path, true)
}

// CheckCmd checks well-formedness.
type CheckCmd struct {
	Paths []string `arg:"" help:"Transcription files"`
}

func (c *CheckCmd) Run(env *Env) error {
	failed := 0
	for _, path := range c.Paths {
		buf, err := load(path)
		if err != nil {
			return err
		}
		result := xml.Validate(buf.Text())
		if result.Valid {
			fmt.Fprintf(env.Stdout, "%s: ok\n", path)
			continue
		}
		failed++
		for _, e := range result.Errors {
			fmt.Fprintf(env.Stdout, "%s:%d: %s\n", path, e.Line, e.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files are not well-formed", failed, len(c.Paths))
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	_, err := fmt.Fprintf(env.Stdout, "menota version %s\n", version)
	return err
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("menota"),
		kong.Description("Menota helper - milestone numbering and word wrapping for TEI transcriptions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}
}

// execute loads the configuration, sets up logging and runs the selected
// command.
func execute(kctx *kong.Context, cli *CLI, stdout, stderr io.Writer) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.InitLogger(cfg.LogLevel(), cfg.LogFormat(), stderr)

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	logging.DebugContext(ctx, "command", "name", kctx.Command())

	return kctx.Run(&Env{Ctx: ctx, Config: cfg, Stdout: stdout})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, options()...)
	err := execute(ctx, &cli, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
}

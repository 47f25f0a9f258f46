package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"Pontis/internal/config"
	"Pontis/internal/design"
	"Pontis/internal/importer"
	"Pontis/internal/knowledge"
	"Pontis/internal/llm"
	"Pontis/internal/logging"
	"Pontis/internal/pipeline"
	"Pontis/internal/report"
)

type cli struct {
	offline  bool
	logLevel string

	// constraint flags shared by the design commands
	typeOverride string
	span         float64
	lanes        string
	seismic      string
	girders      int

	log *slog.Logger
	svc *pipeline.Service
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "pontisctl",
		Short:         "Bridge design pipeline: requirements to parameters, scene and drawings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}
	root.PersistentFlags().BoolVar(&c.offline, "offline", false, "Use only the local extractor, no remote LLM calls")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	for _, cmd := range []*cobra.Command{
		c.designCommand(),
		c.sceneCommand(),
		c.svgCommand(),
		c.reportCommand(),
		c.batchCommand(),
		c.knowledgeCommand(),
	} {
		root.AddCommand(cmd)
	}
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.log = logging.New(logging.Config{Level: level, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

	kb, err := knowledge.Load()
	if err != nil {
		return err
	}
	var analyzer *llm.Analyzer
	if c.offline {
		analyzer = llm.NewAnalyzer(nil, c.log, llm.NewQwen())
	} else {
		analyzer = llm.NewChain(cfg.LLM.Chain(), nil, c.log)
	}
	c.svc = pipeline.New(analyzer, kb, nil, c.log)
	return nil
}

func (c *cli) addConstraintFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.typeOverride, "type", "", "Bridge type override, e.g. \"Steel Truss Bridge\"")
	cmd.Flags().Float64Var(&c.span, "span", 0, "Span override in metres")
	cmd.Flags().StringVar(&c.lanes, "lanes", "", "Lane override, e.g. \"four lanes\"")
	cmd.Flags().StringVar(&c.seismic, "seismic", "", "Seismic intensity of the site, e.g. \"8度\"")
	cmd.Flags().IntVar(&c.girders, "girders", 0, "Number of girders for T-girder sections")
}

func (c *cli) constraints() design.Constraints {
	out := design.Constraints{
		BridgeTypeOverride: c.typeOverride,
		LaneOverride:       c.lanes,
		SeismicIntensity:   c.seismic,
	}
	if c.span > 0 {
		span := c.span
		out.SpanOverride = &span
	}
	if c.girders > 0 {
		n := c.girders
		out.NumGirders = &n
	}
	return out
}

// generate runs the full pipeline; an analysis failure is returned as an error.
func (c *cli) generate(cmd *cobra.Command, args []string) (pipeline.Design, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return pipeline.Design{}, errors.New("requirements text is required")
	}
	switch out := c.svc.Generate(cmd.Context(), pipeline.Request{UserRequirements: text, Constraints: c.constraints()}).(type) {
	case pipeline.Designed:
		return out.Design, nil
	case pipeline.AnalysisFailed:
		return pipeline.Design{}, fmt.Errorf("analysis failed: %w", out.Err)
	}
	return pipeline.Design{}, errors.New("unexpected outcome")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// output opens path for writing, or returns stdout for "" and "-".
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (c *cli) designCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "design <requirements...>",
		Short: "Analyse requirements and print the refined design",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.generate(cmd, args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, d)
			}
			p := d.Params
			fmt.Fprintf(w, "Design %s (provider %s)\n", d.ID, d.Provider)
			fmt.Fprintf(w, "  Type:          %s\n", p.BridgeType)
			fmt.Fprintf(w, "  Span:          %.2f m\n", p.SpanM)
			fmt.Fprintf(w, "  Width:         %.2f m (%d lanes)\n", p.BridgeWidthM, p.NumLanes)
			fmt.Fprintf(w, "  Girder depth:  %.2f m\n", p.GirderDepthM)
			if p.SeismicIntensity != "" {
				fmt.Fprintf(w, "  Seismic:       %s\n", p.SeismicIntensity)
			}
			for _, n := range d.Report.Notes {
				mark := "ok  "
				if !n.Passed {
					mark = "warn"
				}
				fmt.Fprintf(w, "  [%s] %s\n", mark, n.Message)
			}
			fmt.Fprintf(w, "  %s\n", d.Report.Summary)
			return nil
		},
	}
	c.addConstraintFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full design as JSON")
	return cmd
}

func (c *cli) sceneCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scene <requirements...>",
		Short: "Print the 3D scene descriptor for the requirements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.generate(cmd, args)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := writeJSON(w, c.svc.BuildScene(d.Params)); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	c.addConstraintFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func (c *cli) svgCommand() *cobra.Command {
	var out, view string
	cmd := &cobra.Command{
		Use:   "svg <requirements...>",
		Short: "Render the elevation or section drawing as SVG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var render func(design.Parameters) string
			switch view {
			case "elevation":
				render = c.svc.RenderElevationSVG
			case "section":
				render = c.svc.RenderSectionSVG
			default:
				return fmt.Errorf("unknown view %q (elevation, section)", view)
			}
			d, err := c.generate(cmd, args)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, render(d.Params)); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	c.addConstraintFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&view, "view", "elevation", "Drawing view: elevation or section")
	return cmd
}

func (c *cli) reportCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report <requirements...>",
		Short: "Write a PDF design report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required for PDF output")
			}
			d, err := c.generate(cmd, args)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if err := report.Design(w, d, report.Options{}); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	c.addConstraintFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output PDF file")
	return cmd
}

// batchCommand refines intents from an .xlsx sheet or a JSON array of
// {"intent", "constraints"} items, without calling any LLM.
func (c *cli) batchCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "batch <input.xlsx|input.json>",
		Short: "Refine and validate a batch of intents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, lines, err := readBatch(args[0], c.log)
			if err != nil {
				return err
			}
			results, err := c.svc.RefineBatch(cmd.Context(), items)
			if err != nil {
				return err
			}
			w, closeFn, err := output(cmd, out)
			if err != nil {
				return err
			}
			if strings.EqualFold(filepath.Ext(out), ".xlsx") {
				err = importer.Export(w, results, lines)
			} else {
				err = writeJSON(w, results)
			}
			if err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; .xlsx writes a spreadsheet, anything else JSON")
	return cmd
}

func readBatch(path string, log *slog.Logger) ([]pipeline.BatchItem, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, bad, err := importer.Read(f)
		if err != nil {
			return nil, nil, err
		}
		for _, b := range bad {
			log.Warn("row skipped", "line", b.Line, "error", b.Error)
		}
		items := make([]pipeline.BatchItem, len(rows))
		lines := make([]int, len(rows))
		for i, r := range rows {
			items[i], lines[i] = r.Item, r.Line
		}
		return items, lines, nil
	}

	var items []pipeline.BatchItem
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return items, nil, nil
}

func (c *cli) knowledgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Query the built-in knowledge base",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "types [name]",
		Short: "List bridge types, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb := c.svc.Knowledge()
			if len(args) == 0 {
				for _, t := range kb.BridgeTypes() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s m\n", t.Name, t.TypicalSpans)
				}
				return nil
			}
			info, err := kb.BridgeType(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "material <category> <grade>",
		Short: "Show material properties, e.g. concrete C40/50",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := c.svc.Knowledge().MaterialProperty(args[0], args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), props)
		},
	})
	return cmd
}

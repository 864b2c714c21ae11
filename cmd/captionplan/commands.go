package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"caption-plan-go/internal/aggregator"
	"caption-plan-go/internal/dataset"
	"caption-plan-go/internal/editor"
	"caption-plan-go/internal/extractor"
	"caption-plan-go/internal/history"
	"caption-plan-go/internal/pipeline"
	"caption-plan-go/internal/processor"
	"caption-plan-go/internal/project"
	"caption-plan-go/internal/segmenter"
	"caption-plan-go/internal/types"
)

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "segment <transcript.json|transcript.xlsx>",
		Short: "Split a timed transcript into caption segments without annotating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := dataset.LoadTranscript(args[0])
			if err != nil {
				return err
			}
			segments := segmenter.New(cfg.Pipeline).Segment(entries)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), segments)
			}
			fmt.Fprintln(cmd.OutOrStdout(), segmentTable(segments))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print segments as JSON")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "plan <transcript.json|transcript.xlsx>",
		Short: "Segment and annotate a transcript into an edit plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := dataset.LoadTranscript(args[0])
			if err != nil {
				return err
			}
			decider, err := ctx.decider()
			if err != nil {
				return err
			}
			plan, err := pipeline.New(cfg.Pipeline, decider).Run(cmd.Context(), entries)
			if err != nil {
				return err
			}

			if outPath == "" {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			if err := writeJSONFile(outPath, plan); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, planTable(plan))
			fmt.Fprintln(out, summaryLine(aggregator.Summarize(plan)))

			return ctx.withHistory(func(store *history.Store) error {
				id, err := store.Record(cmd.Context(), history.KindPlan, "", types.Project{EditPlan: plan})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "wrote %s (history %s)\n", outPath, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the plan to this file instead of stdout")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <instruction>",
		Short: "Apply a natural-language edit to the current project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			instruction := strings.Join(args, " ")

			return ctx.withHistory(func(store *history.Store) error {
				proc := processor.New(processor.Deps{
					Editor:   editor.New(extractor.NewEditCompleter(cfg.LLM), cfg.Pipeline),
					Projects: project.NewStore(cfg.Storage.ProjectFile),
					History:  store,
				})
				res, err := proc.ApplyEdit(cmd.Context(), instruction)
				if err != nil {
					var editErr *editor.EditApplyError
					if errors.As(err, &editErr) && editErr.Raw != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "model reply:\n%s\n", editErr.Raw)
					}
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, planTable(res.Project.EditPlan))
				fmt.Fprintln(out, summaryLine(res.Summary))
				return nil
			})
		},
	}
	return cmd
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <plan.json> <out.xlsx>",
		Short: "Export an edit plan or project payload to a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(args[0])
			if err != nil {
				return err
			}
			if err := dataset.ExportPlan(plan, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d segments to %s\n", len(plan.Segments), args[1])
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current project's edit plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p, err := project.NewStore(cfg.Storage.ProjectFile).Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "video %s, %dx%d, %.2fs\n", p.Video, p.Metadata.Width, p.Metadata.Height, p.Metadata.Duration)
			fmt.Fprintln(out, planTable(p.EditPlan))
			fmt.Fprintln(out, summaryLine(aggregator.Summarize(p.EditPlan)))
			return nil
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent plans and edits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no history yet")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						e.Kind,
						fmt.Sprint(e.Segments),
						e.Instruction,
						e.ID,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"When", "Kind", "Segments", "Instruction", "ID"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

// readPlan accepts either a bare edit plan or a project payload.
func readPlan(path string) (types.EditPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.EditPlan{}, err
	}
	var probe struct {
		EditPlan *types.EditPlan          `json:"editPlan"`
		Segments []types.AnnotatedSegment `json:"segments"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return types.EditPlan{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if probe.EditPlan != nil {
		return *probe.EditPlan, nil
	}
	return types.EditPlan{Segments: probe.Segments}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Command numgrade parses, formats and grades numeric answers from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-numeric/internal/grading"
	"github.com/mind-engage/mindengage-numeric/internal/logging"
	"github.com/mind-engage/mindengage-numeric/internal/numeric"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "numgrade",
		Short: "Parse, format and grade numeric-input answers",
		Long: `numgrade runs the numeric-input grading engine outside the server.

Answers files are YAML lists of candidates, for example:

  - value: 0.5
    status: correct
    simplify: required
  - value: 1
    status: wrong
    message: Too big`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			l, err := logging.New(level, true)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log grading decisions")
	root.AddCommand(c.parseCmd(), c.formatCmd(), c.gradeCmd(), formsCmd())
	return root
}

func (c *cli) parseCmd() *cobra.Command {
	var allowEmpty bool
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Show how a piece of text reads as a number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			state := numeric.Check(args[0], allowEmpty)
			fmt.Fprintf(out, "state: %s\n", state)
			if state != numeric.StateNumber {
				return nil
			}
			rd := numeric.Read(args[0])
			fmt.Fprintf(out, "value: %v\nform: %s\nsimplified: %t\n", rd.Number, rd.Form, rd.Simplified)
			return nil
		},
	}
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "treat blank text as an allowed empty answer")
	return cmd
}

func (c *cli) formatCmd() *cobra.Command {
	var form string
	cmd := &cobra.Command{
		Use:   "format <number>",
		Short: "Render a number in an answer form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := numeric.ParseForm(form)
			if err != nil {
				return err
			}
			v := numeric.Parse(args[0])
			if !v.IsNumber() {
				return fmt.Errorf("%q is not a number", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), numeric.Format(v.Number, f))
			return nil
		},
	}
	cmd.Flags().StringVar(&form, "form", string(numeric.FormDecimal), "answer form: "+formNames())
	return cmd
}

func (c *cli) gradeCmd() *cobra.Command {
	var (
		answersPath string
		forms       []string
		allowEmpty  bool
		coefficient bool
	)
	cmd := &cobra.Command{
		Use:   "grade --answers <file.yaml> [guess]",
		Short: "Grade a guess against a candidate list and print the verdict",
		Long: `Grade a guess against the candidates in an answers file and print the
verdict as JSON. A missing guess is graded as an empty answer.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cands, err := loadAnswers(answersPath)
			if err != nil {
				return err
			}
			q := grading.Q{
				Type:        grading.TypeNumericInput,
				Answers:     cands,
				AllowEmpty:  allowEmpty,
				Coefficient: coefficient,
			}
			for _, s := range forms {
				f, err := numeric.ParseForm(s)
				if err != nil {
					return err
				}
				q.Forms = append(q.Forms, f)
			}
			guess := ""
			if len(args) == 1 {
				guess = args[0]
			}

			g := grading.NewDefaultGrader(grading.WithLogger(c.logger))
			v, err := g.Grade(context.Background(), q, guess)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "YAML file with the candidate list")
	cmd.Flags().StringSliceVar(&forms, "forms", nil, "offered answer forms (default all)")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "grade an empty guess instead of rejecting it")
	cmd.Flags().BoolVar(&coefficient, "coefficient", false, "read an empty guess as 1 and '-' as -1")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func formsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forms",
		Short: "List answer forms with an example of each",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, info := range numeric.Infos(numeric.AllForms) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", info.Name, info.Example)
			}
		},
	}
}

func loadAnswers(path string) ([]grading.Candidate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var cands []grading.Candidate
	if err := yaml.Unmarshal(b, &cands); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}
	return cands, nil
}

func formNames() string {
	names := make([]string, len(numeric.AllForms))
	for i, f := range numeric.AllForms {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

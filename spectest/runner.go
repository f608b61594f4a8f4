package spectest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// Result counts the outcome of a run.
type Result struct {
	Passed int
	Failed int
}

// Add accumulates o into r.
func (r *Result) Add(o Result) {
	r.Passed += o.Passed
	r.Failed += o.Failed
}

func (r Result) String() string {
	return fmt.Sprintf("%d tests passed, %d failed.", r.Passed, r.Failed)
}

// Runner checks a converter against examples and reports to Out.
type Runner struct {
	// Convert turns Markdown into HTML.
	Convert func(markdown string) string

	Out io.Writer

	// Verbose prints section names and a mark for every passing example.
	Verbose bool

	Log *zap.SugaredLogger
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Log == nil {
		return zap.NewNop().Sugar()
	}
	return r.Log
}

// Run converts every example and compares the output with the expected HTML.
func (r *Runner) Run(examples []Example) Result {
	var res Result
	section := ""
	for _, ex := range examples {
		if r.Verbose && ex.Section != section {
			section = ex.Section
			fmt.Fprintf(r.Out, "\n%s ", section)
		}

		got := r.Convert(ex.Markdown)
		if got == ex.HTML {
			res.Passed++
			if r.Verbose {
				fmt.Fprint(r.Out, color.GreenString("✓"))
			}
			continue
		}

		res.Failed++
		fmt.Fprintln(r.Out)
		fmt.Fprintln(r.Out, color.RedString("✘ Example %d", ex.Number))
		r.report(ex.Markdown, ex.HTML, got)
	}
	if r.Verbose {
		fmt.Fprintln(r.Out)
	}
	r.logger().Debugw("examples checked", "passed", res.Passed, "failed", res.Failed)
	return res
}

// RunCases converts every case, printing its name and the time it took.
func (r *Runner) RunCases(cases []Case) Result {
	var res Result
	for _, c := range cases {
		fmt.Fprintf(r.Out, "%s ", c.Name)

		start := time.Now()
		got := r.Convert(c.Input)
		elapsed := time.Since(start)

		if got == c.Expected {
			res.Passed++
			fmt.Fprintf(r.Out, "%s %s\n", color.GreenString("✓"), elapsed.Round(time.Millisecond))
		} else {
			res.Failed++
			fmt.Fprintf(r.Out, "%s %s\n", color.RedString("✘"), elapsed.Round(time.Millisecond))
			r.report(c.Input, c.Expected, got)
		}
		r.logger().Debugw("pathological case", "name", c.Name, "elapsed", elapsed, "ok", got == c.Expected)
	}
	return res
}

func (r *Runner) report(markdown, expected, got string) {
	fmt.Fprintln(r.Out, color.CyanString("=== markdown ==============="))
	fmt.Fprint(r.Out, ShowSpaces(markdown))
	fmt.Fprintln(r.Out, color.CyanString("=== expected ==============="))
	fmt.Fprint(r.Out, ShowSpaces(expected))
	fmt.Fprintln(r.Out, color.CyanString("=== got ===================="))
	fmt.Fprint(r.Out, ShowSpaces(got))
	fmt.Fprintln(r.Out, color.CyanString("=== diff ==================="))
	fmt.Fprintln(r.Out, Diff(expected, got))
}

// ShowSpaces makes tabs and spaces visible.
func ShowSpaces(s string) string {
	return strings.NewReplacer("\t", "→", " ", "␣").Replace(s)
}

// Diff returns a colored character diff from expected to got.
func Diff(expected, got string) string {
	dmp := diffpatch.New()
	diffs := dmp.DiffMain(expected, got, false)
	return dmp.DiffPrettyText(diffs)
}

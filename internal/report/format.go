package report

import (
	"fmt"
	"strconv"

	"github.com/aymerick/raymond"

	"github.com/fulmenhq/janitor/internal/contentrepo/dimensions"
	"github.com/fulmenhq/janitor/internal/contentrepo/nodetypes"
)

const (
	headlineTop    = "========================================= REPORT ============================================="
	headlineBottom = "=============================================================================================="
)

// Printer is the console surface reports write to. Text may contain
// <b>, <i>, <error> and <success> markup.
type Printer interface {
	Output(text string, args ...interface{})
	OutputLine(text string, args ...interface{})
	NewLine()
}

var (
	occurrenceTemplate = raymond.MustParse("<b>{{index}}.:</b>\n" +
		"<b>Context path:</b> {{{contextPath}}}\n" +
		"<b>Workspace:</b> {{{workspace}}} \n" +
		"<b>Dimensions:</b> {{{dimensions}}} \n" +
		"<b>Link:</b> {{{link}}}\n" +
		"\n")

	nodeTypeTemplate = raymond.MustParse("<b>{{{name}}}</b>\n" +
		"<b>abstract:</b> {{abstract}}\n" +
		"<b>aggregate:</b> {{aggregate}}\n" +
		"<b>label:</b> {{{label}}}\n")
)

func render(tpl *raymond.Template, data map[string]interface{}) string {
	out, err := tpl.Exec(data)
	if err != nil {
		return fmt.Sprintf("Error rendering template: %v\n", err)
	}
	return out
}

// Headline prints the report banner. title may carry Sprintf verbs for args.
func Headline(p Printer, title string, args ...interface{}) {
	p.NewLine()
	p.OutputLine(headlineTop)
	p.OutputLine("==  "+title, args...)
	p.OutputLine(headlineBottom)
	p.NewLine()
}

// OutputWorkspace prints the workspace descriptor without a line break.
func OutputWorkspace(p Printer, name string) {
	p.Output("<b>Workspace:</b> %s ", name)
}

// OutputDimensions prints the dimension descriptor without a line break.
func OutputDimensions(p Printer, comb dimensions.Combination) {
	p.Output("<b>Dimensions:</b> %s ", comb.Label())
}

// OutputCell prints the "Checking..." block announcing a cell.
func OutputCell(p Printer, cell Cell) {
	p.OutputLine("Checking...")
	OutputWorkspace(p, cell.Workspace.Name)
	p.NewLine()
	OutputDimensions(p, cell.Combination)
	p.NewLine()
}

// OutputUnused prints the unused node type report for a filtered tally.
func OutputUnused(p Printer, unused Tally) {
	if unused.Len() == 0 {
		p.OutputLine("<success>Congratulations! No unused NodeTypes could be found :)</success>")
		return
	}
	p.OutputLine("<b>There are %d unused NodeTypes in your content repository:</b>", unused.Len())
	p.NewLine()
	for _, e := range unused.Entries() {
		p.OutputLine("%s (%d)", e.Name, e.Count)
	}
}

// OutputOccurrence prints one occurrence record.
func OutputOccurrence(p Printer, r OccurrenceRecord) {
	p.Output(render(occurrenceTemplate, map[string]interface{}{
		"index":       r.Index,
		"contextPath": r.ContextPath,
		"workspace":   r.Workspace,
		"dimensions":  r.Dimensions.Label(),
		"link":        r.LinkText(),
	}))
}

// OutputPageSummary prints the truncation or no-occurrences notice.
func OutputPageSummary(p Printer, res PageResult) {
	if res.Truncated() {
		p.OutputLine("There were %d occurrences in total, but the number of results has been limited to %d", res.Total, res.Window.Limit)
	}
	if res.Empty() {
		p.OutputLine("No occurrences found.")
	}
}

// OutputNodeType prints the detailed node type block, or only its name
// when oneline is set.
func OutputNodeType(p Printer, nt *nodetypes.NodeType, oneline bool) {
	if oneline {
		p.OutputLine(nt.Name())
		return
	}
	p.Output(render(nodeTypeTemplate, map[string]interface{}{
		"name":      nt.Name(),
		"abstract":  strconv.FormatBool(nt.IsAbstract()),
		"aggregate": strconv.FormatBool(nt.IsAggregate()),
		"label":     nt.Label(),
	}))
	if help := nt.HelpMessage(); help != "" {
		p.OutputLine("<b>help:</b> %s", help)
	}
	p.NewLine()
}

// OutputPlacements prints where-allowed results: directly allowing types
// in bold, others plain, each followed by the matching child node names.
func OutputPlacements(p Printer, placements []Placement) {
	for _, pl := range placements {
		if pl.Direct {
			p.OutputLine("<b>%s</b>", pl.NodeType)
		} else {
			p.OutputLine("%s", pl.NodeType)
		}
		for _, child := range pl.ChildNodes {
			p.OutputLine("    <b>%s</b>", child)
		}
	}
}

// OutputErrorSummary prints the per-pass URI error count.
func OutputErrorSummary(p Printer, count int) {
	if count == 0 {
		return
	}
	p.NewLine()
	p.OutputLine("(!) There were %d errors during this report", count)
}

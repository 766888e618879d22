package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/scheduler"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// PrintPlan prints a probing plan as a table of switches, heaviest first,
// followed by a colored summary
func PrintPlan(w io.Writer, snap *topology.Snapshot, plan scheduler.Plan) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "OpenFlow Discovery - Probing Plan")
	bold.Fprintln(w, "=================================")
	fmt.Fprintf(w, "Topology: %s (%d switches, %d links)\n", snap.Hash(), snap.NodeCount(), snap.LinkCount())
	fmt.Fprintln(w)

	weights := game.ComputeWeights(snap)
	order := weights.Order()

	table := newTable(w)
	table.SetHeader([]string{"SWITCH", "WEIGHT", "NEIGHBORS", "ACTION"})
	for _, id := range order {
		table.Append([]string{
			strconv.FormatUint(uint64(id), 10),
			strconv.Itoa(weights[id]),
			joinIDs(snap.Neighbors(id)),
			strings.ToUpper(plan.Assignment[id].String()),
		})
	}
	table.Render()
	fmt.Fprintln(w)

	active := plan.Assignment.Active()
	switch plan.Mode {
	case scheduler.ModeBootstrap:
		yellow.Fprintf(w, "Mode: bootstrap, no links known, all %d switches probe\n", len(active))
	case scheduler.ModePartial:
		yellow.Fprintf(w, "Mode: partial, no equilibrium after %d sweeps\n", plan.Result.Sweeps)
	default:
		green.Fprintf(w, "Mode: solved in %d sweeps\n", plan.Result.Sweeps)
	}

	summary := fmt.Sprintf("Active: %d/%d switches [%s]", len(active), snap.NodeCount(), joinIDs(active))
	if plan.Result != nil {
		summary += fmt.Sprintf(", score %d", plan.Result.Score)
	}
	bold.Fprintln(w, summary)
}

// PrintRound prints a one-line summary of a finished probing round
func PrintRound(w io.Writer, r scheduler.RoundSummary) {
	c := color.New(color.FgGreen)
	switch {
	case r.Aborted || r.Failed > 0:
		c = color.New(color.FgRed)
	case r.Mode != scheduler.ModeSolved:
		c = color.New(color.FgYellow)
	}

	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	c.Fprintf(w, "round %s %-9s switches=%d links=%d active=%d sent=%d failed=%d %dms\n",
		id, r.Mode, r.Switches, r.Links, len(r.Active), r.Sent, r.Failed, r.DurationMs)
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func joinIDs(ids []topology.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, " ")
}

package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

// parseIndices turns "1,3-5" into zero-based indices below n. "all" selects
// every index. Duplicates are dropped and the result is sorted.
func parseIndices(spec string, n int) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if strings.EqualFold(spec, "all") {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid range %q", part)
			}
		}
		if start < 1 || end > n || start > end {
			return nil, fmt.Errorf("index %q out of range 1-%d", part, n)
		}
		for i := start; i <= end; i++ {
			seen[i-1] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no indices given")
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	slices.Sort(out)
	return out, nil
}

// printCoaches writes a numbered table. saved marks rows already in contacts.
func printCoaches(w io.Writer, coaches []model.CoachProfile, saved func(i int) bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPOSITION\tEMAIL\tPHONE\tTWITTER\t")
	for i, c := range coaches {
		mark := ""
		if saved != nil && saved(i) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\t%s\t\n", i+1, mark, c.Name, c.Position, dash(c.Email), dash(c.Phone), dash(c.Twitter))
	}
	tw.Flush()
}

func printContacts(w io.Writer, contacts []model.SavedCoach) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tSCHOOL\tSPORT\tEMAIL\tPHONE\tCONTACTED\t")
	for i, c := range contacts {
		contacted := ""
		if c.Contacted {
			contacted = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n", i+1, c.Name, c.School, c.Sport, dash(c.Email), dash(c.Phone), contacted)
	}
	tw.Flush()
}

func printTemplates(w io.Writer, ts []model.Template) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCHANNEL\tSUBJECT\t")
	for i, t := range ts {
		name := t.Name
		if t.IsDefault {
			name += " (default)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", i+1, name, t.Channel, dash(t.Subject))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Package export writes saved contacts as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/DavidOgunsola17/CoachResearchAgent/internal/model"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("no coaches to export")

// Columns is the header row. school and sport are included so one file can
// hold contacts from several schools.
var Columns = []string{
	"coach_name", "coach_position", "coach_email", "coach_phone", "coach_twitter", "school", "sport",
}

const maxNameLen = 50

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
)

// WriteCSV writes a header and one row per coach.
func WriteCSV(w io.Writer, coaches []model.SavedCoach) error {
	if len(coaches) == 0 {
		return ErrEmpty
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range coaches {
		if err := cw.Write([]string{c.Name, c.Position, c.Email, c.Phone, c.Twitter, c.School, c.Sport}); err != nil {
			return fmt.Errorf("write row for %q: %w", c.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filename builds "{school}_{sport}_coaches.csv" from normalized parts.
func Filename(school, sport string) string {
	return normalize(school) + "_" + normalize(sport) + "_coaches.csv"
}

func normalize(s string) string {
	n := strings.ToLower(s)
	n = nonWord.ReplaceAllString(n, "")
	n = separators.ReplaceAllString(n, "_")
	n = strings.Trim(n, "_")
	if len(n) > maxNameLen {
		n = strings.TrimRight(n[:maxNameLen], "_")
	}
	if n == "" {
		return "unknown"
	}
	return n
}

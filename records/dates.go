/*
dates.go - Ingestion date normalization

PURPOSE:
  Spreadsheet uploads carry dates either as day-first strings
  (D/M/Y with "/", "-", or "." separators) or as spreadsheet day
  serials. NormalizeDate converts both to the canonical YYYY-MM-DD
  form the store persists and groups on.

SERIAL DATES:
  Day serial 1 corresponds to 1899-12-31; each increment is one
  calendar day. Existing ingested data was produced with this epoch,
  so it must not change.
*/
package records

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// serialEpoch is the date for spreadsheet day serial 1.
var serialEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

var dateCleaner = regexp.MustCompile(`[\r\n"']`)

// NormalizeDate converts a raw ingestion date to YYYY-MM-DD. It accepts
// day-first D/M/Y strings and numeric day serials. Returns "" and false
// when the input cannot be interpreted as a valid calendar date.
func NormalizeDate(input string) (string, bool) {
	cleaned := strings.TrimSpace(dateCleaner.ReplaceAllString(input, ""))
	if cleaned == "" {
		return "", false
	}

	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil {
		d := serialEpoch.AddDate(0, 0, int(serial)-1)
		if d.Year() < 1000 || d.Year() > 9999 {
			return "", false
		}
		return d.Format("2006-01-02"), true
	}

	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return "", false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if year < 1000 || year > 9999 || month < 1 || month > 12 {
		return "", false
	}
	if day < 1 || day > daysInMonth(year, month) {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func daysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

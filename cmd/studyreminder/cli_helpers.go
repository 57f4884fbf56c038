package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"study-reminder/internal/model"
)

const (
	displayTime = "2006-01-02 15:04"
	shortIDLen  = 8
)

var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	displayTime,
	time.DateOnly,
}

// parseWhen reads a timestamp in loc. A bare HH:MM means today, a bare date means midnight.
func parseWhen(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if clock, err := time.ParseInLocation("15:04", raw, loc); err == nil {
		today := now.In(loc)
		return time.Date(today.Year(), today.Month(), today.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use \"YYYY-MM-DD HH:MM\", \"HH:MM\" or RFC3339)", raw)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// resolveID expands a unique id prefix, as printed by list commands.
func resolveID(kind, prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", model.NewError(model.ErrCodeInvalid, kind+" id is required")
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", kind, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", model.NewError(model.ErrCodeNotFound, fmt.Sprintf("%s %q not found", kind, prefix))
	}
	return match, nil
}

func taskIDs(tasks []model.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func attachmentIDs(attachments []model.Attachment) []string {
	ids := make([]string, len(attachments))
	for i, a := range attachments {
		ids[i] = a.ID
	}
	return ids
}

func check(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}

// Package export renders a task collection as JSON, CSV or PDF.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/harlequingg/taskplanner/internal/task"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Export renders tasks in the given format. owner is printed in the PDF title.
func Export(tasks []task.Task, owner, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return json.MarshalIndent(tasks, "", "  ")
	case FormatCSV:
		return exportCSV(tasks)
	case FormatPDF:
		return exportPDF(tasks, owner)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func exportCSV(tasks []task.Task) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"id", "title", "description", "priority", "deadline", "category", "is_urgent", "completed", "created_at", "comments"})
	for _, t := range tasks {
		_ = w.Write([]string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Priority),
			t.Deadline,
			string(t.Category),
			strconv.FormatBool(t.IsUrgent),
			strconv.FormatBool(t.Completed),
			t.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(t.Comments)),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func exportPDF(tasks []task.Task, owner string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	title := "Tasks"
	if owner != "" {
		title = "Tasks of " + owner
	}
	pdf.Cell(40, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if len(tasks) == 0 {
		pdf.MultiCell(0, 6, "No tasks.", "0", "L", false)
	}
	for _, t := range tasks {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		line := fmt.Sprintf("[%s] %s (%s, %s)", status, t.Title, t.Priority, t.Category)
		if t.Deadline != "" {
			line += " due " + t.Deadline
		}
		if t.IsUrgent {
			line += " URGENT"
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		pdf.SetFont("Arial", "", 10)
		if t.Description != "" {
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		for _, c := range t.Comments {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("  - %s (%s)", c.Text, c.Date)), "0", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/xxxsen/mycontent/internal/service"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EC4F4"))
)

func renderNote(text string) string {
	return noteStyle.Render(text)
}

func printRecommendation(ctx context.Context, w io.Writer, svc *service.RecommendService, userID int64, topK int, order, format string) error {
	switch format {
	case formatCSV:
		return svc.ExportCSV(ctx, userID, topK, w)
	case formatJSON, formatTable:
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	res, err := svc.Recommend(ctx, userID, topK, order)
	if err != nil {
		return fmt.Errorf("recommend user %d: %w", userID, err)
	}
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("user %d, top %d, order %s", res.UserID, res.TopK, res.Order)))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tARTICLE\tCATEGORY\tWORDS\tCREATED_AT\tSCORE")
	for _, item := range res.Articles {
		created := item.CreatedAt
		if !item.HasMetadata {
			created = "-"
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%.6f\n",
			item.Rank, item.ArticleID, item.CategoryID, item.WordsCount, created, item.Score)
	}
	return tw.Flush()
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Entry  string `short:"e" help:"Only show assignments for this entry id"`
	RunID  string `name:"run" help:"Only show assignments from this run id"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of rows (0 for all)"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return pterrors.ConfigInvalid("history.path", "is empty, history is disabled")
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return pterrors.HistoryUnavailable(cfg.History.Path, err)
	}
	defer func() { _ = store.Close() }()

	q := history.Query{RunID: h.RunID, Limit: h.Limit}
	if h.Entry != "" {
		q.EntryID = corpus.NormalizeID(h.Entry)
	}
	records, err := store.List(context.Background(), q)
	if err != nil {
		return pterrors.HistoryUnavailable(cfg.History.Path, err)
	}

	if h.Format == "json" {
		return writeHistoryJSON(g.out(), records)
	}
	return writeHistoryText(g.out(), records)
}

func writeHistoryText(w io.Writer, records []history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No schedule history recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tENTRY\tPREVIOUS\tSCHEDULED\tSTATUS\tRUN\tREVISION")
	for _, r := range records {
		prev := "none"
		if r.Previous != nil {
			prev = corpus.FormatTime(*r.Previous)
		}
		status := string(r.Status)
		if r.Error != "" {
			status += ": " + r.Error
		}
		rev := r.Revision
		if rev == "" {
			rev = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			corpus.FormatTime(r.RecordedAt), r.EntryID, prev, corpus.FormatTime(r.Scheduled), status, r.RunID, rev)
	}
	return tw.Flush()
}

type historyJSON struct {
	RecordedAt string  `json:"recorded_at"`
	RunID      string  `json:"run_id"`
	EntryID    string  `json:"entry_id"`
	Previous   *string `json:"previous"`
	Scheduled  string  `json:"scheduled"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	Revision   string  `json:"revision,omitempty"`
}

func writeHistoryJSON(w io.Writer, records []history.Record) error {
	out := make([]historyJSON, 0, len(records))
	for _, r := range records {
		hj := historyJSON{
			RecordedAt: corpus.FormatTime(r.RecordedAt),
			RunID:      r.RunID,
			EntryID:    r.EntryID,
			Scheduled:  corpus.FormatTime(r.Scheduled),
			Status:     string(r.Status),
			Error:      r.Error,
			Revision:   r.Revision,
		}
		if r.Previous != nil {
			s := corpus.FormatTime(*r.Previous)
			hj.Previous = &s
		}
		out = append(out, hj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

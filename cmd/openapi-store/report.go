package main

import (
	"fmt"
	"io"

	store "github.com/miorlan/openapi-store"
)

// report prints one line per tracked reference and a summary
type report struct {
	writer io.Writer
	counts map[store.FetchStatus]int
	total  int
}

func newReport(w io.Writer) *report {
	return &report{
		writer: w,
		counts: make(map[store.FetchStatus]int),
	}
}

func statusIcon(status store.FetchStatus) string {
	switch status {
	case store.StatusFetched:
		return "✅"
	case store.StatusFailed:
		return "❌"
	case store.StatusPending:
		return "⏳"
	default:
		return "💤"
	}
}

func (r *report) Reference(ref store.ExternalReference) {
	r.total++
	r.counts[ref.Status]++
	fmt.Fprintf(r.writer, "%s %-8s %s\n", statusIcon(ref.Status), ref.Status, ref.URL)
	for _, err := range ref.Errors {
		fmt.Fprintf(r.writer, "    %v\n", err)
	}
}

// Finish prints the summary. It fails when any reference failed so the exit
// code reflects broken references.
func (r *report) Finish() error {
	fmt.Fprintf(r.writer, "Всего: %d, загружено: %d, ошибок: %d, не загружено: %d\n",
		r.total, r.counts[store.StatusFetched], r.counts[store.StatusFailed], r.counts[store.StatusIdle])
	if failed := r.counts[store.StatusFailed]; failed > 0 {
		return fmt.Errorf("не удалось загрузить %d ссылок", failed)
	}
	return nil
}

package console

import (
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"

	"github.com/jonathan/jobhunter/internal/hunt"
	"github.com/jonathan/jobhunter/internal/types"
)

// Progress prints run events as they happen.
type Progress struct {
	out io.Writer
}

var _ hunt.Observer = (*Progress)(nil)

// NewProgress returns a progress printer writing to out.
func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out}
}

func (p *Progress) PlatformStarted(platform types.Platform) {
	pterm.Info.WithWriter(p.out).Printfln("Hunting on %s", platform.DisplayName())
}

func (p *Progress) Discovered(platform types.Platform, title string, count int) {
	pterm.Info.WithWriter(p.out).Printfln("%s: %d listings for %q", platform.DisplayName(), count, title)
}

func (p *Progress) Dispatched(index, total int, posting *types.Posting, outcome hunt.Outcome) {
	line := fmt.Sprintf("[%d/%d] %s - %s: %s", index, total, posting.Company, posting.Title, outcome)
	switch {
	case outcome.Succeeded():
		pterm.Success.WithWriter(p.out).Println(line)
	case outcome.Kind == hunt.OutcomeFailed:
		pterm.Warning.WithWriter(p.out).Println(line)
	default:
		pterm.Info.WithWriter(p.out).Println(line)
	}
}

// PrintReport renders the dispatched postings and the run totals.
func PrintReport(out io.Writer, r *hunt.Report) error {
	pterm.Fprintln(out)
	if len(r.Items) == 0 {
		pterm.Info.WithWriter(out).Println("No new postings were dispatched.")
	} else {
		data := pterm.TableData{{"Platform", "Company", "Title", "Outcome"}}
		for _, it := range r.Items {
			data = append(data, []string{
				it.Posting.Platform.DisplayName(),
				it.Posting.Company,
				it.Posting.Title,
				it.Outcome.String(),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render(); err != nil {
			return err
		}
	}

	for platform, msg := range r.PlatformErrors {
		pterm.Error.WithWriter(out).Printfln("%s: %s", platform.DisplayName(), msg)
	}
	pterm.Success.WithWriter(out).Printfln(
		"Applied %d (emailed %d, inline %d), skipped %d, failed %d; %d already applied; took %s",
		r.Applied(), r.Count(hunt.OutcomeEmailed), r.Count(hunt.OutcomeAppliedInline),
		r.Count(hunt.OutcomeSkippedNoChannel), r.Count(hunt.OutcomeFailed),
		r.AlreadyApplied, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	return nil
}

// PrintHistory renders applied postings, newest first as given.
func PrintHistory(out io.Writer, postings []types.Posting, days int) error {
	if len(postings) == 0 {
		pterm.Info.WithWriter(out).Printfln("No applications in the last %d days.", days)
		return nil
	}
	data := pterm.TableData{{"Applied", "Platform", "Company", "Title", "Method"}}
	for _, p := range postings {
		applied := ""
		if p.AppliedAt != nil {
			applied = p.AppliedAt.Local().Format("2006-01-02 15:04")
		}
		data = append(data, []string{applied, p.Platform.DisplayName(), p.Company, p.Title, string(p.ApplicationMethod)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render(); err != nil {
		return err
	}
	pterm.Info.WithWriter(out).Printfln("%d applications in the last %d days", len(postings), days)
	return nil
}

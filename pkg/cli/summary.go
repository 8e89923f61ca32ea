package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/modsync/pkg/domain/model"
)

var (
	colorOK   = color.New(color.FgGreen)
	colorWarn = color.New(color.FgYellow)
	colorFail = color.New(color.FgRed, color.Bold)
	colorHead = color.New(color.Bold)
)

// printSummary writes a human readable report of a run. Failed items are
// listed with their reasons.
func printSummary(w io.Writer, summary *model.RunSummary) {
	if summary == nil {
		return
	}

	_, _ = colorHead.Fprintf(w, "\n%s run %s (%s)\n", summary.Workflow, summary.RunID, summary.Elapsed.Round(time.Millisecond))

	for _, d := range summary.Domains {
		_, _ = colorHead.Fprintf(w, "  [%s]\n", d.Domain)

		if d.Resolve != nil {
			fmt.Fprintf(w, "    links: %d resolved, ", len(d.Resolve.Links))
			printCount(w, colorWarn, len(d.Resolve.Skipped), "skipped")
			fmt.Fprintln(w)
		}
		if d.LinkFile != "" && d.Resolve != nil {
			fmt.Fprintf(w, "    link file: %s\n", d.LinkFile)
		}

		if d.Download != nil {
			fmt.Fprint(w, "    downloads: ")
			printCount(w, colorOK, d.Download.Count(model.DownloadSucceeded), "succeeded")
			fmt.Fprint(w, ", ")
			printCount(w, colorFail, d.Download.Count(model.DownloadFailed), "failed")
			fmt.Fprint(w, ", ")
			printCount(w, colorWarn, d.Download.Count(model.DownloadCancelled), "cancelled")
			fmt.Fprintln(w)

			for _, o := range d.Download.Failures() {
				_, _ = colorFail.Fprintf(w, "      ✗ mod %d file %d", o.ModID, o.FileID)
				fmt.Fprintf(w, " %s after %d attempts: %s\n", o.Status, o.Attempts, o.Reason)
			}
		}

		if d.Reconcile != nil {
			fmt.Fprint(w, "    folders: ")
			printCount(w, colorOK, d.Reconcile.Count(model.FolderRenamed), "renamed")
			fmt.Fprint(w, ", ")
			printCount(w, colorOK, d.Reconcile.Count(model.FolderMerged), "merged")
			fmt.Fprint(w, ", ")
			printCount(w, colorWarn, d.Reconcile.Count(model.FolderSkipped), "skipped")
			fmt.Fprint(w, ", ")
			printCount(w, colorFail, d.Reconcile.Count(model.FolderFailed), "failed")
			fmt.Fprintln(w)

			for _, o := range d.Reconcile.Outcomes {
				if o.Action == model.FolderFailed {
					_, _ = colorFail.Fprintf(w, "      ✗ %s", o.Source)
					fmt.Fprintf(w, ": %s\n", o.Reason)
				}
			}
		}

		if d.Err != nil {
			_, _ = colorFail.Fprintf(w, "    error: %s\n", d.Err.Error())
		}
	}
}

// printCount colors non-zero counts only
func printCount(w io.Writer, c *color.Color, n int, label string) {
	if n == 0 {
		fmt.Fprintf(w, "%d %s", n, label)
		return
	}
	_, _ = c.Fprintf(w, "%d %s", n, label)
}

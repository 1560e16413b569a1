package cli

// This file contains the targets command for printing the effective
// platform table of a pipeline.

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/crossforge/crossforge/pipeline"
)

func (a *App) targets(ctx *cli.Context) error {
	p, err := pipeline.Load(ctx.String("config"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OS\tSUFFIX\tSTRIP\tARTIFACT\tOUTPUT")
	for _, t := range p.Targets {
		suffix := t.ExeSuffix
		if suffix == "" {
			suffix = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", t.OS, suffix, t.SupportsStrip, t.ArtifactName, t.OutputPath)
	}
	return w.Flush()
}

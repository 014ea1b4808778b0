package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fsg1/fmms/domain/revision"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the writes a module edit would perform",
	Long: `Read a module edit document and print the operations that storing it
would execute, in execution order. Nothing is written.

Examples:
  fmms plan --module 9 --file edit.json
  fmms plan --module 9 --file edit.json --format table
  cat edit.json | fmms plan --module 9 --file -`,
	RunE: runPlan,
}

var (
	planModuleID int64
	planFile     string
	planFormat   string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Int64Var(&planModuleID, "module", 0, "module id the edit applies to")
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "edit document, - for stdin")
	planCmd.Flags().StringVar(&planFormat, "format", "json", "output format: json or table")
	planCmd.MarkFlagRequired("module")
	planCmd.MarkFlagRequired("file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if planFile != "-" {
		f, err := os.Open(planFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var doc revision.Document
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", planFile, err)
	}

	plan, err := revision.Build(planModuleID, doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch planFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tKIND\tTABLE\tFIELDS")
		for i, op := range plan {
			fields := ""
			for j, f := range op.Fields {
				if j > 0 {
					fields += " "
				}
				fields += fmt.Sprintf("%s=%v", f.Column, f.Value)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, op.Kind, op.Table, fields)
		}
		w.Flush()
		fmt.Fprintf(out, "\n%d operation(s): %d update, %d delete, %d insert\n", len(plan),
			plan.Count(revision.UpdateScalarRow), plan.Count(revision.DeleteChildRows), plan.Count(revision.InsertChildRow))
		return nil
	}
	return fmt.Errorf("unknown format %q, want json or table", planFormat)
}

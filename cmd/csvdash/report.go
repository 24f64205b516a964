package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvdash/internal/export"
	"github.com/JonMunkholm/csvdash/internal/frame"
)

type reportOptions struct {
	columns []string
	export  string
}

func newReportCmd() *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print the metrics of a CSV or XLSX file",
		Long: "Parses the file, keeps the selected columns (all by default) and prints " +
			"the row count and the mean and sum of every numeric column.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "columns to keep, in any order")
	cmd.Flags().StringVar(&opts.export, "export", "", "write the filtered table to this .csv or .xlsx file")
	return cmd
}

func runReport(out io.Writer, path string, opts reportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	t, err := frame.IngestFile(filepath.Base(path), data)
	if err != nil {
		return err
	}

	if opts.columns != nil {
		for _, c := range opts.columns {
			if !t.HasColumn(c) {
				return fmt.Errorf("unknown column %q", c)
			}
		}
		t = t.Select(opts.columns)
	}

	for _, line := range frame.ComputeMetrics(t).Lines() {
		fmt.Fprintln(out, line)
	}

	if opts.export != "" {
		if err := writeExport(opts.export, t); err != nil {
			return err
		}
	}
	return nil
}

func writeExport(path string, t *frame.Table) error {
	format, _ := export.Lookup(frame.DetectFormat(path))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := format.Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"edfanon/internal/edf"
)

// inspect shows the identifying header content of a source file so the
// operator can confirm name parts before a run. It never modifies input.
func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.edf>",
		Short: "Show header fields and annotation counts of an EDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := edf.ReadMetadata(args[0])
			if err != nil {
				return err
			}

			h := file.Header
			variant := "EDF"
			if h.IsPlus() {
				variant = h.Reserved
			}
			records := fmt.Sprintf("%d", h.NumDataRecords)
			if file.PartialFinalRecord {
				records += fmt.Sprintf(" (final record short: %d bytes present)", file.PartialBytes)
			}

			rows := [][]string{
				{"Variant", variant},
				{"Patient", h.Patient},
				{"Recording", h.Recording},
				{"Start", h.Start.Format(time.DateTime)},
				{"Record duration", fmt.Sprintf("%gs", h.RecordDuration)},
				{"Data records", records},
				{"Signals", fmt.Sprintf("%d", h.NumSignals())},
				{"Annotations", fmt.Sprintf("%d", len(file.Annotations))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

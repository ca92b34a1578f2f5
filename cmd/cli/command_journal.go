package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

func newJournalCmd() *cobra.Command {
	var processID string

	cmd := &cobra.Command{
		Use:   "journal <file>",
		Short: "Print the events of a journal file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to open journal")
			}
			defer f.Close()

			var rows []eventRow
			r := journal.NewReader(f)
			for {
				ev, at, err := r.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}

				row := eventRow{time: at, kind: ev.Type(), id: eventProcessID(ev)}
				if processID != "" && row.id != processID {
					continue
				}
				data, err := json.Marshal(ev)
				if err != nil {
					return errors.Wrap(err, "failed to marshal event")
				}
				row.data = string(data)
				rows = append(rows, row)
			}

			printEventTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&processID, "id", "", "only show events of this process")

	return cmd
}

func eventProcessID(ev journal.Event) string {
	switch ev := ev.(type) {
	case *journal.EventProcessSpawnError:
		return ev.ID
	case *journal.EventProcessSpawned:
		return ev.ID
	case *journal.EventProcessExited:
		return ev.ID
	case *journal.EventProcessSignaled:
		return ev.ID
	case *journal.EventProcessRestarted:
		return ev.ID
	default:
		return ""
	}
}

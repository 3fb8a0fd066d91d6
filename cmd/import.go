/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"log"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/rund/events"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/state"
	"github.com/rotblauer/rund/types/fix"
	"github.com/spf13/cobra"
)

var optImportDatadir string
var optImportWeight int

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a finished trace from stdin",
	Long: `

The trace is read from stdin as newline-delimited location records,
de-duplicated, finalized into a session summary, and persisted.
One malformed record fails the whole import; nothing is stored.

Examples:

  cat morning-run.txt | rund import
  zcat traces/2024-11-20.txt.gz | rund import --weight 82
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		trace, err := fix.DecodeTrace(os.Stdin)
		if err != nil {
			log.Fatalln(err)
		}
		slog.Info("Decoded trace", "fixes", humanize.Comma(int64(len(trace))))

		dedupe := fix.NewDedupeLRUFunc()
		deduped := make(fix.Fixes, 0, len(trace))
		for _, f := range trace {
			if dedupe(f) {
				deduped = append(deduped, f)
			}
		}
		if dropped := len(trace) - len(deduped); dropped > 0 {
			slog.Info("Dropped duplicate fixes", "count", dropped)
		}

		store, err := state.Open(optImportDatadir, false)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		finalizeTrace(store, events.SessionEnd{
			Reason: events.EndReasonUser,
			Trace:  deduped,
		}, optImportWeight)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	pFlags := importCmd.PersistentFlags()
	pFlags.StringVar(&optImportDatadir, "datadir", params.DatadirRoot, "Data directory")
	pFlags.IntVar(&optImportWeight, "weight", params.DefaultTrackerConfig.UserWeightKg, "User weight in kg, for calorie estimates")
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/scc"
	"github.com/mgpai22/ccconv/internal/timecode"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [scc_file]",
	Short: "Show the captions, diagnostics and timing overruns of an SCC file",
	Long: `Decode an SCC file and print every caption it displays, the
problems found while decoding, and the event lines that are still being
transmitted when the next line is due.

Examples:
  ccconv inspect show.scc
  ccconv inspect show.scc --channel 2 --events`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().
		Int("channel", 1, "Caption channel to show (1 or 2)")
	inspectCmd.Flags().
		Bool("events", false, "List every event line with its frame cost")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	channel, _ := cmd.Flags().GetInt("channel")
	events, _ := cmd.Flags().GetBool("events")

	if channel != 1 && channel != 2 {
		return fmt.Errorf("channel must be 1 or 2, got %d", channel)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read SCC file: %w", err)
	}

	logger.Infow("Inspecting SCC file", "path", path, "bytes", len(data))
	return inspect(cmd.OutOrStdout(), data, channel, events)
}

func inspect(out io.Writer, data []byte, channel int, events bool) error {
	report, err := scc.Analyze(data)
	if err != nil {
		return err
	}

	const cc1, cc2 = "cc1", "cc2"
	track, diags, err := scc.NewDecoder(scc.DecoderOptions{
		Language:          cc1,
		SecondaryLanguage: cc2,
	}).Decode(data)
	if err != nil {
		return err
	}

	key := cc1
	if channel == 2 {
		key = cc2
	}
	cues := track.Cues(key)

	fmt.Fprintf(out, "Event lines: %d (%d skipped)\n", len(report.Lines), report.Skipped)
	fmt.Fprintf(out, "Captions on CC%d: %d\n", channel, len(cues))
	for i, cue := range cues {
		fmt.Fprintf(out, "%4d  %s --> %s  %s\n",
			i+1,
			formatTimecode(cue.Start),
			formatTimecode(cue.End),
			summarize(cue),
		)
	}

	if events {
		fmt.Fprintln(out, "Events:")
		for _, l := range report.Lines {
			fmt.Fprintf(out, "  line %d  %s  %d words\n",
				l.Line, timecode.FromFrame(l.Frame), l.Cost)
		}
	}

	overruns := report.Overruns()
	fmt.Fprintf(out, "Overruns: %d\n", len(overruns))
	for _, l := range overruns {
		fmt.Fprintf(out, "  line %d at %s sends %d words, %d frames past the next line\n",
			l.Line, timecode.FromFrame(l.Frame), l.Cost, l.Overrun)
	}

	fmt.Fprintf(out, "Diagnostics: %d\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(out, "  %s\n", d.Error())
	}
	return nil
}

func formatTimecode(us int64) string {
	return timecode.FromFrame(timecode.MicrosecondsToFrames(us)).String()
}

// summarize renders a cue on one line, rows separated by " | ".
func summarize(cue caption.Cue) string {
	return strings.ReplaceAll(cue.PlainText(), "\n", " | ")
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mgpai22/ccconv/internal/caption"
	"github.com/mgpai22/ccconv/internal/config"
	"github.com/mgpai22/ccconv/internal/langdetect"
	"github.com/mgpai22/ccconv/internal/logging"
	"github.com/mgpai22/ccconv/internal/scc"
	"github.com/mgpai22/ccconv/internal/subtitle"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input_file...]",
	Short: "Convert caption files between SCC, SRT, WebVTT and ASS",
	Long: `Convert one or more caption files to another format.

The input format is taken from the file extension. With a single input,
--output names the output file; with several inputs it names the
directory the converted files are written to. Without --output each file
is written next to its input with the new extension.

SCC output is scheduled on the 29.97 fps frame grid. --min-duration-frames
keeps every caption on screen at least that many frames and delays loads
that would collide; 0 keeps the source timing and only reports collisions.

Examples:
  ccconv convert show.scc -f srt
  ccconv convert show.srt -f scc --min-duration-frames 60 -o show.scc
  ccconv convert ep1.scc ep2.scc -f vtt -o subtitles/ --language auto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass, scc)")
	convertCmd.Flags().
		Int("min-duration-frames", 0, "Minimum on-screen frames per caption in SCC output")
	convertCmd.Flags().
		Int("channel", 1, "SCC caption channel to read or write (1 or 2)")
	convertCmd.Flags().
		Int64("offset-ms", 0, "Milliseconds subtracted from SCC timestamps when reading")
	convertCmd.Flags().
		Int("concurrency", 0, "Number of files converted in parallel (0 for one per CPU)")
	convertCmd.Flags().
		Bool("reflow", false, "Rewrap caption text to fit the 32 column caption screen")
	convertCmd.Flags().
		Bool("strict", false, "Fail when decoding or encoding reports any diagnostic")
}

// convertOptions are the settings shared by every file of one run.
type convertOptions struct {
	Format            subtitle.Format
	Language          string
	MinDurationFrames int
	Channel           int
	OffsetMS          int64
	Concurrency       int
	Reflow            bool
	Strict            bool
}

type convertResult struct {
	Input       string
	Output      string
	Language    string
	Cues        int
	Diagnostics scc.Diagnostics
}

// resolveConvertOptions layers changed flags over the loaded config.
func resolveConvertOptions(cmd *cobra.Command, base *config.Config) (convertOptions, error) {
	merged := *base
	flags := cmd.Flags()

	if flags.Changed("format") {
		merged.Format, _ = flags.GetString("format")
	}
	if flags.Changed("language") {
		merged.Language, _ = flags.GetString("language")
	}
	if flags.Changed("min-duration-frames") {
		merged.MinDurationFrames, _ = flags.GetInt("min-duration-frames")
	}
	if flags.Changed("channel") {
		merged.Channel, _ = flags.GetInt("channel")
	}
	if flags.Changed("offset-ms") {
		merged.OffsetMS, _ = flags.GetInt64("offset-ms")
	}
	if flags.Changed("concurrency") {
		merged.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("reflow") {
		merged.Reflow, _ = flags.GetBool("reflow")
	}
	if err := merged.Validate(); err != nil {
		return convertOptions{}, err
	}
	if merged.Format == "" {
		return convertOptions{}, fmt.Errorf("output format is required: use --format or set format in the config file")
	}

	format, err := subtitle.ParseFormat(merged.Format)
	if err != nil {
		return convertOptions{}, err
	}
	strict, _ := flags.GetBool("strict")

	return convertOptions{
		Format:            format,
		Language:          merged.Language,
		MinDurationFrames: merged.MinDurationFrames,
		Channel:           merged.Channel,
		OffsetMS:          merged.OffsetMS,
		Concurrency:       merged.Concurrency,
		Reflow:            merged.Reflow,
		Strict:            strict,
	}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := resolveConvertOptions(cmd, cfg)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")

	for _, input := range args {
		if _, err := os.Stat(input); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", input)
		}
	}

	outputs, err := outputPaths(args, outputPath, opts.Format)
	if err != nil {
		return err
	}

	logger.Infow("Starting caption conversion",
		"files", len(args),
		"format", opts.Format,
		"language", opts.Language,
		"min_duration_frames", opts.MinDurationFrames,
		"channel", opts.Channel,
	)

	results, err := convertFiles(cmd.Context(), args, outputs, opts, logger)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), results)
	return nil
}

func printSummary(out io.Writer, results []convertResult) {
	for _, res := range results {
		absOutput, _ := filepath.Abs(res.Output)
		fmt.Fprintf(out, "Converted %s -> %s\n", res.Input, absOutput)
		fmt.Fprintf(out, "  Cues: %d\n", res.Cues)
		fmt.Fprintf(out, "  Language: %s\n", res.Language)
		if len(res.Diagnostics) > 0 {
			fmt.Fprintf(out, "  Diagnostics: %d (run with -v for details)\n", len(res.Diagnostics))
		}
		if n := res.Diagnostics.Count(scc.ErrOverrun); n > 0 {
			fmt.Fprintf(out, "  Overruns: %d (raise --min-duration-frames or check the timing)\n", n)
		}
	}
}

// outputPaths picks an output path for every input. With several inputs
// output is a directory.
func outputPaths(inputs []string, output string, format subtitle.Format) ([]string, error) {
	ext := subtitle.GetExtensionForFormat(format)
	paths := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))

	for i, input := range inputs {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
		switch {
		case output == "":
			paths[i] = filepath.Join(filepath.Dir(input), base)
		case len(inputs) == 1:
			paths[i] = output
		default:
			paths[i] = filepath.Join(output, base)
		}

		if filepath.Clean(paths[i]) == filepath.Clean(input) {
			return nil, fmt.Errorf("output %s would overwrite its input; use --output", paths[i])
		}
		if prev, ok := seen[paths[i]]; ok {
			return nil, fmt.Errorf("inputs %s and %s would both be written to %s", prev, input, paths[i])
		}
		seen[paths[i]] = input
	}
	return paths, nil
}

// convertFiles converts inputs[i] to outputs[i] in parallel. The first
// failure cancels files not yet started.
func convertFiles(
	ctx context.Context,
	inputs, outputs []string,
	opts convertOptions,
	log *logging.Logger,
) ([]convertResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]convertResult, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := convertFile(inputs[i], outputs[i], opts, log)
			if err != nil {
				return fmt.Errorf("failed to convert %s: %w", inputs[i], err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func convertFile(input, output string, opts convertOptions, log *logging.Logger) (convertResult, error) {
	res := convertResult{Input: input, Output: output}

	track, lang, diags, err := readTrack(input, opts, log)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		return res, err
	}

	if opts.Reflow {
		reflower := subtitle.NewReflower()
		before := len(track.Cues(lang))
		track.Set(lang, reflower.Reflow(track.Cues(lang)))
		log.Debugw("Reflowed captions",
			"file", input,
			"cues_before", before,
			"cues_after", len(track.Cues(lang)),
		)
	}

	diags, err = writeTrack(output, track, lang, opts, log)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		return res, err
	}

	for _, d := range res.Diagnostics {
		log.Warnw("Caption diagnostic",
			"file", input,
			"detail", d.Error(),
		)
	}
	if opts.Strict && len(res.Diagnostics) > 0 {
		return res, fmt.Errorf("%d diagnostics reported: %w", len(res.Diagnostics), res.Diagnostics.Err())
	}

	res.Language = lang
	res.Cues = len(track.Cues(lang))
	return res, nil
}

// readTrack loads input into a track and returns the language key its cues
// are stored under.
func readTrack(input string, opts convertOptions, log *logging.Logger) (*caption.Track, string, scc.Diagnostics, error) {
	format, err := subtitle.GetFormatFromExtension(input)
	if err != nil {
		return nil, "", nil, err
	}

	lang := opts.Language
	detect := lang == config.AutoLanguage
	if detect {
		lang = caption.DefaultLanguage
	}

	var (
		track *caption.Track
		diags scc.Diagnostics
	)
	if format == subtitle.FormatSCC {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to read SCC file: %w", err)
		}
		decOpts := scc.DecoderOptions{
			Language: lang,
			Offset:   opts.OffsetMS * 1000,
			Logger:   log.Desugar(),
		}
		if opts.Channel == 2 {
			// CC1 still needs a key of its own so it does not mix with CC2
			decOpts.Language = lang + "-x-cc1"
			decOpts.SecondaryLanguage = lang
		}
		track, diags, err = scc.NewDecoder(decOpts).Decode(data)
		if err != nil {
			return nil, "", diags, err
		}
	} else {
		track, err = subtitle.Open(input, lang)
		if err != nil {
			return nil, "", nil, err
		}
	}

	log.Debugw("Read caption file",
		"file", input,
		"format", format,
		"cues", len(track.Cues(lang)),
		"languages", track.Languages(),
	)

	if detect {
		lang = langdetect.DetectTrack(track, lang)
		log.Infow("Detected caption language",
			"file", input,
			"language", lang,
		)
	}
	return track, lang, diags, nil
}

func writeTrack(
	output string,
	track *caption.Track,
	lang string,
	opts convertOptions,
	log *logging.Logger,
) (scc.Diagnostics, error) {
	if opts.Format != subtitle.FormatSCC {
		if err := subtitle.Save(output, opts.Format, track, lang); err != nil {
			return nil, err
		}
		return nil, nil
	}

	// only the selected language is encoded
	single := caption.NewTrack()
	single.Set(lang, track.Cues(lang))

	enc := scc.NewEncoder(scc.EncoderOptions{
		MinDurationFrames: opts.MinDurationFrames,
		Language:          lang,
		Channel:           scc.Channel(opts.Channel),
		Concurrency:       opts.Concurrency,
		Logger:            log.Desugar(),
	})
	data, diags, err := enc.Encode(single)
	if err != nil {
		return diags, err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return diags, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return diags, fmt.Errorf("failed to write SCC file: %w", err)
	}
	return diags, nil
}

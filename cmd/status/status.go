package status

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/syllable-catalog/cmd/render"
	"github.com/tphakala/syllable-catalog/internal/config"
	"github.com/tphakala/syllable-catalog/internal/datastore"
	"github.com/tphakala/syllable-catalog/internal/datastore/entities"
	"github.com/tphakala/syllable-catalog/internal/logger"
)

const timeLayout = "2006-01-02 15:04:05"

type options struct {
	recordingID uint
	minDuration float64
	maxDuration float64
	runs        int
}

// report is everything status prints, gathered in one read-only session.
type report struct {
	counts      [4]int64
	inRange     int
	recording   *entities.Recording
	syllables   []entities.Syllable
	recentRuns  []entities.IndexRun
	minDuration float64
	maxDuration float64
}

// Command creates the status command.
func Command(ctx *config.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Display catalog contents and recent indexing runs",
		Long:  "Report row counts, the number of syllables in a duration range and the most recent indexing runs. With --recording-id, list that recording's syllables.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts)
		},
	}

	setupFlags(cmd, opts)

	return cmd
}

// setupFlags defines flags specific to the status command.
func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().UintVar(&opts.recordingID, "recording-id", 0, "Recording ID for detailed status")
	cmd.Flags().Float64Var(&opts.minDuration, "min-duration", 0.1, "Lower bound of the duration filter, in seconds")
	cmd.Flags().Float64Var(&opts.maxDuration, "max-duration", 2.0, "Upper bound of the duration filter, in seconds")
	cmd.Flags().IntVar(&opts.runs, "runs", 5, "Number of recent indexing runs to list")
}

func run(cmd *cobra.Command, ctx *config.Context, opts *options) error {
	engine, err := ctx.OpenEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	rep, err := gather(cmd.Context(), engine, opts)
	if err != nil {
		ctx.Log().Error("status check failed", logger.Error(err))
		return fmt.Errorf("status check failed: %w", err)
	}

	ctx.Log().Info("status check completed",
		logger.Any("recordings", rep.counts[0]),
		logger.Any("syllables", rep.counts[1]))
	return writeReport(cmd.OutOrStdout(), engine.Location(), rep)
}

func gather(ctx context.Context, engine *datastore.Engine, opts *options) (*report, error) {
	rep := &report{minDuration: opts.minDuration, maxDuration: opts.maxDuration}

	err := engine.WithSession(ctx, func(s *datastore.Session) error {
		var err error
		if rep.counts[0], err = s.Recordings().Count(ctx); err != nil {
			return err
		}
		if rep.counts[1], err = s.Syllables().Count(ctx); err != nil {
			return err
		}
		if rep.counts[2], err = s.Embeddings().Count(ctx); err != nil {
			return err
		}
		if rep.counts[3], err = s.Annotations().Count(ctx); err != nil {
			return err
		}

		maxDuration := opts.maxDuration
		inRange, err := s.Syllables().FilterByDuration(ctx, opts.minDuration, &maxDuration)
		if err != nil {
			return err
		}
		rep.inRange = len(inRange)

		if rep.recentRuns, err = s.IndexRuns().ListRecent(ctx, opts.runs); err != nil {
			return err
		}

		if opts.recordingID == 0 {
			return nil
		}
		if rep.recording, err = s.Recordings().GetByID(ctx, opts.recordingID); err != nil {
			return err
		}
		rep.syllables, err = s.Syllables().GetByRecording(ctx, opts.recordingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func writeReport(w io.Writer, location string, rep *report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "✓ Database operational at %s\n", location)
	b.WriteString(render.Table("Catalog",
		[]string{"Table", "Rows"},
		[][]string{
			{"recordings", strconv.FormatInt(rep.counts[0], 10)},
			{"syllables", strconv.FormatInt(rep.counts[1], 10)},
			{"embeddings", strconv.FormatInt(rep.counts[2], 10)},
			{"annotations", strconv.FormatInt(rep.counts[3], 10)},
		},
		[]render.Alignment{render.AlignLeft, render.AlignRight}))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d syllables with duration in [%g, %g] s\n", rep.inRange, rep.minDuration, rep.maxDuration)

	if len(rep.recentRuns) > 0 {
		rows := make([][]string, 0, len(rep.recentRuns))
		for i := range rep.recentRuns {
			rows = append(rows, runRow(&rep.recentRuns[i]))
		}
		b.WriteString(render.Table("Recent indexing runs",
			[]string{"Run", "State", "Started", "Duration", "Indexed", "Skipped", "Syllables", "Error"},
			rows,
			[]render.Alignment{render.AlignLeft, render.AlignLeft, render.AlignLeft, render.AlignRight, render.AlignRight, render.AlignRight, render.AlignRight, render.AlignLeft}))
		b.WriteString("\n")
	}

	if rep.recording != nil {
		fmt.Fprintf(&b, "✓ Found %d syllables for recording %d (%s)\n",
			len(rep.syllables), rep.recording.ID, rep.recording.FilePath)
		rows := make([][]string, 0, len(rep.syllables))
		for i := range rep.syllables {
			s := &rep.syllables[i]
			rows = append(rows, []string{
				strconv.FormatUint(uint64(s.ID), 10),
				strconv.FormatFloat(s.StartTime, 'f', 3, 64),
				strconv.FormatFloat(s.EndTime, 'f', 3, 64),
				strconv.FormatFloat(s.Duration(), 'f', 3, 64),
			})
		}
		b.WriteString(render.Table("",
			[]string{"Syllable", "Start (s)", "End (s)", "Duration (s)"},
			rows,
			[]render.Alignment{render.AlignRight, render.AlignRight, render.AlignRight, render.AlignRight}))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func runRow(r *entities.IndexRun) []string {
	duration := "-"
	if r.IsTerminal() {
		duration = r.Duration().Round(time.Millisecond).String()
	}
	shortID := r.RunID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return []string{
		shortID,
		string(r.State),
		r.StartedAt.Local().Format(timeLayout),
		duration,
		strconv.Itoa(r.IndexedFiles),
		strconv.Itoa(r.SkippedFiles),
		strconv.Itoa(r.TotalSyllables),
		r.ErrorMessage,
	}
}

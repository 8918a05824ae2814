package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/ui/presenter"
)

var (
	benchDuration time.Duration
	benchReaders  int
	benchWriterHz float64
	benchReaderHz float64
)

// benchResult aggregates what the bench readers observed.
type benchResult struct {
	reads      atomic.Uint64
	errors     atomic.Uint64
	mismatches atomic.Uint64
	regressed  atomic.Uint64
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Drive one session with a paced writer and concurrent readers",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		ref, label, err := rt.startSession()
		if err != nil {
			return err
		}
		defer ref.Destroy()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, benchDuration)
		defer cancel()

		rt.logger.Info("bench.start", "source", label, "readers", benchReaders,
			"writer_hz", benchWriterHz, "reader_hz", benchReaderHz, "duration", benchDuration)
		res := runBench(ctx, ref, benchReaders, rate.Limit(benchWriterHz), rate.Limit(benchReaderHz))

		st, err := ref.Stats()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source     %s\n", label)
		fmt.Fprintf(out, "reads      %d (errors %d)\n", res.reads.Load(), res.errors.Load())
		fmt.Fprintf(out, "size errs  %d\n", res.mismatches.Load())
		fmt.Fprintf(out, "seq errs   %d\n", res.regressed.Load())
		fmt.Fprintln(out, presenter.FormatStats(st, float64(st.Captures)/benchDuration.Seconds()))
		if res.mismatches.Load() > 0 || res.regressed.Load() > 0 {
			return errors.New("bench observed inconsistent frames")
		}
		return nil
	},
}

// frameSource is the part of a session the bench drives.
type frameSource interface {
	Frame() (*capture.Frame, error)
}

// runBench paces one writer and n readers against src until ctx is done.
// The writer's Frame calls drive refreshes; readers check every frame they
// see for a consistent size and a non-decreasing sequence.
func runBench(ctx context.Context, src frameSource, n int, writerHz, readerHz rate.Limit) *benchResult {
	res := &benchResult{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lim := rate.NewLimiter(writerHz, 1)
		for lim.Wait(ctx) == nil {
			_, _ = src.Frame()
		}
	}()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lim := rate.NewLimiter(readerHz, 1)
			var last uint64
			for lim.Wait(ctx) == nil {
				f, err := src.Frame()
				res.reads.Add(1)
				if err != nil {
					res.errors.Add(1)
					continue
				}
				if f.DataSize() != f.Width*f.Height*capture.BytesPerPixel || f.Stride != f.Width*capture.BytesPerPixel {
					res.mismatches.Add(1)
				}
				if f.Sequence < last {
					res.regressed.Add(1)
				}
				last = f.Sequence
			}
		}()
	}
	wg.Wait()
	return res
}

func init() {
	addTargetFlags(benchCmd)
	benchCmd.Flags().DurationVar(&benchDuration, "duration", 5*time.Second, "how long to run")
	benchCmd.Flags().IntVar(&benchReaders, "readers", 4, "concurrent reader goroutines")
	benchCmd.Flags().Float64Var(&benchWriterHz, "writer-hz", 60, "writer frame requests per second")
	benchCmd.Flags().Float64Var(&benchReaderHz, "reader-hz", 120, "frame reads per second per reader")
	rootCmd.AddCommand(benchCmd)
}

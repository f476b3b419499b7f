package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zsiec/b25/decoder"
	"github.com/zsiec/b25/internal/ingest"
	"github.com/zsiec/b25/internal/ingest/srt"
	"github.com/zsiec/b25/internal/pipeline"
	"github.com/zsiec/b25/registry"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen <addr> <output>",
		Short: "Accept SRT publishers and decode them one at a time",
		Long: "Listen runs an SRT server on addr. Each publisher owns the decode session\n" +
			"for the life of its connection and its decoded stream is appended to\n" +
			"output. A publisher that arrives while another is live is rejected.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runListen(cmd, args[0], args[1])
		},
	}
}

func (c *commandContext) runListen(cmd *cobra.Command, addr, output string) error {
	reg, err := c.newRegistry()
	if err != nil {
		return err
	}

	dst, err := openOutput(output)
	if err != nil {
		return err
	}
	defer dst.Close()

	runCtx, stop := signalContext(cmd.Context())
	defer stop()

	srv := srt.NewServer(addr, c.publisherHandler(reg, dst, cmd.ErrOrStderr()),
		func(string) bool { return !reg.Live() }, c.log)

	// Start returns only after every publisher handler has finished, so dst
	// outlives all writers.
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		c.log.Info("stopping listener, draining publishers")
		return nil
	})

	return g.Wait()
}

// publisherHandler decodes one SRT publisher into dst while it owns the
// registry session. A publisher that finds the session taken is dropped.
func (c *commandContext) publisherHandler(reg *registry.Registry, dst io.Writer, report io.Writer) srt.Handler {
	return func(ctx context.Context, stream *ingest.Stream) error {
		err := reg.With(func(s *decoder.Session) error {
			if err := c.openSession(s); err != nil {
				return err
			}
			p := pipeline.New(stream.Key, s, stream, dst, c.cfg.ChunkSize())
			runErr := p.Run(ctx)
			fmt.Fprintln(report, renderSummary(stream.Key, p.Snapshot(), stream.IngestStats()))
			return runErr
		})
		if errors.Is(err, registry.ErrBusy) {
			c.log.Warn("publisher dropped, decoder busy", "stream_key", stream.Key)
			return nil
		}
		return err
	}
}

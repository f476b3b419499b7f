package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsiec/b25/decoder"
	"github.com/zsiec/b25/internal/pipeline"
)

type decodeFlags struct {
	round        uint32
	stripNull    bool
	emm          bool
	chunkPackets int
}

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var flags decodeFlags

	cmd := &cobra.Command{
		Use:   "decode [input] [output]",
		Short: "Decode a transport stream from a file, stdin, or SRT source",
		Long: "Decode reads input in fixed-size chunks, runs each through the B25 decode\n" +
			"session, and writes the result. Use - for stdin or stdout. An input of\n" +
			"srt://host:port[?streamid=name] pulls from an SRT listener.",
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := "-", "-"
			if len(args) > 0 {
				input = args[0]
			}
			if len(args) > 1 {
				output = args[1]
			}
			if err := applyDecodeFlags(cmd, ctx, flags); err != nil {
				return err
			}
			return ctx.runDecode(cmd, input, output)
		},
	}

	cmd.Flags().Uint32Var(&flags.round, "round", decoder.DefaultRound, "MULTI2 round count")
	cmd.Flags().BoolVar(&flags.stripNull, "strip-null", false, "Drop null packets from the output")
	cmd.Flags().BoolVar(&flags.emm, "emm", false, "Process EMM messages")
	cmd.Flags().IntVar(&flags.chunkPackets, "chunk-packets", 0, "Packets read per decode call")
	return cmd
}

// applyDecodeFlags overrides configuration values with flags the user set
// and revalidates the result.
func applyDecodeFlags(cmd *cobra.Command, ctx *commandContext, flags decodeFlags) error {
	d := &ctx.cfg.Decoder
	if cmd.Flags().Changed("round") {
		d.Round = flags.round
	}
	if cmd.Flags().Changed("strip-null") {
		d.StripNull = flags.stripNull
	}
	if cmd.Flags().Changed("emm") {
		d.EmmProcess = flags.emm
	}
	if cmd.Flags().Changed("chunk-packets") {
		d.ChunkPackets = flags.chunkPackets
	}
	if err := ctx.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

func (c *commandContext) runDecode(cmd *cobra.Command, input, output string) error {
	reg, err := c.newRegistry()
	if err != nil {
		return err
	}

	runCtx, stop := signalContext(cmd.Context())
	defer stop()

	src, err := openInput(runCtx, input, c.cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	// Closing the source unblocks a read stalled on a quiet SRT peer.
	stopClose := context.AfterFunc(runCtx, func() { src.Close() })
	defer stopClose()

	dst, err := openOutput(output)
	if err != nil {
		return err
	}

	var stats pipeline.Stats
	err = reg.With(func(s *decoder.Session) error {
		if err := c.openSession(s); err != nil {
			return err
		}
		p := pipeline.New(src.Key, s, src, dst, c.cfg.ChunkSize())
		runErr := p.Run(runCtx)
		stats = p.Snapshot()
		return runErr
	})
	if cerr := dst.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), renderSummary(src.Key, stats, src.IngestStats()))
	return err
}

// Command central is a demonstration CLI for the receiver side of a
// waveform transfer. Since the real GATT central/peripheral roles run as
// two separate processes over an actual radio link (out of scope for this
// module), this CLI drives the same in-process simlink pairing as
// cmd/peripheral but reports progress from the receiver's perspective.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/anthropics/ultrawave/pkg/receiver"
	"github.com/anthropics/ultrawave/pkg/sender"
	"github.com/anthropics/ultrawave/pkg/simlink"
	"github.com/anthropics/ultrawave/pkg/waveform"
	"github.com/anthropics/ultrawave/pkg/wire"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		encName := "raw"
		blocks := wire.TotalBlocks
		if len(args) >= 1 {
			encName = args[0]
		}
		if len(args) >= 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Printf("bad block count %q: %v\n", args[1], err)
				os.Exit(1)
			}
			blocks = n
		}
		if err := runTransfer(encName, blocks); err != nil {
			fmt.Printf("transfer failed: %v\n", err)
			os.Exit(1)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ultrawave central CLI")
	fmt.Println()
	fmt.Println("Usage: central <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run [raw|compressed] [blocks]   Receive a simulated transfer (default: raw, 1800 blocks)")
	fmt.Println("  help                            Show this help")
}

func encodingFromName(name string) (waveform.Encoding, error) {
	switch name {
	case "raw":
		return waveform.Raw, nil
	case "compressed":
		return waveform.Compressed, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q, want raw or compressed", name)
	}
}

func runTransfer(encName string, blocks int) error {
	enc, err := encodingFromName(encName)
	if err != nil {
		return err
	}

	log := logrus.NewEntry(logrus.StandardLogger())

	blocksSeen := 0
	done := make(chan receiver.Stats, 1)

	var lnk *simlink.Link
	recv := receiver.NewSession(receiver.Options{
		TotalBlocks: blocks,
		AckInterval: wire.AckInterval,
		Logger:      log,
		OnBlock: func(b waveform.Block) {
			blocksSeen++
			if blocksSeen%max(blocks/10, 1) == 0 {
				fmt.Printf("central: reassembled block %d/%d\n", b.Header.BlockNumber+1, blocks)
			}
		},
		OnComplete: func(s receiver.Stats) {
			done <- s
		},
		OnAckEmit: func(blockNumber int) {
			msg := wire.EncodeControlMessage(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: uint16(blockNumber)})
			if err := lnk.WriteControl(msg); err != nil {
				log.WithError(err).Warn("central: ack write failed")
			}
		},
	})
	recv.Start()
	lnk = simlink.New(recv)

	senderSess := sender.NewSession(sender.Options{
		Source:      waveform.NewStubSource(blocks, enc),
		Link:        lnk,
		TotalBlocks: blocks,
		AckInterval: wire.AckInterval,
		Logger:      log,
	})
	lnk.Bind(senderSess)

	fmt.Printf("central: waiting for %s transfer of %d blocks\n", enc, blocks)
	if err := senderSess.Start(enc, 185); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	maxTicks := blocks * 64
	for i := 0; i < maxTicks && senderSess.State() != sender.Complete; i++ {
		senderSess.ProcessNextChunk()
	}
	if senderSess.State() != sender.Complete {
		return fmt.Errorf("transfer did not complete within %d ticks (stuck in state %s)", maxTicks, senderSess.State())
	}

	select {
	case s := <-done:
		fmt.Printf("central: complete, %d bytes received in %.1fs (%.1f KB/s avg)\n",
			s.TotalBytesReceived, s.ElapsedSeconds, s.ThroughputKbps)
	default:
		return fmt.Errorf("sender reported completion but receiver never fired OnComplete")
	}
	return nil
}

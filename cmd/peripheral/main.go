// Command peripheral is a demonstration CLI for the sender side of a
// waveform transfer. It wires a sender.Session to an in-process simlink
// receiver (there being no complete BLE stack in the corpus to drive a
// real GATT link) and prints progress as the transfer runs.
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
	fmt.Println("ultrawave peripheral CLI")
	fmt.Println()
	fmt.Println("Usage: peripheral <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run [raw|compressed] [blocks]   Run a simulated transfer (default: raw, 1800 blocks)")
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

	var lnk *simlink.Link
	recv := receiver.NewSession(receiver.Options{
		TotalBlocks: blocks,
		AckInterval: wire.AckInterval,
		Logger:      log,
		OnProgress: func(s receiver.Stats) {
			fmt.Printf("  receiver: %.1f%% (%d/%d blocks, %.1f KB/s)\n",
				s.ProgressPercent, s.BlocksReceived, s.TotalBlocks, s.ThroughputKbps)
		},
		OnComplete: func(s receiver.Stats) {
			fmt.Printf("receiver: transfer complete, %d bytes in %.1fs\n", s.TotalBytesReceived, s.ElapsedSeconds)
		},
		OnAckEmit: func(blockNumber int) {
			msg := wire.EncodeControlMessage(wire.ControlMessage{Command: wire.CmdAck, BlockNumber: uint16(blockNumber)})
			if err := lnk.WriteControl(msg); err != nil {
				log.WithError(err).Warn("peripheral: ack write failed")
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
		OnComplete: func(s sender.Stats) {
			fmt.Printf("sender: transfer complete, %d chunks / %d bytes sent\n", s.ChunksSent, s.BytesSent)
		},
	})
	lnk.Bind(senderSess)

	fmt.Printf("peripheral: starting %s transfer of %d blocks\n", enc, blocks)
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
	return nil
}

// Package metrics exposes sender and receiver session statistics as
// Prometheus gauges, following the Describe/Collect collector shape used
// elsewhere in the pack for exporting live transfer telemetry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anthropics/ultrawave/pkg/receiver"
	"github.com/anthropics/ultrawave/pkg/sender"
)

// SenderStatsProvider is satisfied by *sender.Session.
type SenderStatsProvider interface {
	GetStats() sender.Stats
}

// ReceiverStatsProvider is satisfied by *receiver.Session.
type ReceiverStatsProvider interface {
	GetStats() receiver.Stats
}

type senderInfo struct {
	desc     *prometheus.Desc
	supplier func(sender.Stats) float64
}

type receiverInfo struct {
	desc     *prometheus.Desc
	supplier func(receiver.Stats) float64
}

// SenderCollector adapts a sender session's statistics snapshot to the
// Prometheus collector interface.
type SenderCollector struct {
	session SenderStatsProvider
	infos   []senderInfo
}

// NewSenderCollector builds a collector over session, labelling every
// metric with constLabels (e.g. a session id).
func NewSenderCollector(session SenderStatsProvider, constLabels prometheus.Labels) *SenderCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("ultrawave_sender_"+name, help, nil, constLabels)
	}
	return &SenderCollector{
		session: session,
		infos: []senderInfo{
			{desc("cur_block", "Block index currently being transmitted."),
				func(s sender.Stats) float64 { return float64(s.CurBlock) }},
			{desc("last_acked_block", "One past the highest block index acknowledged by the receiver (the resume point)."),
				func(s sender.Stats) float64 { return float64(s.LastAckedBlock) }},
			{desc("total_blocks", "Total blocks in the corpus."),
				func(s sender.Stats) float64 { return float64(s.TotalBlocks) }},
			{desc("chunks_sent", "Chunk frames successfully handed to the link."),
				func(s sender.Stats) float64 { return float64(s.ChunksSent) }},
			{desc("bytes_sent", "Payload bytes successfully handed to the link."),
				func(s sender.Stats) float64 { return float64(s.BytesSent) }},
			{desc("send_failures", "Non-congestion send failures observed."),
				func(s sender.Stats) float64 { return float64(s.SendFailures) }},
			{desc("disconnections", "Link disconnect events observed."),
				func(s sender.Stats) float64 { return float64(s.Disconnections) }},
			{desc("pacing_current_delay_ms", "Current inter-chunk pacing delay."),
				func(s sender.Stats) float64 { return float64(s.Pacing.CurrentDelayMs) }},
			{desc("pacing_credits", "In-flight notification credits available."),
				func(s sender.Stats) float64 { return float64(s.Pacing.Credits) }},
			{desc("pacing_congestion_events", "Times the pacing controller backed off."),
				func(s sender.Stats) float64 { return float64(s.Pacing.CongestionEvents) }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *SenderCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, info := range c.infos {
		ch <- info.desc
	}
}

// Collect implements prometheus.Collector.
func (c *SenderCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.session.GetStats()
	for _, info := range c.infos {
		ch <- prometheus.MustNewConstMetric(info.desc, prometheus.GaugeValue, info.supplier(stats))
	}
}

// ReceiverCollector adapts a receiver session's statistics snapshot to the
// Prometheus collector interface.
type ReceiverCollector struct {
	session ReceiverStatsProvider
	infos   []receiverInfo
}

// NewReceiverCollector builds a collector over session, labelling every
// metric with constLabels (e.g. a session id).
func NewReceiverCollector(session ReceiverStatsProvider, constLabels prometheus.Labels) *ReceiverCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("ultrawave_receiver_"+name, help, nil, constLabels)
	}
	return &ReceiverCollector{
		session: session,
		infos: []receiverInfo{
			{desc("blocks_received", "Distinct blocks fully reassembled and decoded."),
				func(s receiver.Stats) float64 { return float64(s.BlocksReceived) }},
			{desc("total_blocks", "Total blocks in the corpus."),
				func(s receiver.Stats) float64 { return float64(s.TotalBlocks) }},
			{desc("total_bytes_received", "Payload bytes accepted across all chunks."),
				func(s receiver.Stats) float64 { return float64(s.TotalBytesReceived) }},
			{desc("total_chunks_received", "Chunk frames accepted (first-store only)."),
				func(s receiver.Stats) float64 { return float64(s.TotalChunksReceived) }},
			{desc("throughput_kbps", "Average throughput since start in kilobytes per second."),
				func(s receiver.Stats) float64 { return s.ThroughputKbps }},
			{desc("progress_percent", "Percentage of the corpus received so far."),
				func(s receiver.Stats) float64 { return s.ProgressPercent }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *ReceiverCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, info := range c.infos {
		ch <- info.desc
	}
}

// Collect implements prometheus.Collector.
func (c *ReceiverCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.session.GetStats()
	for _, info := range c.infos {
		ch <- prometheus.MustNewConstMetric(info.desc, prometheus.GaugeValue, info.supplier(stats))
	}
}

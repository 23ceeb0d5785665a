package snn

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Monitor prints training progress to a writer at a fixed iteration
// interval. Both the writer and the interval are explicit arguments;
// there is no global logger.
type Monitor struct {
	w        io.Writer
	interval int
}

// NewMonitor returns a monitor that reports every interval iterations.
// A nil writer discards output; an interval <= 0 disables reporting.
func NewMonitor(w io.Writer, interval int) *Monitor {
	if w == nil {
		w = io.Discard
	}
	return &Monitor{w: w, interval: interval}
}

// ShouldReport returns true when iteration falls on the reporting
// interval. Iteration 0 reports, so a run's first line shows the
// near-initial loss.
func (m *Monitor) ShouldReport(iteration int) bool {
	return m.interval > 0 && iteration%m.interval == 0
}

// Report prints one progress line with minibatch losses and accuracies.
func (m *Monitor) Report(epoch, iteration int, trainLoss, testLoss float32, trainAcc, testAcc float64) {
	fmt.Fprintf(m.w, "epoch %d iter %s: train loss %.4f, test loss %.4f, train acc %.2f%%, test acc %.2f%%\n",
		epoch, humanize.Comma(int64(iteration)), trainLoss, testLoss, trainAcc*100, testAcc*100)
}

// Interval returns the reporting interval in iterations.
func (m *Monitor) Interval() int {
	return m.interval
}

package io

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/shopspring/decimal"

	"github.com/ecopia-map/quadtree_tiler/tools"
)

// ProgressReporter counts the processed tiles. Workers only send ticks, a single goroutine
// owns the counter and prints the progress lines.
type ProgressReporter struct {
	total int
	step  int
	ticks chan struct{}
	done  chan struct{}
	count int
}

func NewProgressReporter(total int) *ProgressReporter {
	step := total / 100
	if step < 1 {
		step = 1
	}
	p := &ProgressReporter{
		total: total,
		step:  step,
		ticks: make(chan struct{}, 64),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *ProgressReporter) Tick() {
	p.ticks <- struct{}{}
}

// Close stops the reporter once every pending tick has been counted
func (p *ProgressReporter) Close() {
	close(p.ticks)
	<-p.done
}

// Count is only meaningful after Close
func (p *ProgressReporter) Count() int {
	return p.count
}

func (p *ProgressReporter) run() {
	defer close(p.done)
	for range p.ticks {
		p.count++
		line := FormatProgress(p.count, p.total)
		glog.V(2).Info(line)
		if p.count%p.step == 0 || p.count == p.total {
			tools.LogOutput(line)
		}
	}
}

// FormatProgress renders "creating tiles: n/total - pp.pp%"
func FormatProgress(count, total int) string {
	percentage := decimal.NewFromInt(100)
	if total > 0 {
		percentage = decimal.NewFromInt(int64(count)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total)))
	}
	return fmt.Sprintf("creating tiles: %d/%d - %s%%", count, total, percentage.StringFixed(2))
}

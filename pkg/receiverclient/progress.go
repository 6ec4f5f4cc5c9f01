package receiverclient

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	progressBarWidth     = 32
	progressRenderPeriod = 120 * time.Millisecond
)

// progressBar рисует ASCII-индикатор выполнения; безопасен для нескольких горутин.
type progressBar struct {
	out           io.Writer
	prefix        string
	total         int64
	current       int64
	lastRender    time.Time
	lastLineWidth int
	finished      bool
	mu            sync.Mutex
}

func newProgressBar(out io.Writer, prefix string, total int64) *progressBar {
	return &progressBar{
		out:    out,
		prefix: prefix,
		total:  total,
	}
}

func (p *progressBar) AddBytes(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.current += n
	p.mu.Unlock()
	p.render(false, "")
}

func (p *progressBar) render(force bool, suffix string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished && !force {
		return
	}
	now := time.Now()
	if !force && now.Sub(p.lastRender) < progressRenderPeriod {
		return
	}

	line := p.lineLocked()
	p.writeLocked(line, suffix, "")
	p.lastRender = now
}

func (p *progressBar) lineLocked() string {
	var builder strings.Builder
	builder.Grow(len(p.prefix) + 64)
	builder.WriteString(p.prefix)
	builder.WriteByte(' ')

	if p.total <= 0 {
		builder.WriteString(humanBytes(p.current))
		builder.WriteString(" sent")
		return builder.String()
	}

	ratio := float64(p.current) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := min(int(ratio*float64(progressBarWidth)+0.5), progressBarWidth)
	builder.WriteByte('[')
	builder.WriteString(strings.Repeat("=", filled))
	builder.WriteString(strings.Repeat(" ", progressBarWidth-filled))
	builder.WriteString("] ")
	builder.WriteString(fmt.Sprintf("%3d%% ", int(ratio*100+0.5)))
	builder.WriteString(humanBytes(p.current))
	builder.WriteByte('/')
	builder.WriteString(humanBytes(p.total))

	return builder.String()
}

// writeLocked перерисовывает строку, затирая хвост предыдущей.
func (p *progressBar) writeLocked(line, suffix, end string) {
	width := len(line) + len(suffix)
	padding := ""
	if p.lastLineWidth > width {
		padding = strings.Repeat(" ", p.lastLineWidth-width)
	}
	p.lastLineWidth = width
	fmt.Fprintf(p.out, "\r%s%s%s%s", line, suffix, padding, end)
}

func (p *progressBar) Finish() {
	p.complete(nil)
}

func (p *progressBar) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("failed")
	}
	p.complete(err)
}

func (p *progressBar) complete(err error) {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true

	suffix := " ✓"
	if err != nil {
		suffix = fmt.Sprintf(" ✗ %v", err)
	}
	p.writeLocked(p.lineLocked(), suffix, "\n")
}

type progressWriter struct {
	bar *progressBar
}

func (w progressWriter) Write(p []byte) (int, error) {
	if len(p) > 0 && w.bar != nil {
		w.bar.AddBytes(int64(len(p)))
	}
	return len(p), nil
}

func humanBytes(v int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	value := float64(v)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", v, units[unit])
	}
	return fmt.Sprintf("%.1f %s", value, units[unit])
}

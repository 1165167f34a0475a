package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// progressPrinter renders a single, self-overwriting line of link probe
// counts. The number of external links is unknown until the page is parsed;
// until SetTotal is called a running count is printed instead of a percentage.
type progressPrinter struct {
	out      io.Writer
	total    int
	name     string
	mu       sync.Mutex
	ok       int
	fail     int
	duration float64
	updates  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newProgressPrinter(out io.Writer, total int, name string) *progressPrinter {
	if out == nil {
		out = os.Stdout
	}
	if total < 0 {
		total = 0
	}
	return &progressPrinter{
		out:     out,
		total:   total,
		name:    name,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// progressEnabled reports whether a live progress line makes sense on stdout.
func progressEnabled(requested bool) bool {
	if !requested {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressPrinter) Start() {
	go p.loop()
}

// Observe matches checker.ProbeFunc so the printer can be handed to the link prober.
func (p *progressPrinter) Observe(_ string, ok bool, d time.Duration) {
	p.Increment(ok, d.Seconds())
}

// SetTotal records the number of probes to expect.
func (p *progressPrinter) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Increment(success bool, duration float64) {
	p.mu.Lock()
	if success {
		p.ok++
	} else {
		p.fail++
	}
	p.duration += duration
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
		fmt.Fprint(p.out, p.lineLocked())
		fmt.Fprintln(p.out)
	})
}

func (p *progressPrinter) loop() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	fmt.Fprint(p.out, p.lineLocked())
}

func (p *progressPrinter) lineLocked() string {
	completed := p.ok + p.fail
	avg := 0.0
	if completed > 0 {
		avg = p.duration / float64(completed)
	}

	if p.total <= 0 {
		return fmt.Sprintf("\r[%s] Probed: %d OK:%d Fail:%d Avg:%.2fs",
			p.name, completed, p.ok, p.fail, avg)
	}

	total := p.total
	if completed > total {
		total = completed
	}
	percent := (float64(completed) / float64(total)) * 100
	return fmt.Sprintf("\r[%s] Progress: %d/%d (%.1f%%) OK:%d Fail:%d Avg:%.2fs",
		p.name, completed, total, percent, p.ok, p.fail, avg)
}

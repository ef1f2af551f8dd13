package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// ConsoleMonitor renders a single live progress bar to a terminal, one bar
// per pass, re-created each time InitProgress starts a new step count
// because the bar's total is fixed at construction.
type ConsoleMonitor struct {
	*state

	out io.Writer
	bar *progressbar.ProgressBar

	passLabel *color.Color
	tagLabel  *color.Color
}

// NewConsoleMonitor creates a monitor that writes to out (os.Stderr is the
// conventional choice so stdout stays free for piped image output).
func NewConsoleMonitor(out io.Writer) *ConsoleMonitor {
	return &ConsoleMonitor{
		state:     newState(),
		out:       out,
		passLabel: color.New(color.FgCyan, color.Bold),
		tagLabel:  color.New(color.FgYellow),
	}
}

func (m *ConsoleMonitor) SetTotalPasses(n int) { m.setTotalPasses(n) }

func (m *ConsoleMonitor) SetCurrentPass(p int) {
	m.setCurrentPass(p)
	_, total, _, _, _ := m.snapshot()
	m.passLabel.Fprintf(m.out, "pass %d/%d\n", p, total)
}

func (m *ConsoleMonitor) InitProgress(stepsTotal int) {
	m.initProgress(stepsTotal)
	m.bar = progressbar.NewOptions(stepsTotal,
		progressbar.OptionSetWriter(m.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (m *ConsoleMonitor) UpdateProgress(delta int) {
	done, _ := m.updateProgress(delta)
	if m.bar != nil {
		m.bar.Set(done)
	}
}

func (m *ConsoleMonitor) SetTag(text string) {
	m.setTag(text)
	if m.bar != nil {
		m.bar.Describe(text)
	}
}

func (m *ConsoleMonitor) Done() {
	m.markDone()
	if m.bar != nil {
		m.bar.Finish()
	}
}

func (m *ConsoleMonitor) StartTimer(name string) { m.startTimer(name) }
func (m *ConsoleMonitor) StopTimer(name string)  { m.stopTimer(name) }
func (m *ConsoleMonitor) GetTime(name string) time.Duration {
	return m.getTime(name)
}

// PrintTimers writes every recorded timer's elapsed duration, for the final
// render summary.
func (m *ConsoleMonitor) PrintTimers(names ...string) {
	for _, name := range names {
		fmt.Fprintf(m.out, "%s: %s\n", name, m.getTime(name))
	}
}

var _ Monitor = (*ConsoleMonitor)(nil)

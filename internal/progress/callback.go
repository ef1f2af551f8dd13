package progress

import "time"

// Update is the snapshot a CallbackMonitor hands to its callback on every
// state change that affects displayed progress.
type Update struct {
	Pass, TotalPasses int
	StepsDone, StepsTotal int
	Tag string
}

// CallbackFunc receives an Update whenever InitProgress, UpdateProgress,
// SetTag, SetCurrentPass or Done changes the monitor's displayed state.
type CallbackFunc func(Update)

// CallbackMonitor delegates display to an arbitrary function instead of
// owning a terminal — the shape a web UI's SSE broadcaster or a test
// harness needs instead of ConsoleMonitor's direct terminal writes.
type CallbackMonitor struct {
	*state
	cb CallbackFunc
}

// NewCallbackMonitor creates a monitor that calls cb on every state change.
func NewCallbackMonitor(cb CallbackFunc) *CallbackMonitor {
	return &CallbackMonitor{state: newState(), cb: cb}
}

func (m *CallbackMonitor) notify() {
	pass, total, done, stepsTotal, tag := m.snapshot()
	m.cb(Update{Pass: pass, TotalPasses: total, StepsDone: done, StepsTotal: stepsTotal, Tag: tag})
}

func (m *CallbackMonitor) SetTotalPasses(n int) {
	m.setTotalPasses(n)
	m.notify()
}

func (m *CallbackMonitor) SetCurrentPass(p int) {
	m.setCurrentPass(p)
	m.notify()
}

func (m *CallbackMonitor) InitProgress(stepsTotal int) {
	m.initProgress(stepsTotal)
	m.notify()
}

func (m *CallbackMonitor) UpdateProgress(delta int) {
	m.updateProgress(delta)
	m.notify()
}

func (m *CallbackMonitor) SetTag(text string) {
	m.setTag(text)
	m.notify()
}

func (m *CallbackMonitor) Done() {
	m.markDone()
	m.notify()
}

func (m *CallbackMonitor) StartTimer(name string) { m.startTimer(name) }
func (m *CallbackMonitor) StopTimer(name string)  { m.stopTimer(name) }
func (m *CallbackMonitor) GetTime(name string) time.Duration {
	return m.getTime(name)
}

var _ Monitor = (*CallbackMonitor)(nil)

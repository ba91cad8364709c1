package emulator

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// stopTimeout bounds how long Stop waits for the tick goroutine to exit.
const stopTimeout = 5 * time.Second

// loop owns the single background goroutine of one emulator instance and
// enforces the single-writer model: the tick function and every command
// submitted through do() run on that goroutine, so simulation state needs
// no locking. A panic inside one tick is logged and the loop keeps going.
type loop struct {
	log      *zap.Logger
	interval time.Duration

	commands chan func()
	stopCh   chan struct{}
	doneCh   chan struct{}

	// cmdMu serializes commands executed outside the loop goroutine and
	// excludes start from racing them.
	cmdMu sync.Mutex

	mu      sync.Mutex
	running bool
}

func newLoop(interval time.Duration, log *zap.Logger) *loop {
	return &loop{
		log:      log,
		interval: interval,
		commands: make(chan func()),
	}
}

func (l *loop) start(tick func()) bool {
	l.cmdMu.Lock()
	defer l.cmdMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return false
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	go l.run(tick, l.stopCh, l.doneCh)
	return true
}

func (l *loop) run(tick func(), stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case fn := <-l.commands:
			fn()
		case <-timer.C:
			l.safeTick(tick)
			timer.Reset(l.interval)
		}
	}
}

func (l *loop) safeTick(tick func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("tick panicked, continuing", zap.Any("panic", r))
		}
	}()
	tick()
}

// stop signals the goroutine and joins it. Exceeding the join timeout is
// reported, not swallowed: a wedged tick usually means a blocking sink.
func (l *loop) stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	close(l.stopCh)
	doneCh := l.doneCh
	l.mu.Unlock()

	select {
	case <-doneCh:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("tick loop did not exit within %s", stopTimeout)
	}
}

// do marshals fn into the tick goroutine and waits for it to complete,
// preserving the single-writer invariant for externally triggered
// operations. When the loop is not running the caller's goroutine executes
// fn directly, serialized by the command mutex.
func (l *loop) do(fn func()) {
	l.cmdMu.Lock()
	l.mu.Lock()
	running := l.running
	doneCh := l.doneCh
	l.mu.Unlock()

	if !running {
		defer l.cmdMu.Unlock()
		fn()
		return
	}
	l.cmdMu.Unlock()

	executed := make(chan struct{})
	select {
	case l.commands <- func() { fn(); close(executed) }:
		<-executed
	case <-doneCh:
		// Loop exited before accepting the command; state is quiescent
		// again, so execute serialized with other external commands.
		l.cmdMu.Lock()
		fn()
		l.cmdMu.Unlock()
	}
}

// setInterval updates the wall-clock pacing of future ticks. Must be
// called from the loop goroutine (i.e. inside do or tick).
func (l *loop) setInterval(d time.Duration) {
	l.interval = d
}

func (l *loop) currentInterval() time.Duration {
	return l.interval
}

func (l *loop) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

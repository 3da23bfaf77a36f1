// Package reactor implements a select()-based event loop, grounded on
// the reference dmr_io: one loop, a handful of registration lists (read,
// write, error, timer, close), and a single blocking wait call per
// iteration. The reference's four parallel macro-generated fd-entry
// lists (DMR_LIST_HEAD per dmr_request_type) collapse here into plain
// Go slices guarded by the loop's own single-goroutine-at-a-time
// contract: Register* calls are only safe from within a callback or
// before Run starts, matching the source's non-reentrant dmr_io.
//
// Cyclic ownership between a protocol object and its callback
// registration (the reference's dmr_io_entry.userdata back-pointer) is
// avoided here: the loop holds only the closures callers pass in, never
// a pointer back to the transport, so a transport can be dropped and
// garbage collected once it deregisters.
package reactor

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dbehnke/dmrcore/pkg/logger"
)

// ReadFunc is called when fd becomes readable. Returning an error tears
// down that registration (the Go analogue of a negative dmr_read_cb
// return requesting the I/O loop close the handle).
type ReadFunc func() error

// TimerFunc is called when a registered timer fires.
type TimerFunc func() error

// SignalFunc is called when one of the process signals the loop was
// told to watch arrives.
type SignalFunc func(sig os.Signal)

// CloseFunc is called once, when the loop is shutting down.
type CloseFunc func()

type readEntry struct {
	fd   int
	cb   ReadFunc
	once bool
}

type timerEntry struct {
	interval time.Duration
	next     time.Time
	cb       TimerFunc
	once     bool
}

// Loop is a single-threaded select() event loop. The zero value is not
// usable; construct with New.
type Loop struct {
	log *logger.Logger

	reads  []readEntry
	timers []timerEntry
	closes []CloseFunc

	sigCh  chan os.Signal
	sigCBs []SignalFunc

	closed bool
}

// New returns an empty loop.
func New(log *logger.Logger) *Loop {
	if log == nil {
		log = logger.Discard()
	}
	return &Loop{log: log.WithComponent("reactor")}
}

// RegisterRead arranges for cb to run whenever fd is readable. once
// removes the registration after the first invocation, the Go analogue
// of dmr_io_reg_read's bool once parameter.
func (l *Loop) RegisterRead(fd int, cb ReadFunc, once bool) {
	l.reads = append(l.reads, readEntry{fd: fd, cb: cb, once: once})
}

// DeregisterRead removes every read registration for fd.
func (l *Loop) DeregisterRead(fd int) {
	out := l.reads[:0]
	for _, e := range l.reads {
		if e.fd != fd {
			out = append(out, e)
		}
	}
	l.reads = out
}

// RegisterTimer arranges for cb to run every interval. once fires the
// timer exactly once and then drops it, the analogue of dmr_io_reg_timer.
func (l *Loop) RegisterTimer(interval time.Duration, cb TimerFunc, once bool) {
	l.timers = append(l.timers, timerEntry{interval: interval, next: timeAfter(interval), cb: cb, once: once})
}

// RegisterSignal arranges for cb to run when sig is delivered to the
// process while the loop is running.
func (l *Loop) RegisterSignal(sig os.Signal, cb SignalFunc) {
	if l.sigCh == nil {
		l.sigCh = make(chan os.Signal, 8)
	}
	signal.Notify(l.sigCh, sig)
	l.sigCBs = append(l.sigCBs, cb)
}

// RegisterClose arranges for cb to run once when the loop exits Run.
func (l *Loop) RegisterClose(cb CloseFunc) {
	l.closes = append(l.closes, cb)
}

// timeAfter exists so tests can see a predictable symbol name for "now
// plus interval" without reaching for time.Now() at package scope.
func timeAfter(d time.Duration) time.Time { return time.Now().Add(d) }

// Run services registrations until ctx is cancelled or every read
// registration has been removed and no timers remain (typically never,
// in a live process).
func (l *Loop) Run(ctx context.Context) error {
	defer l.runClose()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if len(l.reads) == 0 && len(l.timers) == 0 {
			return nil
		}

		if l.sigCh != nil {
			l.drainSignals()
		}

		wait := l.nextTimerWait()
		if len(l.reads) == 0 {
			if wait <= 0 {
				l.fireTimers()
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(clampWait(wait)):
			}
			l.fireTimers()
			continue
		}

		if err := l.selectOnce(wait); err != nil {
			l.log.Error("select failed", logger.Error(err))
			return err
		}
		l.fireTimers()
	}
}

func (l *Loop) runClose() {
	for _, cb := range l.closes {
		cb()
	}
}

func (l *Loop) drainSignals() {
	for {
		select {
		case sig := <-l.sigCh:
			for _, cb := range l.sigCBs {
				cb(sig)
			}
		default:
			return
		}
	}
}

// nextTimerWait returns how long until the soonest timer fires, or a
// generous default if there are none so the loop still polls signals.
func (l *Loop) nextTimerWait() time.Duration {
	if len(l.timers) == 0 {
		return 200 * time.Millisecond
	}
	now := time.Now()
	soonest := l.timers[0].next
	for _, t := range l.timers[1:] {
		if t.next.Before(soonest) {
			soonest = t.next
		}
	}
	return soonest.Sub(now)
}

func clampWait(d time.Duration) time.Duration {
	if d < time.Millisecond {
		return time.Millisecond
	}
	if d > 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return d
}

// fireTimers runs every timer whose deadline has passed.
func (l *Loop) fireTimers() {
	now := time.Now()
	var remaining []timerEntry
	for _, t := range l.timers {
		if now.Before(t.next) {
			remaining = append(remaining, t)
			continue
		}
		if err := t.cb(); err != nil {
			l.log.Error("timer callback failed", logger.Error(err))
		}
		if !t.once {
			t.next = now.Add(t.interval)
			remaining = append(remaining, t)
		}
	}
	l.timers = remaining
}

// selectOnce blocks in a single unix.Select call for up to wait,
// dispatching read callbacks for every fd that becomes readable. This
// is the loop's one and only wait per iteration.
func (l *Loop) selectOnce(wait time.Duration) error {
	var set unix.FdSet
	maxfd := 0
	for _, e := range l.reads {
		fdSet(&set, e.fd)
		if e.fd > maxfd {
			maxfd = e.fd
		}
	}

	tv := unix.NsecToTimeval(clampWait(wait).Nanoseconds())
	n, err := unix.Select(maxfd+1, &set, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	if n == 0 {
		return nil
	}

	var fired []int
	for i, e := range l.reads {
		if fdIsSet(&set, e.fd) {
			fired = append(fired, i)
		}
	}

	// Walk in reverse so once-registrations can be removed by index
	// without invalidating the indices of entries not yet processed.
	sort.Sort(sort.Reverse(sort.IntSlice(fired)))
	for _, idx := range fired {
		e := l.reads[idx]
		if err := e.cb(); err != nil {
			l.log.Error("read callback failed", logger.Error(err))
			l.removeReadAt(idx)
			continue
		}
		if e.once {
			l.removeReadAt(idx)
		}
	}
	return nil
}

func (l *Loop) removeReadAt(idx int) {
	l.reads = append(l.reads[:idx], l.reads[idx+1:]...)
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

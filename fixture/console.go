package fixture

import (
	"time"

	"github.com/networkteam/aybolit-smoke/internal/ringbuffer"
)

// ConsoleCapacity is the number of console messages kept per page.
const ConsoleCapacity = 100

// ConsoleMessage is a message the page wrote to the browser console, or an uncaught
// page error with Type "pageerror".
type ConsoleMessage struct {
	Type string
	Text string
	At   time.Time
}

// ConsoleTypePageError marks uncaught exceptions thrown by page scripts.
const ConsoleTypePageError = "pageerror"

type consoleLog struct {
	buf *ringbuffer.Buffer[ConsoleMessage]
}

func newConsoleLog() consoleLog {
	return consoleLog{buf: ringbuffer.New[ConsoleMessage](ConsoleCapacity)}
}

func (l consoleLog) add(typ, text string) {
	l.buf.Push(ConsoleMessage{Type: typ, Text: text, At: time.Now()})
}

// Console returns the most recent console messages of the page, oldest first.
func (l consoleLog) Console() []ConsoleMessage {
	return l.buf.All()
}

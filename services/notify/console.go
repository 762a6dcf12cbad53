// Package notifysvc carries user-visible, non-fatal notifications: the "could
// not save" toasts presentation code shows without losing state.
package notifysvc

import (
	"log"
	"sync"

	"github.com/kipiapp/kipi/core"
)

type consoleService struct {
	prefix        string
	disableOutput bool
}

var _ core.Notifier = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.Notifier {
	return &consoleService{prefix: "[" + conf.AppName + "] "}
}

func (svc consoleService) Info(msg string)  { svc.emit("INFO", msg) }
func (svc consoleService) Warn(msg string)  { svc.emit("WARN", msg) }
func (svc consoleService) Error(msg string) { svc.emit("ERROR", msg) }

func (svc consoleService) emit(level, msg string) {
	if svc.disableOutput {
		return
	}
	log.Printf("%s%s: %s", svc.prefix, level, msg)
}

// Mock records messages instead of printing them; for tests.
type Mock struct {
	mu       sync.Mutex
	Messages []string
}

var _ core.Notifier = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Info(msg string)  { m.record(msg) }
func (m *Mock) Warn(msg string)  { m.record(msg) }
func (m *Mock) Error(msg string) { m.record(msg) }

func (m *Mock) record(msg string) {
	m.mu.Lock()
	m.Messages = append(m.Messages, msg)
	m.mu.Unlock()
}

// Sent returns a copy of everything recorded so far.
func (m *Mock) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Messages))
	copy(out, m.Messages)
	return out
}

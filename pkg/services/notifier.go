package services

import (
	"fmt"
	"io"
	"sync"
)

// Notifier shows a blocking message to the user.
type Notifier interface {
	Alert(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Alert(message string) { f(message) }

// WriterNotifier prints each alert on its own line.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Alert(message string) {
	fmt.Fprintln(n.W, message)
}

// AlertLog collects alerts until they are drained.
type AlertLog struct {
	mu       sync.Mutex
	messages []string
}

func (l *AlertLog) Alert(message string) {
	l.mu.Lock()
	l.messages = append(l.messages, message)
	l.mu.Unlock()
}

// Messages returns the alerts collected so far.
func (l *AlertLog) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

// Drain returns and forgets the alerts collected so far.
func (l *AlertLog) Drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := l.messages
	l.messages = nil
	return msgs
}

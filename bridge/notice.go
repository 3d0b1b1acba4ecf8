package bridge

// Notice is a user-visible message emitted by the core. A zero Kind marks
// an informational notice.
type Notice struct {
	Kind    Kind
	Message string
	Err     error
}

// Notifier presents notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// DiscardNotifier drops all notices.
var DiscardNotifier Notifier = NotifierFunc(func(Notice) {})

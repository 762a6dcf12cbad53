package core

type (
	// Logger reports application errors to an external tracker in addition
	// to the standard logs.
	Logger interface {
		Enable(enabled bool)
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Notifier surfaces transient, user-visible messages (toasts). Nothing
	// sent through it is fatal; callers keep whatever state they had.
	Notifier interface {
		Info(msg string)
		Warn(msg string)
		Error(msg string)
	}
)

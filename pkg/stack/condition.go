package stack

//go:generate go run github.com/dmarkham/enumer -type Condition -trimprefix Condition -transform snake -yaml -json -output condition.gen.go

// Condition is the readiness a dependency must reach before its dependent
// service is started.
type Condition int

const (
	// ConditionServiceStarted releases once the dependency process has been
	// launched. This is the default when a depends_on entry names a service
	// without qualifying it.
	ConditionServiceStarted Condition = iota

	// ConditionServiceHealthy releases once the dependency has passed its
	// readiness probe.
	ConditionServiceHealthy

	// ConditionServiceCompletedSuccessfully releases once the dependency,
	// which must be a oneshot, has exited with status zero.
	ConditionServiceCompletedSuccessfully
)

package asyncprimitives

import "github.com/google/uuid"

// commonOptions holds the configuration every primitive shares: a logger for
// contention/dispatch/cancellation events, and a name used to correlate that
// logging with a specific instance. Each primitive's own *Options struct
// embeds one as its "common" field.
type commonOptions struct {
	logger *Logger
	name   string
}

// newCommonOptions returns the shared defaults: a no-op logger, and a random
// name so log lines for an unnamed primitive are still distinguishable from
// one another (rather than a pointer address, which is noisy to grep for).
func newCommonOptions() commonOptions {
	return commonOptions{
		logger: NewNoopLogger(),
		name:   uuid.NewString(),
	}
}

// commonOptionImpl implements the apply* method of every primitive's Option
// interface (MutexOption, SemaphoreOption, ...) by forwarding to apply
// against whichever target's embedded commonOptions. This is what lets
// WithLogger and WithName be written once and accepted by every primitive's
// constructor, despite each primitive having its own distinct Option type.
type commonOptionImpl struct {
	apply func(*commonOptions)
}

func (c *commonOptionImpl) applyMutex(o *mutexOptions)                           { c.apply(&o.common) }
func (c *commonOptionImpl) applySemaphore(o *semaphoreOptions)                   { c.apply(&o.common) }
func (c *commonOptionImpl) applyRWLock(o *rwLockOptions)                         { c.apply(&o.common) }
func (c *commonOptionImpl) applySignal(o *signalOptions)                        { c.apply(&o.common) }
func (c *commonOptionImpl) applyConditional(o *conditionalOptions)               { c.apply(&o.common) }
func (c *commonOptionImpl) applyManuallyConditional(o *manuallyConditionalOptions) { c.apply(&o.common) }
func (c *commonOptionImpl) applyDeferred(o *deferredOptions)                     { c.apply(&o.common) }
func (c *commonOptionImpl) applyGenerator(o *generatorOptions)                   { c.apply(&o.common) }
func (c *commonOptionImpl) applyTriggerWait(o *triggerWaitOptions)               { c.apply(&o.common) }

// WithLogger sets the structured logger a primitive uses for contention,
// dispatch, starvation-escape and cancellation events. A nil logger is
// treated as [NewNoopLogger]. Accepted by every primitive's constructor.
func WithLogger(logger *Logger) *commonOptionImpl {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &commonOptionImpl{apply: func(c *commonOptions) {
		c.logger = logger
	}}
}

// WithName sets the name used to tag a primitive's log lines. An empty name
// is ignored, leaving the generated default in place. Accepted by every
// primitive's constructor.
func WithName(name string) *commonOptionImpl {
	return &commonOptionImpl{apply: func(c *commonOptions) {
		if name != "" {
			c.name = name
		}
	}}
}

package asyncprimitives

// triggerWaitOptions configures the standalone [TriggerAndWait] composer.
type triggerWaitOptions struct {
	common commonOptions
}

// TriggerWaitOption is accepted by a standalone [TriggerAndWait] call. The
// options are resolved but not used: the composer writes no log lines, so
// WithLogger and WithName have no effect on the call.
type TriggerWaitOption interface {
	applyTriggerWait(*triggerWaitOptions)
}

func resolveTriggerWaitOptions(opts []TriggerWaitOption) *triggerWaitOptions {
	o := &triggerWaitOptions{common: newCommonOptions()}
	for _, opt := range opts {
		if opt != nil {
			opt.applyTriggerWait(o)
		}
	}
	return o
}

// Triggerer is any primitive that can fire a single edge pulse, used as the
// A-side of a trigger-and-wait composition.
type Triggerer interface {
	Trigger()
}

// composeTriggerAndWait runs trigger and the enlistment on other as close to
// atomically as the two primitives allow: if other supports the two-phase
// waiter protocol, it is enlisted before trigger fires and committed after,
// so no pulse delivered by trigger can race ahead of or be lost relative to
// the enlistment. Primitives without two-phase support fall back to a plain
// trigger-then-Wait, which is correct but not atomic with respect to a third
// party racing the same other.
func composeTriggerAndWait(trigger func(), other Waiter, cancel *Cancellation) (*Handle, error) {
	if cancel.Aborted() {
		return nil, &AbortedError{Reason: cancel.Reason()}
	}
	if pw, ok := other.(prepareWaiter); ok {
		p := pw.prepareWait(cancel)
		trigger()
		p.commit()
		return p.wait()
	}
	trigger()
	return other.Wait(cancel)
}

// TriggerAndWait composes an arbitrary [Triggerer] with a target [Waiter]:
// trigger fires exactly once, atomically with respect to the enlistment on
// other, and the call returns once other's wait resolves. [Conditional] and
// [ManuallyConditional] expose this as a method; this standalone form covers
// any other pairing.
func TriggerAndWait(trigger Triggerer, other Waiter, cancel *Cancellation, opts ...TriggerWaitOption) (*Handle, error) {
	resolveTriggerWaitOptions(opts)
	return composeTriggerAndWait(trigger.Trigger, other, cancel)
}

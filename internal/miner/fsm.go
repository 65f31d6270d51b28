// Package miner implements template assembly, proof-of-work search, and
// the miner's control finite-state-machine. Grounded on the teacher's
// internal/work generator: a poll-loop driven by a single inbound signal
// channel, generalized from Bitcoin block templates to account-model
// ones.
package miner

import "time"

// signalKind is one of the four control signals the FSM accepts.
type signalKind int

const (
	signalStart signalKind = iota
	signalStop
	signalUpdate
	signalExit
)

// Signal is sent on the miner's control channel. Lambda is only
// meaningful on Start.
type Signal struct {
	kind   signalKind
	lambda time.Duration
}

// Start transitions the miner into Running(lambda) from any state except
// ShutDown. Lambda paces the search loop between iterations (Poisson-ish
// spacing); zero means no pacing.
func Start(lambda time.Duration) Signal { return Signal{kind: signalStart, lambda: lambda} }

// Stop transitions Running -> Paused. It has no effect in Paused or
// MinedWait.
func Stop() Signal { return Signal{kind: signalStop} }

// Update restarts the template in Running, or releases MinedWait back
// into Running with the same lambda.
func Update() Signal { return Signal{kind: signalUpdate} }

// Exit transitions any state to ShutDown.
func Exit() Signal { return Signal{kind: signalExit} }

// state is the miner's private FSM state. Transitions are driven
// exclusively by signals received on the control channel; nothing
// outside the miner goroutine observes or mutates it directly.
type state int

const (
	statePaused state = iota
	stateRunning
	stateMinedWait
	stateShutDown
)

// applyControl implements the FSM transition table from the
// specification, given the current state/lambda and an incoming signal.
func applyControl(cur state, lambda time.Duration, sig Signal) (state, time.Duration) {
	switch sig.kind {
	case signalExit:
		return stateShutDown, lambda
	case signalStart:
		return stateRunning, sig.lambda
	case signalStop:
		if cur == stateRunning {
			return statePaused, lambda
		}
		return cur, lambda
	case signalUpdate:
		if cur == stateMinedWait {
			return stateRunning, lambda
		}
		// In Running, Update just restarts the template; handled by the
		// caller re-looping rather than by a state change.
		return cur, lambda
	default:
		return cur, lambda
	}
}

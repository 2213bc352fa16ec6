// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionHook is triggered after a transition has been accepted.
type TransitionHook[T comparable] func(from, to T)

// StateMachine is a transition table over a closed set of states.
// It holds no current state: records live in storage and the machine
// only answers whether a move between two states is legal.
//
// The StateMachine is safe for concurrent use.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	// from state -> valid next states
	validTransitions map[T][]T
	states           []T
	onTransition     []TransitionHook[T]
}

// New creates an empty StateMachine.
func New[T comparable](states ...T) *StateMachine[T] {
	return &StateMachine[T]{
		validTransitions: make(map[T][]T),
		states:           slices.Clone(states),
	}
}

// Allow registers valid transitions from a source state.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.register(from)
	for _, target := range to {
		sm.register(target)
		if !slices.Contains(sm.validTransitions[from], target) {
			sm.validTransitions[from] = append(sm.validTransitions[from], target)
		}
	}
	return sm
}

func (sm *StateMachine[T]) register(state T) {
	if !slices.Contains(sm.states, state) {
		sm.states = append(sm.states, state)
	}
}

// Known reports whether the state belongs to the machine.
func (sm *StateMachine[T]) Known(state T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.states, state)
}

// States returns every state in registration order.
func (sm *StateMachine[T]) States() []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.states)
}

// CanTransition checks if a transition from one state to another is valid.
func (sm *StateMachine[T]) CanTransition(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.validTransitions[from], to)
}

// NextStates returns all valid next states from the given state.
func (sm *StateMachine[T]) NextStates(from T) []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.validTransitions[from])
}

// IsTerminal reports whether no transition leaves the state.
func (sm *StateMachine[T]) IsTerminal(state T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.validTransitions[state]) == 0
}

// OnTransition registers a hook called for every accepted transition.
func (sm *StateMachine[T]) OnTransition(h TransitionHook[T]) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onTransition = append(sm.onTransition, h)
	return sm
}

// Transition validates a move and fires the hooks.
func (sm *StateMachine[T]) Transition(from, to T) error {
	sm.mu.RLock()
	ok := slices.Contains(sm.validTransitions[from], to)
	hooks := slices.Clone(sm.onTransition)
	sm.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %v → %v", ErrInvalidTransition, from, to)
	}
	for _, h := range hooks {
		h(from, to)
	}
	return nil
}

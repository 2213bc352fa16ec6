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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lightStatus string

const (
	lightRed    lightStatus = "RED"
	lightGreen  lightStatus = "GREEN"
	lightYellow lightStatus = "YELLOW"
	lightOff    lightStatus = "OFF"
)

func newLight() *StateMachine[lightStatus] {
	return New(lightRed).
		Allow(lightRed, lightGreen, lightOff).
		Allow(lightGreen, lightYellow, lightOff).
		Allow(lightYellow, lightRed, lightOff)
}

func TestStateMachine_CanTransition(t *testing.T) {
	sm := newLight()

	tests := []struct {
		from, to lightStatus
		want     bool
	}{
		{lightRed, lightGreen, true},
		{lightGreen, lightYellow, true},
		{lightYellow, lightRed, true},
		{lightRed, lightYellow, false},
		{lightOff, lightRed, false},
		{lightGreen, lightGreen, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, sm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStateMachine_Transition(t *testing.T) {
	sm := newLight()

	var seen [][2]lightStatus
	sm.OnTransition(func(from, to lightStatus) {
		seen = append(seen, [2]lightStatus{from, to})
	})

	require.NoError(t, sm.Transition(lightRed, lightGreen))

	err := sm.Transition(lightOff, lightGreen)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "OFF → GREEN")

	assert.Equal(t, [][2]lightStatus{{lightRed, lightGreen}}, seen)
}

func TestStateMachine_StatesAndTerminal(t *testing.T) {
	sm := newLight()

	assert.Equal(t, []lightStatus{lightRed, lightGreen, lightOff, lightYellow}, sm.States())
	assert.True(t, sm.Known(lightYellow))
	assert.False(t, sm.Known("BLUE"))
	assert.True(t, sm.IsTerminal(lightOff))
	assert.False(t, sm.IsTerminal(lightRed))
	assert.ElementsMatch(t, []lightStatus{lightGreen, lightOff}, sm.NextStates(lightRed))
}

/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package mds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerFirstObservation(t *testing.T) {
	var tracker SequenceTracker

	_, ok := tracker.Last()
	require.False(t, ok)

	assert.Equal(t, VerdictFirst, tracker.Observe(5))

	last, ok := tracker.Last()
	require.True(t, ok)
	assert.Equal(t, uint8(5), last)
}

func TestTrackerVerdicts(t *testing.T) {
	var tracker SequenceTracker
	tracker.Observe(5)
	assert.Equal(t, VerdictInOrder, tracker.Observe(6))
	assert.Equal(t, VerdictDiscontinuous, tracker.Observe(9))
	// the tracker resynchronizes to the received value
	assert.Equal(t, VerdictInOrder, tracker.Observe(10))
}

func TestTrackerWrap(t *testing.T) {
	var tracker SequenceTracker
	tracker.Observe(31)
	assert.Equal(t, VerdictInOrder, tracker.Observe(0))
}

func TestTrackerDuplicate(t *testing.T) {
	var tracker SequenceTracker
	tracker.Observe(7)
	assert.Equal(t, VerdictDiscontinuous, tracker.Observe(7))
}

func TestTrackerExhaustive(t *testing.T) {
	for s1 := 0; s1 < 32; s1++ {
		for s2 := 0; s2 < 32; s2++ {
			var tracker SequenceTracker
			tracker.Observe(uint8(s1))
			verdict := tracker.Observe(uint8(s2))
			if s2 == (s1+1)%32 {
				assert.Equal(t, VerdictInOrder, verdict, "s1=%d s2=%d", s1, s2)
			} else {
				assert.Equal(t, VerdictDiscontinuous, verdict, "s1=%d s2=%d", s1, s2)
			}
		}
	}
}

func TestTrackerMasksSequence(t *testing.T) {
	var tracker SequenceTracker
	// 0xe3 & 0x1f == 3
	tracker.Observe(0xe3)
	last, _ := tracker.Last()
	assert.Equal(t, uint8(3), last)
	assert.Equal(t, VerdictInOrder, tracker.Observe(4))
}

func TestTrackerReset(t *testing.T) {
	var tracker SequenceTracker
	tracker.Observe(12)
	tracker.Reset()

	_, ok := tracker.Last()
	assert.False(t, ok)
	assert.Equal(t, VerdictFirst, tracker.Observe(25))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "first", VerdictFirst.String())
	assert.Equal(t, "in-order", VerdictInOrder.String())
	assert.Equal(t, "discontinuous", VerdictDiscontinuous.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}

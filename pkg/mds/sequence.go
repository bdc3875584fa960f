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
	"github.com/hidbridge/go-mds/pkg/layers"
)

// Verdict classifies one observed sequence number against the previous one
type Verdict int

const (
	// VerdictFirst is produced for the first packet of a stream. There is
	// nothing to compare it against, so no continuity verdict exists.
	VerdictFirst Verdict = iota
	// VerdictInOrder means the sequence number is exactly one more than
	// the previous one, modulo the 5-bit wrap
	VerdictInOrder
	// VerdictDiscontinuous covers everything else: drops, duplicates and
	// out-of-order arrivals. The protocol does not distinguish them.
	VerdictDiscontinuous
)

func (v Verdict) String() string {
	switch v {
	case VerdictFirst:
		return "first"
	case VerdictInOrder:
		return "in-order"
	case VerdictDiscontinuous:
		return "discontinuous"
	default:
		return "unknown"
	}
}

// SequenceTracker follows the wrapping 5-bit sequence counter of the
// chunk stream. It always resynchronizes to the latest observed value,
// the protocol has no retransmission path so a discontinuity is
// telemetry, never a reason to stop forwarding.
type SequenceTracker struct {
	last uint8
	set  bool
}

// Observe feeds the next received sequence number to the tracker and
// returns the continuity verdict for it
func (t *SequenceTracker) Observe(seq uint8) Verdict {
	seq &= layers.SequenceMask
	if !t.set {
		t.set = true
		t.last = seq
		return VerdictFirst
	}
	expected := (t.last + 1) % layers.SequenceModulo
	t.last = seq
	if seq == expected {
		return VerdictInOrder
	}
	return VerdictDiscontinuous
}

// Last returns the most recently observed sequence number. The second
// return value is false while nothing has been observed yet.
func (t *SequenceTracker) Last() (uint8, bool) {
	return t.last, t.set
}

// Reset puts the tracker back into the unset state
func (t *SequenceTracker) Reset() {
	t.last = 0
	t.set = false
}

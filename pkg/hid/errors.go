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

package hid

import (
	"fmt"
)

// ErrTimeout returned when no data arrived within the caller's bound
type ErrTimeout struct {
	Op string
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("Timed out while waiting for %s", e.Op)
}

// ErrTransportIO returned when the underlying transport fails
type ErrTransportIO struct {
	Op  string
	Err error
}

func (e ErrTransportIO) Error() string {
	return fmt.Sprintf("Transport error during %s: %s", e.Op, e.Err)
}

func (e ErrTransportIO) Unwrap() error {
	return e.Err
}

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

package gateway

import (
	"fmt"
)

// ErrUnknownOperation returned when an API request names an operation
// the gateway does not know
type ErrUnknownOperation struct {
	What string
}

func (e ErrUnknownOperation) Error() string {
	return fmt.Sprintf("Unknown operation: %s", e.What)
}

// ErrNotReady returned when a request needs the device configuration
// before the gateway has read it
type ErrNotReady struct {
	What string
}

func (e ErrNotReady) Error() string {
	return fmt.Sprintf("Gateway is not ready: %s", e.What)
}

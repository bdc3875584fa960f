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

package upload

import (
	"fmt"
)

// ErrInvalidArgument returned when a required input is missing or empty
type ErrInvalidArgument struct {
	What string
}

func (e ErrInvalidArgument) Error() string {
	return fmt.Sprintf("Invalid argument: %s", e.What)
}

// ErrInvalidAuthFormat returned when the authorization header carries no
// colon. This is rejected before any network attempt.
type ErrInvalidAuthFormat struct {
	Header string
}

func (e ErrInvalidAuthFormat) Error() string {
	return fmt.Sprintf("Invalid authorization header, expected Name:Value format: %q", e.Header)
}

// ErrDeliveryFailed returned when a chunk upload fails, either at the
// transport level or with an HTTP status outside 200-299
type ErrDeliveryFailed struct {
	Status int
	Err    error
}

func (e ErrDeliveryFailed) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Chunk delivery failed: %s", e.Err)
	}
	return fmt.Sprintf("Chunk delivery failed: HTTP status %d", e.Status)
}

func (e ErrDeliveryFailed) Unwrap() error {
	return e.Err
}

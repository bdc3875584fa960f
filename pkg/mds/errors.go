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
	"fmt"
)

// ErrInvalidArgument returned when a required input is missing or empty
type ErrInvalidArgument struct {
	What string
}

func (e ErrInvalidArgument) Error() string {
	return fmt.Sprintf("Invalid argument: %s", e.What)
}

// ErrWrongReportType returned when a received report ID does not match
// the expected one
type ErrWrongReportType struct {
	Got  uint8
	Want uint8
}

func (e ErrWrongReportType) Error() string {
	return fmt.Sprintf("Wrong report type: got 0x%02x, want 0x%02x", e.Got, e.Want)
}

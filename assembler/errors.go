// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package assembler

import (
	"errors"
	"fmt"
)

var (
	ErrTransactionTooLarge = errors.New("transaction too large")
	ErrValueTooLarge       = errors.New("asset does not fit in max value size")
	ErrFeeNotConverged     = errors.New("fee calculation did not converge")
	ErrAlreadyFinalized    = errors.New("transaction already finalized")
)

// TransactionTooLargeError is returned when the assembled transaction
// exceeds the max transaction size. Both sizes are in hex characters
type TransactionTooLargeError struct {
	Size int
	Max  uint64
}

func (e *TransactionTooLargeError) Error() string {
	return fmt.Sprintf(
		"transaction too large: size %d exceeds max %d",
		e.Size,
		e.Max,
	)
}

func (e *TransactionTooLargeError) Is(target error) bool {
	return target == ErrTransactionTooLarge
}

func (e *TransactionTooLargeError) Unwrap() error {
	return ErrTransactionTooLarge
}

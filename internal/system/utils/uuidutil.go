/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateUUID returns a random (v4) UUID string in lowercase hexadecimal.
func GenerateUUID() string {
	return uuid.NewString()
}

// GenerateUUIDv7 returns a UUID v7 string (time-ordered) in lowercase hexadecimal.
// UUID v7 embeds a Unix-epoch-millisecond timestamp in its leading bits, giving
// flow and execution IDs better index locality than v4 when persisted or sorted.
func GenerateUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUIDv7: %w", err)
	}
	return id.String(), nil
}

// IsValidUUID checks if the input string is a valid UUID.
func IsValidUUID(input string) bool {
	_, err := uuid.Parse(input)
	return err == nil
}

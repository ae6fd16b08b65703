// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

/*
Copyright 2025 The VoltFleet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2eemulated

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestE2EEmulated runs the fleet on the real clock with an emulated fleet
// and aggressive drift, and checks the lifecycle invariants while commands
// race with the periodic tick.
func TestE2EEmulated(t *testing.T) {
	RegisterFailHandler(Fail)
	_, _ = fmt.Fprintf(GinkgoWriter, "Starting emulated fleet test suite\n")
	RunSpecs(t, "e2e-emulated suite")
}

var _ = BeforeSuite(func() {
	setupFleet()
})

var _ = AfterSuite(func() {
	teardownFleet()
})

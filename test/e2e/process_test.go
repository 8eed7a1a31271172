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

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// seedFleet has two unlisted assets below the retirement threshold (EV-101,
// and BAT-201 at the terminal floor), a cabinet with simulation disabled
// (CAB-301) and one seeded listing (BAT-007).
const seedFleet = `
assets:
  - id: EV-101
    type: EV
    model: Spiro Ekon 450M
    status: Maintenance
    soh: 45
    location: Lagos - Yaba Hub
    originalValue: "1200000"
  - id: BAT-201
    type: Battery
    model: LFP 72V 40Ah
    status: In Use
    soh: 0
    dailySwaps: 3
    location: Lagos - Ikeja Hub
    originalValue: "420000"
  - id: BAT-007
    type: Battery
    model: LFP 72V 40Ah
    status: Available
    soh: 40
    location: Lagos - Lekki Hub
    originalValue: "380000"
  - id: CAB-301
    type: Cabinet
    model: SwapStation 12
    status: Available
    soh: 80
    location: Lagos - Surulere Hub
    originalValue: "3500000"
listings:
  - assetId: BAT-007
    soh: 40
    salvageValue: "76000"
    listedAt: "2025-03-01T10:00:00Z"
`

const simulationProfiles = `
default: |
  sohDriftBound: 0.05
cabinets: |
  assetType: Cabinet
  enableSimulation: false
`

func seedPath() string     { return filepath.Join(workDir, "fleet.yaml") }
func profilesPath() string { return filepath.Join(workDir, "profiles.yaml") }
func marketPath() string   { return filepath.Join(workDir, "market.db") }

// processOutput collects a child process's combined output.
type processOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *processOutput) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *processOutput) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

type fleetProcess struct {
	cmd     *exec.Cmd
	address string
	output  *processOutput
	exited  chan error
}

func freeAddress() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = l.Close() }()
	return l.Addr().String()
}

func startFleetsim(extraArgs ...string) *fleetProcess {
	p := &fleetProcess{
		address: freeAddress(),
		output:  &processOutput{},
		exited:  make(chan error, 1),
	}
	args := append([]string{
		"--tick-interval=50ms",
		"--summary-interval=200ms",
		"--random-seed=42",
		"--seed-file=" + seedPath(),
		"--profiles-file=" + profilesPath(),
		"--market-backend=sqlite",
		"--sqlite-dsn=" + marketPath(),
		"--metrics-bind-address=" + p.address,
		"--log-verbosity=1",
	}, extraArgs...)
	p.cmd = exec.Command(fleetsimBinary, args...)
	p.cmd.Stdout = p.output
	p.cmd.Stderr = p.output
	lastOutput = p.output

	By(fmt.Sprintf("starting fleetsim on %s", p.address))
	Expect(p.cmd.Start()).To(Succeed())
	go func() { p.exited <- p.cmd.Wait() }()
	return p
}

func (p *fleetProcess) stop() {
	By("sending SIGTERM to fleetsim")
	Expect(p.cmd.Process.Signal(syscall.SIGTERM)).To(Succeed())
	var err error
	Eventually(p.exited, 10*time.Second).Should(Receive(&err))
	Expect(err).NotTo(HaveOccurred(), "fleetsim should exit cleanly")
}

func (p *fleetProcess) scrape(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+p.address+"/metrics", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}

// metricValue returns the value of an unlabelled sample, or -1.
func metricValue(body, name string) float64 {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + ` ([0-9.e+-]+)$`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return -1
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return -1
	}
	return v
}

// sohValue returns the fleet_asset_soh sample of one asset, or -1.
func sohValue(body, assetID string) float64 {
	re := regexp.MustCompile(`(?m)^fleet_asset_soh\{[^}]*asset_id="` + regexp.QuoteMeta(assetID) + `"[^}]*\} ([0-9.e+-]+)$`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return -1
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return -1
	}
	return v
}

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


package analysis

import (
	"fmt"
	"math"

	kalman "github.com/llm-inferno/kalman-filter/pkg/core"
	"gonum.org/v1/gonum/mat"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

const (
	// sohMeasurementVariance is the assumed variance of one soh reading.
	sohMeasurementVariance = 0.01
	// rateProcessVariance is the drift allowed in the degradation rate, per hour.
	rateProcessVariance = 1e-3
	// initialRateVariance keeps the prior on the rate diffuse.
	initialRateVariance = 1e6
)

// degradationFilter tracks the state [soh, soh change per hour] of one asset.
type degradationFilter struct {
	kf *kalman.KalmanFilterND
	r  *mat.Dense
}

func newDegradationFilter(soh float64) (*degradationFilter, error) {
	initState := mat.NewVecDense(2, []float64{soh, 0})
	initCov := mat.NewDense(2, 2, []float64{
		sohMeasurementVariance, 0,
		0, initialRateVariance,
	})
	kf, err := kalman.NewKalmanFilterND(2, 1, initState, initCov)
	if err != nil {
		return nil, err
	}
	if err := kf.SetH(mat.NewDense(1, 2, []float64{1, 0})); err != nil {
		return nil, err
	}
	if err := kf.SetStateLimiter(
		[]float64{fleetv1alpha1.MinSoh, math.Inf(-1)},
		[]float64{fleetv1alpha1.MaxSoh, math.Inf(1)},
	); err != nil {
		return nil, err
	}
	return &degradationFilter{
		kf: kf,
		r:  mat.NewDense(1, 1, []float64{sohMeasurementVariance}),
	}, nil
}

// step advances the filter by dt hours and folds in one soh reading.
// Readings sharing a timestamp are folded in without a prediction.
func (f *degradationFilter) step(dt, soh float64) error {
	if dt < 0 {
		return fmt.Errorf("timestamps out of order, dt=%v", dt)
	}
	if dt == 0 {
		return f.kf.Update(mat.NewVecDense(1, []float64{soh}), f.r)
	}
	if err := f.kf.SetF(mat.NewDense(2, 2, []float64{
		1, dt,
		0, 1,
	})); err != nil {
		return err
	}
	// white-noise acceleration model
	q := rateProcessVariance
	if err := f.kf.Predict(mat.NewDense(2, 2, []float64{
		q * dt * dt * dt / 3, q * dt * dt / 2,
		q * dt * dt / 2, q * dt,
	})); err != nil {
		return err
	}
	return f.kf.Update(mat.NewVecDense(1, []float64{soh}), f.r)
}

func (f *degradationFilter) rate() float64 {
	return f.kf.State().AtVec(1)
}

// filteredSlope runs a fresh filter over the points (xs in hours) and
// returns the final rate estimate.
func filteredSlope(xs, ys []float64) (float64, error) {
	f, err := newDegradationFilter(ys[0])
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(xs); i++ {
		if err := f.step(xs[i]-xs[i-1], ys[i]); err != nil {
			return 0, err
		}
	}
	return f.rate(), nil
}

// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"math"

	"github.com/holiman/uint256"
)

// yieldScale keeps the integer division of a small withdrawal by a large
// supply from truncating to zero before the time weighting is applied.
const yieldScale = 1_000_000

// CalculateYield returns the yield owed on [amount] of an asset with
// [supply] shares outstanding and [pool] collected fees, for a balance
// deposited at [depositDate].
//
// Under a year of age, 80% of the full-year yield accrues linearly with age
// and the other 20% with the square of age. The result is zero unless the
// balance is strictly older than [minPeriod] and the yield is strictly
// inside (0, pool).
func CalculateYield(now, depositDate int64, amount, pool, supply Amount, minPeriod int64) Amount {
	if amount <= 0 || supply <= 0 || pool <= 0 {
		return 0
	}
	elapsed := now - depositDate
	if elapsed <= minPeriod {
		return 0
	}

	yield := uint256.NewInt(uint64(amount))
	yield.Mul(yield, uint256.NewInt(yieldScale))
	yield.Mul(yield, uint256.NewInt(uint64(pool)))
	yield.Div(yield, uint256.NewInt(uint64(supply)))

	if elapsed < SecondsPerYear {
		var (
			year  = uint256.NewInt(SecondsPerYear)
			age   = uint256.NewInt(uint64(elapsed))
			full  = new(uint256.Int).Set(yield)
			delta = new(uint256.Int)
		)
		yield.Mul(yield, uint256.NewInt(8))
		yield.Div(yield, uint256.NewInt(10))
		delta.Sub(full, yield)

		yield.Mul(yield, age)
		yield.Div(yield, year)

		delta.Mul(delta, age)
		delta.Div(delta, year)
		delta.Mul(delta, age)
		delta.Div(delta, year)

		yield.Add(yield, delta)
	}
	yield.Div(yield, uint256.NewInt(yieldScale))

	if !yield.IsUint64() || yield.Uint64() >= uint64(pool) {
		return 0
	}
	return Amount(yield.Uint64())
}

// weightedDate returns (oldDate*oldBalance + now*amount) / (oldBalance+amount).
func weightedDate(oldDate int64, oldBalance Amount, now int64, amount Amount) (int64, error) {
	if oldDate < 0 || now < 0 || oldBalance < 0 || amount <= 0 {
		return 0, ErrOverflow
	}
	total := uint256.NewInt(uint64(oldBalance))
	total.Add(total, uint256.NewInt(uint64(amount)))

	avg := uint256.NewInt(uint64(oldDate))
	avg.Mul(avg, uint256.NewInt(uint64(oldBalance)))
	avg.Add(avg, new(uint256.Int).Mul(uint256.NewInt(uint64(now)), uint256.NewInt(uint64(amount))))
	avg.Div(avg, total)

	if !avg.IsUint64() || avg.Uint64() > math.MaxInt64 {
		return 0, ErrOverflow
	}
	return int64(avg.Uint64()), nil
}

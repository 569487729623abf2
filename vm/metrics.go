// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const metricsNamespace = "keyidvm"

type metrics struct {
	blocksAccepted prometheus.Counter
	txsAccepted    prometheus.Counter
	txsRejected    *prometheus.CounterVec // by error class
	feesCollected  prometheus.Counter
	opsApplied     *prometheus.CounterVec // by operation type
	mempoolSize    prometheus.Gauge
	height         prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		blocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_accepted",
			Help:      "Number of blocks accepted",
		}),
		txsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_accepted",
			Help:      "Number of transactions applied in accepted blocks",
		}),
		txsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_rejected",
			Help:      "Number of transactions that failed to apply",
		}, []string{"class"}),
		feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fees_required",
			Help:      "Native fees required by accepted transactions",
		}),
		opsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_applied",
			Help:      "Number of operations applied in accepted blocks",
		}, []string{"type"}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "mempool_size",
			Help:      "Number of transactions waiting in the mempool",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_accepted_height",
			Help:      "Height of the last accepted block",
		}),
	}
	if registerer == nil {
		return m, nil
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.blocksAccepted),
		registerer.Register(m.txsAccepted),
		registerer.Register(m.txsRejected),
		registerer.Register(m.feesCollected),
		registerer.Register(m.opsApplied),
		registerer.Register(m.mempoolSize),
		registerer.Register(m.height),
	)
	return m, errs.Err
}

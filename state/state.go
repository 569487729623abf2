// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"

	"github.com/ava-labs/keyidvm/chain"
)

const (
	accountCacheSize = 2048
	assetCacheSize   = 256
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix = []byte("singleton")
	blockStatePrefix     = []byte("block")
	heightStatePrefix    = []byte("height")
	accountStatePrefix   = []byte("account")
	namePrefix           = []byte("name")
	keyPrefix            = []byte("key")
	balanceStatePrefix   = []byte("balance")
	assetStatePrefix     = []byte("asset")
	slateStatePrefix     = []byte("slate")
	burnStatePrefix      = []byte("burn")
	domainStatePrefix    = []byte("domain")
	offerStatePrefix     = []byte("offer")
	txStatePrefix        = []byte("tx")

	errWrongVersion = errors.New("wrong codec version")

	_ chain.Ledger = (*State)(nil)
)

// State is the ledger over a database. Every State owns a versiondb: the
// root one buffers a block's worth of writes over the node's database, and
// overlays buffer a single transaction's writes over their parent. An
// overlay's writes reach its parent only on Commit; Abort drops them.
//
// A State must not be used concurrently, and an overlay must be committed
// or aborted before its parent is written to again.
type State struct {
	parent *State
	baseDB *versiondb.Database

	singletonDB database.Database
	blockDB     database.Database
	heightDB    database.Database
	accountDB   database.Database
	nameDB      database.Database
	keyDB       database.Database
	balanceDB   database.Database
	assetDB     database.Database
	slateDB     database.Database
	burnDB      database.Database
	domainDB    database.Database
	offerDB     database.Database
	txDB        database.Database

	accountCache cache.Cacher
	assetCache   cache.Cacher
	blockCache   cache.Cacher

	head head
}

// New returns the root State over [db], loading the chain head if the
// database was initialized before.
func New(db database.Database) (*State, error) {
	s := newState(nil, versiondb.New(db))
	h, err := s.loadHead()
	if err != nil {
		return nil, err
	}
	s.head = h
	return s, nil
}

func newState(parent *State, baseDB *versiondb.Database) *State {
	return &State{
		parent:       parent,
		baseDB:       baseDB,
		singletonDB:  prefixdb.New(singletonStatePrefix, baseDB),
		blockDB:      prefixdb.New(blockStatePrefix, baseDB),
		heightDB:     prefixdb.New(heightStatePrefix, baseDB),
		accountDB:    prefixdb.New(accountStatePrefix, baseDB),
		nameDB:       prefixdb.New(namePrefix, baseDB),
		keyDB:        prefixdb.New(keyPrefix, baseDB),
		balanceDB:    prefixdb.New(balanceStatePrefix, baseDB),
		assetDB:      prefixdb.New(assetStatePrefix, baseDB),
		slateDB:      prefixdb.New(slateStatePrefix, baseDB),
		burnDB:       prefixdb.New(burnStatePrefix, baseDB),
		domainDB:     prefixdb.New(domainStatePrefix, baseDB),
		offerDB:      prefixdb.New(offerStatePrefix, baseDB),
		txDB:         prefixdb.New(txStatePrefix, baseDB),
		accountCache: &cache.LRU{Size: accountCacheSize},
		assetCache:   &cache.LRU{Size: assetCacheSize},
		blockCache:   &cache.LRU{Size: blockCacheSize},
	}
}

// Overlay returns a State whose writes are buffered until Commit.
func (s *State) Overlay() *State {
	child := newState(s, versiondb.New(s.baseDB))
	child.head = s.head
	return child
}

// Commit writes pending operations to the parent, or to the underlying
// database for the root State.
func (s *State) Commit() error {
	if err := s.baseDB.Commit(); err != nil {
		return err
	}
	if s.parent != nil {
		s.parent.head = s.head
		s.parent.ClearCache()
	}
	return nil
}

// Abort drops every pending write.
func (s *State) Abort() {
	s.baseDB.Abort()
	s.ClearCache()
}

// ClearCache drops cached records. Parents call it when an overlay commits
// into them.
func (s *State) ClearCache() {
	s.accountCache.Flush()
	s.assetCache.Flush()
	s.blockCache.Flush()
}

// Close closes the underlying base database
func (s *State) Close() error {
	return s.baseDB.Close()
}

func (s *State) get(db database.Database, key []byte, v interface{}) error {
	b, err := db.Get(key)
	if err != nil {
		return err
	}
	parsedVersion, err := chain.Codec.Unmarshal(b, v)
	if err != nil {
		return err
	}
	if parsedVersion != chain.CodecVersion {
		return errWrongVersion
	}
	return nil
}

func (s *State) put(db database.Database, key []byte, v interface{}) error {
	b, err := chain.Codec.Marshal(chain.CodecVersion, v)
	if err != nil {
		return err
	}
	return db.Put(key, b)
}

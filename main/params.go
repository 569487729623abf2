// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"flag"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/keyidvm/vm"
)

const (
	versionKey     = "version"
	configFileKey  = "config-file"
	genesisFileKey = "genesis-file"
	dbDirKey       = "db-dir"
	httpHostKey    = "http-host"
	httpPortKey    = "http-port"
	logLevelKey    = "log-level"
	strictKey      = "strict-blocks"
	mempoolSizeKey = "mempool-size"
	blockLimitKey  = "block-tx-limit"

	envPrefix = "keyidvm"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("keyidvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints Version and quit")
	fs.String(configFileKey, "", "Optional config file (json, toml or yaml) holding any of these flags")
	fs.String(genesisFileKey, "genesis.toml", "TOML genesis file")
	fs.String(dbDirKey, "", "LevelDB directory. State is kept in memory when empty")
	fs.String(httpHostKey, "127.0.0.1", "Address the API listens on")
	fs.Uint(httpPortKey, 9650, "Port the API listens on")
	fs.String(logLevelKey, "info", "Log level (crit, error, warn, info, debug)")
	fs.Bool(strictKey, false, "Reject blocks holding a transaction that fails to apply")
	fs.Int(mempoolSizeKey, 1024, "Number of transactions the mempool holds")
	fs.Int(blockLimitKey, 256, "Maximum number of transactions per block")

	return fs
}

// getViper returns the viper environment for the node binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	if configFile := v.GetString(configFileKey); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// vmConfig encodes the VM's share of the flags as the VM reads it.
func vmConfig(v *viper.Viper) ([]byte, error) {
	return json.Marshal(vm.Config{
		StrictBlocks: v.GetBool(strictKey),
		MempoolSize:  v.GetInt(mempoolSizeKey),
		BlockTxLimit: v.GetInt(blockLimitKey),
	})
}

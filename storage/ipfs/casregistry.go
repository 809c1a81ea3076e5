package ipfs

import (
	"flag"
	"os"

	"locproto.dev/lp/storage"
	"locproto.dev/lp/storage/casregistry"
)

var (
	flagBin  string
	flagRepo string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "IPFS CAS via the local Kubo CLI (offline raw blocks)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", "", "Path to the ipfs binary (default: ipfs on PATH)")
			fs.StringVar(&flagRepo, "ipfs-path", "", "IPFS repo directory (sets IPFS_PATH for the CLI)")
		},
		Open: func() (storage.CAS, func() error, error) {
			opts := Options{Bin: flagBin}
			if flagRepo != "" {
				opts.Env = append(os.Environ(), "IPFS_PATH="+flagRepo)
			}
			return New(opts), nil, nil
		},
	})
}

// lp_vector_gen emits a signed conformance vector: canonical bytes,
// digest, signature and CID for a fixed payload under a fixed seed, for
// cross-implementation comparison.
package main

import (
	"encoding/hex"
	"fmt"

	"locproto.dev/lp/canonical"
	"locproto.dev/lp/keys"
	"locproto.dev/lp/pipeline"
)

const vectorPayload = `{
  "lp_version": "1.0.0",
  "srs": "http://www.opengis.net/def/crs/OGC/1.3/CRS84",
  "location_type": "coordinate-decimal",
  "location": [-103.771556, 44.967243]
}`

func main() {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 0xA1
	}
	signer, err := keys.NewEd25519SignerFromSeed(seed)
	if err != nil {
		panic(err)
	}

	proc := pipeline.New(pipeline.Options{})
	r, err := proc.Process([]byte(vectorPayload), signer)
	if err != nil {
		panic(err)
	}

	fmt.Printf("CID=%s\n", r.CID)
	fmt.Printf("Canonical-Hex=%s\n", hex.EncodeToString(r.CanonicalBytes))
	fmt.Printf("Canonical-B64=%s\n", canonical.EncodeTransport(r.CanonicalBytes))
	fmt.Printf("Digest=%s\n", hex.EncodeToString(r.Digest))
	fmt.Printf("Signature=%s\n", canonical.EncodeTransport(r.Signature))
	fmt.Printf("Signer-Key=%s\n", r.SignerKey)
}

package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"locproto.dev/lp/attest"
	"locproto.dev/lp/canonical"
	"locproto.dev/lp/compliance"
	"locproto.dev/lp/ingest"
	"locproto.dev/lp/keys"
	"locproto.dev/lp/payload"
	"locproto.dev/lp/pipeline"
	"locproto.dev/lp/registry"
	"locproto.dev/lp/storage"
	"locproto.dev/lp/storage/bundle"
	"locproto.dev/lp/storage/casregistry"

	_ "locproto.dev/lp/storage/grpccas"
	_ "locproto.dev/lp/storage/ipfs"
	_ "locproto.dev/lp/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "validate":
		return cmdValidate(args[1:], out, errOut)
	case "canon":
		return cmdCanon(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "submit":
		return cmdSubmit(args[1:], out, errOut)
	case "ingest-nmea":
		return cmdIngestNMEA(args[1:], out, errOut)
	case "registry":
		return cmdRegistry(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "lp: Location Protocol payload CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lp validate [--mode permissive|strict] <file|->")
	fmt.Fprintln(w, "  lp canon [--format cbor|jcs] [--b64] [--mode ...] <file|->")
	fmt.Fprintln(w, "  lp digest [--mode ...] <file|->")
	fmt.Fprintln(w, "  lp cid <file|->")
	fmt.Fprintln(w, "  lp sign (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [--mode ...] <file|->")
	fmt.Fprintln(w, "  lp verify [--digest <hex>] [--sig <b64> --signer-key <alg:b64>] [--mode ...] <file|->")
	fmt.Fprintln(w, "  lp key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  lp key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  lp key list")
	fmt.Fprintln(w, "  lp key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  lp submit --backend <name> [backend flags] [signer flags] <file|->")
	fmt.Fprintln(w, "  lp ingest-nmea [<file|->]")
	fmt.Fprintln(w, "  lp registry list")
	fmt.Fprintln(w, "  lp bundle export --backend <name> [backend flags] --out <file> <cid> [<cid> ...]")
	fmt.Fprintln(w, "  lp bundle import --backend <name> [backend flags] <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - <file|-> reads the payload JSON from a file or stdin")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.locproto/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - canon writes canonical CBOR bytes to stdout (use --b64 for transport form)")
	fmt.Fprintln(w, "  - submit stores canonical bytes in the selected CAS backend and prints a receipt")
}

func readInput(fs *flag.FlagSet, errOut io.Writer, usage string) ([]byte, bool) {
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage:", usage)
		return nil, false
	}
	path := fs.Arg(0)
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return nil, false
	}
	return b, true
}

func parseMode(mode string) (compliance.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "permissive":
		return compliance.Permissive, nil
	case "strict":
		return compliance.Strict, nil
	default:
		return compliance.Permissive, fmt.Errorf("invalid --mode (expected permissive or strict)")
	}
}

func printViolations(errOut io.Writer, res *payload.ValidationResult) {
	for _, err := range res.Errors {
		if id := payload.RuleID(err); id != "" {
			fmt.Fprintf(errOut, "%s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(errOut, "%v\n", err)
	}
}

func printWarnings(errOut io.Writer, warnings []payload.Warning) {
	for _, w := range warnings {
		if w.Field != "" {
			fmt.Fprintf(errOut, "warning: %s: %s\n", w.Field, w.Message)
			continue
		}
		fmt.Fprintf(errOut, "warning: %s\n", w.Message)
	}
}

// validateReport is the machine-readable form of a validation outcome,
// built from the structured error accessors rather than error strings.
type validateReport struct {
	Valid        bool             `json:"valid"`
	LocationType string           `json:"location_type,omitempty"`
	Violations   []violationEntry `json:"violations,omitempty"`
	Warnings     []violationEntry `json:"warnings,omitempty"`
}

type violationEntry struct {
	Rule    string `json:"rule,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func buildReport(res *payload.ValidationResult) validateReport {
	rep := validateReport{Valid: res.OK()}
	if res.OK() {
		rep.LocationType = res.Payload.LocationType
	}
	for _, err := range res.Errors {
		rep.Violations = append(rep.Violations, violationEntry{
			Rule:    payload.RuleID(err),
			Field:   payload.FieldOf(err),
			Message: err.Error(),
		})
	}
	for _, w := range res.Warnings {
		rep.Warnings = append(rep.Warnings, violationEntry{Field: w.Field, Message: w.Message})
	}
	return rep
}

func cmdValidate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var mode string
	var jsonOut bool
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	fs.BoolVar(&jsonOut, "json", false, "Emit a JSON validation report")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp validate [--mode ...] [--json] <file|->")
	if !ok {
		return 2
	}

	res := payload.Validate(raw, registry.Default(), m)
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(buildReport(res))
		if res.OK() {
			return 0
		}
		return 1
	}
	printWarnings(errOut, res.Warnings)
	if !res.OK() {
		printViolations(errOut, res)
		return 1
	}
	fmt.Fprintf(out, "OK %s\n", res.Payload.LocationType)
	return 0
}

func cmdCanon(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var format string
	var b64 bool
	var mode string
	fs.StringVar(&format, "format", "cbor", "Canonical form: cbor or jcs")
	fs.BoolVar(&b64, "b64", false, "Base64-encode the output (transport form)")
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp canon [--format cbor|jcs] [--b64] <file|->")
	if !ok {
		return 2
	}

	res := payload.Validate(raw, registry.Default(), m)
	printWarnings(errOut, res.Warnings)
	if !res.OK() {
		printViolations(errOut, res)
		return 1
	}

	var b []byte
	switch format {
	case "cbor":
		b, err = canonical.Canonicalize(res.Payload.Object())
	case "jcs":
		b, err = canonical.JCS(res.Payload.Object())
	default:
		fmt.Fprintln(errOut, "invalid --format (expected cbor or jcs)")
		return 2
	}
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	if b64 {
		_, _ = fmt.Fprintln(out, canonical.EncodeTransport(b))
		return 0
	}
	_, _ = out.Write(b)
	return 0
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var mode string
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp digest <file|->")
	if !ok {
		return 2
	}

	proc := pipeline.New(pipeline.Options{Mode: m})
	r, perr := proc.Process(raw, nil)
	printWarnings(errOut, r.Warnings)
	if perr != nil {
		fmt.Fprintf(errOut, "%v\n", perr)
		return 1
	}
	_, _ = fmt.Fprintln(out, hex.EncodeToString(r.Digest))
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp cid <file|->")
	if !ok {
		return 2
	}

	proc := pipeline.New(pipeline.Options{})
	r, err := proc.Process(raw, nil)
	printWarnings(errOut, r.Warnings)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, r.CID)
	return 0
}

type signerFlags struct {
	seedHex    string
	signerName string
	signerRole string
	keyFile    string
}

func (s *signerFlags) add(fs *flag.FlagSet) {
	fs.StringVar(&s.seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&s.signerName, "signer", "", "Use a stored key by name (from 'lp key init')")
	fs.StringVar(&s.signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&s.keyFile, "key-file", "", "Path to a seed file (hex) created by 'lp key init/derive'")
}

func (s *signerFlags) empty() bool {
	return s.seedHex == "" && s.signerName == "" && s.keyFile == ""
}

func (s *signerFlags) load(errOut io.Writer) (keys.Signer, int) {
	if s.empty() {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return nil, 2
	}
	if s.seedHex != "" && (s.signerName != "" || s.keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return nil, 2
	}
	if s.signerName != "" && s.keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return nil, 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, 1
	}
	seed, err := ks.LoadSeed(s.seedHex, s.signerName, s.signerRole, s.keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return nil, 2
	}
	signer, err := keys.NewEd25519SignerFromSeed(seed)
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return nil, 1
	}
	return signer, 0
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var sf signerFlags
	var mode string
	sf.add(fs)
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp sign [signer flags] <file|->")
	if !ok {
		return 2
	}
	signer, code := sf.load(errOut)
	if code != 0 {
		return code
	}

	proc := pipeline.New(pipeline.Options{Mode: m})
	r, perr := proc.Process(raw, signer)
	printWarnings(errOut, r.Warnings)
	if perr != nil {
		fmt.Fprintf(errOut, "%v\n", perr)
		return 1
	}
	fmt.Fprintf(out, "CID: %s\n", r.CID)
	fmt.Fprintf(out, "Digest: %s\n", hex.EncodeToString(r.Digest))
	fmt.Fprintf(out, "Signature: %s\n", canonical.EncodeTransport(r.Signature))
	fmt.Fprintf(out, "Signer-Key: %s\n", r.SignerKey)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var digestHex string
	var sigB64 string
	var signerKey string
	var mode string
	fs.StringVar(&digestHex, "digest", "", "Claimed digest as hex")
	fs.StringVar(&sigB64, "sig", "", "Signature as base64")
	fs.StringVar(&signerKey, "signer-key", "", "Signer key as <alg>:<base64 pubkey>")
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if (sigB64 == "") != (signerKey == "") {
		fmt.Fprintln(errOut, "--sig and --signer-key must be provided together")
		return 2
	}
	if digestHex == "" && sigB64 == "" {
		fmt.Fprintln(errOut, "nothing to verify: provide --digest and/or --sig with --signer-key")
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp verify [--digest <hex>] [--sig <b64> --signer-key <alg:b64>] <file|->")
	if !ok {
		return 2
	}

	var claimed []byte
	if digestHex != "" {
		claimed, err = hex.DecodeString(digestHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --digest: %v\n", err)
			return 2
		}
	}
	var sig []byte
	if sigB64 != "" {
		sig, err = canonical.DecodeTransport(sigB64)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --sig: %v\n", err)
			return 2
		}
	}

	proc := pipeline.New(pipeline.Options{Mode: m})
	r, verr := proc.Verify(raw, claimed, sig, signerKey)
	printWarnings(errOut, r.Warnings)
	if verr != nil {
		if id := payload.RuleID(verr); id != "" {
			fmt.Fprintf(errOut, "%s: %v\n", id, verr)
		} else {
			fmt.Fprintf(errOut, "%v\n", verr)
		}
		return 1
	}
	fmt.Fprintf(out, "OK %s\n", r.CID)
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "lp key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lp key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  lp key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  lp key list")
	fmt.Fprintln(w, "  lp key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.locproto/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	signerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (e.g. gateway, device)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, signerKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

type commonFlags struct {
	backend      string
	listBackends bool
}

func (c *commonFlags) add(fs *flag.FlagSet) {
	fs.StringVar(&c.backend, "backend", "localfs", "CAS backend name")
	fs.BoolVar(&c.listBackends, "list-backends", false, "List supported backends and exit")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
}

func (c *commonFlags) openCAS() (storage.CAS, func() error, error) {
	return casregistry.Open(c.backend, casregistry.UsageCLI)
}

func printBackends(w io.Writer) {
	for _, b := range casregistry.List(casregistry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func cmdSubmit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var sf signerFlags
	var mode string
	var verbose bool
	common.add(fs)
	sf.add(fs)
	fs.StringVar(&mode, "mode", "permissive", "Compliance mode: permissive or strict")
	fs.BoolVar(&verbose, "verbose", false, "Log submission details to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	m, err := parseMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	raw, ok := readInput(fs, errOut, "lp submit [common flags] [signer flags] <file|->")
	if !ok {
		return 2
	}

	var signer keys.Signer
	if !sf.empty() {
		var code int
		signer, code = sf.load(errOut)
		if code != 0 {
			return code
		}
	}

	logger := zerolog.Nop()
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: errOut}).With().Timestamp().Logger()
	}

	proc := pipeline.New(pipeline.Options{Mode: m, Logger: &logger})
	r, perr := proc.Process(raw, signer)
	printWarnings(errOut, r.Warnings)
	if perr != nil {
		fmt.Fprintf(errOut, "%v\n", perr)
		return 1
	}

	cas, closeFn, err := common.openCAS()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	submitter, err := attest.NewCASSubmitter(cas, &logger)
	if err != nil {
		fmt.Fprintf(errOut, "attest: %v\n", err)
		return 1
	}
	rcpt, err := submitter.Submit(attest.Submission{
		CanonicalBytes: r.CanonicalBytes,
		Digest:         r.Digest,
		Signature:      r.Signature,
		SignerKey:      r.SignerKey,
	})
	if err != nil {
		fmt.Fprintf(errOut, "submit: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Record-ID: %s\n", rcpt.RecordID)
	fmt.Fprintf(out, "Receipt-ID: %s\n", rcpt.ReceiptID)
	fmt.Fprintf(out, "Submitted-At: %s\n", rcpt.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"))
	return 0
}

func cmdIngestNMEA(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("ingest-nmea", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var r io.Reader = os.Stdin
	if fs.NArg() == 1 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "open %s: %v\n", filepath.Base(fs.Arg(0)), err)
			return 1
		}
		defer f.Close()
		r = f
	} else if fs.NArg() > 1 {
		fmt.Fprintln(errOut, "usage: lp ingest-nmea [<file|->]")
		return 2
	}

	p, err := ingest.ReadFix(r)
	if err != nil {
		if errors.Is(err, ingest.ErrNoFix) {
			fmt.Fprintln(errOut, "no position fix found in input")
			return 1
		}
		fmt.Fprintf(errOut, "ingest: %v\n", err)
		return 1
	}
	b, err := json.Marshal(p.Object())
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(b))
	return 0
}

func cmdRegistry(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || args[0] != "list" {
		fmt.Fprintln(errOut, "usage: lp registry list")
		return 2
	}
	for _, name := range registry.Default().Names() {
		_, _ = fmt.Fprintln(out, name)
	}
	return 0
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: lp bundle <export|import> ...")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	var outPath string
	common.add(fs)
	fs.StringVar(&outPath, "out", "", "Output bundle file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	if outPath == "" {
		fmt.Fprintln(errOut, "missing --out")
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: lp bundle export [common flags] --out <file> <cid> [<cid> ...]")
		return 2
	}

	ids, err := parseCIDs(fs.Args())
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 2
	}

	cas, closeFn, err := common.openCAS()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	defer f.Close()

	if err := bundle.Export(f, cas, ids, bundle.ExportOptions{IncludeIndex: true}); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Exported %d block(s) to %s\n", len(ids), outPath)
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var common commonFlags
	common.add(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: lp bundle import [common flags] <file>")
		return 2
	}

	cas, closeFn, err := common.openCAS()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", filepath.Base(fs.Arg(0)), err)
		return 1
	}
	defer f.Close()

	if err := bundle.Import(f, cas); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func parseCIDs(args []string) ([]cid.Cid, error) {
	ids := make([]cid.Cid, 0, len(args))
	for _, s := range args {
		id, err := cid.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cid %q: %v", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

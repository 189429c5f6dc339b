// Command frostd is the local smoke-testing entrypoint for the Job
// Surface, grounded on drand's cmd/drand-cli urfave/cli/v2 command
// surface. It simulates an operator set in a single process over an
// in-memory transport (the production libp2p transport and on-chain
// operator registry are out of scope, per spec.md §1); its job is to
// prove that keygen and signing actually run end to end, not to be a
// production daemon.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/tangle-network/frost-blueprint/internal/ciphersuite"
	"github.com/tangle-network/frost-blueprint/internal/config"
	"github.com/tangle-network/frost-blueprint/internal/frosttest"
	"github.com/tangle-network/frost-blueprint/internal/job"
	"github.com/tangle-network/frost-blueprint/internal/metrics"
	"github.com/tangle-network/frost-blueprint/internal/store"
	"github.com/tangle-network/frost-blueprint/internal/xlog"
)

var (
	version   = "dev"
	gitCommit = "none"
)

var operatorsFlag = &cli.StringFlag{
	Name:  "operators",
	Value: "alice,bob,carol",
	Usage: "comma-separated account ids of the operators to simulate locally",
}

var ciphersuiteFlag = &cli.StringFlag{
	Name:  "ciphersuite",
	Value: ciphersuite.Ed25519ID,
	Usage: "ciphersuite id to run the protocol under",
}

var thresholdFlag = &cli.UintFlag{
	Name:  "threshold",
	Value: 2,
	Usage: "minimum number of signers required",
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "path to a TOML node configuration; overrides --ciphersuite's default and selects the store backend",
}

var messageFlag = &cli.StringFlag{
	Name:  "message",
	Value: "hello from frostd",
	Usage: "message to sign",
}

func main() {
	app := buildApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApp() *cli.App {
	return &cli.App{
		Name:    "frostd",
		Usage:   "FROST threshold signing node",
		Version: fmt.Sprintf("%s (%s)", version, gitCommit),
		Commands: []*cli.Command{
			keygenCommand(),
			signCommand(),
		},
	}
}

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "run a local DKG across the simulated operator set and print the verifying key",
		Flags: []cli.Flag{operatorsFlag, ciphersuiteFlag, thresholdFlag, configFlag},
		Action: func(c *cli.Context) error {
			cluster, err := newSimulatedCluster(c)
			if err != nil {
				return err
			}
			defer cluster.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			verifyingKey, _, err := cluster.keygen(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "verifying_key: %s\n", hex.EncodeToString(verifyingKey))
			return nil
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "run a local DKG, then a signing round over it, and print the signature",
		Flags: []cli.Flag{operatorsFlag, ciphersuiteFlag, thresholdFlag, configFlag, messageFlag},
		Action: func(c *cli.Context) error {
			cluster, err := newSimulatedCluster(c)
			if err != nil {
				return err
			}
			defer cluster.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			verifyingKey, _, err := cluster.keygen(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "verifying_key: %s\n", hex.EncodeToString(verifyingKey))

			msg := []byte(c.String("message"))
			sig, err := cluster.sign(ctx, verifyingKey, msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "signature: %s\n", hex.EncodeToString(sig))
			return nil
		},
	}
}

// simulatedCluster wires one job.Node per simulated operator over a
// shared in-memory network, so the CLI can exercise the Job Surface's
// Keygen/Sign entrypoints without any real network or chain dependency.
type simulatedCluster struct {
	accountIDs  []string
	ciphersuite string
	threshold   uint16
	nodes       []*job.Node
	stores      []store.Store
}

func newSimulatedCluster(c *cli.Context) (*simulatedCluster, error) {
	suiteID := c.String("ciphersuite")
	storeBackend := config.StoreBackendMemory
	storeDir := ""

	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, errors.Wrap(err, "frostd: loading config")
		}
		suiteID = cfg.DefaultCiphersuite
		storeBackend = cfg.StoreBackend
		storeDir = cfg.StoreDir
	}
	if _, err := ciphersuite.Lookup(suiteID); err != nil {
		return nil, errors.Wrap(err, "frostd: resolving ciphersuite")
	}

	accountIDs := splitNonEmpty(c.String("operators"))
	if len(accountIDs) == 0 {
		return nil, errors.New("frostd: --operators must name at least one account id")
	}

	registry := frosttest.NewStaticRegistry(accountIDs...)
	net := frosttest.NewNetwork(uint16(len(accountIDs)))
	logger := xlog.New()
	m := metrics.New(nil)

	nodes := make([]*job.Node, len(accountIDs))
	stores := make([]store.Store, len(accountIDs))
	for i, accountID := range accountIDs {
		st, err := openStore(storeBackend, storeDir, accountID)
		if err != nil {
			return nil, err
		}
		stores[i] = st
		nodes[i] = job.NewNode(st, registry, net.TransportFor(uint16(i)), accountID, logger.With("operator", accountID), m)
	}

	return &simulatedCluster{
		accountIDs:  accountIDs,
		ciphersuite: suiteID,
		threshold:   uint16(c.Uint("threshold")),
		nodes:       nodes,
		stores:      stores,
	}, nil
}

func openStore(backend, dir, accountID string) (store.Store, error) {
	switch backend {
	case config.StoreBackendBolt:
		nodeDir := filepath.Join(dir, accountID)
		if err := os.MkdirAll(nodeDir, 0o700); err != nil {
			return nil, errors.Wrap(err, "frostd: creating store directory")
		}
		st, err := store.NewBoltStore(nodeDir)
		if err != nil {
			return nil, errors.Wrap(err, "frostd: opening bolt store")
		}
		return st, nil
	case config.StoreBackendMemory, "":
		return store.NewMemStore(), nil
	default:
		return nil, errors.Errorf("frostd: unknown store backend %q", backend)
	}
}

func (s *simulatedCluster) Close() {
	for _, st := range s.stores {
		_ = st.Close()
	}
}

// keygen runs Keygen concurrently on every simulated node and returns
// the common verifying key, failing if any node disagrees or errors.
func (s *simulatedCluster) keygen(ctx context.Context) ([]byte, [][]byte, error) {
	keys := make([][]byte, len(s.nodes))
	errs := make([]error, len(s.nodes))

	var wg sync.WaitGroup
	for i, node := range s.nodes {
		i, node := i, node
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i], errs[i] = node.Keygen(ctx, s.ciphersuite, s.threshold)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, nil, errors.Wrapf(err, "frostd: keygen failed for %s", s.accountIDs[i])
		}
	}
	for i := 1; i < len(keys); i++ {
		if hex.EncodeToString(keys[i]) != hex.EncodeToString(keys[0]) {
			return nil, nil, errors.New("frostd: operators disagree on the resulting verifying key")
		}
	}
	return keys[0], keys, nil
}

// sign runs Sign concurrently across every simulated node; nodes the
// deterministic signer selection excludes return job.ErrSelfNotInSigners
// and are skipped, matching spec.md §4.H/§8's "not a signer" scenario.
func (s *simulatedCluster) sign(ctx context.Context, verifyingKey, msg []byte) ([]byte, error) {
	sigs := make([][]byte, len(s.nodes))
	errs := make([]error, len(s.nodes))

	var wg sync.WaitGroup
	for i, node := range s.nodes {
		i, node := i, node
		wg.Add(1)
		go func() {
			defer wg.Done()
			sigs[i], errs[i] = node.Sign(ctx, verifyingKey, msg)
		}()
	}
	wg.Wait()

	var sig []byte
	for i, err := range errs {
		switch {
		case err == nil:
			if sig == nil {
				sig = sigs[i]
			}
		case errors.Is(err, job.ErrSelfNotInSigners):
			continue
		default:
			return nil, errors.Wrapf(err, "frostd: signing failed for %s", s.accountIDs[i])
		}
	}
	if sig == nil {
		return nil, errors.New("frostd: no operator participated in signing")
	}
	return sig, nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

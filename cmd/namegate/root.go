package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/namegate/namegate/pkg/constants"
	"github.com/namegate/namegate/pkg/ipfs"
	"github.com/namegate/namegate/pkg/network"
	"github.com/namegate/namegate/pkg/notify"
	"github.com/namegate/namegate/pkg/provider"
	"github.com/namegate/namegate/pkg/session"
	"github.com/namegate/namegate/pkg/txexec"
)

// events carries notifications from the connection core to stdout for the
// lifetime of one command.
var events *notify.Channel

var (
	flagRPC      string
	flagContract string
	flagAccount  string
	flagIPFSAPI  string
	flagGateway  string
	flagImage    string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "namegate",
	Short: "Register and manage human-readable names on the Sepolia name registry",
	Long: `namegate drives the on-chain name registry through a JSON-RPC endpoint.

It runs the same connection pipeline a wallet UI would: validate the
provider, enforce the required network, derive a signer, bind and validate
the registry contract, then issue reads and state-changing transactions
through it. State-changing commands need an endpoint with an unlocked
account (a local development node).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRPC, "rpc", constants.SepoliaRPCURL,
		"JSON-RPC endpoint to connect through")
	rootCmd.PersistentFlags().StringVar(&flagContract, "contract", constants.RegistryContractAddress,
		"registry contract address")
	rootCmd.PersistentFlags().StringVar(&flagAccount, "account", "",
		"account to act as (defaults to the node's first account)")
	rootCmd.PersistentFlags().StringVar(&flagIPFSAPI, "ipfs-api", "http://127.0.0.1:5001",
		"IPFS API endpoint for pinning profile images")
	rootCmd.PersistentFlags().StringVar(&flagGateway, "gateway", constants.DefaultIPFSGatewayURL,
		"IPFS gateway for retrieval URLs")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	registerCmd.Flags().StringVar(&flagImage, "image", "",
		"profile image: an existing content identifier or a local file path to pin")
	setImageCmd.Flags().StringVar(&flagImage, "image", "",
		"profile image: an existing content identifier or a local file path to pin")

	rootCmd.AddCommand(checkCmd, resolveCmd, namesCmd, imageCmd,
		registerCmd, setAddressCmd, setImageCmd, transferCmd)
}

// connect dials the endpoint and runs the full connection pipeline. The
// returned cleanup closes both the session and the provider.
func connect(ctx context.Context) (*session.Session, func(), error) {
	var opts []provider.RPCOption
	if flagAccount != "" {
		opts = append(opts, provider.WithAccount(common.HexToAddress(flagAccount)))
	}
	p, err := provider.DialRPC(ctx, flagRPC, opts...)
	if err != nil {
		return nil, nil, err
	}

	events = notify.NewChannel(16, nil)
	go func() {
		for e := range events.Events() {
			fmt.Printf("[%s] %s\n", e.Kind, e.Message)
		}
	}()

	s := session.New(p, session.Config{
		Network:         network.Sepolia,
		ContractAddress: common.HexToAddress(flagContract),
		Notifier:        events,
	})
	cleanup := func() {
		s.Close()
		p.Close()
	}

	if err := s.Connect(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

// resolveImageArg turns the --image flag into a content identifier, pinning
// local files through the IPFS API.
func resolveImageArg(ctx context.Context) (string, error) {
	if flagImage == "" {
		return "", fmt.Errorf("--image is required")
	}
	info, err := os.Stat(flagImage)
	if err != nil || info.IsDir() {
		// Not a local file; treat it as an existing content identifier.
		return flagImage, nil
	}

	f, err := os.Open(flagImage)
	if err != nil {
		return "", fmt.Errorf("open image file: %w", err)
	}
	defer f.Close()

	client := ipfs.NewClient(flagIPFSAPI, flagGateway)
	cid, err := client.Pin(ctx, info.Name(), f)
	if err != nil {
		return "", err
	}
	fmt.Printf("pinned %s -> %s\n", info.Name(), client.GatewayURL(cid))
	return cid, nil
}

// runTx executes one state-changing request and renders the outcome.
func runTx(ctx context.Context, s *session.Session, req *txexec.Request) error {
	exec := txexec.NewExecutor(s, txexec.WithNotifier(events))
	outcome := exec.Execute(ctx, req)
	switch outcome.Status {
	case txexec.StatusConfirmed:
		fmt.Printf("confirmed in block %d: %s\n",
			outcome.Receipt.BlockNumber, outcome.Receipt.TxHash.Hex())
		return nil
	case txexec.StatusRejected:
		fmt.Println("declined in the wallet")
		return nil
	default:
		return outcome.Err
	}
}

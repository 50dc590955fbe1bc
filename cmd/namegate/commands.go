package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/namegate/namegate/pkg/ipfs"
	"github.com/namegate/namegate/pkg/txexec"
)

var checkCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check whether a name is still available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		handle, err := s.Handle(cmd.Context())
		if err != nil {
			return err
		}
		available, err := handle.IsNameAvailable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if available {
			fmt.Printf("%s is available\n", args[0])
		} else {
			fmt.Printf("%s is taken\n", args[0])
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a name to its target address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		handle, err := s.Handle(cmd.Context())
		if err != nil {
			return err
		}
		addr, err := handle.ResolveName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(addr.Hex())
		return nil
	},
}

var namesCmd = &cobra.Command{
	Use:   "names <owner>",
	Short: "List the names owned by an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("%q is not a valid address", args[0])
		}
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		handle, err := s.Handle(cmd.Context())
		if err != nil {
			return err
		}
		names, err := handle.NamesOwnedBy(cmd.Context(), common.HexToAddress(args[0]))
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("no names owned")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var imageCmd = &cobra.Command{
	Use:   "image <name>",
	Short: "Show the retrieval URL of a name's profile image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		handle, err := s.Handle(cmd.Context())
		if err != nil {
			return err
		}
		cid, err := handle.Image(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if cid == "" {
			fmt.Println("no image set")
			return nil
		}
		fmt.Println(ipfs.NewClient(flagIPFSAPI, flagGateway).GatewayURL(cid))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <name> <target>",
	Short: "Register a name pointing at a target address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		handle, err := s.Handle(cmd.Context())
		if err != nil {
			return err
		}
		available, err := handle.IsNameAvailable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !available {
			return fmt.Errorf("%s is already registered", args[0])
		}

		cid, err := resolveImageArg(cmd.Context())
		if err != nil {
			return err
		}
		return runTx(cmd.Context(), s, txexec.NewRegisterRequest(args[0], cid, args[1]))
	},
}

var setAddressCmd = &cobra.Command{
	Use:   "set-address <name> <target>",
	Short: "Repoint a name at a new target address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return runTx(cmd.Context(), s, txexec.NewUpdateAddressRequest(args[0], args[1]))
	},
}

var setImageCmd = &cobra.Command{
	Use:   "set-image <name>",
	Short: "Replace a name's profile image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		cid, err := resolveImageArg(cmd.Context())
		if err != nil {
			return err
		}
		return runTx(cmd.Context(), s, txexec.NewUpdateImageRequest(args[0], cid))
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <name> <new-owner>",
	Short: "Transfer ownership of a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()
		return runTx(cmd.Context(), s, txexec.NewTransferRequest(args[0], args[1]))
	},
}

// derive_key.go prints the x-only pubkey and address for a hex-encoded private key file.
// Usage: go run scripts/derive_key.go <keyfile> [prefix]
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/kaschess/internal/wallet"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile> [kaspa|kaspatest|kaspasim|kaspadev]")
		os.Exit(1)
	}
	prefix := types.Prefix("kaspa")
	if len(os.Args) > 2 {
		prefix = types.Prefix(os.Args[2])
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	kp, err := wallet.FromRawKey(strings.TrimSpace(string(data)), prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer kp.Zero()
	spk := kp.ScriptPublicKey()
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(kp.XOnlyPublicKey()))
	fmt.Printf("script=%s\n", hex.EncodeToString(spk.Script))
	fmt.Printf("address=%s\n", kp.Address())
}

package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/kaschess/internal/wallet"
)

func (a *app) cmdWallet(args []string) {
	if len(args) == 0 {
		fatal("usage: kaschess-cli wallet <create|import|import-key|list|address|export>")
	}
	switch args[0] {
	case "create":
		a.cmdWalletCreate(args[1:])
	case "import":
		a.cmdWalletImport(args[1:])
	case "import-key":
		a.cmdWalletImportKey(args[1:])
	case "list":
		a.cmdWalletList()
	case "address":
		a.cmdWalletAddress(args[1:])
	case "export":
		a.cmdWalletExport(args[1:])
	default:
		fatal("unknown wallet command: %s", args[0])
	}
}

func (a *app) cmdWalletCreate(args []string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)
	if *name == "" {
		fatal("--name is required")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Write down your mnemonic phrase and keep it safe:")
	fmt.Println()
	fmt.Println("  " + mnemonic)
	fmt.Println()

	a.storeWallet(*name, &wallet.Secret{Kind: wallet.SecretMnemonic, Data: []byte(mnemonic)})
}

func (a *app) cmdWalletImport(args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	phrase := fs.String("mnemonic", "", "BIP-39 mnemonic phrase")
	fs.Parse(args)
	if *name == "" || *phrase == "" {
		fatal("--name and --mnemonic are required")
	}

	mnemonic, err := wallet.NormalizeMnemonic(*phrase)
	if err != nil {
		fatal("%v", err)
	}
	a.storeWallet(*name, &wallet.Secret{Kind: wallet.SecretMnemonic, Data: []byte(mnemonic)})
}

func (a *app) cmdWalletImportKey(args []string) {
	fs := flag.NewFlagSet("wallet import-key", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	key := fs.String("key", "", "Hex-encoded 32-byte private key")
	fs.Parse(args)
	if *name == "" || *key == "" {
		fatal("--name and --key are required")
	}
	a.storeWallet(*name, &wallet.Secret{Kind: wallet.SecretRawKey, Data: []byte(strings.TrimSpace(*key))})
}

// storeWallet derives the address of s, encrypts s under a new password and
// writes it to the keystore.
func (a *app) storeWallet(name string, s *wallet.Secret) {
	defer s.Zero()

	kp, err := s.KeyPair(a.prefix)
	if err != nil {
		fatal("%v", err)
	}
	addr := kp.Address().String()
	kp.Zero()

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	defer zero(password)
	if os.Getenv("KASCHESS_PASSWORD") == "" {
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			fatal("read password: %v", err)
		}
		same := bytes.Equal(password, confirm)
		zero(confirm)
		if !same {
			fatal("passwords do not match")
		}
	}
	if len(password) == 0 {
		fatal("password must not be empty")
	}

	if err := a.keystore().Create(name, s, addr, password, wallet.DefaultParams()); err != nil {
		fatal("create wallet: %v", err)
	}
	fmt.Printf("Wallet %q created.\n", name)
	fmt.Printf("Address: %s\n", addr)
}

func (a *app) cmdWalletList() {
	ks := a.keystore()
	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}
	for _, name := range names {
		info, err := ks.Info(name)
		if err != nil {
			fmt.Printf("  %-16s (unreadable: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-16s %-8s %s\n", info.Name, info.Kind, info.Address)
	}
}

func (a *app) cmdWalletAddress(args []string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)
	if *name == "" {
		fatal("--wallet is required")
	}
	fmt.Println(a.walletAddress(*name))
}

func (a *app) cmdWalletExport(args []string) {
	fs := flag.NewFlagSet("wallet export", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)
	if *name == "" {
		fatal("--wallet is required")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	secret, err := a.keystore().Load(*name, password)
	zero(password)
	if err != nil {
		fatal("unlock wallet %s: %v", *name, err)
	}
	defer secret.Zero()

	backup, err := wallet.ExportBackup(secret, a.prefix)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Fprintln(os.Stderr, "Anyone with this backup can spend the wallet's funds.")
	if _, err := backup.WriteTo(os.Stdout); err != nil {
		fatal("%v", err)
	}
}

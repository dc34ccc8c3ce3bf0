package main

import (
	"flag"
	"fmt"
	"os"

	"skins-market/internal/config"
	"skins-market/internal/msgcodec"
)

func main() {
	bits := flag.Int("bits", 2048, "RSA key size")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	priv, err := msgcodec.GenerateKeyPair(*bits)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
	if err := msgcodec.WritePEM(priv, cfg.Keys.PrivatePath, cfg.Keys.PublicPath); err != nil {
		fmt.Fprintf(os.Stderr, "write keys: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s and %s\n", cfg.Keys.PrivatePath, cfg.Keys.PublicPath)
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/302ai/paywith302-demo/internal/signing"
)

// signtool computes or checks request signatures from the command line so
// integration problems can be debugged without a live gateway.
//
// Sign a payload:
//
//	echo '{"amount":"9.90","currency":"USD"}' | signtool -secret test -timestamp 1756000000
//
// Check a payload that carries its own sign field:
//
//	signtool -secret test -verify -tolerance 5m payload.json

func main() {
	secret := flag.String("secret", os.Getenv("SIGN_SECRET"), "shared signing secret (or SIGN_SECRET env)")
	verify := flag.Bool("verify", false, "check the payload's own sign field instead of producing one")
	tolerance := flag.Duration("tolerance", 0, "reject timestamps further than this from now when verifying (0 disables)")
	timestamp := flag.Int64("timestamp", 0, "inject this epoch timestamp when signing (0 leaves the payload as-is)")
	flag.Parse()

	data, err := readPayload(flag.Arg(0))
	if err != nil {
		fatalf("read payload: %v", err)
	}
	params, err := signing.FromJSONObject(data)
	if err != nil {
		fatalf("parse payload: %v", err)
	}

	if *verify {
		validator, err := signing.NewValidator(*secret)
		if err != nil {
			fatalf("%v", err)
		}
		sig, _ := params["signature"].AsString()
		if sig == "" {
			sig, _ = params["sign"].AsString()
		}
		verdict := validator.Check(params, sig, *tolerance)
		fmt.Printf("canonical: %s\n", signing.Canonicalize(params, signing.Options{}))
		fmt.Printf("verdict:   %s\n", verdict.Reason)
		if !verdict.Authentic {
			os.Exit(1)
		}
		return
	}

	signer, err := signing.NewSigner(*secret)
	if err != nil {
		fatalf("%v", err)
	}
	canonical := signing.Canonicalize(params, signing.Options{Timestamp: *timestamp})
	fmt.Printf("canonical: %s\n", canonical)
	fmt.Printf("signature: %s\n", signer.Sign(canonical))
}

// readPayload reads the JSON object from the named file, or stdin when the
// argument is empty or "-".
func readPayload(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "signtool: "+format+"\n", args...)
	os.Exit(2)
}

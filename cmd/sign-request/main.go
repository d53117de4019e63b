// sign-request signs an API payload so it can be POSTed to dexd. Reads the
// payload JSON from stdin or -payload, signs its exact bytes with the given
// key, and prints the SignedRequest envelope.
//
// Example:
//
//	sign-request -key $PRIVATE_KEY -payload '{"amount":"1000000000000000000"}'
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/haejoon/godex/pkg/api"
	"github.com/haejoon/godex/pkg/crypto"
)

func main() {
	keyHex := flag.String("key", "", "hex private key (generates one if empty)")
	payload := flag.String("payload", "", "payload JSON (reads stdin if empty)")
	flag.Parse()

	var signer *crypto.Signer
	var err error
	if *keyHex == "" {
		signer, err = crypto.GenerateKey()
		if err == nil {
			fmt.Fprintf(os.Stderr, "generated key for %s\n", signer.Address().Hex())
		}
	} else {
		signer, err = crypto.FromPrivateKeyHex(*keyHex)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "key: %v\n", err)
		os.Exit(1)
	}

	raw := []byte(*payload)
	if len(raw) == 0 {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
	}
	if !json.Valid(raw) {
		fmt.Fprintln(os.Stderr, "payload is not valid JSON")
		os.Exit(1)
	}

	sig, err := signer.SignMessage(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}

	out, err := json.Marshal(api.SignedRequest{
		Payload:   json.RawMessage(raw),
		Signature: hexutil.Encode(sig),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

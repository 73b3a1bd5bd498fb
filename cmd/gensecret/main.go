package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Access tokens are signed with HMAC-SHA256, so the key must carry at
// least 32 bytes of entropy. 48 leaves headroom.
const secretKeyLen = 48

func main() {
	key := make([]byte, secretKeyLen)

	if _, err := rand.Read(key); err != nil {
		fmt.Fprintf(os.Stderr, "generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(key))
}

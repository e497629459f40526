// Command adminkey prints the bcrypt hash to put in ADMIN_KEY_HASH.
//
//	adminkey -key 's3cret'
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"smartvote/internal/adapters/auth"
)

func main() {
	key := flag.String("key", "", "admin key to hash")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "usage: adminkey -key <admin key> [-cost N]")
		os.Exit(2)
	}
	hash, err := auth.HashAdminKey(*key, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash admin key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// Command migrate manages the postgres schema.
//
//	migrate up
//	migrate down --yes
//	migrate steps -- -1
//	migrate goto 3
//	migrate version
//	migrate force 2
//	migrate create add_product_sku --dir migrations
//	migrate list --dir migrations
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"typehide/internal/config"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "typehide:", err)
		if errors.Is(err, config.ErrDisabled) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

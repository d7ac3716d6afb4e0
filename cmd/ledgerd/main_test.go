package main

import (
	"testing"

	_ "github.com/nexacrm/ledgerd/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	main()
}

package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"examhall/internal/client"
)

func main() {
	host := "127.0.0.1"
	if len(os.Args) > 1 {
		host = os.Args[1]
	}

	cfg := client.Config{Addr: net.JoinHostPort(host, client.DefaultPort)}
	if err := client.Run(context.Background(), os.Stdin, os.Stdout, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "examhall-client: %v\n", err)
		os.Exit(1)
	}
}

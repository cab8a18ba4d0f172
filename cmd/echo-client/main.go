package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"time"
)

func main() {
	address := flag.String("address", "localhost:8000", "address of the echo server")
	timeout := flag.Duration("timeout", 3*time.Second, "dial timeout")
	flag.Parse()

	if err := run(*address, *timeout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "echo-client: %s\n", err)
		os.Exit(1)
	}
}

func run(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("can not connect to %s: %w", address, err)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)
	server := bufio.NewReader(conn)

	for {
		fmt.Print("Send data, [Q] for quit: ")

		if !stdin.Scan() {
			return stdin.Err()
		}

		data := stdin.Text()
		if data == "Q" {
			return nil
		}

		if _, err = fmt.Fprintf(conn, "%s\n", data); err != nil {
			return fmt.Errorf("can not send data: %w", err)
		}

		line, err := server.ReadString('\n')
		if err != nil {
			return fmt.Errorf("can not read response: %w", err)
		}

		fmt.Printf("from server: %s", line)
	}
}

package app

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"horse.fit/telephone/internal/auth"
)

func runHashToken(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	token := fs.String("token", "", "Token to hash (read from stdin when empty)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := *token
	if strings.TrimSpace(value) == "" {
		read, err := readTokenLine(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read token: %v\n", err)
			return 1
		}
		value = read
	}

	hash, err := auth.HashToken(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	fmt.Println(hash)
	return 0
}

func readTokenLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Package main provides a CLI tool that prints the bcrypt hash for the
// operator password, ready for auth.password_hash or LOTTO_AUTH_PASSWORD_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cory-johannsen/lotto/internal/httpapi"
)

func main() {
	start := time.Now()

	password := flag.String("password", "", "operator password; read from stdin when empty")
	flag.Parse()

	pw := *password
	if pw == "" {
		var err error
		if pw, err = readPassword(os.Stdin); err != nil {
			log.Fatalf("reading password: %v", err)
		}
	}

	hash, err := hashOperatorPassword(pw)
	if err != nil {
		log.Fatalf("hashing password: %v", err)
	}

	fmt.Fprintln(os.Stdout, hash)
	fmt.Fprintf(os.Stderr, "hashed operator password [%s]\n", time.Since(start))
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// hashOperatorPassword rejects passwords bcrypt cannot hash.
//
// Postcondition: Returns a hash accepted by httpapi.CheckPassword, or an error.
func hashOperatorPassword(pw string) (string, error) {
	if pw == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if len(pw) > 72 {
		return "", fmt.Errorf("password must be at most 72 bytes, got %d", len(pw))
	}
	return httpapi.HashPassword(pw)
}

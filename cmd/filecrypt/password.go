package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/term"
)

// zeroBytes overwrites a byte slice with zeros
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

func getPassword(prompt string) ([]byte, error) {
	if envPass := os.Getenv(PasswordEnvVar); envPass != "" {
		return []byte(envPass), nil
	}
	return readPassword(prompt)
}

func getPasswordWithConfirm(prompt, confirmPrompt string) ([]byte, error) {
	if envPass := os.Getenv(PasswordEnvVar); envPass != "" {
		return []byte(envPass), nil
	}

	password, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}

	confirm, err := readPassword(confirmPrompt)
	if err != nil {
		zeroBytes(password)
		return nil, err
	}
	defer zeroBytes(confirm)

	if !bytes.Equal(password, confirm) {
		zeroBytes(password)
		return nil, fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		// STDIN is piped, prompt on the controlling terminal instead
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return nil, fmt.Errorf("cannot read password: STDIN is not a terminal. Set %s environment variable", PasswordEnvVar)
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}

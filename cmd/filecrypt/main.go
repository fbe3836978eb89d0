package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/absfs/filecrypt"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const (
	Version = "1.0.0"

	// Environment variable for the password
	PasswordEnvVar = "FILECRYPT_PASSWORD"
)

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the flags shared by every command
type options struct {
	config  *filecrypt.Config
	output  string
	destDir string
	verbose bool
}

func newFlagSet(name string, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts.config = filecrypt.DefaultConfig()
	fs.IntVar(&opts.config.KeySize, "keysize", opts.config.KeySize, "AES key size in bits (128, 192, 256)")
	fs.IntVar(&opts.config.SaltSize, "salt", opts.config.SaltSize, "salt size in bytes")
	fs.IntVar(&opts.config.IterationCount, "iterations", opts.config.IterationCount, "PBKDF2 iteration count")
	fs.IntVar(&opts.config.BufferSize, "buffer", opts.config.BufferSize, "buffer size in units of 32 bytes")
	fs.IntVar(&opts.config.CompressionLevel, "level", opts.config.CompressionLevel, "deflate level (-2 to 9)")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	return fs
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("no command specified")
	}

	command, args := args[0], args[1:]
	switch command {
	case "encrypt", "-e":
		return runEncrypt(args)
	case "decrypt", "-d":
		return runDecrypt(args)
	case "info", "-i":
		return runInfo(args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	case "version", "--version":
		fmt.Fprintf(os.Stderr, "filecrypt version %s\n", Version)
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// parse parses the flags of a command that takes exactly one file argument
func parse(fs *flag.FlagSet, opts *options, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one file argument", fs.Name())
	}
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	opts.config.Logger = logger
	return fs.Arg(0), nil
}

func runEncrypt(args []string) error {
	var opts options
	fs := newFlagSet("encrypt", &opts)
	fs.StringVar(&opts.output, "o", "", "container path (default: <file>"+filecrypt.DefaultExtension+")")

	src, err := parse(fs, &opts, args)
	if err != nil {
		return err
	}
	dst := opts.output
	if dst == "" {
		dst = filecrypt.ContainerPath(src)
	}

	enc, err := filecrypt.NewEncryptor(filecrypt.NewOSFS(), opts.config)
	if err != nil {
		return err
	}

	password, err := getPasswordWithConfirm("Enter password: ", "Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to get password: %w", err)
	}
	defer zeroBytes(password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A file that was already at dst is never removed on failure
	_, statErr := os.Stat(dst)
	existed := statErr == nil

	start := time.Now()
	hdr, err := enc.EncodeAsync(ctx, src, dst, password, progressPrinter()).Wait()
	endProgress()
	if err != nil {
		if !existed {
			removePartial(dst)
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"name":     hdr.Name,
		"output":   dst,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("encrypted")
	return nil
}

func runDecrypt(args []string) error {
	var opts options
	fs := newFlagSet("decrypt", &opts)
	fs.StringVar(&opts.destDir, "d", ".", "destination directory")

	src, err := parse(fs, &opts, args)
	if err != nil {
		return err
	}

	dec, err := filecrypt.NewDecryptor(filecrypt.NewOSFS(), opts.config)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password: ")
	if err != nil {
		return fmt.Errorf("failed to get password: %w", err)
	}
	defer zeroBytes(password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	hdr, err := dec.DecodeAsync(ctx, src, opts.destDir, password, progressPrinter()).Wait()
	endProgress()
	if err != nil {
		var ce *filecrypt.CancellationError
		if errors.As(err, &ce) {
			removePartial(ce.Path)
		}
		if filecrypt.IsWrongPasswordError(err) {
			return fmt.Errorf("wrong password or not a filecrypt container: %s", src)
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"name":     hdr.Name,
		"output":   filepath.Join(opts.destDir, hdr.Name),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("decrypted")
	return nil
}

func runInfo(args []string) error {
	var opts options
	fs := newFlagSet("info", &opts)

	src, err := parse(fs, &opts, args)
	if err != nil {
		return err
	}

	dec, err := filecrypt.NewDecryptor(filecrypt.NewOSFS(), opts.config)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password: ")
	if err != nil {
		return fmt.Errorf("failed to get password: %w", err)
	}
	defer zeroBytes(password)

	hdr, err := dec.PeekHeader(src, password)
	if err != nil {
		if filecrypt.IsWrongPasswordError(err) {
			return fmt.Errorf("wrong password or not a filecrypt container: %s", src)
		}
		return err
	}

	fmt.Printf("Name:      %s\n", hdr.Name)
	fmt.Printf("Created:   %s\n", hdr.Created().Format(time.RFC3339Nano))
	fmt.Printf("Accessed:  %s\n", hdr.Accessed().Format(time.RFC3339Nano))
	fmt.Printf("Modified:  %s\n", hdr.Modified().Format(time.RFC3339Nano))
	return nil
}

// removePartial deletes a partially written output file
func removePartial(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.WithError(err).Warn("failed to remove partial output")
	}
}

// progressPrinter returns a progress callback drawing a percentage on
// stderr, or nil when stderr is not a terminal
func progressPrinter() filecrypt.ProgressFunc {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	last := -1
	return func(p int) {
		if p == last {
			return
		}
		last = p
		fmt.Fprintf(os.Stderr, "\r%3d%%", p)
	}
}

func endProgress() {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprint(os.Stderr, "\r    \r")
	}
}

func printUsage() {
	usage := `filecrypt - Password-protected single file containers

USAGE:
    filecrypt <command> [options] <file>

COMMANDS:
    encrypt, -e    Encrypt <file> into a container
    decrypt, -d    Restore the file stored in container <file>
    info, -i       Show the name and timestamps stored in container <file>
    help, -h       Show this help message
    version        Show version information

OPTIONS:
    -o PATH            Container path for encrypt (default: <file>.fcx)
    -d DIR             Destination directory for decrypt (default: .)
    -keysize BITS      AES key size: 128, 192 or 256 (default: 256)
    -salt BYTES        Salt size (default: 32)
    -iterations N      PBKDF2 iterations (default: 1024)
    -buffer N          Copy buffer in units of 32 bytes (default: 4096)
    -level N           Deflate level, -2 to 9 (default: -1)
    -v                 Verbose logging

    Key size, salt size and iterations are not stored in the container;
    decrypt must be given the values used to encrypt.

PASSWORD:
    Set FILECRYPT_PASSWORD environment variable, or enter interactively.

EXAMPLES:
    filecrypt encrypt report.pdf
    filecrypt decrypt -d restored report.pdf.fcx
    filecrypt encrypt -iterations 200000 -o vault/report.fcx report.pdf
    filecrypt decrypt -iterations 200000 vault/report.fcx

`
	fmt.Fprint(os.Stderr, usage)
}

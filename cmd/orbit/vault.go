package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/justyntemme/orbit/internal/rpc/localbackend"
	"github.com/justyntemme/orbit/internal/store"
)

type setVaultFlags struct {
	password  string
	secretKey string
	clear     bool
	addKeys   int
}

// newSetVaultCmd writes the development backend's vault verifier.
func newSetVaultCmd(root *rootFlags) *cobra.Command {
	flags := &setVaultFlags{}

	cmd := &cobra.Command{
		Use:   "set-vault",
		Short: "Set or clear the master password and secret key of the local library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(root)
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer db.Close()
			return runSetVault(cmd.Context(), db, flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.password, "password", "", "master password (prompted when empty)")
	f.StringVar(&flags.secretKey, "secret-key", "", "secret key (prompted when empty)")
	f.BoolVar(&flags.clear, "clear", false, "remove the stored verifier")
	f.IntVar(&flags.addKeys, "add-keys", 0, "register this many automounted keys")
	return cmd
}

func runSetVault(ctx context.Context, db *store.DB, flags *setVaultFlags, in io.Reader, out io.Writer) error {
	if flags.clear {
		if err := db.ClearVerifier(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "vault verifier cleared")
		return nil
	}

	p := newPrompter(in, out)
	password, err := p.secret(flags.password, "Master password: ")
	if err != nil {
		return err
	}
	secretKey, err := p.secret(flags.secretKey, "Secret key: ")
	if err != nil {
		return err
	}
	if password == "" || secretKey == "" {
		return errors.New("master password and secret key are both required")
	}

	v, err := localbackend.HashCredentials(password, secretKey)
	if err != nil {
		return err
	}
	if err := db.SaveVerifier(ctx, v); err != nil {
		return err
	}
	fmt.Fprintln(out, "vault verifier saved")

	for i := 0; i < flags.addKeys; i++ {
		id := uuid.NewString()
		if err := db.AddKey(ctx, id, true); err != nil {
			return err
		}
		fmt.Fprintf(out, "key %s registered\n", id)
	}
	return nil
}

// prompter reads credentials without echo when in is a terminal, and line
// by line otherwise (pipes, tests).
type prompter struct {
	out      io.Writer
	r        *bufio.Reader
	fd       int
	terminal bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{out: out, r: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd, p.terminal = int(f.Fd()), true
	}
	return p
}

// secret returns v, or prompts for it when v is empty.
func (p *prompter) secret(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	fmt.Fprint(p.out, prompt)
	if p.terminal {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(b), nil
	}
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

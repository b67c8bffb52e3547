package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/keyring"
	"github.com/illarion/pwvault/internal/session"
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// EnvPassword is read before the keyring or a prompt
const EnvPassword = "PWVAULT_PASSWORD"

const (
	maxAttempts  = 3
	minPassScore = 3 // zxcvbn scores run from 0 to 4
)

// PasswordSource tells where a passphrase came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// Replaced in tests
var (
	readPassword  = ReadPassword
	retryInterval = time.Second
)

// ReadPassword reads a passphrase from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a new passphrase twice and checks both match
func ReadPasswordConfirm(prompt string) ([]byte, error) {
	first, err := readPassword(prompt)
	if err != nil {
		return nil, err
	}
	second, err := readPassword("Confirm passphrase: ")
	if err != nil {
		crypto.ClearBytes(first)
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		crypto.ClearBytes(first)
		return nil, errors.New("passphrases do not match")
	}
	if len(first) == 0 {
		return nil, errors.New("empty passphrase")
	}
	return first, nil
}

// GetPasswordFromEnv returns a copy of PWVAULT_PASSWORD, or nil if unset
func GetPasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}

// GetNewPassword returns the passphrase for a new vault or a passphrase
// change, warning when it looks weak
func GetNewPassword(prompt string) ([]byte, error) {
	password := GetPasswordFromEnv()
	if password == nil {
		var err error
		password, err = ReadPasswordConfirm(prompt)
		if err != nil {
			return nil, err
		}
	}
	WarnWeakPassword(password)
	return password, nil
}

// WarnWeakPassword prints a warning for passphrases zxcvbn rates below 3
func WarnWeakPassword(password []byte) {
	if weak, crackTime := passwordStrength(password); weak {
		fmt.Fprintf(os.Stderr, "warning: weak passphrase (estimated crack time: %s)\n", crackTime)
	}
}

func passwordStrength(password []byte) (weak bool, crackTime string) {
	match := zxcvbn.PasswordStrength(string(password), nil)
	return match.Score < minPassScore, match.CrackTimeDisplay
}

// GetPasswordWithRetry finds the passphrase for a vault and hands it to
// try. It looks in PWVAULT_PASSWORD, then the keyring entry for account,
// then prompts. A keyring entry that try rejects with a wrong passphrase
// is removed. Prompted passphrases are retried up to three times, paced
// by a rate limiter. The caller owns the returned passphrase.
func GetPasswordWithRetry(ctx context.Context, env *Env, prompt, account string, try func([]byte) error) ([]byte, PasswordSource, error) {
	if password := GetPasswordFromEnv(); password != nil {
		if err := try(password); err != nil {
			crypto.ClearBytes(password)
			return nil, SourceEnv, err
		}
		return password, SourceEnv, nil
	}

	if env.Config.Keyring && account != "" {
		stored, err := keyring.GetPassword(account)
		switch {
		case err == nil:
			password := []byte(stored)
			err = try(password)
			if err == nil {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			if !errors.Is(err, session.ErrWrongPassphrase) {
				return nil, SourceKeyring, err
			}
			fmt.Fprintln(os.Stderr, "Stored keyring passphrase is out of date, removing it")
			if err := keyring.DeletePassword(account); err != nil {
				env.Log.Warn(ctx, "keyring delete failed", "error", err)
			}
		case !errors.Is(err, keyring.ErrNotFound):
			env.Log.Debug(ctx, "keyring unavailable", "error", err)
		}
	}

	limiter := rate.NewLimiter(rate.Every(retryInterval), 1)
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, SourcePrompt, err
		}
		password, err := readPassword(prompt)
		if err != nil {
			return nil, SourcePrompt, err
		}
		err = try(password)
		if err == nil {
			return password, SourcePrompt, nil
		}
		crypto.ClearBytes(password)
		if !errors.Is(err, session.ErrWrongPassphrase) || attempt == maxAttempts {
			return nil, SourcePrompt, err
		}
		fmt.Fprintln(os.Stderr, "Wrong passphrase, try again")
	}
}

// OfferToSavePassword asks whether a prompted passphrase should go into
// the keyring
func OfferToSavePassword(env *Env, account string, password []byte) {
	if !env.Config.Keyring || account == "" || !term.IsTerminal(int(syscall.Stdin)) {
		return
	}
	if keyring.HasPassword(account) {
		return
	}

	fmt.Fprint(os.Stderr, "Save passphrase to keyring? [y/N]: ")
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return
	}

	if err := keyring.SavePassword(account, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Passphrase saved to keyring")
}
